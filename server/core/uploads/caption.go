package uploads

import (
	"strings"

	"github.com/samber/lo"
)

// BuildCaption renders the description followed by the hashtags as #tag tokens
func BuildCaption(description string, hashtags []string) string {
	tokens := lo.Map(hashtags, func(tag string, _ int) string {
		return "#" + tag
	})

	parts := make([]string, 0, len(tokens)+1)
	if description != "" {
		parts = append(parts, description)
	}
	parts = append(parts, tokens...)

	return strings.Join(parts, " ")
}
