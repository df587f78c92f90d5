package uploads

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/soundpost/soundpost/server/core/audio"
)

const (
	msgNoVideo         = "No video file provided"
	msgInvalidFileType = "Invalid file type: only mp4 and mov files are allowed"
	msgNoAccount       = "Account name is required"
	msgInvalidAccount  = "Invalid account name"
	msgInvalidSound    = "Invalid sound name"
	msgEmptyVideo      = "Video file is empty"
)

// textCutset holds the characters stripped from both ends of free-text fields
const textCutset = " \t\r\n\"'`“”‘’"

// identifierCutset additionally strips unfilled template placeholders such as {{account}}
const identifierCutset = textCutset + "{}"

var allowedExtensions = []string{".mp4", ".mov"}

// RawUploadForm is the upload request exactly as received
type RawUploadForm struct {
	Video         io.Reader
	FileName      string
	Size          int64 // negative when unknown
	Description   string
	AccountName   string
	Hashtags      string
	SoundName     string
	VolumeProfile string
}

// UploadRequest is a validated and normalized upload
type UploadRequest struct {
	Video       io.Reader
	FileName    string
	Extension   string
	Description string
	AccountName string
	Hashtags    []string
	SoundName   string
	Profile     audio.VolumeProfile
}

// HasSound reports whether the upload asks for audio enrichment
func (r *UploadRequest) HasSound() bool {
	return r.SoundName != ""
}

// Sanitize validates form and normalizes its fields. It has no side effects.
func Sanitize(form RawUploadForm) (*UploadRequest, error) {
	fileName := filepath.Base(strings.TrimSpace(form.FileName))
	if form.Video == nil || fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, NewValidationError(msgNoVideo)
	}

	if !IsAllowedVideoName(fileName) {
		return nil, NewValidationError(msgInvalidFileType)
	}
	if form.Size == 0 {
		return nil, NewValidationError(msgEmptyVideo)
	}

	account := sanitizeIdentifier(form.AccountName)
	if account == "" {
		return nil, NewValidationError(msgNoAccount)
	}
	if !isPlainName(account) {
		return nil, NewValidationError(msgInvalidAccount)
	}

	sound := sanitizeIdentifier(form.SoundName)
	if sound != "" && !isPlainName(sound) {
		return nil, NewValidationError(msgInvalidSound)
	}

	return &UploadRequest{
		Video:       form.Video,
		FileName:    fileName,
		Extension:   strings.ToLower(filepath.Ext(fileName)),
		Description: SanitizeText(form.Description),
		AccountName: account,
		Hashtags:    ParseHashtags(form.Hashtags),
		SoundName:   sound,
		Profile:     audio.ResolveProfile(sanitizeIdentifier(form.VolumeProfile)),
	}, nil
}

// IsAllowedVideoName reports whether name has an mp4 or mov extension, in any case
func IsAllowedVideoName(name string) bool {
	return lo.Contains(allowedExtensions, strings.ToLower(filepath.Ext(name)))
}

// SanitizeText strips surrounding whitespace and quote characters. Clean input
// is returned unchanged.
func SanitizeText(s string) string {
	return strings.Trim(s, textCutset)
}

// isPlainName reports whether s can be used as a single path element
func isPlainName(s string) bool {
	return !strings.ContainsAny(s, "/\\\x00") && !strings.Contains(s, "..")
}

func sanitizeIdentifier(s string) string {
	return strings.Trim(s, identifierCutset)
}

// ParseHashtags splits a comma separated list into bare tags, in order.
// Empty entries are dropped and a leading '#' is removed.
func ParseHashtags(raw string) []string {
	return lo.FilterMap(strings.Split(raw, ","), func(item string, _ int) (string, bool) {
		tag := sanitizeIdentifier(strings.TrimLeft(sanitizeIdentifier(item), "#"))
		return tag, tag != ""
	})
}
