package audio

import (
	"strings"
)

// VolumeProfile is a named pair of gains applied to the video's own audio track
// and to the overlay sound before the two are mixed.
type VolumeProfile struct {
	Name      string
	VideoGain float64
	SoundGain float64
}

const (
	ProfileMix        = "mix"
	ProfileBackground = "background"
	ProfileMain       = "main"
)

var profiles = map[string]VolumeProfile{
	ProfileMix:        {Name: ProfileMix, VideoGain: 0.5, SoundGain: 0.5},
	ProfileBackground: {Name: ProfileBackground, VideoGain: 0.8, SoundGain: 0.2},
	ProfileMain:       {Name: ProfileMain, VideoGain: 0.2, SoundGain: 0.8},
}

// DefaultProfile is used for empty or unknown profile names
var DefaultProfile = profiles[ProfileMix]

// ResolveProfile looks up a profile by name, case-insensitively.
// Unknown names resolve to the mix profile.
func ResolveProfile(name string) VolumeProfile {
	if p, ok := LookupProfile(name); ok {
		return p
	}
	return DefaultProfile
}

// LookupProfile reports whether name is one of the fixed profiles.
func LookupProfile(name string) (VolumeProfile, bool) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// ProfileNames lists the known profile names in a stable order
func ProfileNames() []string {
	return []string{ProfileMix, ProfileBackground, ProfileMain}
}
