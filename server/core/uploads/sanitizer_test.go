package uploads

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundpost/soundpost/server/core/audio"
)

func validForm() RawUploadForm {
	return RawUploadForm{
		Video:         strings.NewReader("video"),
		FileName:      "clip.mp4",
		Size:          5,
		Description:   "hello world",
		AccountName:   "demo",
		Hashtags:      "go,video",
		VolumeProfile: "mix",
	}
}

func TestSanitize_Valid(t *testing.T) {
	form := validForm()
	form.FileName = "Clip.MOV"
	form.Description = ` "hello world" `
	form.AccountName = "{{demo}}"
	form.Hashtags = " #go, 'video' ,, {{tag}} ,#"
	form.SoundName = "'beat'"
	form.VolumeProfile = "{{Background}}"

	req, err := Sanitize(form)

	require.NoError(t, err)
	assert.Equal(t, "Clip.MOV", req.FileName)
	assert.Equal(t, ".mov", req.Extension)
	assert.Equal(t, "hello world", req.Description)
	assert.Equal(t, "demo", req.AccountName)
	assert.Equal(t, []string{"go", "video", "tag"}, req.Hashtags)
	assert.Equal(t, "beat", req.SoundName)
	assert.True(t, req.HasSound())
	assert.Equal(t, audio.ProfileBackground, req.Profile.Name)
}

func TestSanitize_DefaultsAndFallbacks(t *testing.T) {
	form := validForm()
	form.Hashtags = ""
	form.VolumeProfile = "loudest"
	form.Size = -1

	req, err := Sanitize(form)

	require.NoError(t, err)
	assert.Empty(t, req.Hashtags)
	assert.False(t, req.HasSound())
	assert.Equal(t, audio.ProfileMix, req.Profile.Name)
	assert.Equal(t, 0.5, req.Profile.VideoGain)
	assert.Equal(t, 0.5, req.Profile.SoundGain)
}

func TestSanitize_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *RawUploadForm)
		message string
	}{
		{"no video", func(f *RawUploadForm) { f.Video = nil }, msgNoVideo},
		{"no file name", func(f *RawUploadForm) { f.FileName = "  " }, msgNoVideo},
		{"text file", func(f *RawUploadForm) { f.FileName = "clip.txt" }, msgInvalidFileType},
		{"no extension", func(f *RawUploadForm) { f.FileName = "clip" }, msgInvalidFileType},
		{"disguised extension", func(f *RawUploadForm) { f.FileName = "clip.mp4.exe" }, msgInvalidFileType},
		{"empty video", func(f *RawUploadForm) { f.Size = 0 }, msgEmptyVideo},
		{"missing account", func(f *RawUploadForm) { f.AccountName = "" }, msgNoAccount},
		{"placeholder account", func(f *RawUploadForm) { f.AccountName = ` "{{}}" ` }, msgNoAccount},
		{"account traversal", func(f *RawUploadForm) { f.AccountName = "x/../evil" }, msgInvalidAccount},
		{"account parent dir", func(f *RawUploadForm) { f.AccountName = ".." }, msgInvalidAccount},
		{"account with backslash", func(f *RawUploadForm) { f.AccountName = `x\evil` }, msgInvalidAccount},
		{"sound with slash", func(f *RawUploadForm) { f.SoundName = "../beat" }, msgInvalidSound},
		{"sound with backslash", func(f *RawUploadForm) { f.SoundName = `a\b` }, msgInvalidSound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)

			req, err := Sanitize(form)

			assert.Nil(t, req)
			assert.True(t, IsValidationError(err))
			assert.EqualError(t, err, tt.message)
		})
	}
}

func TestSanitizeText_Idempotent(t *testing.T) {
	assert.Equal(t, "tag", SanitizeText(`"'tag'"`))

	for _, clean := range []string{"", "tag", "hello world", "it's fine", "a {b} c"} {
		assert.Equal(t, clean, SanitizeText(clean))
		assert.Equal(t, SanitizeText(clean), SanitizeText(SanitizeText(clean)))
	}

	for _, dirty := range []string{` "'x'" `, "`y`", "'{z}'"} {
		once := SanitizeText(dirty)
		assert.Equal(t, once, SanitizeText(once))
	}
}

func TestBuildCaption(t *testing.T) {
	assert.Equal(t, "hello", BuildCaption("hello", nil))
	assert.Equal(t, "hello #go #video", BuildCaption("hello", []string{"go", "video"}))
	assert.Equal(t, "#go", BuildCaption("", []string{"go"}))
	assert.Equal(t, "", BuildCaption("", nil))
}
