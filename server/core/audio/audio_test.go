package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundpost/soundpost/server/core/ccc/logging"
	"github.com/soundpost/soundpost/server/core/ccc/process"
)

// fakeRunner records the command and simulates ffmpeg by writing the output file
type fakeRunner struct {
	calls      []process.Command
	output     []byte
	err        error
	writeFirst bool
}

func (f *fakeRunner) Run(ctx context.Context, cmd process.Command) (*process.Result, error) {
	f.calls = append(f.calls, cmd)
	out := cmd.Args[len(cmd.Args)-1]
	if f.output != nil || f.writeFirst {
		if err := os.WriteFile(out, f.output, 0644); err != nil {
			return nil, err
		}
	}
	if f.err != nil {
		return &process.Result{Stderr: "boom", ExitCode: 1}, f.err
	}
	return &process.Result{}, nil
}

func TestResolveProfile_Table(t *testing.T) {
	tests := []struct {
		name      string
		videoGain float64
		soundGain float64
	}{
		{"mix", 0.5, 0.5},
		{"background", 0.8, 0.2},
		{"main", 0.2, 0.8},
		{" Background ", 0.8, 0.2},
		{"MAIN", 0.2, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ResolveProfile(tt.name)
			assert.Equal(t, tt.videoGain, p.VideoGain)
			assert.Equal(t, tt.soundGain, p.SoundGain)
		})
	}
}

func TestResolveProfile_UnknownFallsBackToMix(t *testing.T) {
	for _, name := range []string{"", "loud", "mixx", "{{volume}}"} {
		p := ResolveProfile(name)
		assert.Equal(t, ProfileMix, p.Name, name)
		assert.Equal(t, 0.5, p.VideoGain)
		assert.Equal(t, 0.5, p.SoundGain)
	}

	_, ok := LookupProfile("loud")
	assert.False(t, ok)
	assert.Equal(t, []string{"mix", "background", "main"}, ProfileNames())
}

func TestBuildMixArgs(t *testing.T) {
	args := BuildMixArgs("in.mp4", "beat.mp3", "out.mp4", ResolveProfile("background"))

	assert.Equal(t, []string{
		"-y",
		"-i", "in.mp4",
		"-i", "beat.mp3",
		"-filter_complex", "[0:a]volume=0.8[a1];[1:a]volume=0.2[a2];[a1][a2]amix=inputs=2:duration=first[aout]",
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac",
		"out.mp4",
	}, args)
}

func TestFFmpegMixer_Success(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{output: []byte("mixed")}
	mixer := NewFFmpegMixer(logging.NopLogger, runner, MixerSettings{
		FFmpegPath: "/usr/bin/ffmpeg",
		OutputDir:  dir,
		Timeout:    time.Minute,
	})

	out, err := mixer.Mix(context.Background(), "/tmp/upload.MOV", "/sounds/beat.mp3", ResolveProfile("main"))

	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(out))
	assert.True(t, strings.HasSuffix(out, ".mov"), "output keeps the input container")
	assert.NotEqual(t, "/tmp/upload.MOV", out)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "/usr/bin/ffmpeg", runner.calls[0].Name)
	assert.Equal(t, time.Minute, runner.calls[0].Timeout)
	assert.Contains(t, runner.calls[0].Args, "[0:a]volume=0.2[a1];[1:a]volume=0.8[a2];[a1][a2]amix=inputs=2:duration=first[aout]")
}

func TestFFmpegMixer_NonZeroExitRemovesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	exitErr := process.NewExitError("ffmpeg", &process.Result{ExitCode: 1, Stderr: "Stream specifier ':a' matches no streams"})
	runner := &fakeRunner{writeFirst: true, output: []byte("partial"), err: exitErr}
	mixer := NewFFmpegMixer(nil, runner, MixerSettings{OutputDir: dir})

	out, err := mixer.Mix(context.Background(), "in.mp4", "beat.mp3", DefaultProfile)

	require.Error(t, err)
	assert.Empty(t, out)
	assert.True(t, IsMixError(err))
	assert.Contains(t, err.Error(), "Stream specifier ':a' matches no streams")

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "partial output must be removed")
}

func TestFFmpegMixer_Timeout(t *testing.T) {
	timeoutErr := process.NewTimeoutError("ffmpeg", 2*time.Second, nil)
	mixer := NewFFmpegMixer(nil, &fakeRunner{err: timeoutErr}, MixerSettings{OutputDir: t.TempDir()})

	_, err := mixer.Mix(context.Background(), "in.mp4", "beat.mp3", DefaultProfile)

	require.Error(t, err)
	assert.True(t, IsMixError(err))
	assert.True(t, process.IsTimeoutError(err))
	assert.Contains(t, err.Error(), "timed out after 2s")
}

func TestFFmpegMixer_EmptyOutputIsAnError(t *testing.T) {
	mixer := NewFFmpegMixer(nil, &fakeRunner{}, MixerSettings{OutputDir: t.TempDir()})

	_, err := mixer.Mix(context.Background(), "in.mp4", "beat.mp3", DefaultProfile)

	assert.True(t, IsMixError(err))
}

func TestFFmpegMixer_StartFailure(t *testing.T) {
	mixer := NewFFmpegMixer(nil, &fakeRunner{err: errors.New("executable file not found")}, MixerSettings{OutputDir: t.TempDir()})

	_, err := mixer.Mix(context.Background(), "in.mp4", "beat.mp3", DefaultProfile)

	assert.True(t, IsMixError(err))
	assert.Contains(t, err.Error(), "executable file not found")
}

func TestDirSoundLibrary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beat.mp3"), []byte("id3"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.mp3"), 0755))
	lib := NewDirSoundLibrary(dir)

	path, err := lib.Resolve("beat")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "beat.mp3"), path)

	_, err = lib.Resolve("missing")
	assert.True(t, IsSoundNotFoundError(err))
	assert.EqualError(t, err, "Sound file not found: missing")

	_, err = lib.Resolve("folder")
	assert.True(t, IsSoundNotFoundError(err))

	_, err = lib.Resolve("../etc/passwd")
	assert.Error(t, err)
	assert.False(t, IsSoundNotFoundError(err))

	names, err := lib.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"beat"}, names)
}

func TestDirSoundLibrary_MissingDirectoryListsNothing(t *testing.T) {
	names, err := NewDirSoundLibrary(filepath.Join(t.TempDir(), "nope")).List()

	require.NoError(t, err)
	assert.Empty(t, names)
}
