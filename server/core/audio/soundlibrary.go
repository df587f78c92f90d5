package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SoundExtension is the file extension of every sound in the library
const SoundExtension = ".mp3"

// SoundLibrary resolves sound names to files in a directory
type SoundLibrary interface {
	// Resolve returns the path of the named sound or a *SoundNotFoundError
	Resolve(name string) (string, error)
	// List returns the names of all available sounds
	List() ([]string, error)
}

// DirSoundLibrary implements SoundLibrary over <dir>/<name>.mp3 files
type DirSoundLibrary struct {
	dir string
}

// NewDirSoundLibrary creates a library rooted at dir
func NewDirSoundLibrary(dir string) *DirSoundLibrary {
	return &DirSoundLibrary{dir: dir}
}

// Resolve implements SoundLibrary
func (l *DirSoundLibrary) Resolve(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid sound name %q", name)
	}

	path := filepath.Join(l.dir, name+SoundExtension)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", NewSoundNotFoundError(name)
		}
		return "", fmt.Errorf("failed to stat sound file: %w", err)
	}
	if info.IsDir() {
		return "", NewSoundNotFoundError(name)
	}

	return path, nil
}

// List implements SoundLibrary
func (l *DirSoundLibrary) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read sounds directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), SoundExtension) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
	}
	sort.Strings(names)

	return names, nil
}
