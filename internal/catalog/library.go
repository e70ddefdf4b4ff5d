package catalog

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ayusman/pianogames/internal/expression"
	"github.com/ayusman/pianogames/internal/tempo"
)

var (
	// ErrBadPath is returned for a key or file name that would leave the library.
	ErrBadPath = errors.New("invalid library path")
	// ErrEmptyKey is returned when a key folder holds no MIDI files.
	ErrEmptyKey = errors.New("no MIDI files for key")
)

// Library is a folder of per-key subfolders (C, Cs, D, ... B) of MIDI files.
type Library struct {
	Root string
}

// IsMIDI reports whether name has a MIDI file extension.
func IsMIDI(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".mid" || ext == ".midi"
}

// List returns the MIDI files of one key folder, sorted. A missing folder is
// an empty list.
func (l Library) List(key string) ([]string, error) {
	if _, ok := expression.KeyPC(key); !ok {
		return nil, fmt.Errorf("%w: unknown key %q", ErrBadPath, key)
	}
	entries, err := os.ReadDir(filepath.Join(l.Root, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", key, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && IsMIDI(e.Name()) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// Files lists every key folder that holds MIDI files.
func (l Library) Files() (map[string][]string, error) {
	out := make(map[string][]string)
	for _, key := range expression.Keys {
		files, err := l.List(key)
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			out[key] = files
		}
	}
	return out, nil
}

// Resolve returns the path of file inside key's folder. Names that carry a
// directory part are rejected.
func (l Library) Resolve(key, file string) (string, error) {
	if _, ok := expression.KeyPC(key); !ok {
		return "", fmt.Errorf("%w: unknown key %q", ErrBadPath, key)
	}
	if file == "" || file != filepath.Base(file) || strings.ContainsAny(file, `/\`) || file == ".." || file == "." {
		return "", fmt.Errorf("%w: %q", ErrBadPath, file)
	}
	if !IsMIDI(file) {
		return "", fmt.Errorf("%w: %q is not a MIDI file", ErrBadPath, file)
	}
	return filepath.Join(l.Root, key, file), nil
}

// Random picks a file of key.
func (l Library) Random(rng *rand.Rand, key string) (string, error) {
	files, err := l.List(key)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w %s", ErrEmptyKey, key)
	}
	return l.Resolve(key, files[rng.Intn(len(files))])
}

// Info summarizes a MIDI file.
type Info struct {
	Tracks   int           `json:"tracks"`
	Events   int           `json:"events"`
	BPM      float64       `json:"bpm"`
	Duration time.Duration `json:"duration"`
}

// Inspect reads a MIDI file and summarizes it.
func Inspect(path string) (Info, error) {
	score, err := tempo.ReadScore(path)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Tracks:   score.Tracks,
		Events:   len(score.Events),
		BPM:      score.BaseBPM,
		Duration: score.Duration(),
	}, nil
}
