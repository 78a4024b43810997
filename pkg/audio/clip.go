// Package audio plays the posture checker's sound clips.
//
// Playback is a blocking "play this clip to completion" call behind the
// Player interface. One-shot cues go through a CueQueue so callers never
// wait on a speaker; the repeating alarm is driven by package alert.
package audio

import (
	"fmt"
	"path/filepath"
	"sync"
)

// Clip names a sound in the library.
type Clip string

const (
	ClipStandUp    Clip = "stand_up"    // Played once when the user stands up
	ClipBadPosture Clip = "bad_posture" // Short siren per detection
	ClipAlarm      Clip = "alarm"       // Long siren repeated by the alarm loop
)

// DefaultFiles maps each clip to its file name in the sound directory.
var DefaultFiles = map[Clip]string{
	ClipStandUp:    "reset.wav",
	ClipBadPosture: "siren_short.wav",
	ClipAlarm:      "siren_long.wav",
}

// Library resolves clips to files.
type Library struct {
	mu    sync.RWMutex
	dir   string
	files map[Clip]string
}

// NewLibrary creates a library rooted at dir with the default file names.
func NewLibrary(dir string) *Library {
	files := make(map[Clip]string, len(DefaultFiles))
	for clip, name := range DefaultFiles {
		files[clip] = name
	}
	return &Library{dir: dir, files: files}
}

// Set overrides the file for clip. Relative names resolve against the library dir.
func (l *Library) Set(clip Clip, file string) {
	l.mu.Lock()
	l.files[clip] = file
	l.mu.Unlock()
}

// Path returns the file path for clip.
func (l *Library) Path(clip Clip) (string, error) {
	l.mu.RLock()
	name, ok := l.files[clip]
	l.mu.RUnlock()
	if !ok || name == "" {
		return "", fmt.Errorf("%w: %s", ErrNoClip, clip)
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	return filepath.Join(l.dir, name), nil
}
