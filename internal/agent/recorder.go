package agent

import (
	"errors"
	"strings"
	"sync"
)

// Recorder is a voice capture session. Audio arrives as base64 chunks
// between Start and Stop. It must be released on drawer close or
// navigation away, whether or not a recording is in progress; Release is
// safe to call any number of times.
type Recorder struct {
	mu     sync.Mutex
	active bool
	chunks []string
}

var errNotRecording = errors.New("no recording in progress")

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Start opens a capture session, discarding any previous chunks.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return errors.New("recording already in progress")
	}
	r.active = true
	r.chunks = nil
	return nil
}

// Push appends one base64 audio chunk to the open session.
func (r *Recorder) Push(chunk string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return errNotRecording
	}
	r.chunks = append(r.chunks, chunk)
	return nil
}

// Stop closes the session and returns the accumulated audio.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return "", errNotRecording
	}
	r.active = false
	audio := strings.Join(r.chunks, "")
	r.chunks = nil
	return audio, nil
}

// Release stops and discards any capture in progress.
func (r *Recorder) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	r.chunks = nil
}

// Recording reports whether a capture session is open.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}
