package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera plays back prepared frames in place of a webcam. Reopening it
// rewinds to the first frame.
type MockCamera struct {
	mu     sync.Mutex
	frames []*gocv.Mat
	loop   bool
	open   bool
	next   int
	reads  int
}

// NewMockCamera serves frames in order. With loop set the sequence repeats;
// otherwise ReadFrame reports ErrNoFrame once it runs out.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{frames: frames, loop: loop}
}

func (m *MockCamera) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open, m.next = true, 0
	return nil
}

func (m *MockCamera) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
	return nil
}

// ReadFrame returns a clone the caller owns.
func (m *MockCamera) ReadFrame() (*gocv.Mat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.open {
		return nil, ErrCameraNotOpen
	}
	m.reads++

	n := len(m.frames)
	if n == 0 || (!m.loop && m.next >= n) {
		return nil, ErrNoFrame
	}
	frame := m.frames[m.next%n].Clone()
	m.next++
	return &frame, nil
}

func (m *MockCamera) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Reads counts ReadFrame calls made while open.
func (m *MockCamera) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}
