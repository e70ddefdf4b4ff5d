package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface. Queued
// results are returned one per Detect call; once the queue drains the last
// configured hands repeat.
type MockDetector struct {
	mu    sync.Mutex
	queue [][]HandLandmarks
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// Push queues one Detect result.
func (m *MockDetector) Push(hands ...HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, hands)
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect ran.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next queued hands, the configured hands, or the error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.queue) > 0 {
		m.hands = m.queue[0]
		m.queue = m.queue[1:]
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// HandPose builds landmarks for a hand whose wrist sits at (wristX, 0.8).
// Fingers are listed thumb first; a true entry curls that finger to about
// 45 degrees at its middle joint (90 for the thumb), a false one leaves it
// straight at 180.
func HandPose(handedness string, wristX float64, curled [5]bool) HandLandmarks {
	h := HandLandmarks{Handedness: handedness, Score: 0.95}
	h.Points[Wrist] = Point3D{X: wristX, Y: 0.8}

	for f := 0; f < 5; f++ {
		base := 1 + 4*f
		x := wristX + float64(f-2)*0.04
		if curled[f] {
			h.Points[base] = Point3D{X: x, Y: 0.7}
			h.Points[base+1] = Point3D{X: x, Y: 0.6}
			h.Points[base+2] = Point3D{X: x + 0.05, Y: 0.6}
			h.Points[base+3] = Point3D{X: x + 0.05, Y: 0.65}
			continue
		}
		for k := 0; k < 4; k++ {
			h.Points[base+k] = Point3D{X: x, Y: 0.7 - 0.05*float64(k)}
		}
	}
	return h
}

// OpenPalmLandmarks returns a right hand with every finger extended.
func OpenPalmLandmarks() HandLandmarks {
	return HandPose(Right, 0.5, [5]bool{})
}

// FistLandmarks returns a right hand with every finger curled.
func FistLandmarks() HandLandmarks {
	return HandPose(Right, 0.5, [5]bool{true, true, true, true, true})
}
