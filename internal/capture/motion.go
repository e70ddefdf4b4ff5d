package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MotionMeter measures how much consecutive frames differ. The raw motion of
// a frame is the mean absolute grayscale difference from the previous frame,
// so it ranges over 0..255.
type MotionMeter struct {
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionMeter creates a meter with no baseline frame.
func NewMotionMeter() *MotionMeter {
	return &MotionMeter{prevGray: gocv.NewMat()}
}

// Measure returns the raw motion of frame. The first frame after creation or
// Reset only sets the baseline and reports ok=false.
func (m *MotionMeter) Measure(frame *gocv.Mat) (raw float64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return 0, false
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	if !m.initialized || gray.Rows() != m.prevGray.Rows() || gray.Cols() != m.prevGray.Cols() {
		gray.CopyTo(&m.prevGray)
		m.initialized = true
		return 0, false
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray, m.prevGray, &diff)
	raw = diff.Mean().Val1

	gray.CopyTo(&m.prevGray)
	return raw, true
}

// Reset drops the baseline frame.
func (m *MotionMeter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = false
}

// Close releases the baseline frame.
func (m *MotionMeter) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prevGray.Close()
	m.prevGray = gocv.NewMat()
	m.initialized = false
}
