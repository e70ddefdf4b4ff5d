// Package capture reads the games' sensors: webcam frames through GoCV and
// audio blocks from a microphone or a WAV file.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/pianogames/internal/faults"
	"github.com/ayusman/pianogames/internal/logging"
)

var (
	// ErrCameraNotOpen ends a frame loop: the camera was closed under it.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrNoFrame is returned when the device delivered nothing this time.
	// Loops skip the frame and try again.
	ErrNoFrame = errors.New("camera returned no frame")
)

// Camera is a frame source the games open once per run. ReadFrame hands the
// caller a Mat it must close.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	IsOpen() bool
}

// Mode is what the webcam is asked for. Drivers may deliver something else.
type Mode struct {
	Width, Height int
	FPS           int
}

// GameMode is small enough for hand tracking to keep up at the frame rate.
var GameMode = Mode{Width: 640, Height: 480, FPS: 30}

// Webcam is a Camera on a local video device.
type Webcam struct {
	id   int
	mode Mode

	mu  sync.Mutex
	dev *gocv.VideoCapture
}

// NewWebcam returns a closed webcam for device id.
func NewWebcam(id int, mode Mode) *Webcam {
	return &Webcam{id: id, mode: mode}
}

// OpenFirst opens the first device in ids that works, in GameMode. It returns
// the open camera and the id that was used.
func OpenFirst(ids []int, logger *zap.Logger) (Camera, int, error) {
	logger = logging.OrNop(logger)
	if len(ids) == 0 {
		ids = []int{0}
	}
	var errs []error
	for _, id := range ids {
		cam := NewWebcam(id, GameMode)
		if err := cam.Open(); err != nil {
			logger.Debug("camera unavailable", zap.Int("id", id), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		logger.Info("camera opened", zap.Int("id", id))
		return cam, id, nil
	}
	return nil, -1, faults.Device(errors.Join(errs...), "camera",
		fmt.Sprintf("no camera among %v could be opened", ids))
}

func (w *Webcam) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dev != nil {
		return nil
	}

	what := fmt.Sprintf("camera %d", w.id)
	dev, err := gocv.OpenVideoCapture(w.id)
	if err != nil {
		return faults.Device(err, what, "check that a webcam is connected")
	}
	if !dev.IsOpened() {
		dev.Close()
		return faults.Device(fmt.Errorf("device %d did not open", w.id), what, "check that a webcam is connected")
	}
	if w.mode.Width > 0 && w.mode.Height > 0 {
		dev.Set(gocv.VideoCaptureFrameWidth, float64(w.mode.Width))
		dev.Set(gocv.VideoCaptureFrameHeight, float64(w.mode.Height))
	}
	if w.mode.FPS > 0 {
		dev.Set(gocv.VideoCaptureFPS, float64(w.mode.FPS))
	}
	w.dev = dev
	return nil
}

// Close releases the device. Closing twice is fine.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dev == nil {
		return nil
	}
	err := w.dev.Close()
	w.dev = nil
	return err
}

func (w *Webcam) ReadFrame() (*gocv.Mat, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dev == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := w.dev.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrNoFrame
	}
	return &mat, nil
}

func (w *Webcam) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dev != nil
}
