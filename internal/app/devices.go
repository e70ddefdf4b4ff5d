package app

import (
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/pianogames/internal/capture"
	"github.com/ayusman/pianogames/internal/config"
	"github.com/ayusman/pianogames/internal/detector"
	"github.com/ayusman/pianogames/internal/midiout"
)

// Window is a preview window. *gocv.Window implements it.
type Window interface {
	IMShow(img gocv.Mat)
	WaitKey(delay int) int
	Close() error
}

// Devices opens the hardware a game uses. Tests replace them with mocks.
type Devices struct {
	Output  func(preferred []string) (midiout.Sender, error)
	Outputs func() ([]string, error)
	Camera  func(ids []int) (capture.Camera, int, error)
	Hands   func(cfg detector.Config) (detector.Detector, error)
	Face    func(cascade, model string) (detector.FaceReader, error)
	Audio   func(cfg config.Singing, wavPath string) (capture.AudioSource, error)
	// Window opens a preview window; nil runs without one.
	Window func(title string) Window
}

// HardwareDevices opens real ports, cameras and microphones.
func HardwareDevices(logger *zap.Logger) Devices {
	return Devices{}.orHardware(logger)
}

func (d Devices) orHardware(logger *zap.Logger) Devices {
	if d.Output == nil {
		d.Output = func(preferred []string) (midiout.Sender, error) {
			return midiout.Open(preferred, logger)
		}
	}
	if d.Outputs == nil {
		d.Outputs = midiout.ListOutputs
	}
	if d.Camera == nil {
		d.Camera = func(ids []int) (capture.Camera, int, error) {
			return capture.OpenFirst(ids, logger)
		}
	}
	if d.Hands == nil {
		d.Hands = func(cfg detector.Config) (detector.Detector, error) {
			return detector.NewMediaPipeDetector(cfg, logger)
		}
	}
	if d.Face == nil {
		d.Face = func(cascade, model string) (detector.FaceReader, error) {
			return detector.NewFaceClassifier(cascade, model, logger)
		}
	}
	if d.Audio == nil {
		d.Audio = func(cfg config.Singing, wavPath string) (capture.AudioSource, error) {
			if wavPath != "" {
				return capture.OpenWAV(wavPath, cfg.BlockSize, true)
			}
			return capture.OpenMicrophone(cfg.SampleRate, cfg.BlockSize, logger)
		}
	}
	return d
}

// GUIWindow opens a HighGUI window.
func GUIWindow(title string) Window {
	return gocv.NewWindow(title)
}
