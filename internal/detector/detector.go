package detector

import (
	"image"
	"strconv"

	"gocv.io/x/gocv"
)

// Detector finds hands in a frame. An empty slice means no hands.
type Detector interface {
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)
	Close() error
}

// FaceReader estimates the emotion of the dominant face in a frame.
type FaceReader interface {
	// Read returns the emotion probabilities and the face box. ok is false
	// when no face was found.
	Read(frame *gocv.Mat) (e Emotions, box image.Rectangle, ok bool, err error)
	Close() error
}

// Config starts the MediaPipe hands service.
type Config struct {
	ScriptPath string
	// Python runs ScriptPath; empty means python3.
	Python string

	MaxHands        int
	MinConfidence   float64
	MinTrackingConf float64
}

// ServiceConfig returns the settings the air piano runs the hands service
// with: both hands, and a detection threshold a little above MediaPipe's
// default so a half-visible hand does not flicker in and out.
func ServiceConfig(script string) Config {
	return Config{
		ScriptPath:      script,
		Python:          "python3",
		MaxHands:        2,
		MinConfidence:   0.6,
		MinTrackingConf: 0.5,
	}
}

// args are the service's command line after the script path.
func (c Config) args() []string {
	return []string{
		c.ScriptPath,
		"--max-hands", strconv.Itoa(c.MaxHands),
		"--min-detection", strconv.FormatFloat(c.MinConfidence, 'f', 2, 64),
		"--min-tracking", strconv.FormatFloat(c.MinTrackingConf, 'f', 2, 64),
	}
}
