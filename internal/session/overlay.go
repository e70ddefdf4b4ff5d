package session

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Preview window keys.
const (
	KeyPause = 'p'
	KeyMood  = 'm'
	KeyQuit  = 'q'
	KeyEsc   = 27
)

// HandleKey reacts to a preview window key press and reports whether the
// player asked to quit. Unknown keys are ignored.
func (s *Session) HandleKey(key int) (quit bool) {
	switch key {
	case KeyPause:
		s.TogglePause()
	case KeyMood:
		s.RequestMood()
	case KeyQuit, KeyEsc:
		return true
	}
	return false
}

// DrawOverlay paints the particles and a status line onto frame.
func DrawOverlay(frame *gocv.Mat, st State, parts []Particle) {
	if frame == nil || frame.Empty() {
		return
	}

	if len(parts) > 0 {
		layer := frame.Clone()
		for _, p := range parts {
			size := max(1, p.Size)
			axes := image.Pt(size, max(1, int(float64(size)*0.6)))
			angle := (1 - p.Alpha()) * 180
			c := color.RGBA{R: p.R, G: p.G, B: p.B, A: 255}
			gocv.Ellipse(&layer, image.Pt(int(p.X), int(p.Y)), axes, angle, 0, 360, c, -1)
		}
		gocv.AddWeighted(layer, 0.35, *frame, 0.65, 0, frame)
		layer.Close()
	}

	status := fmt.Sprintf("%s  %d/%d  %s", st.Progression, st.Step+1, st.Steps, st.Chord)
	if st.Paused {
		status += "  [paused]"
	}
	gocv.PutText(frame, status, image.Pt(12, 28), gocv.FontHersheySimplex, 0.8,
		color.RGBA{R: 255, G: 255, B: 255, A: 255}, 2)
}
