package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/pianogames/internal/capture"
	"github.com/ayusman/pianogames/internal/detector"
	"github.com/ayusman/pianogames/internal/expression"
	"github.com/ayusman/pianogames/internal/session"
	"github.com/ayusman/pianogames/internal/tempo"
)

// Pipeline timing constants.
const (
	// FrameFPS is the rate at which the loops below read the camera.
	FrameFPS = 30
	// FaceFPS is the emotion classifier rate; it is much slower than capture.
	FaceFPS = 5
	// MotionPublishEvery is how many frames pass between conductor updates to the hub.
	MotionPublishEvery = 10
)

// frameLoop reads the camera at fps and hands each frame to fn, which must
// not keep it. Missing frames are skipped. It returns when ctx ends, when fn
// returns false, or when the camera is closed.
func frameLoop(ctx context.Context, cam capture.Camera, fps int, log *zap.Logger, fn func(frame *gocv.Mat) bool) error {
	ticker := time.NewTicker(time.Second / time.Duration(max(1, fps)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			frame, err := cam.ReadFrame()
			if errors.Is(err, capture.ErrCameraNotOpen) {
				return err
			}
			if err != nil {
				log.Debug("frame skipped", zap.Error(err))
				continue
			}
			more := fn(frame)
			frame.Close()
			if !more {
				return nil
			}
		}
	}
}

// airPianoPipeline feeds detected hands to the session and drives the
// preview window. A window key can end the game; cancel is called then.
type airPianoPipeline struct {
	sess   *session.Session
	det    detector.Detector
	mirror bool
	window Window
	cancel context.CancelFunc
	log    *zap.Logger
}

func (p *airPianoPipeline) handle(frame *gocv.Mat) bool {
	if p.mirror {
		gocv.Flip(*frame, frame, 1)
	}

	hands, err := p.det.Detect(frame)
	if err != nil {
		p.log.Debug("hand detection failed", zap.Error(err))
		hands = nil
	}
	if !p.sess.Submit(session.FrameEvent{
		Hands:  hands,
		Width:  frame.Cols(),
		Height: frame.Rows(),
		At:     time.Now(),
	}) {
		p.log.Debug("frame dropped; session is behind")
	}

	if p.window == nil {
		return true
	}
	session.DrawOverlay(frame, p.sess.Snapshot(), p.sess.Particles())
	p.window.IMShow(*frame)
	if key := p.window.WaitKey(1); key >= 0 && p.sess.HandleKey(key) {
		p.cancel()
		return false
	}
	return true
}

// motionWatcher turns camera frames into the conductor's smoothed motion
// level.
type motionWatcher struct {
	meter    *capture.MotionMeter
	smoother *tempo.Smoother
	onLevel  func(level float64)
	frames   int
}

func (w *motionWatcher) handle(frame *gocv.Mat) bool {
	raw, ok := w.meter.Measure(frame)
	if !ok {
		return true
	}
	level := w.smoother.Add(raw)
	w.frames++
	if w.onLevel != nil && w.frames%MotionPublishEvery == 0 {
		w.onLevel(level)
	}
	return true
}

// faceWatcher updates the mood from the emotion classifier.
type faceWatcher struct {
	face detector.FaceReader
	mood *expression.Mood
	log  *zap.Logger
	// onMood is told the new scores after each face reading.
	onMood func(happy, special float64)
}

func (w *faceWatcher) handle(frame *gocv.Mat) bool {
	e, _, ok, err := w.face.Read(frame)
	if err != nil {
		w.log.Debug("emotion reading failed", zap.Error(err))
		return true
	}
	if !ok {
		return true
	}
	w.mood.SetEmotions(e)
	if w.onMood != nil {
		w.onMood(w.mood.Get())
	}
	return true
}
