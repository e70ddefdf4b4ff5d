package server

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Stream pacing.
const (
	streamInterval = 66 * time.Millisecond // ~15 FPS
	retryInterval  = 100 * time.Millisecond
)

// FrameSource supplies preview frames. capture.Camera implements it. The
// caller owns and closes each returned frame.
type FrameSource interface {
	ReadFrame() (*gocv.Mat, error)
}

// StreamHandler serves MJPEG frames from a camera.
type StreamHandler struct {
	src FrameSource
	log *zap.Logger
}

// NewStreamHandler creates a new StreamHandler reading from src.
func NewStreamHandler(src FrameSource, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{src: src, log: logger}
}

// ServeHTTP streams MJPEG frames until the client disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	for {
		wait := streamInterval
		if err := h.writeFrame(w); err != nil {
			h.log.Debug("preview frame skipped", zap.Error(err))
			wait = retryInterval
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (h *StreamHandler) writeFrame(w http.ResponseWriter) error {
	frame, err := h.src.ReadFrame()
	if err != nil {
		return err
	}
	buf, err := gocv.IMEncode(".jpg", *frame)
	frame.Close()
	if err != nil {
		return err
	}
	defer buf.Close()

	fmt.Fprintf(w, "--frame\r\n")
	fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
	fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
	w.Write(buf.GetBytes())
	fmt.Fprintf(w, "\r\n")

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
