package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/mjibson/go-dsp/wav"
	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/faults"
	"github.com/ayusman/pianogames/internal/logging"
)

// AudioSource delivers mono blocks of samples in -1..1. ReadBlock returns
// io.EOF when the source is exhausted.
type AudioSource interface {
	ReadBlock(ctx context.Context) ([]float64, error)
	SampleRate() int
	Close() error
}

// Microphone reads the default input device through PortAudio.
type Microphone struct {
	stream *portaudio.Stream
	buf    []float32
	rate   int
	log    *zap.Logger

	mu     sync.Mutex
	closed bool
}

// OpenMicrophone starts a blocking mono input stream.
func OpenMicrophone(sampleRate, blockSize int, logger *zap.Logger) (*Microphone, error) {
	logger = logging.OrNop(logger)

	if err := portaudio.Initialize(); err != nil {
		return nil, faults.Device(err, "microphone", "PortAudio could not start")
	}
	buf := make([]float32, blockSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), blockSize, buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, faults.Device(err, "microphone", "check that an input device is connected")
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, faults.Device(err, "microphone", "the input device refused to start")
	}
	logger.Info("microphone opened", zap.Int("sample_rate", sampleRate), zap.Int("block_size", blockSize))
	return &Microphone{stream: stream, buf: buf, rate: sampleRate, log: logger}, nil
}

// ReadBlock waits for the next block. Overflowed input is returned anyway;
// the dropped samples are lost.
func (m *Microphone) ReadBlock(ctx context.Context) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, io.EOF
	}

	if err := m.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return nil, fmt.Errorf("read microphone: %w", err)
	}
	out := make([]float64, len(m.buf))
	for i, v := range m.buf {
		out[i] = float64(v)
	}
	return out, nil
}

func (m *Microphone) SampleRate() int { return m.rate }

// Close stops the stream and shuts PortAudio down.
func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return errors.Join(m.stream.Stop(), m.stream.Close(), portaudio.Terminate())
}

// WAVSource reads blocks from a PCM or float WAV file, mixing channels down
// to mono. With Paced set it releases one block per block duration, like a
// live input.
type WAVSource struct {
	f         *os.File
	w         *wav.Wav
	blockSize int
	remaining int
	paced     bool
	next      time.Time
}

// OpenWAV opens a WAV file for block reading.
func OpenWAV(path string, blockSize int, paced bool) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	w, err := wav.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read wav header %s: %w", path, err)
	}
	if w.NumChannels == 0 {
		f.Close()
		return nil, fmt.Errorf("read wav header %s: no channels", path)
	}
	if !supportedWAV(w.AudioFormat, w.BitsPerSample) {
		f.Close()
		return nil, faults.Invalid(fmt.Sprintf(
			"%s: %d-bit samples in format %d are not supported; use 8 or 16-bit PCM or 32-bit float",
			filepath.Base(path), w.BitsPerSample, w.AudioFormat))
	}
	return &WAVSource{
		f:         f,
		w:         w,
		blockSize: max(1, blockSize),
		remaining: w.Samples,
		paced:     paced,
	}, nil
}

func (s *WAVSource) SampleRate() int { return int(s.w.SampleRate) }

// Duration returns the length of the recording.
func (s *WAVSource) Duration() time.Duration { return s.w.Duration }

// ReadBlock returns the next block. The last block may be short.
func (s *WAVSource) ReadBlock(ctx context.Context) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	channels := int(s.w.NumChannels)
	n := min(s.blockSize*channels, s.remaining)
	n -= n % channels
	if n <= 0 {
		return nil, io.EOF
	}

	if s.paced {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
	}

	raw, err := s.w.ReadSamples(n)
	if err != nil {
		// The decoder cannot resume mid-file; the next call reports io.EOF.
		s.remaining = 0
		return nil, fmt.Errorf("read wav samples: %w", err)
	}
	s.remaining -= n

	interleaved := toFloats(raw)
	out := make([]float64, len(interleaved)/channels)
	for i := range out {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		out[i] = sum / float64(channels)
	}
	return out, nil
}

func (s *WAVSource) wait(ctx context.Context) error {
	now := time.Now()
	if s.next.IsZero() {
		s.next = now
	}
	if d := s.next.Sub(now); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	s.next = s.next.Add(time.Duration(s.blockSize) * time.Second / time.Duration(max(1, s.SampleRate())))
	return nil
}

// supportedWAV reports whether ReadSamples can decode the format: 8 or 16-bit
// PCM, or 32-bit IEEE float.
func supportedWAV(format, bits uint16) bool {
	switch format {
	case wavPCM:
		return bits == 8 || bits == 16
	case wavFloat:
		return bits == 32
	}
	return false
}

const (
	wavPCM   = 1
	wavFloat = 3
)

// toFloats scales PCM samples to -1..1.
func toFloats(raw interface{}) []float64 {
	switch d := raw.(type) {
	case []int16:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v) / 32768
		}
		return out
	case []uint8:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = (float64(v) - 128) / 128
		}
		return out
	case []float32:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out
	}
	return nil
}

func (s *WAVSource) Close() error {
	return s.f.Close()
}

// MockAudio serves prepared blocks, then io.EOF.
type MockAudio struct {
	mu     sync.Mutex
	blocks [][]float64
	rate   int
	closed bool
}

// NewMockAudio creates a mock source.
func NewMockAudio(sampleRate int, blocks ...[]float64) *MockAudio {
	return &MockAudio{blocks: blocks, rate: sampleRate}
}

func (m *MockAudio) ReadBlock(ctx context.Context) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || len(m.blocks) == 0 {
		return nil, io.EOF
	}
	b := m.blocks[0]
	m.blocks = m.blocks[1:]
	return b, nil
}

func (m *MockAudio) SampleRate() int { return m.rate }

func (m *MockAudio) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockAudio) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
