package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/pianogames/internal/faults"
	"github.com/ayusman/pianogames/internal/logging"
)

// MediaPipeDetector runs the MediaPipe hands service as a child process.
// Each frame is sent as a 4-byte big-endian length and a JPEG; the service
// answers with one JSON line.
type MediaPipeDetector struct {
	cfg Config
	log *zap.Logger

	mu   sync.Mutex
	proc *handsProc
}

type handsProc struct {
	cmd *exec.Cmd
	in  io.WriteCloser
	out *bufio.Reader
}

// NewMediaPipeDetector checks that the service script exists. The process
// starts with the first Detect call.
func NewMediaPipeDetector(cfg Config, logger *zap.Logger) (*MediaPipeDetector, error) {
	if _, err := os.Stat(cfg.ScriptPath); err != nil {
		return nil, faults.Device(err, "hand detector", "Set paths.hands_script to the MediaPipe hands service")
	}
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	return &MediaPipeDetector{cfg: cfg, log: logging.OrNop(logger)}, nil
}

// Detect sends frame to the service. A broken pipe stops the process; the
// next call starts a fresh one.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.proc == nil {
		p, err := d.start()
		if err != nil {
			return nil, err
		}
		d.proc = p
	}

	jpg, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer jpg.Close()

	data := jpg.GetBytes()
	msg := binary.BigEndian.AppendUint32(make([]byte, 0, 4+len(data)), uint32(len(data)))
	msg = append(msg, data...)

	if _, err := d.proc.in.Write(msg); err != nil {
		d.stop()
		return nil, fmt.Errorf("send frame: %w", err)
	}
	line, err := d.proc.out.ReadBytes('\n')
	if err != nil {
		d.stop()
		return nil, fmt.Errorf("read reply: %w", err)
	}
	return parseResponse(line)
}

// Close stops the service.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop()
}

func (d *MediaPipeDetector) stop() error {
	if d.proc == nil {
		return nil
	}
	d.proc.in.Close()
	err := d.proc.cmd.Wait()
	d.proc = nil
	return err
}

func (d *MediaPipeDetector) start() (*handsProc, error) {
	cmd := exec.Command(d.cfg.Python, d.cfg.args()...)
	in, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, faults.Device(err, "hand detector", "Install python3 with the mediapipe package")
	}

	log := d.log.With(zap.Int("pid", cmd.Process.Pid))
	go func() {
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			log.Debug("hands service", zap.String("line", sc.Text()))
		}
	}()
	log.Info("hand detector started", zap.String("script", d.cfg.ScriptPath))
	return &handsProc{cmd: cmd, in: in, out: bufio.NewReader(out)}, nil
}

type handsReply struct {
	Hands []struct {
		Points     []Point3D `json:"points"`
		Handedness string    `json:"handedness"`
		Score      float64   `json:"score"`
	} `json:"hands"`
	Error string `json:"error"`
}

// parseResponse decodes one reply line. Hands without exactly NumLandmarks
// points are dropped.
func parseResponse(line []byte) ([]HandLandmarks, error) {
	var reply handsReply
	if err := json.Unmarshal(line, &reply); err != nil {
		return nil, fmt.Errorf("parse reply: %w", err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("hand detector: %s", reply.Error)
	}

	hands := make([]HandLandmarks, 0, len(reply.Hands))
	for _, h := range reply.Hands {
		if len(h.Points) != NumLandmarks {
			continue
		}
		hl := HandLandmarks{Handedness: h.Handedness, Score: h.Score}
		copy(hl.Points[:], h.Points)
		hands = append(hands, hl)
	}
	return hands, nil
}
