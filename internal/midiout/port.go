// Package midiout opens a MIDI output port and keeps track of sounding notes
// so every game can silence its output before closing it.
package midiout

import (
	"fmt"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/zap"

	"github.com/ayusman/pianogames/internal/faults"
	"github.com/ayusman/pianogames/internal/logging"
)

// Sender is the output side every game writes to.
type Sender interface {
	Send(msg midi.Message) error
	Close() error
}

// Port is an open hardware or virtual MIDI output.
type Port struct {
	drv  *rtmididrv.Driver
	out  drivers.Out
	name string
	mu   sync.Mutex
	log  *zap.Logger
}

// SelectPort returns the index of the port to use: the first port containing
// the first preferred name that matches any port, else the first port.
// ok is false when names is empty.
func SelectPort(names []string, preferred []string) (index int, ok bool) {
	if len(names) == 0 {
		return 0, false
	}
	for _, pref := range preferred {
		for i, name := range names {
			if strings.Contains(name, pref) {
				return i, true
			}
		}
	}
	return 0, true
}

// ListOutputs returns the names of the MIDI outputs the OS reports.
func ListOutputs() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, faults.Device(err, "MIDI driver", "Check that a MIDI backend (ALSA, CoreMIDI, WinMM) is available")
	}
	defer drv.Close()

	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	return names, nil
}

// Open selects and opens an output port.
func Open(preferred []string, logger *zap.Logger) (*Port, error) {
	logger = logging.OrNop(logger)

	drv, err := rtmididrv.New()
	if err != nil {
		return nil, faults.Device(err, "MIDI driver", "Check that a MIDI backend (ALSA, CoreMIDI, WinMM) is available")
	}

	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, faults.Device(err, "MIDI output", "Could not enumerate MIDI outputs")
	}

	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	logger.Debug("available MIDI outputs", zap.Strings("ports", names))

	idx, ok := SelectPort(names, preferred)
	if !ok {
		drv.Close()
		return nil, faults.Device(faults.ErrNoOutputs, "MIDI output", "Connect a MIDI device or create a virtual port")
	}

	out := outs[idx]
	if err := out.Open(); err != nil {
		drv.Close()
		return nil, faults.Device(err, "MIDI output "+names[idx], "The port may be in use by another program")
	}

	logger.Info("using MIDI output", zap.String("port", names[idx]))
	return &Port{drv: drv, out: out, name: names[idx], log: logger}, nil
}

// Name returns the OS name of the opened port.
func (p *Port) Name() string {
	return p.name
}

// Send writes one message to the port.
func (p *Port) Send(msg midi.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.out == nil {
		return fmt.Errorf("send %s: port closed", msg)
	}
	return p.out.Send(msg)
}

// Close closes the port and the driver. It is safe to call more than once.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.out == nil {
		return nil
	}
	err := p.out.Close()
	p.out = nil
	if cerr := p.drv.Close(); err == nil {
		err = cerr
	}
	p.log.Debug("MIDI output closed", zap.String("port", p.name))
	return err
}
