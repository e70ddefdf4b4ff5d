// Package faults classifies the errors the games can raise. Each class decides
// how a runner reacts: device failures abort the game, malformed rows and
// invalid input are reported and skipped.
package faults

import (
	"errors"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Error kinds.
const (
	// DeviceUnavailable marks a camera, microphone or MIDI port that could not be opened.
	DeviceUnavailable ftag.Kind = "DEVICE_UNAVAILABLE"
	// MalformedRow marks a table row or chord name that cannot be used.
	MalformedRow ftag.Kind = "MALFORMED_ROW"
	// InvalidInput marks a rejected configuration or menu value.
	InvalidInput ftag.Kind = "INVALID_INPUT"
)

// ErrNoOutputs is returned when the OS reports no MIDI output ports at all.
var ErrNoOutputs = errors.New("no MIDI outputs found")

// Device wraps err as a device failure with a message meant for the player.
func Device(err error, device, hint string) error {
	if err == nil {
		return nil
	}
	return fault.Wrap(err,
		ftag.With(DeviceUnavailable),
		fmsg.WithDesc("open "+device, hint),
	)
}

// Row wraps err as a malformed table row.
func Row(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fault.Wrap(err, ftag.With(MalformedRow), fmsg.With(msg))
}

// Invalid creates an invalid-input error with the given message.
func Invalid(msg string) error {
	return fault.New(msg, ftag.With(InvalidInput), fmsg.WithDesc(msg, msg))
}

// Is reports whether err carries the given kind.
func Is(err error, kind ftag.Kind) bool {
	if err == nil {
		return false
	}
	return ftag.Get(err) == kind
}

// Issue returns the player-facing description attached to err, or the error
// text when none was attached.
func Issue(err error) string {
	if err == nil {
		return ""
	}
	if issue := fmsg.GetIssue(err); issue != "" {
		return issue
	}
	return err.Error()
}
