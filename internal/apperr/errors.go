// Package apperr defines the error taxonomy shared by the hardware, transport
// and UI layers. Components wrap these sentinels with fmt.Errorf("...: %w")
// and callers classify with errors.Is.
package apperr

import "errors"

var (
	// ErrHardwareUnavailable: camera process or serial port failed to start/open.
	ErrHardwareUnavailable = errors.New("hardware unavailable")
	// ErrProtocolTimeout: no frame or response within the bound.
	ErrProtocolTimeout = errors.New("protocol timeout")
	// ErrTransportFailure: network or server error talking to the central API.
	ErrTransportFailure = errors.New("transport failure")
	// ErrDecodeCorruption: malformed frame or response; skipped, never fatal.
	ErrDecodeCorruption = errors.New("decode corruption")
)

// Status renders err as the short status line shown on screen.
func Status(err error) string {
	if err == nil {
		return ""
	}
	return "Error: " + err.Error()
}
