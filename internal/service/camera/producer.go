package camera

import (
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
)

// Producer launches whatever emits the MJPEG stream. Stop interrupts the
// stream; Wait releases the producer once every read of it has returned.
type Producer interface {
	Start() (io.ReadCloser, error)
	Stop() error
	Wait() error
}

// ProcessProducer runs an external capture command and exposes its stdout.
type ProcessProducer struct {
	Command string
	Args    []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewLibcameraProducer builds the libcamera-vid invocation for an MJPEG stream on stdout.
func NewLibcameraProducer(command string, width, height int) *ProcessProducer {
	return &ProcessProducer{
		Command: command,
		Args: []string{
			"--width", strconv.Itoa(width),
			"--height", strconv.Itoa(height),
			"--codec", "mjpeg",
			"--segment", "1",
			"--timeout", "0",
			"--output", "-",
			"--nopreview",
		},
	}
}

// Start spawns the process; the returned reader is its standard output.
func (p *ProcessProducer) Start() (io.ReadCloser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return nil, fmt.Errorf("process %s already running", p.Command)
	}

	cmd := exec.Command(p.Command, p.Args...)
	output, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("cmd.StdoutPipe(): %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("cmd.Start(): %w", err)
	}

	p.cmd = cmd
	return output, nil
}

// Stop kills the process without reaping it. Safe to call when not running.
func (p *ProcessProducer) Stop() error {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		return fmt.Errorf("failed to kill %s: %w", p.Command, err)
	}
	return nil
}

// Wait reaps the process. exec.Cmd requires every read from stdout to have
// finished before this is called.
func (p *ProcessProducer) Wait() error {
	p.mu.Lock()
	cmd := p.cmd
	p.cmd = nil
	p.mu.Unlock()

	if cmd == nil {
		return nil
	}
	// Exit status after a kill is always an error; only reaping matters here.
	_ = cmd.Wait()
	return nil
}
