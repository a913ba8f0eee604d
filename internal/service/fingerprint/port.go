package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"kiosk/internal/apperr"
	"kiosk/internal/config"
	"kiosk/internal/logger"
)

const (
	PollInterval  = 500 * time.Millisecond
	RetryInterval = time.Second
	JoinTimeout   = time.Second
)

var ErrNotConnected = errors.New("fingerprint reader not connected")

// Port owns the connection to the fingerprint reader and its polling loop.
type Port struct {
	path     string
	baudRate int
	dial     Dialer
	codec    Codec
	enroller Enroller
	logger   *logger.Logger

	pollInterval  time.Duration
	retryInterval time.Duration
	joinTimeout   time.Duration

	mu       sync.Mutex
	conn     io.ReadWriteCloser
	scanning bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewPort creates a Port for the configured device.
func NewPort(config *config.Config, dial Dialer, codec Codec, enroller Enroller, logger *logger.Logger) *Port {
	return &Port{
		path:          config.FingerprintPort,
		baudRate:      config.FingerprintBaudRate,
		dial:          dial,
		codec:         codec,
		enroller:      enroller,
		logger:        logger,
		pollInterval:  PollInterval,
		retryInterval: RetryInterval,
		joinTimeout:   JoinTimeout,
	}
}

// SetIntervals overrides the poll, retry and join timings.
func (p *Port) SetIntervals(poll, retry, join time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pollInterval, p.retryInterval, p.joinTimeout = poll, retry, join
}

// Connect opens the channel to the reader.
func (p *Port) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectLocked()
}

func (p *Port) connectLocked() error {
	if p.conn != nil {
		return nil
	}

	conn, err := p.dial(p.path, p.baudRate)
	if err != nil {
		p.logger.Error("Error connecting to fingerprint reader: %v", err)
		return fmt.Errorf("%w: %v", apperr.ErrHardwareUnavailable, err)
	}

	p.conn = conn
	p.logger.Info("🖐️ Fingerprint reader connected on %s", p.path)
	return nil
}

// Connected reports whether the channel is open.
func (p *Port) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil
}

// Scanning reports whether the polling loop is active.
func (p *Port) Scanning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scanning
}

// StartScan begins polling, connecting first if needed. onMatch runs on the
// polling goroutine at most once per scan.
func (p *Port) StartScan(onMatch func(id string)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connectLocked(); err != nil {
		return err
	}
	if p.scanning {
		return nil
	}

	if p.cancel != nil {
		// Previous scan ended on a match; release its context.
		p.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.scanning = true
	p.cancel = cancel
	p.done = done

	go p.scanLoop(ctx, p.conn, onMatch, done)
	return nil
}

func (p *Port) scanLoop(ctx context.Context, conn io.ReadWriter, onMatch func(string), done chan struct{}) {
	defer close(done)

	p.mu.Lock()
	poll, retry := p.pollInterval, p.retryInterval
	p.mu.Unlock()

	request := p.codec.CaptureRequest()
	response := make([]byte, p.codec.ResponseSize())

	for ctx.Err() == nil {
		if _, err := conn.Write(request); err != nil {
			p.logger.Warning("Fingerprint write failed: %v", err)
			sleep(ctx, retry)
			continue
		}

		if !sleep(ctx, poll) {
			break
		}

		n, err := conn.Read(response)
		if err != nil {
			p.logger.Warning("Fingerprint read failed: %v", err)
			sleep(ctx, retry)
			continue
		}

		id, ok := p.codec.Match(response[:n])
		if !ok {
			continue
		}

		p.mu.Lock()
		if ctx.Err() != nil {
			p.mu.Unlock()
			break
		}
		p.scanning = false
		p.mu.Unlock()

		if onMatch != nil {
			onMatch(id)
		}
		p.logger.Info("🖐️ Fingerprint matched, scan finished")
		return
	}

	p.logger.Info("🖐️ Fingerprint scan stopped")
}

// StopScan ends the polling loop and waits briefly for it to exit.
func (p *Port) StopScan() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.scanning = false
	join := p.joinTimeout
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	select {
	case <-done:
	case <-time.After(join):
		p.logger.Warning("Fingerprint scan loop did not exit within %s", join)
	}
}

// Disconnect stops any scan and closes the channel.
func (p *Port) Disconnect() {
	p.StopScan()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return
	}
	if err := p.conn.Close(); err != nil {
		p.logger.Warning("Error closing fingerprint reader: %v", err)
	}
	p.conn = nil
}

// RegisterFingerprint enrolls a template under fingerID via the Enroller.
func (p *Port) RegisterFingerprint(ctx context.Context, fingerID int) error {
	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}
	return p.enroller.Enroll(ctx, conn, fingerID)
}

// sleep waits for d or until ctx is done; it reports whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
