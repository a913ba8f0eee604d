package fingerprint

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kiosk/internal/apperr"
	"kiosk/internal/config"
	"kiosk/internal/logger"
)

// scriptedConn answers every read with a failure status until poll successOn.
type scriptedConn struct {
	mu        sync.Mutex
	successOn int
	readErrs  int
	polls     int
	writes    int
	closed    bool
}

func (c *scriptedConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	return len(p), nil
}

func (c *scriptedConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErrs > 0 {
		c.readErrs--
		return 0, errors.New("serial: read timeout")
	}
	c.polls++
	resp := make([]byte, placeholderResponseSize)
	resp[placeholderStatusOffset] = 0x02
	if c.successOn > 0 && c.polls == c.successOn {
		resp[placeholderStatusOffset] = statusOK
	}
	return copy(p, resp), nil
}

func (c *scriptedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *scriptedConn) pollCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.polls
}

type recordingEnroller struct {
	fingerID int
	err      error
}

func (e *recordingEnroller) Enroll(_ context.Context, _ io.ReadWriter, fingerID int) error {
	e.fingerID = fingerID
	return e.err
}

func newTestPort(conn *scriptedConn, dialErr error) *Port {
	cfg := &config.Config{FingerprintPort: "/dev/test", FingerprintBaudRate: 57600}
	dial := func(string, int) (io.ReadWriteCloser, error) {
		if dialErr != nil {
			return nil, dialErr
		}
		return conn, nil
	}
	p := NewPort(cfg, dial, PlaceholderCodec{Identity: "123456789"}, &recordingEnroller{}, logger.NewDiscard())
	p.SetIntervals(time.Millisecond, time.Millisecond, time.Second)
	return p
}

func TestPlaceholderCodec_Match(t *testing.T) {
	codec := PlaceholderCodec{Identity: "42"}
	ok := make([]byte, 12)
	bad := make([]byte, 12)
	bad[9] = 0x01

	tests := []struct {
		name     string
		response []byte
		want     bool
	}{
		{"success status", ok, true},
		{"failure status", bad, false},
		{"short response", ok[:11], false},
		{"empty response", nil, false},
	}

	for _, tt := range tests {
		id, matched := codec.Match(tt.response)
		if matched != tt.want {
			t.Errorf("%s: Match = %v, expected %v", tt.name, matched, tt.want)
		}
		if matched && id != "42" {
			t.Errorf("%s: id = %q", tt.name, id)
		}
	}
}

func TestPort_MatchOnKthPollFiresOnce(t *testing.T) {
	conn := &scriptedConn{successOn: 4}
	port := newTestPort(conn, nil)
	defer port.Disconnect()

	var calls atomic.Int32
	matched := make(chan string, 4)
	scanningInCallback := make(chan bool, 4)

	err := port.StartScan(func(id string) {
		calls.Add(1)
		scanningInCallback <- port.Scanning()
		matched <- id
	})
	if err != nil {
		t.Fatalf("StartScan failed: %v", err)
	}

	select {
	case id := <-matched:
		if id != "123456789" {
			t.Errorf("unexpected id %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("match callback was not invoked")
	}

	if <-scanningInCallback {
		t.Error("expected scanning to be inactive when the callback runs")
	}

	time.Sleep(30 * time.Millisecond)
	if calls.Load() != 1 {
		t.Errorf("expected exactly one callback, got %d", calls.Load())
	}
	if conn.pollCount() != 4 {
		t.Errorf("expected polling to end at poll 4, got %d", conn.pollCount())
	}
	if port.Scanning() {
		t.Error("expected scanning to stay inactive after a match")
	}
}

func TestPort_StartScanWhileScanningIsNoop(t *testing.T) {
	conn := &scriptedConn{}
	port := newTestPort(conn, nil)
	defer port.Disconnect()

	if err := port.StartScan(nil); err != nil {
		t.Fatalf("StartScan failed: %v", err)
	}
	port.mu.Lock()
	firstDone := port.done
	port.mu.Unlock()

	if err := port.StartScan(nil); err != nil {
		t.Fatalf("second StartScan failed: %v", err)
	}
	port.mu.Lock()
	secondDone := port.done
	port.mu.Unlock()

	if firstDone != secondDone {
		t.Error("second StartScan launched another loop")
	}
}

func TestPort_StopScanMidLoop(t *testing.T) {
	conn := &scriptedConn{}
	port := newTestPort(conn, nil)
	defer port.Disconnect()

	var calls atomic.Int32
	if err := port.StartScan(func(string) { calls.Add(1) }); err != nil {
		t.Fatalf("StartScan failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for conn.pollCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	port.StopScan()
	after := conn.pollCount()
	time.Sleep(30 * time.Millisecond)

	if conn.pollCount() != after {
		t.Errorf("loop kept polling after StopScan: %d -> %d", after, conn.pollCount())
	}
	if port.Scanning() {
		t.Error("expected scanning to be inactive")
	}
	if calls.Load() != 0 {
		t.Error("callback must not fire without a match")
	}
}

func TestPort_StopScanWithoutStartIsSafe(t *testing.T) {
	port := newTestPort(&scriptedConn{}, nil)
	port.StopScan()
	port.StopScan()
	port.Disconnect()
}

func TestPort_ReadErrorsAreRetried(t *testing.T) {
	conn := &scriptedConn{successOn: 1, readErrs: 3}
	port := newTestPort(conn, nil)
	defer port.Disconnect()

	matched := make(chan struct{}, 1)
	if err := port.StartScan(func(string) { matched <- struct{}{} }); err != nil {
		t.Fatalf("StartScan failed: %v", err)
	}

	select {
	case <-matched:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the loop to survive read errors and match")
	}
}

func TestPort_ConnectFailure(t *testing.T) {
	port := newTestPort(nil, errors.New("no such file or directory"))

	if err := port.Connect(); !errors.Is(err, apperr.ErrHardwareUnavailable) {
		t.Errorf("expected ErrHardwareUnavailable, got %v", err)
	}
	if err := port.StartScan(nil); err == nil {
		t.Error("expected StartScan to fail when the reader cannot be opened")
	}
	if port.Scanning() {
		t.Error("expected no scan after failed connect")
	}
}

func TestPort_DisconnectClosesConnection(t *testing.T) {
	conn := &scriptedConn{}
	port := newTestPort(conn, nil)

	if err := port.StartScan(nil); err != nil {
		t.Fatalf("StartScan failed: %v", err)
	}
	port.Disconnect()

	if port.Connected() {
		t.Error("expected port to be disconnected")
	}
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if !conn.closed {
		t.Error("expected connection to be closed")
	}
}

func TestPort_RegisterFingerprint(t *testing.T) {
	conn := &scriptedConn{}
	port := newTestPort(conn, nil)
	enroller := port.enroller.(*recordingEnroller)

	if err := port.RegisterFingerprint(context.Background(), 3); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}

	if err := port.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer port.Disconnect()

	if err := port.RegisterFingerprint(context.Background(), 3); err != nil {
		t.Errorf("RegisterFingerprint failed: %v", err)
	}
	if enroller.fingerID != 3 {
		t.Errorf("expected finger 3, got %d", enroller.fingerID)
	}
}
