package ui

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kiosk/internal/config"
	"kiosk/internal/dto"
	"kiosk/internal/logger"
	"kiosk/internal/service/camera"
	"kiosk/internal/service/face"
)

type fakeCamera struct {
	startErr  error
	startGate chan struct{}

	started  atomic.Bool
	stops    atomic.Int32
	captures atomic.Int32
}

func (c *fakeCamera) Start(ctx context.Context) error {
	if c.startGate != nil {
		select {
		case <-c.startGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if c.startErr != nil {
		return c.startErr
	}
	c.started.Store(true)
	return nil
}

func (c *fakeCamera) GetFrame() *camera.Frame {
	if !c.started.Load() || c.stops.Load() > 0 {
		return nil
	}
	return &camera.Frame{Width: 32, Height: 24, Image: image.NewRGBA(image.Rect(0, 0, 32, 24)), CapturedAt: time.Now()}
}

func (c *fakeCamera) CaptureImage() ([]byte, error) {
	if c.GetFrame() == nil {
		return nil, camera.ErrNoFrame
	}
	c.captures.Add(1)
	return []byte("JPEG"), nil
}

func (c *fakeCamera) Stop() {
	c.stops.Add(1)
}

type fakeReader struct {
	mu              sync.Mutex
	connectErr      error
	registerErr     error
	panicOnRegister bool
	onMatch         func(string)
	connects        int
	scans           int
	stopScans       int
	disconnects     int
	registered      []int
}

func (r *fakeReader) Connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connects++
	return r.connectErr
}

func (r *fakeReader) StartScan(onMatch func(id string)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.connectErr != nil {
		return r.connectErr
	}
	r.scans++
	r.onMatch = onMatch
	return nil
}

func (r *fakeReader) StopScan() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopScans++
}

func (r *fakeReader) Disconnect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disconnects++
}

func (r *fakeReader) RegisterFingerprint(ctx context.Context, fingerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicOnRegister {
		panic("sensor returned garbage")
	}
	r.registered = append(r.registered, fingerID)
	return r.registerErr
}

// match simulates the polling goroutine finding a fingerprint.
func (r *fakeReader) match(id string) {
	r.mu.Lock()
	cb := r.onMatch
	r.mu.Unlock()
	if cb != nil {
		cb(id)
	}
}

func (r *fakeReader) counts() (connects, scans, stopScans, disconnects int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connects, r.scans, r.stopScans, r.disconnects
}

type verifyCall struct {
	cedula string
	flow   dto.FlowType
	image  []byte
}

type fakeTransport struct {
	mu           sync.Mutex
	verifyOK     bool
	verifyResult dto.VerifyResult
	verifies     []verifyCall
	pendingOK    bool
	pending      dto.PendingRegistrations
	confirmOK    bool
	confirms     []dto.ConfirmRequest
}

func (f *fakeTransport) VerifyFace(_ context.Context, cedula string, flow dto.FlowType, image []byte) (bool, dto.VerifyResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifies = append(f.verifies, verifyCall{cedula, flow, image})
	return f.verifyOK, f.verifyResult
}

func (f *fakeTransport) CheckPendingRegistrations(context.Context) (bool, dto.PendingRegistrations) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pendingOK, f.pending
}

func (f *fakeTransport) ConfirmRegistration(_ context.Context, req dto.ConfirmRequest) (bool, dto.ConfirmResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirms = append(f.confirms, req)
	if !f.confirmOK {
		return false, dto.ConfirmResult{Error: "Error de conexión: refused"}
	}
	return true, dto.ConfirmResult{Message: "ok"}
}

func (f *fakeTransport) verifyCalls() []verifyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]verifyCall(nil), f.verifies...)
}

func (f *fakeTransport) confirmCalls() []dto.ConfirmRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dto.ConfirmRequest(nil), f.confirms...)
}

type fakeOutbox struct {
	mu            sync.Mutex
	confirmations []dto.ConfirmRequest
	verifications []dto.Outcome
}

func (o *fakeOutbox) SaveConfirmation(req dto.ConfirmRequest) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.confirmations = append(o.confirmations, req)
	return nil
}

func (o *fakeOutbox) SaveVerification(outcome dto.Outcome) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.verifications = append(o.verifications, outcome)
	return nil
}

func (o *fakeOutbox) queued() []dto.ConfirmRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]dto.ConfirmRequest(nil), o.confirmations...)
}

type fakeInput struct {
	events chan Event
}

func (i *fakeInput) Events() <-chan Event { return i.events }
func (i *fakeInput) Close() error         { return nil }

type fakeMonitor struct {
	snapshots []dto.MonitorSnapshot
}

func (m *fakeMonitor) Publish(s dto.MonitorSnapshot) {
	m.snapshots = append(m.snapshots, s)
}

type fakeDisplay struct {
	presented int
}

func (d *fakeDisplay) Present(*image.RGBA) error { d.presented++; return nil }
func (d *fakeDisplay) Close() error              { return nil }

type harness struct {
	t         *testing.T
	shell     *Shell
	now       time.Time
	input     *fakeInput
	display   *fakeDisplay
	monitor   *fakeMonitor
	camera    *fakeCamera
	reader    *fakeReader
	transport *fakeTransport
	outbox    *fakeOutbox
}

func testConfig() *config.Config {
	return &config.Config{
		TerminalID:          "TERMINAL_TEST",
		ScreenWidth:         320,
		ScreenHeight:        240,
		FrameRate:           30,
		TimeoutVerification: 30 * time.Second,
		TimeoutFacial:       20 * time.Second,
		TimeoutResult:       5 * time.Second,
		FaceDetectDelay:     2 * time.Second,
		ResultHoldDelay:     1500 * time.Millisecond,
		EnrollStepDelays:    []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond},
		MonitorInterval:     15,
	}
}

func newHarness(t *testing.T, configure func(h *harness)) *harness {
	t.Helper()
	h := &harness{
		t:         t,
		now:       time.Now(),
		input:     &fakeInput{events: make(chan Event, 64)},
		display:   &fakeDisplay{},
		monitor:   &fakeMonitor{},
		camera:    &fakeCamera{},
		reader:    &fakeReader{},
		transport: &fakeTransport{verifyOK: true, pendingOK: true, confirmOK: true},
		outbox:    &fakeOutbox{},
	}
	cfg := testConfig()
	deps := Deps{
		Config:         cfg,
		Logger:         logger.NewDiscard(),
		Transport:      h.transport,
		Locator:        face.Always{},
		Outbox:         h.outbox,
		NewCamera:      func() Camera { return h.camera },
		NewFingerprint: func() FingerprintReader { return h.reader },
	}
	if configure != nil {
		configure(h)
	}
	h.shell = NewShell(deps, h.display, h.input, h.monitor)
	t.Cleanup(h.shell.Shutdown)
	h.tick()
	return h
}

func (h *harness) tick() bool {
	return h.shell.Tick(h.now)
}

func (h *harness) advance(d time.Duration) {
	h.now = h.now.Add(d)
	h.tick()
}

func (h *harness) send(events ...Event) {
	for _, ev := range events {
		h.input.events <- ev
	}
	h.tick()
}

func (h *harness) keys(s string) {
	for _, r := range s {
		h.input.events <- KeyEvent(Key(r))
	}
	h.tick()
}

func (h *harness) kind() ScreenKind {
	return h.shell.Current().Kind()
}

// waitFor ticks with real pauses so background tasks can run, advancing the
// clock by step each time, until cond holds.
func (h *harness) waitFor(what string, step time.Duration, cond func() bool) {
	h.t.Helper()
	for i := 0; i < 2000; i++ {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
		h.advance(step)
	}
	h.t.Fatalf("timed out waiting for %s (screen %s, status %q)", what, h.kind(), h.shell.Current().Status())
}

func (h *harness) goTo(route Route) {
	h.shell.Navigate(route)
	h.tick()
	if h.kind() != route.Kind {
		h.t.Fatalf("expected %s screen, got %s", route.Kind, h.kind())
	}
}
