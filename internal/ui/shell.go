package ui

import (
	"context"
	"image"
	"runtime/debug"
	"time"

	"kiosk/internal/dto"
	"kiosk/internal/logger"
)

// Display presents a rendered frame.
type Display interface {
	Present(frame *image.RGBA) error
	Close() error
}

// Input delivers events from the touchscreen and keypad.
type Input interface {
	Events() <-chan Event
	Close() error
}

// Publisher receives screen snapshots for maintenance viewers.
type Publisher interface {
	Publish(snapshot dto.MonitorSnapshot)
}

// Shell owns the active screen and runs the render loop. Only the render
// goroutine calls Tick, so screens are only ever replaced from there.
type Shell struct {
	deps         Deps
	logger       *logger.Logger
	display      Display
	input        Input
	monitor      Publisher
	frame        *image.RGBA
	interval     time.Duration
	monitorEvery uint64

	screen      Screen
	pending     *Route
	ticks       uint64
	transitions int
	quit        bool
}

func NewShell(deps Deps, display Display, input Input, monitor Publisher) *Shell {
	cfg := deps.Config

	rate := cfg.FrameRate
	if rate <= 0 {
		rate = 30
	}
	every := cfg.MonitorInterval
	if every <= 0 {
		every = rate / 2
	}

	return &Shell{
		deps:         deps,
		logger:       deps.Logger,
		display:      display,
		input:        input,
		monitor:      monitor,
		frame:        image.NewRGBA(image.Rect(0, 0, cfg.ScreenWidth, cfg.ScreenHeight)),
		interval:     time.Second / time.Duration(rate),
		monitorEvery: uint64(every),
	}
}

// Navigate requests a transition. The first request in a phase wins; it is
// applied once the phase ends.
func (s *Shell) Navigate(route Route) {
	if s.pending != nil {
		s.logger.Warning("Ignoring transition to %s, %s already pending", route.Kind, s.pending.Kind)
		return
	}
	s.pending = &route
}

// Current returns the installed screen.
func (s *Shell) Current() Screen {
	return s.screen
}

// Transitions counts screens installed after the first.
func (s *Shell) Transitions() int {
	return s.transitions
}

// Frame returns the last rendered frame.
func (s *Shell) Frame() *image.RGBA {
	return s.frame
}

// Run ticks at the configured frame rate until ctx ends or a quit event
// arrives, then tears down the active screen.
func (s *Shell) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.Shutdown()

	s.logger.Info("🖥️ Render loop started at %s per frame", s.interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if !s.Tick(now) {
				s.logger.Info("Quit requested")
				return nil
			}
		}
	}
}

// Tick runs one events, update, draw and present cycle. It reports false
// once a quit event has been seen.
func (s *Shell) Tick(now time.Time) bool {
	if s.screen == nil {
		s.install(Route{Kind: ScreenMain}, now)
	}

	s.guard("events", s.pollEvents(now))
	s.apply(now)

	s.guard("update", func() { s.screen.Update(now) })
	s.apply(now)

	s.guard("draw", func() { s.screen.Draw(s.frame) })
	if s.display != nil {
		if err := s.display.Present(s.frame); err != nil {
			s.logger.Warning("Present failed: %v", err)
		}
	}

	s.ticks++
	if s.ticks%s.monitorEvery == 0 {
		s.publish(now)
	}
	return !s.quit
}

func (s *Shell) pollEvents(now time.Time) func() {
	return func() {
		if s.input == nil {
			return
		}
		events := s.input.Events()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Kind == EventQuit {
					s.quit = true
					continue
				}
				// Events queued behind a transition belong to the old screen.
				if s.pending == nil {
					s.screen.HandleEvent(ev, now)
				}
			default:
				return
			}
		}
	}
}

// apply installs the pending route, tearing down the current screen first.
func (s *Shell) apply(now time.Time) {
	if s.pending == nil {
		return
	}
	route := *s.pending
	s.pending = nil

	s.install(route, now)
	s.transitions++
}

func (s *Shell) install(route Route, now time.Time) {
	if s.screen != nil {
		from := s.screen.Kind()
		s.guard("teardown", s.screen.Teardown)
		s.logger.Info("Screen %s -> %s", from, route.Kind)
	}

	s.screen = nil
	s.guard("build", func() { s.screen = s.build(route, now) })
	if s.screen == nil {
		s.screen = NewMainScreen(s.deps, s)
	}
	s.publish(now)
}

func (s *Shell) build(route Route, now time.Time) Screen {
	switch route.Kind {
	case ScreenVerification:
		return NewVerificationScreen(s.deps, s, route.Flow, now)
	case ScreenCamera:
		return NewCameraScreen(s.deps, s, route.Cedula, route.Flow, now)
	case ScreenRegistration:
		return NewRegistrationScreen(s.deps, s)
	case ScreenResult:
		return NewResultScreen(s.deps, s, route.Outcome, now)
	default:
		return NewMainScreen(s.deps, s)
	}
}

// guard runs one phase, logging and swallowing a panic so the loop survives.
func (s *Shell) guard(phase string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			kind := "none"
			if s.screen != nil {
				kind = s.screen.Kind().String()
			}
			s.logger.Error("Recovered panic in %s phase of %s screen: %v\n%s", phase, kind, r, debug.Stack())
		}
	}()
	fn()
}

func (s *Shell) publish(now time.Time) {
	if s.monitor == nil || s.screen == nil {
		return
	}
	s.monitor.Publish(dto.MonitorSnapshot{
		Screen:    s.screen.Kind().String(),
		Status:    s.screen.Status(),
		Timestamp: now,
	})
}

// Shutdown tears down the active screen.
func (s *Shell) Shutdown() {
	if s.screen == nil {
		return
	}
	s.guard("teardown", s.screen.Teardown)
	s.screen = nil
}
