package ui

import (
	"fmt"
	"image"
	"math"
	"time"

	"kiosk/internal/dto"
)

// ResultScreen shows a verification outcome and returns to the main screen
// after a timeout or any acknowledgement.
type ResultScreen struct {
	nav      Navigator
	outcome  dto.Outcome
	deadline *Deadline
	now      time.Time
	left     bool
}

func NewResultScreen(deps Deps, nav Navigator, outcome dto.Outcome, now time.Time) *ResultScreen {
	return &ResultScreen{
		nav:      nav,
		outcome:  outcome,
		deadline: NewDeadline(now, deps.Config.TimeoutResult),
		now:      now,
	}
}

func (s *ResultScreen) Kind() ScreenKind { return ScreenResult }

func (s *ResultScreen) HandleEvent(ev Event, _ time.Time) {
	if ev.Kind == EventKey || ev.Kind == EventTap {
		s.home()
	}
}

func (s *ResultScreen) Update(now time.Time) {
	s.now = now
	if s.deadline.Expired(now) {
		s.home()
	}
}

func (s *ResultScreen) home() {
	if s.left {
		return
	}
	s.left = true
	s.nav.Navigate(Route{Kind: ScreenMain})
}

func (s *ResultScreen) headline() string {
	if s.outcome.Passed() {
		return "VERIFICACIÓN EXITOSA"
	}
	return "VERIFICACIÓN FALLIDA"
}

func (s *ResultScreen) details() []string {
	var lines []string
	if s.outcome.Result.Nombre != "" {
		lines = append(lines, s.outcome.Result.Nombre)
	}
	lines = append(lines, "Cédula: "+s.outcome.Cedula)
	if s.outcome.Flow != "" {
		lines = append(lines, "Tipo: "+s.outcome.Flow.Title())
	}
	switch {
	case s.outcome.Result.Error != "":
		lines = append(lines, s.outcome.Result.Error)
	case s.outcome.Result.Message != "":
		lines = append(lines, s.outcome.Result.Message)
	}
	return lines
}

func (s *ResultScreen) Draw(dst *image.RGBA) {
	b := dst.Bounds()
	bg := colorError
	if s.outcome.Passed() {
		bg = colorSuccess
	}
	fill(dst, b, bg)

	y := b.Min.Y + 50
	drawTextCentered(dst, s.headline(), b, y, colorText)
	y += 2 * lineHeight
	for _, line := range s.details() {
		drawTextCentered(dst, line, b, y, colorText)
		y += lineHeight
	}

	footer(dst, s.countdown(), colorText)
}

// countdown renders the seconds left, rounded up.
func (s *ResultScreen) countdown() string {
	secs := int(math.Ceil(s.deadline.Remaining(s.now).Seconds()))
	return fmt.Sprintf("Volviendo a inicio en %d segundos", secs)
}

func (s *ResultScreen) Status() string { return s.headline() }

func (s *ResultScreen) Teardown() {}

func (s *ResultScreen) screen() {}
