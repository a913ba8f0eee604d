package ui

import (
	"image"
	"time"

	"kiosk/internal/dto"
)

const mainStatus = "Seleccione una opción"

// MainScreen offers check-in, check-out and enrollment. It has no deadline.
type MainScreen struct {
	nav     Navigator
	buttons []button
	now     time.Time
}

func NewMainScreen(deps Deps, nav Navigator) *MainScreen {
	area := image.Rect(0, 0, deps.Config.ScreenWidth, deps.Config.ScreenHeight)
	const margin, gap = 20, 8
	top := area.Min.Y + 50
	h := (area.Dy() - top - 30 - 2*gap) / 3

	labels := []string{"1. Entrada", "2. Salida", "3. Registro de huella"}
	buttons := make([]button, len(labels))
	for i, label := range labels {
		y := top + i*(h+gap)
		buttons[i] = button{
			rect:  image.Rect(area.Min.X+margin, y, area.Max.X-margin, y+h),
			label: label,
			color: colorAccent,
		}
	}
	return &MainScreen{nav: nav, buttons: buttons}
}

func (s *MainScreen) Kind() ScreenKind { return ScreenMain }

func (s *MainScreen) HandleEvent(ev Event, _ time.Time) {
	choice := -1
	switch ev.Kind {
	case EventKey:
		if ev.Key >= '1' && ev.Key <= '3' {
			choice = int(ev.Key - '1')
		}
	case EventTap:
		for i, b := range s.buttons {
			if b.hit(ev.Pos) {
				choice = i
			}
		}
	}

	switch choice {
	case 0:
		s.nav.Navigate(Route{Kind: ScreenVerification, Flow: dto.FlowCheckIn})
	case 1:
		s.nav.Navigate(Route{Kind: ScreenVerification, Flow: dto.FlowCheckOut})
	case 2:
		s.nav.Navigate(Route{Kind: ScreenRegistration})
	}
}

func (s *MainScreen) Update(now time.Time) {
	s.now = now
}

func (s *MainScreen) Draw(dst *image.RGBA) {
	body := header(dst, "Terminal Biométrico")
	if !s.now.IsZero() {
		drawTextCentered(dst, s.now.Format("02/01/2006 15:04:05"), body, body.Min.Y+18, colorMuted)
	}
	for _, b := range s.buttons {
		b.draw(dst, true)
	}
	footer(dst, mainStatus, colorMuted)
}

func (s *MainScreen) Status() string { return mainStatus }

func (s *MainScreen) Teardown() {}

func (s *MainScreen) screen() {}
