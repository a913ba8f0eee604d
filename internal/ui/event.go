package ui

import "image"

// EventKind distinguishes input events delivered to the active screen.
type EventKind int

const (
	EventKey EventKind = iota
	EventTap
	EventQuit
)

// Key identifies a key press. Digits use their ASCII value.
type Key rune

const (
	KeyEnter     Key = '\r'
	KeyBackspace Key = '\b'
	KeyEscape    Key = 0x1b
	KeySpace     Key = ' '
)

// Digit reports whether k is 0-9.
func (k Key) Digit() bool {
	return k >= '0' && k <= '9'
}

// Event is a single key press or tap in screen coordinates.
type Event struct {
	Kind EventKind
	Key  Key
	Pos  image.Point
}

func KeyEvent(k Key) Event {
	return Event{Kind: EventKey, Key: k}
}

func TapEvent(x, y int) Event {
	return Event{Kind: EventTap, Pos: image.Pt(x, y)}
}
