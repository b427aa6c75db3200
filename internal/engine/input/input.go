// Package input turns SDL events into the few events the viewer reacts to.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies a translated input event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Mouse buttons.
const (
	ButtonLeft   = uint8(sdl.BUTTON_LEFT)
	ButtonMiddle = uint8(sdl.BUTTON_MIDDLE)
	ButtonRight  = uint8(sdl.BUTTON_RIGHT)
)

// Event is one translated SDL event. Fields not used by Type are zero.
type Event struct {
	Type   EventType
	Width  int
	Height int
	MouseX int
	MouseY int

	// DeltaX/DeltaY are the relative motion of a mouse move.
	DeltaX int
	DeltaY int

	// Wheel is the vertical scroll amount; positive scrolls away from the user.
	Wheel float32

	// Button is set for button events; Buttons holds the pressed mask for moves.
	Button  uint8
	Buttons uint32
}

// Pressed reports whether button was held during a mouse move.
func (e Event) Pressed(button uint8) bool {
	return e.Buttons&buttonMask(button) != 0
}

func buttonMask(button uint8) uint32 {
	return 1 << (uint32(button) - 1)
}

// Input polls SDL once per frame.
type Input struct {
	events []Event
}

// New returns an Input with an empty event buffer.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events and translates them.
// Returns true if the application should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		e, ok := translate(event)
		if !ok {
			continue
		}
		i.events = append(i.events, e)
		if e.Type == EventQuit {
			quit = true
		}
	}
	return quit
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// translate converts one SDL event. The second result is false for events
// the viewer does not use.
func translate(event sdl.Event) (Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return Event{Type: EventQuit}, true

	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_RESIZED:
			return Event{
				Type:   EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			}, true
		case sdl.WINDOWEVENT_CLOSE:
			return Event{Type: EventQuit}, true
		}

	case *sdl.MouseMotionEvent:
		return Event{
			Type:    EventMouseMove,
			MouseX:  int(e.X),
			MouseY:  int(e.Y),
			DeltaX:  int(e.XRel),
			DeltaY:  int(e.YRel),
			Buttons: e.State,
		}, true

	case *sdl.MouseButtonEvent:
		t := EventMouseDown
		if e.Type == sdl.MOUSEBUTTONUP {
			t = EventMouseUp
		}
		return Event{
			Type:   t,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			Button: e.Button,
		}, true

	case *sdl.MouseWheelEvent:
		wheel := float32(e.Y)
		if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
			wheel = -wheel
		}
		return Event{Type: EventMouseWheel, Wheel: wheel}, true
	}

	return Event{}, false
}
