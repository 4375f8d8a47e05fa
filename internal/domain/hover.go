package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPointerEvent is returned when a pointer event name is not recognized
var ErrInvalidPointerEvent = errors.New("invalid pointer event")

// HoverState is the hover boolean of a mounted Hero
type HoverState bool

const (
	HoverHidden HoverState = false
	HoverShown  HoverState = true
)

// String returns "shown" or "hidden"
func (h HoverState) String() string {
	if h {
		return "shown"
	}
	return "hidden"
}

// TooltipState is the animated state of the tooltip
type TooltipState int

const (
	TooltipHidden TooltipState = iota
	TooltipEntering
	TooltipShown
	TooltipExiting
)

var tooltipStateNames = [...]string{
	TooltipHidden:   "hidden",
	TooltipEntering: "entering",
	TooltipShown:    "shown",
	TooltipExiting:  "exiting",
}

// transitionPhases are the names the tooltip leaf keys its styles on
var transitionPhases = [...]string{
	TooltipHidden:   "exited",
	TooltipEntering: "entering",
	TooltipShown:    "entered",
	TooltipExiting:  "exiting",
}

// String returns the state name
func (s TooltipState) String() string {
	if !s.Valid() {
		return fmt.Sprintf("TooltipState(%d)", int(s))
	}
	return tooltipStateNames[s]
}

// Phase returns the transition phase name (exited, entering, entered, exiting)
func (s TooltipState) Phase() string {
	if !s.Valid() {
		return transitionPhases[TooltipHidden]
	}
	return transitionPhases[s]
}

// Valid reports whether s is one of the four defined states
func (s TooltipState) Valid() bool {
	return s >= TooltipHidden && s <= TooltipExiting
}

// Visible reports whether the tooltip is on its way in or fully shown
func (s TooltipState) Visible() bool {
	return s == TooltipEntering || s == TooltipShown
}

// Settled reports whether no transition is in flight
func (s TooltipState) Settled() bool {
	return s == TooltipHidden || s == TooltipShown
}

// MarshalText encodes the state by name
func (s TooltipState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid tooltip state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name
func (s *TooltipState) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range tooltipStateNames {
		if n == name {
			*s = TooltipState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown tooltip state %q", string(text))
}

// PointerEvent is a pointer interaction on the Twitter affordance
type PointerEvent string

const (
	PointerEnter PointerEvent = "enter"
	PointerLeave PointerEvent = "leave"
)

// ParsePointerEvent accepts "enter"/"leave" and their DOM event spellings
func ParsePointerEvent(s string) (PointerEvent, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "enter", "mouseenter", "pointerenter":
		return PointerEnter, nil
	case "leave", "mouseleave", "pointerleave":
		return PointerLeave, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPointerEvent, s)
	}
}
