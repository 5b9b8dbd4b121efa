package session

import "strings"

// Mode selects when the debug listener starts. Lite and PostMortem combine;
// Immediate stands alone.
type Mode uint8

const (
	// Immediate starts the listener before the target runs and blocks until
	// a client attaches.
	Immediate Mode = 1 << iota
	// Lite arms the session and runs the target at full speed; the listener
	// starts only when an activation signal arrives.
	Lite
	// PostMortem activates the listener automatically when the target fails.
	PostMortem
)

func (m Mode) Has(f Mode) bool { return m&f != 0 }

func (m Mode) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	if m.Has(Immediate) {
		parts = append(parts, "immediate")
	}
	if m.Has(Lite) {
		parts = append(parts, "lite")
	}
	if m.Has(PostMortem) {
		parts = append(parts, "post-mortem")
	}
	return strings.Join(parts, "+")
}
