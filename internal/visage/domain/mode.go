package domain

import "errors"

// Mode describes how a definition's layer coexists with others on the stack.
type Mode int

const (
	// ModeUnspecified represents an invalid mode value.
	ModeUnspecified Mode = iota
	// ModeIdentity replaces the entity's current form; at most one identity
	// layer is active at a time.
	ModeIdentity
	// ModeOverlay stacks alongside other layers without exclusivity.
	ModeOverlay
)

// ErrInvalidMode indicates a mode outside the known set.
var ErrInvalidMode = errors.New("mode must be identity or overlay")

// Valid reports whether the mode is one of the known values.
func (m Mode) Valid() bool {
	return m == ModeIdentity || m == ModeOverlay
}

// String returns the canonical lowercase name for the mode.
func (m Mode) String() string {
	switch m {
	case ModeIdentity:
		return "identity"
	case ModeOverlay:
		return "overlay"
	default:
		return "unspecified"
	}
}

// ParseMode maps a stored name back to a Mode.
func ParseMode(value string) (Mode, error) {
	switch value {
	case "identity":
		return ModeIdentity, nil
	case "overlay":
		return ModeOverlay, nil
	default:
		return ModeUnspecified, ErrInvalidMode
	}
}
