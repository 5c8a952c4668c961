package domain

import "errors"

// Disposition describes how an entity is presented to other participants.
type Disposition int

const (
	// DispositionUnspecified represents an invalid disposition value.
	DispositionUnspecified Disposition = iota
	// DispositionHostile marks the entity as an adversary.
	DispositionHostile
	// DispositionNeutral marks the entity as indifferent.
	DispositionNeutral
	// DispositionFriendly marks the entity as an ally.
	DispositionFriendly
	// DispositionSecret hides the entity's allegiance from players.
	DispositionSecret
)

// ErrInvalidDisposition indicates a disposition outside the known set.
var ErrInvalidDisposition = errors.New("disposition is not a known value")

// Valid reports whether the disposition is one of the known values.
func (d Disposition) Valid() bool {
	switch d {
	case DispositionHostile, DispositionNeutral, DispositionFriendly, DispositionSecret:
		return true
	default:
		return false
	}
}

// String returns the canonical lowercase name for the disposition.
func (d Disposition) String() string {
	switch d {
	case DispositionHostile:
		return "hostile"
	case DispositionNeutral:
		return "neutral"
	case DispositionFriendly:
		return "friendly"
	case DispositionSecret:
		return "secret"
	default:
		return "unspecified"
	}
}

// ParseDisposition maps a stored name back to a Disposition.
func ParseDisposition(value string) (Disposition, error) {
	switch value {
	case "hostile":
		return DispositionHostile, nil
	case "neutral":
		return DispositionNeutral, nil
	case "friendly":
		return DispositionFriendly, nil
	case "secret":
		return DispositionSecret, nil
	default:
		return DispositionUnspecified, ErrInvalidDisposition
	}
}
