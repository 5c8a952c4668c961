package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidScaleMagnitude indicates a non-positive scale magnitude.
	ErrInvalidScaleMagnitude = errors.New("scale magnitude must be positive")
	// ErrInvalidDimension indicates a non-positive width or height.
	ErrInvalidDimension = errors.New("dimension must be positive")
)

// Changeset is a sparse, partial description of visual and behavioral
// overrides. Every field is optional; nil means "inherit from below."
//
// Scale magnitude and orientation are stored as orthogonal fields, never as
// a single signed value, so one layer can change only magnitude while
// another changes only orientation without either clobbering the other.
type Changeset struct {
	ImageRef       *string
	ScaleMagnitude *float64
	FlipX          *bool
	FlipY          *bool
	Width          *float64
	Height         *float64
	Disposition    *Disposition
	DisplayName    *string
	Ring           *Ring
}

// IsZero reports whether the changeset carries no fields at all.
func (c Changeset) IsZero() bool {
	return c.ImageRef == nil &&
		c.ScaleMagnitude == nil &&
		c.FlipX == nil &&
		c.FlipY == nil &&
		c.Width == nil &&
		c.Height == nil &&
		c.Disposition == nil &&
		c.DisplayName == nil &&
		c.Ring == nil
}

// Sanitized returns a copy of the changeset with malformed fields dropped,
// along with one error per rejected field. A faulty field never invalidates
// the rest of the changeset.
func (c Changeset) Sanitized() (Changeset, []error) {
	out := c
	var faults []error

	if c.ScaleMagnitude != nil && *c.ScaleMagnitude <= 0 {
		out.ScaleMagnitude = nil
		faults = append(faults, fmt.Errorf("%w: got %v", ErrInvalidScaleMagnitude, *c.ScaleMagnitude))
	}
	if c.Width != nil && *c.Width <= 0 {
		out.Width = nil
		faults = append(faults, fmt.Errorf("%w: width %v", ErrInvalidDimension, *c.Width))
	}
	if c.Height != nil && *c.Height <= 0 {
		out.Height = nil
		faults = append(faults, fmt.Errorf("%w: height %v", ErrInvalidDimension, *c.Height))
	}
	if c.Disposition != nil && !c.Disposition.Valid() {
		out.Disposition = nil
		faults = append(faults, fmt.Errorf("%w: got %d", ErrInvalidDisposition, *c.Disposition))
	}

	return out, faults
}

// Clone returns a deep copy of the changeset so a stored layer cannot alias
// the definition it was instantiated from.
func (c Changeset) Clone() Changeset {
	out := Changeset{}
	if c.ImageRef != nil {
		v := *c.ImageRef
		out.ImageRef = &v
	}
	if c.ScaleMagnitude != nil {
		v := *c.ScaleMagnitude
		out.ScaleMagnitude = &v
	}
	if c.FlipX != nil {
		v := *c.FlipX
		out.FlipX = &v
	}
	if c.FlipY != nil {
		v := *c.FlipY
		out.FlipY = &v
	}
	if c.Width != nil {
		v := *c.Width
		out.Width = &v
	}
	if c.Height != nil {
		v := *c.Height
		out.Height = &v
	}
	if c.Disposition != nil {
		v := *c.Disposition
		out.Disposition = &v
	}
	if c.DisplayName != nil {
		v := *c.DisplayName
		out.DisplayName = &v
	}
	if c.Ring != nil {
		v := *c.Ring
		out.Ring = &v
	}
	return out
}
