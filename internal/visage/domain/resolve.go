package domain

import "math"

// Resolved is the final entity appearance produced by folding a layer stack
// over a base snapshot.
type Resolved struct {
	DisplayName string
	Disposition Disposition
	Texture     Texture
	Width       float64
	Height      float64
	Ring        Ring
}

// Resolve folds the stack bottom-to-top over the base snapshot, applying
// only the changeset fields each layer actually carries. Disabled layers
// are skipped; malformed fields are dropped per layer without affecting the
// rest. Resolve is pure: the same inputs always produce the same value.
func Resolve(base BaseSnapshot, stack []Layer) Resolved {
	acc := Resolved{
		DisplayName: base.DisplayName,
		Disposition: base.Disposition,
		Texture:     base.Texture,
		Width:       base.Width,
		Height:      base.Height,
		Ring:        base.Ring,
	}

	for _, layer := range stack {
		if layer.Disabled {
			continue
		}
		cs, _ := layer.Changeset.Sanitized()

		if cs.ImageRef != nil {
			acc.Texture.Src = *cs.ImageRef
		}

		if cs.ScaleMagnitude != nil || cs.FlipX != nil || cs.FlipY != nil {
			// Orientation defaults to whatever the stack has accumulated so
			// far; magnitude likewise. A layer carrying only one of the two
			// recomputes the signed scale from the other's current value.
			flipX := acc.Texture.ScaleX < 0
			if cs.FlipX != nil {
				flipX = *cs.FlipX
			}
			flipY := acc.Texture.ScaleY < 0
			if cs.FlipY != nil {
				flipY = *cs.FlipY
			}
			magX := math.Abs(acc.Texture.ScaleX)
			magY := math.Abs(acc.Texture.ScaleY)
			if cs.ScaleMagnitude != nil {
				magX = *cs.ScaleMagnitude
				magY = *cs.ScaleMagnitude
			}
			acc.Texture.ScaleX = signed(magX, flipX)
			acc.Texture.ScaleY = signed(magY, flipY)
		}

		if cs.Ring != nil && cs.Ring.Enabled {
			// Ring is atomic: an enabled ring replaces the whole descriptor.
			acc.Ring = *cs.Ring
		}

		if cs.Disposition != nil {
			acc.Disposition = *cs.Disposition
		}
		if cs.DisplayName != nil {
			acc.DisplayName = *cs.DisplayName
		}
		if cs.Width != nil {
			acc.Width = *cs.Width
		}
		if cs.Height != nil {
			acc.Height = *cs.Height
		}
	}

	return acc
}

func signed(magnitude float64, flipped bool) float64 {
	if flipped {
		return -magnitude
	}
	return magnitude
}
