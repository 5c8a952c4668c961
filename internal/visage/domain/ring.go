package domain

// RingEffects is a closed flag set describing ring animation effects.
type RingEffects uint8

const (
	// RingEffectPulse animates the ring with a pulsing glow.
	RingEffectPulse RingEffects = 1 << iota
	// RingEffectGradient renders the ring colors as a gradient.
	RingEffectGradient
	// RingEffectWave animates the ring with a traveling wave.
	RingEffectWave
	// RingEffectInvisibility dims the ring to an invisibility cue.
	RingEffectInvisibility
)

// HasPulse reports whether the pulse effect is set.
func (e RingEffects) HasPulse() bool { return e&RingEffectPulse != 0 }

// HasGradient reports whether the gradient effect is set.
func (e RingEffects) HasGradient() bool { return e&RingEffectGradient != 0 }

// HasWave reports whether the wave effect is set.
func (e RingEffects) HasWave() bool { return e&RingEffectWave != 0 }

// HasInvisibility reports whether the invisibility effect is set.
func (e RingEffects) HasInvisibility() bool { return e&RingEffectInvisibility != 0 }

// With returns the effect set with the given effects added.
func (e RingEffects) With(effects RingEffects) RingEffects { return e | effects }

// Without returns the effect set with the given effects removed.
func (e RingEffects) Without(effects RingEffects) RingEffects { return e &^ effects }

// RingColors holds the two configurable ring colors.
type RingColors struct {
	Ring       string
	Background string
}

// Ring describes the halo drawn around an entity.
//
// A ring is replaced atomically during resolution: a layer that carries an
// enabled ring overwrites the whole descriptor rather than merging fields.
type Ring struct {
	Enabled bool
	Colors  RingColors
	Effects RingEffects
	Subject string
}
