package domain

// Texture describes the entity's image reference and signed axis scales.
// Negative scales encode mirroring.
type Texture struct {
	Src    string
	ScaleX float64
	ScaleY float64
}

// BaseSnapshot captures an entity's pre-override state. It is taken lazily
// the first time a layer is pushed onto an empty stack and stays immutable
// until the stack empties again.
type BaseSnapshot struct {
	DisplayName string
	Disposition Disposition
	Texture     Texture
	Width       float64
	Height      float64
	Ring        Ring
}
