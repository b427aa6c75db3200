package ui2d

// Color is a straight-alpha RGBA colour, each channel in [0, 1].
type Color struct {
	R, G, B, A float32
}

var ColorBlack = Color{0, 0, 0, 1}
