package model

// This module defines the implementation neutral grid data structures that
// animations produce and that the encoder and viewers consume

const (
	Rows     = 7
	Cols     = 7
	Channels = 6
)

type Color struct {
	R, G, B uint8
}

// Cell holds the two colors of a single pole, channels 0-2 are color A and
// channels 3-5 are color B
type Cell [Channels]uint8

// Frame is one complete grid of poles.  Marshalled using encoding/json it
// produces rows of columns of 6 channel values which is the viewer format
type Frame [Rows][Cols]Cell

func (c Cell) A() Color {
	return Color{R: c[0], G: c[1], B: c[2]}
}

func (c Cell) B() Color {
	return Color{R: c[3], G: c[4], B: c[5]}
}

func (c *Cell) SetA(col Color) {
	c[0], c[1], c[2] = col.R, col.G, col.B
}

func (c *Cell) SetB(col Color) {
	c[3], c[4], c[5] = col.R, col.G, col.B
}

// Off reports whether the hardware controller treats the pole as dark.  The
// blue test only requires one of the two blue channels to be zero, this
// matches the controller firmware and must not be tightened
func (c Cell) Off() bool {
	return c[0] == 0 && c[1] == 0 &&
		c[3] == 0 && c[4] == 0 &&
		(c[2] == 0 || c[5] == 0)
}

// Blank returns a frame with every channel of every pole set to zero
func Blank() (frame *Frame) {
	return &Frame{}
}

func (f *Frame) Set(row int, col int, a Color, b Color) {
	f[row][col].SetA(a)
	f[row][col].SetB(b)
}

func (f *Frame) Fill(a Color, b Color) {
	for row := range f {
		for col := range f[row] {
			f.Set(row, col, a, b)
		}
	}
}

// Lit returns the on/off state of every pole using the hardware predicate
func (f *Frame) Lit() (lit [Rows][Cols]bool) {
	for row := range f {
		for col := range f[row] {
			lit[row][col] = !f[row][col].Off()
		}
	}
	return lit
}
