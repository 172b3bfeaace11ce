package patterns

// Colours ripple outwards from the centre of the grid, moving gradually
// through the spectrum.  The centre pole shows the newest colour and each
// square ring around it shows the colour from one step earlier

import (
	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/macrodactyl/thegrid"
	"github.com/macrodactyl/thegrid/model"
)

const rings = 4

var (
	rippleStarts = []colorful.Color{{R: 1}, {G: 1}, {B: 1}}
	rippleEnds   = []colorful.Color{{G: 1}, {B: 1}, {R: 1}}
)

type ColourRipple struct {
	thegrid.Base

	// colours[0] is the newest colour, shown at the centre
	colours [rings]model.Color

	steps   int
	step    int
	segment int
	lab     bool
	delay   float64
}

func NewColourRipple(opts thegrid.Options, ui *thegrid.UIState) (anim thegrid.Animation, err errors.Error) {
	steps := opts.Int("steps", 10)
	if steps < 1 {
		return nil, errors.New("ripple steps must be positive").With("steps", steps).With("stack", stack.Trace().TrimRuntime())
	}

	ripple := &ColourRipple{
		steps: steps,
		delay: opts.Float("delay", 0.1),
	}
	switch blend := opts.String("blend", "rgb"); blend {
	case "rgb":
	case "lab":
		ripple.lab = true
	default:
		return nil, errors.New("unknown ripple blend").With("blend", blend).With("stack", stack.Trace().TrimRuntime())
	}

	for i := range ripple.colours {
		ripple.colours[i] = model.Color{R: 255, G: 255, B: 255}
	}
	return ripple, nil
}

// next produces the following colour of the gradient
func (ripple *ColourRipple) next() (c model.Color) {
	start, end := rippleStarts[ripple.segment], rippleEnds[ripple.segment]
	t := float64(ripple.step) / float64(ripple.steps)

	blended := start.BlendRgb(end, t)
	if ripple.lab {
		blended = start.BlendLab(end, t).Clamped()
	}
	c.R, c.G, c.B = blended.RGB255()

	ripple.step++
	if ripple.step == ripple.steps {
		ripple.step = 0
		ripple.segment = (ripple.segment + 1) % len(rippleStarts)
	}
	return c
}

func ring(row int, col int) int {
	dr, dc := row-model.Rows/2, col-model.Cols/2
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	if dr > dc {
		return dr
	}
	return dc
}

func (ripple *ColourRipple) Update() thegrid.Result {
	copy(ripple.colours[1:], ripple.colours[:rings-1])
	ripple.colours[0] = ripple.next()

	frame := model.Blank()
	for row := range frame {
		for col := range frame[row] {
			frame[row][col].SetA(ripple.colours[ring(row, col)])
		}
	}
	return thegrid.Next(frame, thegrid.Seconds(ripple.delay))
}
