package patterns

// A single lit column sweeps across the grid.  Once the configured number of
// passes have been shown the sweep reports that it is exhausted and the
// scheduler starts it again after its cooldown, hue shifts a little on every
// pass

import (
	"math"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/macrodactyl/thegrid"
	"github.com/macrodactyl/thegrid/model"
)

const sweepHueShift = 40.0

type Sweep struct {
	thegrid.Base
	hue    float64
	passes int
	delay  float64
	col    int
	pass   int
}

func NewSweep(opts thegrid.Options, ui *thegrid.UIState) (anim thegrid.Animation, err errors.Error) {
	passes := opts.Int("passes", 1)
	if passes < 1 {
		return nil, errors.New("sweep passes must be positive").With("passes", passes).With("stack", stack.Trace().TrimRuntime())
	}
	return &Sweep{
		hue:    opts.Float("hue", 0),
		passes: passes,
		delay:  opts.Float("delay", 0.1),
	}, nil
}

func (sweep *Sweep) Update() thegrid.Result {
	if sweep.pass == sweep.passes {
		return thegrid.Exhausted()
	}

	hue := math.Mod(sweep.hue+float64(sweep.pass)*sweepHueShift, 360)
	c := model.Color{}
	c.R, c.G, c.B = colorful.Hsv(hue, 1, 1).Clamped().RGB255()

	frame := model.Blank()
	for row := 0; row != model.Rows; row++ {
		frame.Set(row, sweep.col, c, c)
	}

	sweep.col++
	if sweep.col == model.Cols {
		sweep.col = 0
		sweep.pass++
	}
	return thegrid.Next(frame, thegrid.Seconds(sweep.delay))
}
