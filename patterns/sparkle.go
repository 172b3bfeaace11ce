package patterns

// Random poles flash and fade out.  The sparkle colour can be changed while
// the animation is running by setting the sparkle_colour UI value to a hex
// colour through the admin API

import (
	"math/rand"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/macrodactyl/thegrid"
	"github.com/macrodactyl/thegrid/model"
)

const SparkleColourKey = "sparkle_colour"

type Sparkle struct {
	thegrid.Base
	ui      *thegrid.UIState
	colour  model.Color
	density float64
	fade    float64
	delay   float64
	glow    [model.Rows][model.Cols]float64
	rnd     *rand.Rand
}

func NewSparkle(opts thegrid.Options, ui *thegrid.UIState) (anim thegrid.Animation, err errors.Error) {
	c, err := colour(opts, "colour", "#FFFFFF")
	if err != nil {
		return nil, err
	}
	density := opts.Float("density", 0.1)
	if density < 0 || density > 1 {
		return nil, errors.New("sparkle density must be between 0 and 1").With("density", density).With("stack", stack.Trace().TrimRuntime())
	}
	seed := int64(opts.Int("seed", 0))
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sparkle{
		ui:      ui,
		colour:  c,
		density: density,
		fade:    opts.Float("fade", 0.6),
		delay:   opts.Float("delay", 0.05),
		rnd:     rand.New(rand.NewSource(seed)),
	}, nil
}

// current picks up a colour override from the UI, a bad value is ignored
func (sparkle *Sparkle) current() model.Color {
	if sparkle.ui == nil {
		return sparkle.colour
	}
	value, isPresent := sparkle.ui.Get(SparkleColourKey)
	if !isPresent {
		return sparkle.colour
	}
	hex, ok := value.(string)
	if !ok {
		return sparkle.colour
	}
	cf, errGo := colorful.Hex(hex)
	if errGo != nil {
		return sparkle.colour
	}
	c := model.Color{}
	c.R, c.G, c.B = cf.RGB255()
	return c
}

func (sparkle *Sparkle) Update() thegrid.Result {
	c := sparkle.current()

	frame := model.Blank()
	for row := range sparkle.glow {
		for col := range sparkle.glow[row] {
			glow := sparkle.glow[row][col] * sparkle.fade
			if sparkle.rnd.Float64() < sparkle.density {
				glow = 1
			}
			sparkle.glow[row][col] = glow
			lit := model.Color{
				R: uint8(float64(c.R) * glow),
				G: uint8(float64(c.G) * glow),
				B: uint8(float64(c.B) * glow),
			}
			frame.Set(row, col, lit, lit)
		}
	}
	return thegrid.Next(frame, thegrid.Seconds(sparkle.delay))
}
