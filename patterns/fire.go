package patterns

// A flame like fireplace effect.  Each frame every pole takes a darker copy
// of the colour of the pole below it and the bottom row is relit with a
// random yellow or orange

import (
	"math/rand"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/macrodactyl/thegrid"
	"github.com/macrodactyl/thegrid/model"
)

type Fire struct {
	thegrid.Base
	heat  model.Frame
	decay float64
	delay float64
	rnd   *rand.Rand
}

func NewFire(opts thegrid.Options, ui *thegrid.UIState) (anim thegrid.Animation, err errors.Error) {
	seed := int64(opts.Int("seed", 0))
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	decay := opts.Float("decay", 0.8)
	if decay < 0 || decay > 1 {
		return nil, errors.New("fire decay must be between 0 and 1").With("decay", decay).With("stack", stack.Trace().TrimRuntime())
	}
	return &Fire{
		decay: decay,
		delay: opts.Float("delay", 0.01),
		rnd:   rand.New(rand.NewSource(seed)),
	}, nil
}

func (fire *Fire) Update() thegrid.Result {
	for col := 0; col != model.Cols; col++ {
		for row := 0; row != model.Rows-1; row++ {
			below := fire.heat[row+1][col].A()
			fire.heat[row][col].SetA(model.Color{
				R: uint8(float64(below.R) * fire.decay),
				G: uint8(float64(below.G) * fire.decay),
				B: uint8(float64(below.B) * fire.decay),
			})
		}
	}

	for col := 0; col != model.Cols; col++ {
		fire.heat[model.Rows-1][col].SetA(model.Color{
			R: uint8(fire.rnd.Float64()*20 + 235),
			G: uint8(fire.rnd.Float64()*100 + 55),
		})
	}

	frame := fire.heat
	return thegrid.Next(&frame, thegrid.Seconds(fire.delay))
}
