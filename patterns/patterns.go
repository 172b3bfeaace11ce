// Package patterns contains the animations built into the grid daemon.
//
// Every animation is a thegrid.Kind which the catalog can register under its
// own name or under aliases with different options
package patterns

import (
	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/macrodactyl/thegrid"
	"github.com/macrodactyl/thegrid/model"
)

// Kinds returns every built in animation
func Kinds() []thegrid.Kind {
	return []thegrid.Kind{
		{Name: "Off", Constructor: NewStatic, Defaults: thegrid.Options{"colour": "#000000", "delay": 1.0}},
		{Name: "On", Constructor: NewStatic, Defaults: thegrid.Options{"colour": "#FFFFFF", "delay": 1.0}},
		{Name: "Fire", Constructor: NewFire, Defaults: thegrid.Options{"delay": 0.01, "decay": 0.8, "seed": 0}},
		{Name: "ColourRipple", Constructor: NewColourRipple, Defaults: thegrid.Options{"delay": 0.1, "steps": 10, "blend": "rgb"}},
		{Name: "Sweep", Constructor: NewSweep, Defaults: thegrid.Options{"delay": 0.1, "hue": 0.0, "passes": 1}},
		{Name: "Sparkle", Constructor: NewSparkle, Defaults: thegrid.Options{"delay": 0.05, "colour": "#FFFFFF", "density": 0.1, "fade": 0.6, "seed": 0}},
	}
}

// colour parses a hex option such as #FF8000
func colour(opts thegrid.Options, name string, fallback string) (c model.Color, err errors.Error) {
	hex := opts.String(name, fallback)
	cf, errGo := colorful.Hex(hex)
	if errGo != nil {
		return c, errors.Wrap(errGo).With("option", name).With("value", hex).With("stack", stack.Trace().TrimRuntime())
	}
	c.R, c.G, c.B = cf.RGB255()
	return c, nil
}

// Static shows a single colour on both halves of every pole
type Static struct {
	thegrid.Base
	frame model.Frame
	delay float64
}

func NewStatic(opts thegrid.Options, ui *thegrid.UIState) (anim thegrid.Animation, err errors.Error) {
	c, err := colour(opts, "colour", "#000000")
	if err != nil {
		return nil, err
	}
	static := &Static{delay: opts.Float("delay", 1.0)}
	static.frame.Fill(c, c)
	return static, nil
}

func (static *Static) Update() thegrid.Result {
	frame := static.frame
	return thegrid.Next(&frame, thegrid.Seconds(static.delay))
}
