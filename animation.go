package thegrid

// This file contains the contract between the scheduler and the animations
// that it plays back to the grid
//
// An animation is constructed from its options and the shared UI state, is
// asked for frames on demand and is released exactly once before the
// scheduler discards it

import (
	"fmt"
	"strconv"
	"time"

	"github.com/karlmutch/errors"

	"github.com/macrodactyl/thegrid/model"
)

// Outcome tags the result of a single animation update
type Outcome int

const (
	Produced Outcome = iota // A frame and the delay until the next update
	Finished                // The animation sequence has ended and should be restarted fresh
	Broken                  // The animation failed
)

func (o Outcome) String() string {
	switch o {
	case Produced:
		return "produced"
	case Finished:
		return "finished"
	case Broken:
		return "broken"
	}
	return "unknown"
}

type Result struct {
	Outcome Outcome
	Frame   *model.Frame
	Delay   time.Duration
	Err     errors.Error
}

// Next is returned by an animation that has produced a frame, the delay is
// the time the scheduler waits before asking for the next frame
func Next(frame *model.Frame, delay time.Duration) Result {
	if delay < 0 {
		delay = 0
	}
	return Result{Outcome: Produced, Frame: frame, Delay: delay}
}

// Exhausted signals that the animation has nothing further to show
func Exhausted() Result {
	return Result{Outcome: Finished}
}

func Failed(err errors.Error) Result {
	return Result{Outcome: Broken, Err: err}
}

// Seconds converts the fractional second delays animations are typically
// written with
func Seconds(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

type Animation interface {
	// Update produces the next frame, the scheduler calls it inline on the
	// frame loop so it must return quickly
	Update() Result

	// Release frees any resources held by the animation, it is called once
	// and never concurrently with Update
	Release()
}

// Base can be embedded by animations that have nothing to release
type Base struct{}

func (Base) Release() {}

type Constructor func(opts Options, ui *UIState) (anim Animation, err errors.Error)

// Options is the flat set of named options an animation is registered with,
// for example a music driven animation might use filename, first_beat,
// align_beat, align_beat_no and beats_per_bar
type Options map[string]interface{}

// Merge returns a copy of the options with the overrides applied on top
func (opts Options) Merge(overrides Options) (merged Options) {
	merged = make(Options, len(opts)+len(overrides))
	for k, v := range opts {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

func (opts Options) Float(name string, fallback float64) float64 {
	switch v := opts[name].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, errGo := strconv.ParseFloat(v, 64); errGo == nil {
			return f
		}
	}
	return fallback
}

func (opts Options) Int(name string, fallback int) int {
	switch v := opts[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if i, errGo := strconv.Atoi(v); errGo == nil {
			return i
		}
	}
	return fallback
}

func (opts Options) String(name string, fallback string) string {
	v, isPresent := opts[name]
	if !isPresent || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (opts Options) Bool(name string, fallback bool) bool {
	switch v := opts[name].(type) {
	case bool:
		return v
	case string:
		if b, errGo := strconv.ParseBool(v); errGo == nil {
			return b
		}
	}
	return fallback
}
