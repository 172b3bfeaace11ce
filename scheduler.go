package thegrid

// This file contains the frame loop that plays the active animation back to
// the grid.
//
// A single goroutine owns the pending timer and the active animation.  Every
// time the timer fires the animation is asked for a frame, the frame is
// published and exactly one new timer is armed, either for the delay the
// animation asked for or for the cooldown that follows a failure.  Requests
// from the admin surface are passed to the same goroutine as closures so the
// animation is never touched from anywhere else

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/karlmutch/errors"

	"github.com/macrodactyl/thegrid/model"
)

const (
	// Cooldown is the pause after an animation finishes or fails before its
	// replacement is first asked for a frame
	Cooldown = time.Second

	// PollInterval is how often the loop wakes up while no animation is loaded
	PollInterval = time.Second
)

type State int

const (
	NoAnimation State = iota
	Running
	Recovering
)

func (s State) String() string {
	switch s {
	case NoAnimation:
		return "no-animation"
	case Running:
		return "running"
	case Recovering:
		return "recovering"
	}
	return "unknown"
}

// Output receives every frame the loop produces, the broadcaster is the
// production implementation
type Output interface {
	Publish(frame *model.Frame)
	Close() (err errors.Error)
}

type Scheduler struct {
	registry *Registry
	ui       *UIState
	out      Output
	clock    Clock

	// Only accessed from the loop goroutine
	anim  Animation
	name  string
	state State

	requestC chan func()
	quitC    chan struct{}
	doneC    chan struct{}

	stopOnce sync.Once
	stopErr  errors.Error
}

// StartScheduler creates the scheduler and starts its loop, the first timer
// fires immediately
func StartScheduler(registry *Registry, ui *UIState, out Output, clock Clock) (s *Scheduler) {
	if ui == nil {
		ui = NewUIState()
	}
	if clock == nil {
		clock = RealClock()
	}
	s = &Scheduler{
		registry: registry,
		ui:       ui,
		out:      out,
		clock:    clock,
		state:    NoAnimation,
		requestC: make(chan func()),
		quitC:    make(chan struct{}),
		doneC:    make(chan struct{}),
	}

	go s.run()

	return s
}

func (s *Scheduler) run() {
	defer close(s.doneC)

	timer := s.clock.NewTimer(0)
	for {
		select {
		case <-timer.C():
			timer = s.clock.NewTimer(s.fire())
		case req := <-s.requestC:
			req()
		case <-s.quitC:
			timer.Stop()
			s.release()
			return
		}
	}
}

// do runs fn on the loop goroutine and waits for it to complete
func (s *Scheduler) do(fn func()) (err errors.Error) {
	done := make(chan struct{})
	req := func() {
		defer close(done)
		fn()
	}

	select {
	case s.requestC <- req:
	case <-s.doneC:
		return errors.New("scheduler has been shut down").With("stack", stack.Trace().TrimRuntime())
	}
	<-done
	return nil
}

// fire handles a single timer expiry and returns the delay before the next
func (s *Scheduler) fire() (delay time.Duration) {
	if s.anim == nil {
		return PollInterval
	}

	result := s.update()

	switch result.Outcome {
	case Produced:
		if result.Frame != nil {
			s.out.Publish(result.Frame)
			return result.Delay
		}
		logger.Warn("animation produced no frame, restarting", "name", s.name, "cooldown", Cooldown.String())
	case Finished:
		logger.Info("animation stopped, restarting", "name", s.name, "cooldown", Cooldown.String())
	default:
		msg := "unknown failure"
		if result.Err != nil {
			msg = result.Err.Error()
		}
		logger.Warn("animation failed, restarting", "name", s.name, "cooldown", Cooldown.String(), "error", msg)
	}

	s.restart()
	return Cooldown
}

// update asks the animation for its next frame, a panic within the animation
// is reported as a failure
func (s *Scheduler) update() (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Failed(errors.New(fmt.Sprint(r)).With("name", s.name).With("stack", stack.Trace().TrimRuntime()))
		}
	}()
	return s.anim.Update()
}

// restart blanks the grid and replaces the animation with a fresh instance
// of the same one
func (s *Scheduler) restart() {
	name := s.name
	s.state = Recovering

	s.out.Publish(model.Blank())

	if err := s.load(name); err != nil {
		logger.Error("animation could not be restarted", "name", name, "error", err.Error())
	}
}

// release discards the active animation, if any
func (s *Scheduler) release() {
	if s.anim == nil {
		return
	}
	anim, name := s.anim, s.name
	s.anim, s.name, s.state = nil, "", NoAnimation

	logger.Debug("releasing animation", "name", name)
	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Warn("animation release failed", "name", name, "error", fmt.Sprint(r))
			}
		}()
		anim.Release()
	}()
}

func construct(entry Entry, ui *UIState) (anim Animation, err errors.Error) {
	defer func() {
		if r := recover(); r != nil {
			anim = nil
			err = errors.New(fmt.Sprint(r)).With("name", entry.Name).With("stack", stack.Trace().TrimRuntime())
		}
	}()

	anim, err = entry.Constructor(entry.Defaults.Merge(nil), ui)
	if err == nil && anim == nil {
		err = errors.New("animation constructor returned nothing").With("name", entry.Name).With("stack", stack.Trace().TrimRuntime())
	}
	return anim, err
}

func (s *Scheduler) load(name string) (err errors.Error) {
	s.release()

	entry, err := s.registry.Lookup(name)
	if err != nil {
		return err
	}

	anim, err := construct(entry, s.ui)
	if err != nil {
		return err.With("name", name)
	}

	s.anim, s.name, s.state = anim, name, Running
	logger.Info("animation loaded", "name", name)
	return nil
}

// Load replaces the active animation with a new instance of the named one.
// Should construction fail no animation is left active
func (s *Scheduler) Load(name string) (err errors.Error) {
	if errDo := s.do(func() { err = s.load(name) }); errDo != nil {
		return errDo
	}
	return err
}

// Reload rebuilds the registry, the active animation is unaffected and only
// later loads see the new definitions
func (s *Scheduler) Reload() (err errors.Error) {
	return s.registry.Reload()
}

// Current returns the name of the active animation, empty when there is none
func (s *Scheduler) Current() (name string) {
	s.do(func() { name = s.name })
	return name
}

func (s *Scheduler) State() (state State) {
	state = NoAnimation
	s.do(func() { state = s.state })
	return state
}

func (s *Scheduler) Registry() *Registry {
	return s.registry
}

func (s *Scheduler) UI() *UIState {
	return s.ui
}

// Shutdown stops the loop, releases the active animation and closes the
// output.  It can be called any number of times, every call returns after
// the shutdown has completed
func (s *Scheduler) Shutdown() (err errors.Error) {
	s.stopOnce.Do(func() {
		close(s.quitC)
		<-s.doneC
		s.stopErr = s.out.Close()
	})
	return s.stopErr
}
