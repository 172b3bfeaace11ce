package thegrid

import (
	"sync"
)

// UIState is the state shared between the admin surface and the animations.
// The admin side writes it from HTTP handlers while animations read it from
// the frame loop
type UIState struct {
	values map[string]interface{}
	sync.RWMutex
}

func NewUIState() (ui *UIState) {
	return &UIState{
		values: map[string]interface{}{},
	}
}

func (ui *UIState) Get(key string) (value interface{}, isPresent bool) {
	ui.RLock()
	defer ui.RUnlock()
	value, isPresent = ui.values[key]
	return value, isPresent
}

func (ui *UIState) Set(key string, value interface{}) {
	ui.Lock()
	ui.values[key] = value
	ui.Unlock()
}

// Snapshot returns a copy of the current values
func (ui *UIState) Snapshot() (values Options) {
	ui.RLock()
	defer ui.RUnlock()

	values = make(Options, len(ui.values))
	for k, v := range ui.values {
		values[k] = v
	}
	return values
}
