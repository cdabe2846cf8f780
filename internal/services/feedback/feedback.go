// Package feedback implements a label that shows a transient message and then
// returns to its default text.
package feedback

import (
	"sync"
	"time"
)

// Indicator holds a default label and an optional transient message.
type Indicator struct {
	mutex        sync.Mutex
	defaultLabel string
	delay        time.Duration
	current      string
	timer        *time.Timer
	generation   uint64
	onChange     func(string)
}

// NewIndicator returns an Indicator showing defaultLabel. onChange, when not nil,
// is called with the new label whenever it changes, including when a timer
// restores the default. It runs without the Indicator lock held.
func NewIndicator(defaultLabel string, delay time.Duration, onChange func(string)) *Indicator {
	return &Indicator{
		defaultLabel: defaultLabel,
		delay:        delay,
		current:      defaultLabel,
		onChange:     onChange,
	}
}

// Show displays message and arms a one-shot timer that restores the default
// label after the delay. A pending timer from an earlier Show is cancelled.
func (indicator *Indicator) Show(message string) {
	indicator.mutex.Lock()
	if indicator.timer != nil {
		indicator.timer.Stop()
	}
	indicator.generation++
	armedGeneration := indicator.generation
	indicator.current = message
	indicator.timer = time.AfterFunc(indicator.delay, func() {
		indicator.revert(armedGeneration)
	})
	onChange := indicator.onChange
	indicator.mutex.Unlock()

	if onChange != nil {
		onChange(message)
	}
}

// revert restores the default label unless a newer Show superseded generation.
func (indicator *Indicator) revert(generation uint64) {
	indicator.mutex.Lock()
	if generation != indicator.generation {
		indicator.mutex.Unlock()
		return
	}
	indicator.current = indicator.defaultLabel
	indicator.timer = nil
	onChange := indicator.onChange
	label := indicator.current
	indicator.mutex.Unlock()

	if onChange != nil {
		onChange(label)
	}
}

// Current returns the label currently displayed.
func (indicator *Indicator) Current() string {
	indicator.mutex.Lock()
	defer indicator.mutex.Unlock()
	return indicator.current
}

// Default returns the default label.
func (indicator *Indicator) Default() string {
	return indicator.defaultLabel
}

// Stop cancels a pending revert and restores the default label immediately.
func (indicator *Indicator) Stop() {
	indicator.mutex.Lock()
	defer indicator.mutex.Unlock()
	if indicator.timer != nil {
		indicator.timer.Stop()
		indicator.timer = nil
	}
	indicator.generation++
	indicator.current = indicator.defaultLabel
}
