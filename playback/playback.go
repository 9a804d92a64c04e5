// Package playback implements the Playing/Stopping/Stopped state machine
// shared by every playable sound, driven by a volume_fade Parameter that
// ramps to silence before the sound actually stops producing frames.
package playback

import (
	"time"

	"github.com/korangar/audio/decibel"
	"github.com/korangar/audio/tween"
)

// State is the playback lifecycle of a sound.
type State int

const (
	Playing State = iota
	Stopping
	Stopped
)

// IsAdvancing reports whether a sound in this state still produces frames.
// While advancing, the instantaneous gain is the fade parameter converted
// to amplitude, interpolated across the block.
func (s State) IsAdvancing() bool {
	return s == Playing || s == Stopping
}

// StateManager tracks a sound's playback lifecycle and its stop-fade
// volume.
type StateManager struct {
	state      State
	volumeFade *tween.Parameter[decibel.Decibels]
}

// NewStateManager creates a StateManager starting in the Playing state at
// unity volume.
func NewStateManager() *StateManager {
	return &StateManager{
		state:      Playing,
		volumeFade: tween.NewParameter(decibel.Interpolate, decibel.Identity),
	}
}

// InterpolatedFadeVolume interpolates the fade volume within the current
// block.
func (m *StateManager) InterpolatedFadeVolume(amount float64) decibel.Decibels {
	return m.volumeFade.InterpolatedValue(amount)
}

// PlaybackState returns the current lifecycle state.
func (m *StateManager) PlaybackState() State {
	return m.state
}

// Stop begins fading the sound to silence over fadeOutTweenDuration. Once
// the fade completes, Update transitions the state to Stopped. Calling Stop
// on an already-Stopped manager is a no-op.
func (m *StateManager) Stop(fadeOutTweenDuration time.Duration) {
	if m.state == Stopped {
		return
	}
	m.state = Stopping
	m.volumeFade.Set(decibel.Silence, fadeOutTweenDuration)
}

// MarkAsStopped forces the state to Stopped immediately, bypassing any
// in-progress fade.
func (m *StateManager) MarkAsStopped() {
	m.state = Stopped
}

// Update advances the fade volume by dt seconds. It reports whether the
// playback state changed to Stopped as a result of this call.
func (m *StateManager) Update(dt float64) (changedToStopped bool) {
	finished := m.volumeFade.Update(dt)
	if m.state == Stopping && finished {
		m.state = Stopped
		return true
	}
	return false
}
