// Package tween manages values that can be smoothly transitioned over time:
// the Parameter state machine itself, plus the Vec3/Quat interpolation
// helpers used by spatial parameters.
//
// You'll only need this package directly if you're implementing a custom
// Sound. To adjust a parameter of something from game code (the volume of a
// sound, the position of a spatial track), use the methods on that object's
// handle.
package tween

import (
	"time"

	"github.com/korangar/audio/command"
)

// Interpolator computes the value amount of the way from a to b, where
// amount is typically in [0, 1]. It is the Go stand-in for the Rust
// Tweenable trait: Go generics cannot attach methods to primitive type
// parameters, so Parameter takes the interpolation function explicitly.
type Interpolator[T any] func(a, b T, amount float64) T

type parameterState[T any] struct {
	tweening      bool
	idleValue     T
	start         T
	target        T
	elapsed       float64
	tweenDuration float64
}

// Parameter manages and updates a value that can be smoothly transitioned.
type Parameter[T any] struct {
	interpolate       Interpolator[T]
	state             parameterState[T]
	rawValue          T
	previousRawValue  T
}

// NewParameter creates a Parameter with an initial value, interpolated
// using interpolate when tweening or sub-block sampling is required.
func NewParameter[T any](interpolate Interpolator[T], initial T) *Parameter[T] {
	return &Parameter[T]{
		interpolate:      interpolate,
		state:            parameterState[T]{idleValue: initial},
		rawValue:         initial,
		previousRawValue: initial,
	}
}

// Value returns the current actual value of the parameter.
func (p *Parameter[T]) Value() T {
	return p.rawValue
}

// PreviousValue returns the value as of the previous Update call.
func (p *Parameter[T]) PreviousValue() T {
	return p.previousRawValue
}

// InterpolatedValue returns the value interpolated between the previous and
// current actual value, for sub-block accuracy.
func (p *Parameter[T]) InterpolatedValue(amount float64) T {
	return p.interpolate(p.previousRawValue, p.rawValue, amount)
}

// Set starts a transition from the current value to target over
// tweenDuration.
func (p *Parameter[T]) Set(target T, tweenDuration time.Duration) {
	p.state = parameterState[T]{
		tweening:      true,
		start:         p.Value(),
		target:        target,
		elapsed:       0,
		tweenDuration: tweenDuration.Seconds(),
	}
}

// ReadCommand reads a pending ValueChangeCommand from reader, if any, and
// applies it via Set.
func (p *Parameter[T]) ReadCommand(reader command.Reader[command.ValueChangeCommand[T]]) {
	if cmd, ok := reader.Read(); ok {
		p.Set(cmd.Target, cmd.TweenDuration)
	}
}

// Update advances any in-progress transition by dt seconds. It reports
// whether a transition just finished as a result of this call.
func (p *Parameter[T]) Update(dt float64) (justFinishedTween bool) {
	p.previousRawValue = p.rawValue
	justFinishedTween = p.updateTween(dt)
	p.rawValue = p.calculateNewRawValue()
	return justFinishedTween
}

func (p *Parameter[T]) updateTween(dt float64) bool {
	if !p.state.tweening {
		return false
	}
	p.state.elapsed += dt
	if p.state.elapsed >= p.state.tweenDuration {
		p.state = parameterState[T]{idleValue: p.state.target}
		return true
	}
	return false
}

func (p *Parameter[T]) calculateNewRawValue() T {
	if !p.state.tweening {
		return p.state.idleValue
	}
	if p.state.tweenDuration == 0 {
		return p.state.target
	}
	return p.interpolate(p.state.start, p.state.target, p.state.elapsed/p.state.tweenDuration)
}
