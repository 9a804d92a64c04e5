// Package spatial implements the virtual listener and the distance
// attenuation formula used by spatial mixer tracks.
package spatial

import (
	"time"

	"github.com/korangar/audio/command"
	"github.com/korangar/audio/tween"
)

// Listener is the audio-thread side of the scene's single listener: the
// virtual microphone position and orientation that spatial tracks attenuate
// against.
type Listener struct {
	position    *tween.Parameter[tween.Vec3]
	orientation *tween.Parameter[tween.Quat]

	setPosition    command.Reader[command.ValueChangeCommand[tween.Vec3]]
	setOrientation command.Reader[command.ValueChangeCommand[tween.Quat]]
}

// ListenerHandle controls a Listener from outside the audio thread.
type ListenerHandle struct {
	setPosition    command.Writer[command.ValueChangeCommand[tween.Vec3]]
	setOrientation command.Writer[command.ValueChangeCommand[tween.Quat]]
}

// NewListener creates a Listener at the given initial position and
// orientation, and its paired handle.
func NewListener(position tween.Vec3, orientation tween.Quat) (*Listener, ListenerHandle) {
	positionWriter, positionReader := command.NewMailbox[command.ValueChangeCommand[tween.Vec3]]()
	orientationWriter, orientationReader := command.NewMailbox[command.ValueChangeCommand[tween.Quat]]()

	listener := &Listener{
		position:       tween.NewParameter(tween.LerpVec3, position),
		orientation:    tween.NewParameter(tween.SlerpQuat, orientation),
		setPosition:    positionReader,
		setOrientation: orientationReader,
	}
	handle := ListenerHandle{
		setPosition:    positionWriter,
		setOrientation: orientationWriter,
	}
	return listener, handle
}

// DefaultListener creates a Listener at the origin facing the identity
// orientation, with no handle capable of controlling it.
func DefaultListener() *Listener {
	listener, _ := NewListener(tween.Origin, tween.IdentityQuat)
	return listener
}

// OnStartProcessing applies any pending position/orientation commands.
func (l *Listener) OnStartProcessing() {
	l.position.ReadCommand(l.setPosition)
	l.orientation.ReadCommand(l.setOrientation)
}

// Update advances the listener's parameters by dt seconds.
func (l *Listener) Update(dt float64) {
	l.position.Update(dt)
	l.orientation.Update(dt)
}

// Info snapshots the listener's current and previous state for use during
// per-sample or per-sub-block spatial calculation.
func (l *Listener) Info() Info {
	return Info{
		Position:            l.position.Value(),
		Orientation:         l.orientation.Value(),
		PreviousPosition:    l.position.PreviousValue(),
		PreviousOrientation: l.orientation.PreviousValue(),
	}
}

// SetPosition moves the listener to position over tweenDuration.
func (h ListenerHandle) SetPosition(position tween.Vec3, tweenDuration time.Duration) {
	h.setPosition.Write(command.ValueChangeCommand[tween.Vec3]{Target: position, TweenDuration: tweenDuration})
}

// SetOrientation rotates the listener to orientation over tweenDuration. An
// unrotated listener faces the positive Z direction with positive X to the
// right and positive Y up.
func (h ListenerHandle) SetOrientation(orientation tween.Quat, tweenDuration time.Duration) {
	h.setOrientation.Write(command.ValueChangeCommand[tween.Quat]{Target: orientation, TweenDuration: tweenDuration})
}

// Info is a snapshot of a listener's position and orientation, current and
// as of the previous block, used to interpolate spatial audio within a
// block.
type Info struct {
	Position            tween.Vec3
	Orientation         tween.Quat
	PreviousPosition    tween.Vec3
	PreviousOrientation tween.Quat
}

// InterpolatedPosition interpolates between the previous and current
// position.
func (i Info) InterpolatedPosition(amount float64) tween.Vec3 {
	return tween.LerpVec3(i.PreviousPosition, i.Position, amount)
}

// InterpolatedOrientation interpolates between the previous and current
// orientation.
func (i Info) InterpolatedOrientation(amount float64) tween.Quat {
	return tween.SlerpQuat(i.PreviousOrientation, i.Orientation, amount)
}
