// Package mixer implements the root of the audio graph: the fixed set of
// sub-tracks and the single main track every host audio callback sums
// together, plus the listener they spatialize against.
package mixer

import (
	"github.com/korangar/audio/frame"
	"github.com/korangar/audio/resource"
	"github.com/korangar/audio/spatial"
	"github.com/korangar/audio/track"
	"github.com/korangar/audio/tween"
)

// Mixer owns the mixer tree's top-level sub-tracks and main track. It lives
// entirely on the audio thread; Controller is its caller-side counterpart.
type Mixer struct {
	listener  *spatial.Listener
	mainTrack *track.MainTrack
	subTracks *resource.Registry[*track.Track]

	tempBuffer []frame.Frame
}

// Controller is the caller-side handle produced alongside a Mixer: it can
// add top-level sub-tracks and add/move the listener.
type Controller struct {
	listenerHandle     spatial.ListenerHandle
	subTrackController *resource.Controller[*track.Track]
	internalBufferSize int
}

// New creates a Mixer with its main track (configured by mainTrackBuilder),
// a sub-track registry sized to subTrackCapacity, and a listener starting
// at the origin. internalBufferSize bounds the largest single Process call
// and sizes every track's temporary mixing buffer.
func New(subTrackCapacity, internalBufferSize int, mainTrackBuilder track.MainTrackBuilder) (*Mixer, *Controller, *track.MainTrackHandle) {
	mainTrack, mainTrackHandle := mainTrackBuilder.Build(internalBufferSize)
	subTracks, subTrackController := resource.New[*track.Track](subTrackCapacity)
	listener, listenerHandle := spatial.NewListener(tween.Origin, tween.IdentityQuat)

	m := &Mixer{
		listener:   listener,
		mainTrack:  mainTrack,
		subTracks:  subTracks,
		tempBuffer: make([]frame.Frame, internalBufferSize),
	}
	c := &Controller{
		listenerHandle:     listenerHandle,
		subTrackController: subTrackController,
		internalBufferSize: internalBufferSize,
	}
	return m, c, mainTrackHandle
}

// OnStartProcessing retires should-be-removed top-level sub-tracks, admits
// newly added ones, recurses into each remaining sub-track's own
// OnStartProcessing, runs the main track's OnStartProcessing, and applies
// any pending listener commands.
func (m *Mixer) OnStartProcessing() {
	m.listener.OnStartProcessing()

	m.subTracks.RetireAndAdmit(func(sub **track.Track) bool { return (*sub).ShouldBeRemoved() })
	m.subTracks.Iter(func(sub **track.Track) { (*sub).OnStartProcessing() })

	m.mainTrack.OnStartProcessing()
}

// Process overwrites out with a full mixer callback: zero out, sum every
// top-level sub-track into it, then run the main track over the result.
// len(out) must not exceed the internalBufferSize Mixer was built with;
// the caller (Renderer) is responsible for chunking oversized requests.
func (m *Mixer) Process(out []frame.Frame, dt float64) {
	frame.Zeroed(out)

	m.listener.Update(dt * float64(len(out)))
	listenerInfo := m.listener.Info()

	buf := m.tempBuffer[:len(out)]
	m.subTracks.Iter(func(sub **track.Track) {
		(*sub).Process(buf, dt, listenerInfo)
		frame.AddInto(out, buf)
		frame.Zeroed(buf)
	})

	m.mainTrack.Process(out, dt)
}

// AddSubTrack builds a plain top-level sub-track and schedules it for
// admission into the mixer.
func (c *Controller) AddSubTrack(b track.TrackBuilder) (*track.TrackHandle, error) {
	t, handle := b.Build(c.internalBufferSize)
	if _, err := c.subTrackController.Insert(t); err != nil {
		return nil, err
	}
	return handle, nil
}

// AddSpatialSubTrack builds a top-level spatial sub-track at position and
// schedules it for admission into the mixer.
func (c *Controller) AddSpatialSubTrack(position tween.Vec3, b track.SpatialTrackBuilder) (*track.SpatialTrackHandle, error) {
	t, handle := b.Build(c.internalBufferSize, position)
	if _, err := c.subTrackController.Insert(t); err != nil {
		return nil, err
	}
	return handle, nil
}

// Listener returns the handle controlling the mixer's single listener.
func (c *Controller) Listener() spatial.ListenerHandle {
	return c.listenerHandle
}
