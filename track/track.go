// Package track implements the mixer's tree of mixing nodes: plain
// sub-tracks, spatial sub-tracks that attenuate with distance from the
// listener, and the main track sounds and sub-tracks ultimately sum into.
package track

import (
	"sync/atomic"
	"time"

	"github.com/korangar/audio/command"
	"github.com/korangar/audio/decibel"
	"github.com/korangar/audio/frame"
	"github.com/korangar/audio/playback"
	"github.com/korangar/audio/resource"
	"github.com/korangar/audio/sound"
	"github.com/korangar/audio/spatial"
	"github.com/korangar/audio/tween"
)

const defaultSoundCapacity = 128
const defaultSubTrackCapacity = 128

// defaultSpatialDistances matches the distances a SpatialTrackBuilder uses
// when WithDistances is not supplied.
var defaultSpatialDistances = spatialDistances{min: 1, max: 100}

// defaultSpatializationStrength is the strength a spatial sub-track starts
// at: fully spatialized tracks are the common case, but not quite the
// default, carried over from the original engine's construction.
const defaultSpatializationStrength float32 = 0.75

// TrackShared is the atomic flag a handle uses to mark its Track for
// removal. The audio thread only ever reads it, so marking a track for
// removal never blocks or contends a lock.
type TrackShared struct {
	removed atomic.Bool
}

func newTrackShared() *TrackShared {
	return &TrackShared{}
}

func (s *TrackShared) isMarkedForRemoval() bool {
	return s.removed.Load()
}

func (s *TrackShared) markForRemoval() {
	s.removed.Store(true)
}

type spatialDistances struct {
	min, max float32
}

// spatialData is the optional distance-attenuation state a sub-track built
// through a SpatialTrackBuilder carries.
type spatialData struct {
	position    *tween.Parameter[tween.Vec3]
	setPosition command.Reader[command.ValueChangeCommand[tween.Vec3]]

	distances         spatialDistances
	linearAttenuation bool

	spatializationStrength    *tween.Parameter[float32]
	setSpatializationStrength command.Reader[command.ValueChangeCommand[float32]]
}

// Track is a mixing node: it sums its own sounds and any sub-tracks into
// its output, applies its own volume, and, if it carries spatialData,
// attenuates the result by distance from the listener, before the output
// reaches its parent.
type Track struct {
	shared    *TrackShared
	volume    *tween.Parameter[decibel.Decibels]
	setVolume command.Reader[command.ValueChangeCommand[decibel.Decibels]]
	stop      command.Reader[time.Duration]

	sounds    *resource.Registry[sound.Sound]
	subTracks *resource.Registry[*Track]

	persistUntilSoundsFinish bool
	spatial                  *spatialData

	stateManager *playback.StateManager
	tempBuffer   []frame.Frame
}

// OnStartProcessing applies pending parameter commands, retires finished
// sounds and should-be-removed sub-tracks, and recurses into whatever
// remains. It must run before Process on every callback.
func (t *Track) OnStartProcessing() {
	t.volume.ReadCommand(t.setVolume)
	if duration, ok := t.stop.Read(); ok {
		t.stateManager.Stop(duration)
	}
	if t.spatial != nil {
		t.spatial.position.ReadCommand(t.spatial.setPosition)
		t.spatial.spatializationStrength.ReadCommand(t.spatial.setSpatializationStrength)
	}

	t.subTracks.RetireAndAdmit(func(sub **Track) bool { return (*sub).ShouldBeRemoved() })
	t.subTracks.Iter(func(sub **Track) { (*sub).OnStartProcessing() })

	t.sounds.RetireAndAdmit(func(s *sound.Sound) bool { return (*s).Finished() })
	t.sounds.Iter(func(s *sound.Sound) { (*s).OnStartProcessing() })
}

// Process overwrites out with the sum of this track's sub-tracks and
// sounds, ramping the result by this track's interpolated volume (and, for
// a spatial track, distance attenuation against listener) sample by
// sample, so volume changes and fades never click across a block boundary.
func (t *Track) Process(out []frame.Frame, dt float64, listener spatial.Info) {
	n := len(out)
	buf := t.tempBuffer[:n]
	frame.Zeroed(out)

	t.subTracks.Iter(func(sub **Track) {
		(*sub).Process(buf, dt, listener)
		frame.AddInto(out, buf)
		frame.Zeroed(buf)
	})

	t.sounds.Iter(func(s *sound.Sound) {
		(*s).Process(buf, dt)
		frame.AddInto(out, buf)
		frame.Zeroed(buf)
	})

	blockDuration := dt * float64(n)
	t.volume.Update(blockDuration)
	if t.spatial != nil {
		t.spatial.position.Update(blockDuration)
		t.spatial.spatializationStrength.Update(blockDuration)
	}

	for i := 0; i < n; i++ {
		alpha := float64(i+1) / float64(n)
		amp := t.stateManager.InterpolatedFadeVolume(alpha).Amplitude() * t.volume.InterpolatedValue(alpha).Amplitude()
		if t.spatial != nil {
			settings := spatial.Settings{
				MinDistance:            t.spatial.distances.min,
				MaxDistance:            t.spatial.distances.max,
				LinearAttenuation:      t.spatial.linearAttenuation,
				SpatializationStrength: t.spatial.spatializationStrength.InterpolatedValue(alpha),
			}
			emitter := t.spatial.position.InterpolatedValue(alpha)
			amp *= spatial.Attenuation(listener.InterpolatedPosition(alpha), emitter, settings)
		}
		out[i] = out[i].Scale(amp)
	}

	t.stateManager.Update(blockDuration)
}

// ShouldBeRemoved reports whether the track's parent should retire it on
// its next OnStartProcessing: either its handle was dropped (and, if it
// persists until its sounds finish, those sounds have finished too), or
// the track was itself told to stop and its fade has completed.
func (t *Track) ShouldBeRemoved() bool {
	droppedAndDrained := t.shared.isMarkedForRemoval() && (!t.persistUntilSoundsFinish || t.sounds.IsEmpty())
	return droppedAndDrained || t.stateManager.PlaybackState() == playback.Stopped
}

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
