package track

import (
	"time"

	"github.com/korangar/audio/command"
	"github.com/korangar/audio/decibel"
	"github.com/korangar/audio/frame"
	"github.com/korangar/audio/resource"
	"github.com/korangar/audio/sound"
	"github.com/korangar/audio/tween"
)

// MainTrack is the mixer's root: identical mixing semantics to a plain
// sub-track, except it has no sub-tracks of its own and no spatial data —
// sub-tracks sum directly into the mixer, and MainTrack applies only the
// post-effects master volume on top.
type MainTrack struct {
	volume    *tween.Parameter[decibel.Decibels]
	setVolume command.Reader[command.ValueChangeCommand[decibel.Decibels]]
	sounds    *resource.Registry[sound.Sound]

	tempBuffer []frame.Frame
}

// OnStartProcessing applies the pending volume command, retires finished
// sounds, and runs each remaining sound's own OnStartProcessing.
func (t *MainTrack) OnStartProcessing() {
	t.volume.ReadCommand(t.setVolume)
	t.sounds.RetireAndAdmit(func(s *sound.Sound) bool { return (*s).Finished() })
	t.sounds.Iter(func(s *sound.Sound) { (*s).OnStartProcessing() })
}

// Process sums every sound on the main track into out, then applies the
// master volume sample by sample so volume changes ramp smoothly across a
// block boundary.
func (t *MainTrack) Process(out []frame.Frame, dt float64) {
	n := len(out)
	buf := t.tempBuffer[:n]

	t.sounds.Iter(func(s *sound.Sound) {
		(*s).Process(buf, dt)
		frame.AddInto(out, buf)
		frame.Zeroed(buf)
	})

	t.volume.Update(dt * float64(n))
	for i := 0; i < n; i++ {
		alpha := float64(i+1) / float64(n)
		amp := t.volume.InterpolatedValue(alpha).Amplitude()
		out[i] = out[i].Scale(amp)
	}
}

// MainTrackBuilder configures the main track before it is built.
type MainTrackBuilder struct {
	Volume        decibel.Decibels
	SoundCapacity int
}

// NewMainTrackBuilder returns a MainTrackBuilder with the engine's
// defaults: unity volume, room for 128 concurrent sounds.
func NewMainTrackBuilder() MainTrackBuilder {
	return MainTrackBuilder{Volume: decibel.Identity, SoundCapacity: defaultSoundCapacity}
}

// Build creates the MainTrack and its MainTrackHandle.
func (b MainTrackBuilder) Build(internalBufferSize int) (*MainTrack, *MainTrackHandle) {
	volumeWriter, volumeReader := command.NewMailbox[command.ValueChangeCommand[decibel.Decibels]]()
	sounds, soundController := resource.New[sound.Sound](b.SoundCapacity)

	mainTrack := &MainTrack{
		volume:     tween.NewParameter(decibel.Interpolate, b.Volume),
		setVolume:  volumeReader,
		sounds:     sounds,
		tempBuffer: make([]frame.Frame, internalBufferSize),
	}
	handle := &MainTrackHandle{setVolume: volumeWriter, soundController: soundController}
	return mainTrack, handle
}

// MainTrackHandle controls the mixer's main track.
type MainTrackHandle struct {
	setVolume       command.Writer[command.ValueChangeCommand[decibel.Decibels]]
	soundController *resource.Controller[sound.Sound]
}

func (h *MainTrackHandle) insertSound(s sound.Sound) (resource.Key, error) {
	return h.soundController.Insert(s)
}

// SetVolume changes the master volume, tweening over tweenDuration.
func (h *MainTrackHandle) SetVolume(volume decibel.Decibels, tweenDuration time.Duration) {
	h.setVolume.Write(command.ValueChangeCommand[decibel.Decibels]{Target: volume, TweenDuration: tweenDuration})
}
