package track

import (
	"time"

	"github.com/korangar/audio/command"
	"github.com/korangar/audio/decibel"
	"github.com/korangar/audio/engineerr"
	"github.com/korangar/audio/frame"
	"github.com/korangar/audio/playback"
	"github.com/korangar/audio/resource"
	"github.com/korangar/audio/sound"
	"github.com/korangar/audio/tween"
)

// TrackBuilder configures a plain (non-spatial) sub-track before it is
// built.
type TrackBuilder struct {
	Volume                   decibel.Decibels
	SoundCapacity            int
	SubTrackCapacity         int
	PersistUntilSoundsFinish bool
}

// NewTrackBuilder returns a TrackBuilder with the engine's defaults:
// unity volume, room for 128 concurrent sounds and 128 further sub-tracks.
func NewTrackBuilder() TrackBuilder {
	return TrackBuilder{
		Volume:           decibel.Identity,
		SoundCapacity:    defaultSoundCapacity,
		SubTrackCapacity: defaultSubTrackCapacity,
	}
}

// Build creates the Track and its TrackHandle. internalBufferSize sizes the
// track's temporary mixing buffer and must match the mixer's configured
// internal buffer size.
func (b TrackBuilder) Build(internalBufferSize int) (*Track, *TrackHandle) {
	volumeWriter, volumeReader := command.NewMailbox[command.ValueChangeCommand[decibel.Decibels]]()
	stopWriter, stopReader := command.NewMailbox[time.Duration]()
	shared := newTrackShared()
	sounds, soundController := resource.New[sound.Sound](b.SoundCapacity)
	subTracks, subTrackController := resource.New[*Track](b.SubTrackCapacity)

	t := &Track{
		shared:                   shared,
		volume:                   tween.NewParameter(decibel.Interpolate, b.Volume),
		setVolume:                volumeReader,
		stop:                     stopReader,
		sounds:                   sounds,
		subTracks:                subTracks,
		persistUntilSoundsFinish: b.PersistUntilSoundsFinish,
		stateManager:             playback.NewStateManager(),
		tempBuffer:               make([]frame.Frame, internalBufferSize),
	}
	handle := &TrackHandle{
		shared:             shared,
		setVolume:          volumeWriter,
		stop:               stopWriter,
		soundController:    soundController,
		subTrackController: subTrackController,
		internalBufferSize: internalBufferSize,
	}
	return t, handle
}

// TrackHandle controls a plain sub-track from outside the audio thread.
// Dropping it (calling Close) marks the track for removal once its sounds
// finish, subject to PersistUntilSoundsFinish.
type TrackHandle struct {
	shared             *TrackShared
	setVolume          command.Writer[command.ValueChangeCommand[decibel.Decibels]]
	stop               command.Writer[time.Duration]
	soundController    *resource.Controller[sound.Sound]
	subTrackController *resource.Controller[*Track]
	internalBufferSize int
}

func (h *TrackHandle) insertSound(s sound.Sound) (resource.Key, error) {
	return h.soundController.Insert(s)
}

// SetVolume changes the track's volume, tweening over tweenDuration.
func (h *TrackHandle) SetVolume(volume decibel.Decibels, tweenDuration time.Duration) {
	h.setVolume.Write(command.ValueChangeCommand[decibel.Decibels]{Target: volume, TweenDuration: tweenDuration})
}

// Stop fades the track itself to silence over fadeOutTweenDuration; once
// the fade completes the mixer retires the track regardless of
// PersistUntilSoundsFinish.
func (h *TrackHandle) Stop(fadeOutTweenDuration time.Duration) {
	h.stop.Write(fadeOutTweenDuration)
}

// Close marks the track for removal. The track is actually retired by its
// parent's next OnStartProcessing, once PersistUntilSoundsFinish (if set)
// is satisfied.
func (h *TrackHandle) Close() {
	h.shared.markForRemoval()
}

// AddSubTrack builds a plain sub-track of this track and schedules it for
// admission.
func (h *TrackHandle) AddSubTrack(b TrackBuilder) (*TrackHandle, error) {
	t, subHandle := b.Build(h.internalBufferSize)
	if _, err := h.subTrackController.Insert(t); err != nil {
		return nil, err
	}
	return subHandle, nil
}

// AddSpatialSubTrack builds a spatial sub-track at position and schedules
// it for admission through the same sub-track registry a plain sub-track
// uses.
func (h *TrackHandle) AddSpatialSubTrack(position tween.Vec3, b SpatialTrackBuilder) (*SpatialTrackHandle, error) {
	t, subHandle := b.Build(h.internalBufferSize, position)
	if _, err := h.subTrackController.Insert(t); err != nil {
		return nil, err
	}
	return subHandle, nil
}

// SpatialTrackOption configures a SpatialTrackBuilder.
type SpatialTrackOption func(*SpatialTrackBuilder)

// WithPersistUntilSoundsFinish keeps a spatial sub-track alive after its
// handle is dropped until every sound playing on it has finished, instead
// of cutting them off immediately.
func WithPersistUntilSoundsFinish() SpatialTrackOption {
	return func(b *SpatialTrackBuilder) { b.persistUntilSoundsFinish = true }
}

// WithDistances sets the minimum and maximum attenuation distances. The
// default is 1 to 100 (arbitrary world units).
func WithDistances(minDistance, maxDistance float32) SpatialTrackOption {
	return func(b *SpatialTrackBuilder) { b.distances = spatialDistances{min: minDistance, max: maxDistance} }
}

// WithLinearAttenuation selects between the two attenuation modes: linear
// falloff between min and max distance (the default), or constant gain at
// every distance.
func WithLinearAttenuation(linear bool) SpatialTrackOption {
	return func(b *SpatialTrackBuilder) { b.linearAttenuation = linear }
}

// SpatialTrackBuilder configures a spatial sub-track before it is built.
type SpatialTrackBuilder struct {
	persistUntilSoundsFinish bool
	distances                spatialDistances
	linearAttenuation        bool
	soundCapacity            int
}

// NewSpatialTrackBuilder returns a SpatialTrackBuilder with the engine's
// defaults (distances 1 to 100, linear attenuation, spatialization
// strength 0.75), applying any options.
func NewSpatialTrackBuilder(opts ...SpatialTrackOption) SpatialTrackBuilder {
	b := SpatialTrackBuilder{
		distances:         defaultSpatialDistances,
		linearAttenuation: true,
		soundCapacity:     defaultSoundCapacity,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Build creates the Track and its SpatialTrackHandle at the given initial
// position.
func (b SpatialTrackBuilder) Build(internalBufferSize int, position tween.Vec3) (*Track, *SpatialTrackHandle) {
	shared := newTrackShared()
	sounds, soundController := resource.New[sound.Sound](b.soundCapacity)
	// Spatial sub-tracks don't nest further: their sub-track registry is
	// never exposed through a controller.
	subTracks, _ := resource.New[*Track](0)

	volumeWriter, volumeReader := command.NewMailbox[command.ValueChangeCommand[decibel.Decibels]]()
	stopWriter, stopReader := command.NewMailbox[time.Duration]()
	positionWriter, positionReader := command.NewMailbox[command.ValueChangeCommand[tween.Vec3]]()
	strengthWriter, strengthReader := command.NewMailbox[command.ValueChangeCommand[float32]]()

	t := &Track{
		shared:                   shared,
		volume:                   tween.NewParameter(decibel.Interpolate, decibel.Identity),
		setVolume:                volumeReader,
		stop:                     stopReader,
		sounds:                   sounds,
		subTracks:                subTracks,
		persistUntilSoundsFinish: b.persistUntilSoundsFinish,
		spatial: &spatialData{
			position:                  tween.NewParameter(tween.LerpVec3, position),
			setPosition:               positionReader,
			distances:                 b.distances,
			linearAttenuation:         b.linearAttenuation,
			spatializationStrength:    tween.NewParameter(tween.LerpFloat32, defaultSpatializationStrength),
			setSpatializationStrength: strengthReader,
		},
		stateManager: playback.NewStateManager(),
		tempBuffer:   make([]frame.Frame, internalBufferSize),
	}
	handle := &SpatialTrackHandle{
		shared:                    shared,
		setVolume:                 volumeWriter,
		stop:                      stopWriter,
		setPosition:               positionWriter,
		setSpatializationStrength: strengthWriter,
		soundController:           soundController,
	}
	return t, handle
}

// SpatialTrackHandle controls a spatial sub-track from outside the audio
// thread. Unlike TrackHandle it cannot add further sub-tracks: spatial
// tracks are leaves of the mixer tree.
type SpatialTrackHandle struct {
	shared                    *TrackShared
	setVolume                 command.Writer[command.ValueChangeCommand[decibel.Decibels]]
	stop                      command.Writer[time.Duration]
	setPosition               command.Writer[command.ValueChangeCommand[tween.Vec3]]
	setSpatializationStrength command.Writer[command.ValueChangeCommand[float32]]
	soundController           *resource.Controller[sound.Sound]
}

func (h *SpatialTrackHandle) insertSound(s sound.Sound) (resource.Key, error) {
	return h.soundController.Insert(s)
}

// SetVolume changes the track's volume, tweening over tweenDuration.
func (h *SpatialTrackHandle) SetVolume(volume decibel.Decibels, tweenDuration time.Duration) {
	h.setVolume.Write(command.ValueChangeCommand[decibel.Decibels]{Target: volume, TweenDuration: tweenDuration})
}

// SetPosition moves the track's emitter position, tweening over
// tweenDuration.
func (h *SpatialTrackHandle) SetPosition(position tween.Vec3, tweenDuration time.Duration) {
	h.setPosition.Write(command.ValueChangeCommand[tween.Vec3]{Target: position, TweenDuration: tweenDuration})
}

// SetSpatializationStrength changes how strongly distance attenuates the
// track, tweening over tweenDuration. strength is clamped to [0, 1] here,
// at the parameter-set boundary, so an in-progress tween can never
// overshoot the clamp.
func (h *SpatialTrackHandle) SetSpatializationStrength(strength float32, tweenDuration time.Duration) {
	h.setSpatializationStrength.Write(command.ValueChangeCommand[float32]{Target: clampUnit(strength), TweenDuration: tweenDuration})
}

// Stop fades the track itself to silence over fadeOutTweenDuration.
func (h *SpatialTrackHandle) Stop(fadeOutTweenDuration time.Duration) {
	h.stop.Write(fadeOutTweenDuration)
}

// Close marks the track for removal.
func (h *SpatialTrackHandle) Close() {
	h.shared.markForRemoval()
}

// soundPlayer is implemented by every handle that owns a sound registry
// (TrackHandle, SpatialTrackHandle, MainTrackHandle), letting Play work
// across all three without duplicating its body.
type soundPlayer interface {
	insertSound(sound.Sound) (resource.Key, error)
}

// Play constructs a Sound from data off the audio thread (this is where
// decoding or file I/O happens) and schedules it for admission into
// target's sound registry. It returns a handle for controlling the sound
// once it starts playing.
func Play[H any](target soundPlayer, data sound.Data[H]) (H, error) {
	var zero H
	snd, handle, err := data.IntoSound()
	if err != nil {
		return zero, engineerr.PlaySoundError[error]{Cause: err}
	}
	if _, err := target.insertSound(snd); err != nil {
		return zero, engineerr.PlaySoundError[error]{SoundLimitReached: true}
	}
	return handle, nil
}
