// Package staticsound implements a Sound that plays from an in-memory
// frame buffer loaded up front, e.g. via sound/wavdata. It is appropriate
// for short sounds, sounds played multiple times, or sounds where a
// consistent start time matters.
package staticsound

import (
	"sync/atomic"
	"time"

	"github.com/korangar/audio/command"
	"github.com/korangar/audio/decibel"
	"github.com/korangar/audio/frame"
	"github.com/korangar/audio/playback"
	"github.com/korangar/audio/resample"
	"github.com/korangar/audio/sound"
	"github.com/korangar/audio/tween"
)

// resamplerTaps is the number of taps per polyphase branch used when a
// static sound's source rate does not match the output rate.
const resamplerTaps = 16

type shared struct {
	removed atomic.Bool
}

// Sound plays a static frame buffer through the transport/loop/fade
// machinery common to every sound kind.
type Sound struct {
	frames       []frame.Frame
	sourceRate   int
	outputRate   int
	transport    sound.Transport
	stateManager *playback.StateManager
	resampler    *resample.Resampler // nil when sourceRate == outputRate

	volume       *tween.Parameter[decibel.Decibels]
	setVolume    command.Reader[command.ValueChangeCommand[decibel.Decibels]]
	stopRequests command.Reader[time.Duration]

	shared *shared
}

// Handle controls a playing Sound.
type Handle struct {
	setVolume    command.Writer[command.ValueChangeCommand[decibel.Decibels]]
	stopRequests command.Writer[time.Duration]
	shared       *shared
}

// New creates a Sound (and its Handle) from decoded frames at sourceRate,
// to be played back at outputRate with the given initial volume and loop
// setting.
func New(frames []frame.Frame, sourceRate, outputRate int, loops bool, volume decibel.Decibels) (*Sound, Handle) {
	volumeWriter, volumeReader := command.NewMailbox[command.ValueChangeCommand[decibel.Decibels]]()
	stopWriter, stopReader := command.NewMailbox[time.Duration]()

	s := &shared{}

	var resampler *resample.Resampler
	if sourceRate != outputRate {
		resampler = resample.New(sourceRate, outputRate, resamplerTaps)
	}

	snd := &Sound{
		frames:       frames,
		sourceRate:   sourceRate,
		outputRate:   outputRate,
		transport:    sound.NewTransport(loops, len(frames)),
		stateManager: playback.NewStateManager(),
		resampler:    resampler,
		volume:       tween.NewParameter(decibel.Interpolate, volume),
		setVolume:    volumeReader,
		stopRequests: stopReader,
		shared:       s,
	}
	handle := Handle{setVolume: volumeWriter, stopRequests: stopWriter, shared: s}
	return snd, handle
}

// OnStartProcessing applies pending volume and stop commands.
func (s *Sound) OnStartProcessing() {
	s.volume.ReadCommand(s.setVolume)
	if duration, ok := s.stopRequests.Read(); ok {
		s.stateManager.Stop(duration)
	}
	if s.shared.removed.Load() {
		s.stateManager.MarkAsStopped()
	}
}

// Process overwrites out with the sound's next frames.
func (s *Sound) Process(out []frame.Frame, dt float64) {
	n := len(out)
	blockDuration := dt * float64(n)
	s.volume.Update(blockDuration)

	if !s.transport.Playing {
		frame.Zeroed(out)
		s.stateManager.Update(blockDuration)
		return
	}

	if s.resampler == nil {
		s.processUnityRate(out, dt)
	} else {
		s.processResampled(out, dt)
	}

	s.stateManager.Update(blockDuration)
}

// processUnityRate handles the common case of sourceRate == outputRate,
// which is the identity transform up to the windowed-sinc group delay the
// resampler would otherwise introduce.
func (s *Sound) processUnityRate(out []frame.Frame, dt float64) {
	n := len(out)
	for i := 0; i < n; i++ {
		if !s.transport.Playing {
			out[i] = frame.Zero
			continue
		}

		src := s.frames[s.transport.Position]
		alpha := float64(i+1) / float64(n)
		amp := s.stateManager.InterpolatedFadeVolume(alpha).Amplitude() * s.volume.InterpolatedValue(alpha).Amplitude()
		out[i] = src.Scale(amp)

		s.transport.IncrementPosition(len(s.frames))
	}
}

// processResampled handles source and output rates that differ, using the
// block polyphase resampler over the contiguous window still available
// ahead of the current transport position. Loop wraps and end-of-buffer
// are handled by falling back to silence for the remainder of a block
// rather than resampling across the discontinuity, a deliberate
// simplification for non-unity rates.
func (s *Sound) processResampled(out []frame.Frame, dt float64) {
	n := len(out)
	available := s.frames[s.transport.Position:]

	consumed, produced, err := s.resampler.Process(available, out)
	if err != nil {
		frame.Zeroed(out)
		if s.transport.LoopRegion != nil {
			s.transport.SeekTo(s.transport.LoopRegion.Start, len(s.frames))
		} else {
			s.transport.Playing = false
		}
		return
	}

	for i := 0; i < produced; i++ {
		alpha := float64(i+1) / float64(n)
		amp := s.stateManager.InterpolatedFadeVolume(alpha).Amplitude() * s.volume.InterpolatedValue(alpha).Amplitude()
		out[i] = out[i].Scale(amp)
	}
	for i := produced; i < n; i++ {
		out[i] = frame.Zero
	}

	for i := 0; i < consumed && s.transport.Playing; i++ {
		s.transport.IncrementPosition(len(s.frames))
	}
}

// Finished reports whether playback has stopped and the sound can be
// unloaded.
func (s *Sound) Finished() bool {
	return s.stateManager.PlaybackState() == playback.Stopped || (!s.transport.Playing && s.transport.LoopRegion == nil)
}

// Stop begins fading the sound to silence over fadeOutTweenDuration.
func (h Handle) Stop(fadeOutTweenDuration time.Duration) {
	h.stopRequests.Write(fadeOutTweenDuration)
}

// SetVolume changes the sound's volume, tweening over tweenDuration.
func (h Handle) SetVolume(volume decibel.Decibels, tweenDuration time.Duration) {
	h.setVolume.Write(command.ValueChangeCommand[decibel.Decibels]{Target: volume, TweenDuration: tweenDuration})
}

// Close marks the sound for removal. The audio thread retires it once its
// playback state transitions to Stopped.
func (h Handle) Close() {
	h.shared.removed.Store(true)
}
