// Package streamingsound implements a Sound that decodes audio gradually on
// a background goroutine, for long sounds played once (background music)
// where loading the whole buffer up front would waste memory.
package streamingsound

import (
	"sync/atomic"
	"time"

	"github.com/korangar/audio/command"
	"github.com/korangar/audio/decibel"
	"github.com/korangar/audio/frame"
	"github.com/korangar/audio/internal/ring"
	"github.com/korangar/audio/playback"
	"github.com/korangar/audio/resample"
	"github.com/korangar/audio/tween"
)

// blockSize is the number of frames the decoder produces per decoded
// block.
const blockSize = 512

// resamplerTaps is the number of taps per polyphase branch used when the
// decoder's native rate does not match the output rate.
const resamplerTaps = 16

// Decoder decodes compressed audio into frames. Implementations (e.g.
// sound/opusdecoder) are used by a single decoder goroutine and need not be
// safe for concurrent use.
type Decoder interface {
	// SampleRate returns the decoder's native output sample rate.
	SampleRate() int
	// DecodeBlock decodes up to len(out) frames into out, returning the
	// number of frames written. It returns io.EOF once the underlying
	// stream is exhausted.
	DecodeBlock(out []frame.Frame) (int, error)
	// SeekToFrame seeks the underlying stream to the given frame position,
	// in the decoder's native sample rate.
	SeekToFrame(position int) error
	// Close releases any resources held by the decoder.
	Close() error
}

type shared struct {
	removed atomic.Bool
}

// DecodeScheduler runs the background decode goroutine: it pulls blocks
// from Decoder and pushes them onto a bounded ring sized to absorb roughly
// half a second of decoder jitter, the audio thread's consumer end.
//
// Looping is whole-stream only: on decoder EOF with loops set, run seeks
// back to frame 0 and keeps decoding. There is no mid-stream loop-region
// support (no seek-to-loop-start before the decoder naturally reaches the
// end) — a sound that needs to loop a sub-range of a streamed file should
// be trimmed at encode time instead.
type DecodeScheduler struct {
	decoder   Decoder
	loops     bool
	blocks    *ring.Ring[[]frame.Frame]
	shared    *shared
	done      chan struct{}
	exhausted atomic.Bool
}

// newDecodeScheduler creates a scheduler targeting roughly targetBufferMS
// milliseconds of buffered audio at the decoder's native sample rate. When
// loops is true, the decoder is seeked back to frame 0 instead of exiting
// once it reaches the end of the stream.
func newDecodeScheduler(decoder Decoder, loops bool, shared *shared, targetBufferMS int) *DecodeScheduler {
	framesPerBlock := blockSize
	blocksNeeded := (decoder.SampleRate()*targetBufferMS)/1000/framesPerBlock + 1

	return &DecodeScheduler{
		decoder: decoder,
		loops:   loops,
		blocks:  ring.New[[]frame.Frame](blocksNeeded),
		shared:  shared,
		done:    make(chan struct{}),
	}
}

// Start runs the decode loop on a new goroutine until the sound's shared
// state is marked removed or the decoder is exhausted.
func (d *DecodeScheduler) Start() {
	go d.run()
}

func (d *DecodeScheduler) run() {
	defer close(d.done)
	defer d.decoder.Close()

	for !d.shared.removed.Load() {
		block := make([]frame.Frame, blockSize)
		n, err := d.decoder.DecodeBlock(block)
		if n > 0 {
			for !d.blocks.Push(block[:n]) {
				if d.shared.removed.Load() {
					return
				}
				time.Sleep(time.Millisecond)
			}
		}
		if err != nil {
			if d.loops {
				if seekErr := d.decoder.SeekToFrame(0); seekErr != nil {
					d.exhausted.Store(true)
					return
				}
				continue
			}
			d.exhausted.Store(true)
			return
		}
	}
}

// Exhausted reports whether the decoder has permanently stopped producing
// blocks: either it hit EOF with looping disabled, or a loop-seek failed.
// Callers must also drain the blocks ring before treating this as "no more
// audio" — Exhausted can be true while blocks queued before exhaustion are
// still waiting to be consumed.
func (d *DecodeScheduler) Exhausted() bool {
	return d.exhausted.Load()
}

// Sound plays audio produced by a DecodeScheduler's background goroutine.
type Sound struct {
	scheduler    *DecodeScheduler
	sourceRate   int
	outputRate   int
	stateManager *playback.StateManager
	resampler    *resample.Resampler

	current       []frame.Frame // the decoded block currently being consumed
	currentOffset int

	volume    *tween.Parameter[decibel.Decibels]
	setVolume command.Reader[command.ValueChangeCommand[decibel.Decibels]]
	stop      command.Reader[time.Duration]

	shared *shared
}

// Handle controls a playing streaming Sound.
type Handle struct {
	setVolume command.Writer[command.ValueChangeCommand[decibel.Decibels]]
	stop      command.Writer[time.Duration]
	shared    *shared
}

// New creates a streaming Sound backed by decoder, along with its Handle
// and the DecodeScheduler that must be started to begin producing decoded
// blocks.
func New(decoder Decoder, outputRate int, loops bool, volume decibel.Decibels) (*Sound, Handle, *DecodeScheduler) {
	s := &shared{}
	scheduler := newDecodeScheduler(decoder, loops, s, 500)

	sourceRate := decoder.SampleRate()
	var resampler *resample.Resampler
	if sourceRate != outputRate {
		resampler = resample.New(sourceRate, outputRate, resamplerTaps)
	}

	volumeWriter, volumeReader := command.NewMailbox[command.ValueChangeCommand[decibel.Decibels]]()
	stopWriter, stopReader := command.NewMailbox[time.Duration]()

	snd := &Sound{
		scheduler:    scheduler,
		sourceRate:   sourceRate,
		outputRate:   outputRate,
		stateManager: playback.NewStateManager(),
		resampler:    resampler,
		volume:       tween.NewParameter(decibel.Interpolate, volume),
		setVolume:    volumeReader,
		stop:         stopReader,
		shared:       s,
	}
	handle := Handle{setVolume: volumeWriter, stop: stopWriter, shared: s}
	return snd, handle, scheduler
}

// OnStartProcessing applies pending volume and stop commands.
func (s *Sound) OnStartProcessing() {
	s.volume.ReadCommand(s.setVolume)
	if duration, ok := s.stop.Read(); ok {
		s.stateManager.Stop(duration)
	}
	if s.shared.removed.Load() {
		s.stateManager.MarkAsStopped()
	}
}

// nextFrame pulls the next decoded frame, fetching a new block from the
// scheduler's ring when the current one is exhausted. It returns the zero
// frame and false if no decoded data is currently available (an underrun);
// the caller writes silence for that frame and nothing is logged.
func (s *Sound) nextFrame() (frame.Frame, bool) {
	for s.currentOffset >= len(s.current) {
		block, ok := s.scheduler.blocks.Pop()
		if !ok {
			if s.scheduler.Exhausted() {
				s.stateManager.MarkAsStopped()
			}
			return frame.Zero, false
		}
		s.current = block
		s.currentOffset = 0
	}
	f := s.current[s.currentOffset]
	s.currentOffset++
	return f, true
}

// Process overwrites out with the sound's next frames, resampling if the
// decoder's native rate differs from outputRate, and applying the fade and
// track volume.
func (s *Sound) Process(out []frame.Frame, dt float64) {
	n := len(out)
	blockDuration := dt * float64(n)
	s.volume.Update(blockDuration)

	if s.stateManager.PlaybackState() == playback.Stopped {
		frame.Zeroed(out)
		s.stateManager.Update(blockDuration)
		return
	}

	if s.resampler == nil {
		s.processUnityRate(out)
	} else {
		s.processResampled(out)
	}

	for i := 0; i < n; i++ {
		alpha := float64(i+1) / float64(n)
		amp := s.stateManager.InterpolatedFadeVolume(alpha).Amplitude() * s.volume.InterpolatedValue(alpha).Amplitude()
		out[i] = out[i].Scale(amp)
	}

	s.stateManager.Update(blockDuration)
}

func (s *Sound) processUnityRate(out []frame.Frame) {
	for i := range out {
		f, ok := s.nextFrame()
		if !ok {
			out[i] = frame.Zero
			continue
		}
		out[i] = f
	}
}

func (s *Sound) processResampled(out []frame.Frame) {
	window := make([]frame.Frame, resamplerTaps*2)
	filled := 0
	for filled < len(window) {
		f, ok := s.nextFrame()
		if !ok {
			break
		}
		window[filled] = f
		filled++
	}
	if filled == 0 {
		frame.Zeroed(out)
		return
	}

	_, produced, err := s.resampler.Process(window[:filled], out)
	if err != nil {
		frame.Zeroed(out)
		return
	}
	for i := produced; i < len(out); i++ {
		out[i] = frame.Zero
	}
}

// Finished reports whether playback has stopped and the sound can be
// unloaded.
func (s *Sound) Finished() bool {
	return s.stateManager.PlaybackState() == playback.Stopped
}

// Stop begins fading the sound to silence over fadeOutTweenDuration. The
// decoder goroutine keeps running until the fade completes and the handle
// is closed.
func (h Handle) Stop(fadeOutTweenDuration time.Duration) {
	h.stop.Write(fadeOutTweenDuration)
}

// SetVolume changes the sound's volume, tweening over tweenDuration.
func (h Handle) SetVolume(volume decibel.Decibels, tweenDuration time.Duration) {
	h.setVolume.Write(command.ValueChangeCommand[decibel.Decibels]{Target: volume, TweenDuration: tweenDuration})
}

// Close marks the sound for removal; the decoder goroutine observes this
// and exits.
func (h Handle) Close() {
	h.shared.removed.Store(true)
}
