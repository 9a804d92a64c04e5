// Package sound defines the interfaces every playable audio source
// implements, plus Transport, the position/loop-region state machine
// shared by the static and streaming sound implementations.
package sound

import "github.com/korangar/audio/frame"

// Data is a source of audio that is loaded but not yet playing; track.Play
// accepts any implementation. Neither sound/wavdata nor sound/streamingsound
// implements it: a wavdata.Data becomes a playing sound through
// staticsound.New, and a streaming sound is built with streamingsound.New.
type Data[H any] interface {
	// IntoSound converts the loaded data into a live Sound plus a handle
	// used to control it once playing. It runs off the audio thread: this
	// is where decoding or file I/O happens.
	IntoSound() (Sound, H, error)
}

// Sound is an actively playing sound. For realtime safety none of its
// methods may allocate or block.
type Sound interface {
	// OnStartProcessing is called once per audio callback, before Process.
	// It is a good place for work that needs to run frequently but not per
	// sample, such as reading parameter-change commands.
	OnStartProcessing()

	// Process overwrites out entirely with the sound's next frames. dt is
	// the time between frames, in seconds.
	Process(out []frame.Frame, dt float64)

	// Finished reports whether the sound is done and can be unloaded.
	Finished() bool
}

// Transport tracks a sound's playback position and optional loop region.
// The loop region's upper bound is exclusive.
type Transport struct {
	Position   int
	LoopRegion *LoopRegion
	Playing    bool
}

// LoopRegion is the inclusive-start, exclusive-end frame range a Transport
// loops within.
type LoopRegion struct {
	Start, End int
}

// NewTransport creates a Transport over a sound with numFrames frames,
// looping over the whole sound if looping is true.
func NewTransport(looping bool, numFrames int) Transport {
	t := Transport{Playing: true}
	if looping {
		t.LoopRegion = &LoopRegion{Start: 0, End: numFrames}
	}
	return t
}

// IncrementPosition advances the transport by one frame, wrapping within
// the loop region if one is set, or stopping once numFrames is reached.
func (t *Transport) IncrementPosition(numFrames int) {
	if !t.Playing {
		return
	}
	t.Position++
	if t.LoopRegion != nil {
		for t.Position >= t.LoopRegion.End {
			t.Position -= t.LoopRegion.End - t.LoopRegion.Start
		}
	}
	if t.Position >= numFrames {
		t.Playing = false
	}
}

// SeekTo moves the transport to position, wrapping it into the loop region
// if one is set: a forward seek at or past the loop end wraps back by whole
// loop lengths, and any other seek below the loop start wraps forward.
func (t *Transport) SeekTo(position, numFrames int) {
	if t.LoopRegion != nil {
		if position > t.Position {
			for position >= t.LoopRegion.End {
				position -= t.LoopRegion.End - t.LoopRegion.Start
			}
		} else {
			for position < t.LoopRegion.Start {
				position += t.LoopRegion.End - t.LoopRegion.Start
			}
		}
	}
	t.Position = position
	if t.Position >= numFrames {
		t.Playing = false
	}
}
