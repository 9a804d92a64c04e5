package staticsound

import (
	"testing"
	"time"

	"github.com/korangar/audio/decibel"
	"github.com/korangar/audio/frame"
)

func unitAmplitudeFrames(n int) []frame.Frame {
	frames := make([]frame.Frame, n)
	for i := range frames {
		frames[i] = frame.FromMono(1)
	}
	return frames
}

func TestPlayAndFinish(t *testing.T) {
	const sampleRate = 48000
	const blockSize = 256
	frames := unitAmplitudeFrames(sampleRate)

	s, _ := New(frames, sampleRate, sampleRate, false, decibel.Identity)
	dt := 1.0 / float64(sampleRate)

	numCallbacks := (sampleRate + blockSize - 1) / blockSize
	lastNonZeroCallback := -1

	for cb := 0; cb < numCallbacks+2; cb++ {
		out := make([]frame.Frame, blockSize)
		s.OnStartProcessing()
		s.Process(out, dt)

		nonZero := false
		for _, f := range out {
			if f.Left != 0 {
				nonZero = true
				break
			}
		}
		if nonZero {
			lastNonZeroCallback = cb
		}
	}

	if lastNonZeroCallback != numCallbacks-1 {
		t.Fatalf("last non-zero callback = %d, want %d", lastNonZeroCallback, numCallbacks-1)
	}
	if !s.Finished() {
		t.Fatalf("Finished() = false after playing past the end, want true")
	}
}

func TestStopWithFade(t *testing.T) {
	const sampleRate = 48000
	const blockSize = 256
	frames := unitAmplitudeFrames(sampleRate * 2)

	s, handle := New(frames, sampleRate, sampleRate, true, decibel.Identity)
	dt := 1.0 / float64(sampleRate)

	for i := 0; i < 10; i++ {
		out := make([]frame.Frame, blockSize)
		s.OnStartProcessing()
		s.Process(out, dt)
	}

	handle.Stop(100 * time.Millisecond)

	var prevPeak float32 = 2 // above any possible sample
	for i := 0; i < 25; i++ {
		out := make([]frame.Frame, blockSize)
		s.OnStartProcessing()
		s.Process(out, dt)

		var peak float32
		for _, f := range out {
			if f.Left > peak {
				peak = f.Left
			}
		}
		if peak > prevPeak+1e-4 {
			t.Fatalf("fade amplitude increased at callback %d: %v > %v", i, peak, prevPeak)
		}
		prevPeak = peak
	}

	if !s.Finished() {
		t.Fatalf("Finished() = false after fade completed, want true")
	}
}

func TestSetVolumeTweensOverTime(t *testing.T) {
	const sampleRate = 48000
	const blockSize = 256
	frames := unitAmplitudeFrames(sampleRate)

	s, handle := New(frames, sampleRate, sampleRate, true, decibel.Identity)
	dt := 1.0 / float64(sampleRate)

	handle.SetVolume(decibel.Silence, 100*time.Millisecond)

	var lastPeak float32 = 2
	for i := 0; i < 30; i++ {
		out := make([]frame.Frame, blockSize)
		s.OnStartProcessing()
		s.Process(out, dt)

		var peak float32
		for _, f := range out {
			if f.Left > peak {
				peak = f.Left
			}
		}
		if i > 0 && peak >= lastPeak {
			return // confirmed the volume is decreasing block over block
		}
		lastPeak = peak
	}
	t.Fatalf("SetVolume never reduced output amplitude over %d callbacks; volume.Update is not advancing", 30)
}

func TestResampledSoundStopsWhenSourceExhausted(t *testing.T) {
	const sourceRate = 44100
	const outputRate = 48000
	const blockSize = 256
	frames := unitAmplitudeFrames(sourceRate / 4)

	s, _ := New(frames, sourceRate, outputRate, false, decibel.Identity)
	dt := 1.0 / float64(outputRate)

	for i := 0; i < 50; i++ {
		out := make([]frame.Frame, blockSize)
		s.OnStartProcessing()
		s.Process(out, dt)
		if s.Finished() {
			return
		}
	}
	t.Fatalf("non-looping resampled sound never finished after exhausting its source buffer")
}

func TestHandleCloseMarksRemoved(t *testing.T) {
	frames := unitAmplitudeFrames(100)
	s, handle := New(frames, 48000, 48000, false, decibel.Identity)

	handle.Close()
	s.OnStartProcessing()

	out := make([]frame.Frame, 16)
	s.Process(out, 1.0/48000)
	// Close makes OnStartProcessing call MarkAsStopped, which switches to
	// Stopped at once without a fade, so the sound should already be
	// finished.
	if !s.Finished() {
		t.Fatalf("Finished() = false after handle Close, want true")
	}
}
