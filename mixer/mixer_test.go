package mixer

import (
	"testing"

	"github.com/korangar/audio/frame"
	"github.com/korangar/audio/sound"
	"github.com/korangar/audio/track"
	"github.com/korangar/audio/tween"
)

// fakeSound is a sound.Sound that emits a constant amplitude, used to
// exercise the mixer's summing without a real decoder.
type fakeSound struct{ amplitude float32 }

func (s *fakeSound) OnStartProcessing() {}

func (s *fakeSound) Process(out []frame.Frame, dt float64) {
	for i := range out {
		out[i] = frame.FromMono(s.amplitude)
	}
}

func (s *fakeSound) Finished() bool { return false }

type fakeSoundHandle struct{}

type fakeSoundData struct{ amplitude float32 }

func (d fakeSoundData) IntoSound() (sound.Sound, fakeSoundHandle, error) {
	return &fakeSound{amplitude: d.amplitude}, fakeSoundHandle{}, nil
}

func TestMixerSumsSubTracksAndMainTrack(t *testing.T) {
	m, controller, mainHandle := New(8, 64, track.NewMainTrackBuilder())

	subHandle, err := controller.AddSubTrack(track.NewTrackBuilder())
	if err != nil {
		t.Fatalf("AddSubTrack() error = %v", err)
	}
	if _, err := track.Play[fakeSoundHandle](subHandle, fakeSoundData{amplitude: 1}); err != nil {
		t.Fatalf("Play() on sub-track error = %v", err)
	}
	if _, err := track.Play[fakeSoundHandle](mainHandle, fakeSoundData{amplitude: 1}); err != nil {
		t.Fatalf("Play() on main track error = %v", err)
	}

	m.OnStartProcessing()

	out := make([]frame.Frame, 64)
	m.Process(out, 1.0/48000)

	if out[63].Left != 2 {
		t.Fatalf("out[63].Left = %v, want 2 (one sound via sub-track, one direct on main track)", out[63].Left)
	}
}

func TestMixerAddSpatialSubTrackAttenuates(t *testing.T) {
	m, controller, _ := New(8, 64, track.NewMainTrackBuilder())

	b := track.NewSpatialTrackBuilder(track.WithDistances(1, 11), track.WithLinearAttenuation(true))
	spatialHandle, err := controller.AddSpatialSubTrack(tween.Vec3{X: 10}, b)
	if err != nil {
		t.Fatalf("AddSpatialSubTrack() error = %v", err)
	}
	if _, err := track.Play[fakeSoundHandle](spatialHandle, fakeSoundData{amplitude: 1}); err != nil {
		t.Fatalf("Play() on spatial sub-track error = %v", err)
	}

	m.OnStartProcessing()

	out := make([]frame.Frame, 64)
	m.Process(out, 1.0/48000)

	// Listener stays at the origin; distance 10 attenuates below unity, so
	// the spatial sub-track's contribution must be audible but quieter
	// than the unattenuated amplitude of 1.
	if out[63].Left <= 0 || out[63].Left >= 1 {
		t.Fatalf("out[63].Left = %v, want strictly between 0 and 1", out[63].Left)
	}
}

func TestMixerRemovesClosedSubTrack(t *testing.T) {
	m, controller, _ := New(8, 64, track.NewMainTrackBuilder())

	subHandle, err := controller.AddSubTrack(track.NewTrackBuilder())
	if err != nil {
		t.Fatalf("AddSubTrack() error = %v", err)
	}
	m.OnStartProcessing() // admits the sub-track

	subHandle.Close()
	m.OnStartProcessing() // retires it

	out := make([]frame.Frame, 64)
	m.Process(out, 1.0/48000)
	if out[63].Left != 0 {
		t.Fatalf("out[63].Left = %v, want 0 after the only sub-track was removed", out[63].Left)
	}
}
