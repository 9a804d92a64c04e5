package portaudio

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/korangar/audio/frame"
	"github.com/korangar/audio/manager"
	"github.com/korangar/audio/sound"
	"github.com/korangar/audio/track"
)

// mockStream implements paStream for testing. Write() blocks until
// unblockCh is closed (simulating a real PortAudio blocking call); Stop()
// closes unblockCh so a blocked Write returns, just like Pa_StopStream
// unblocking Pa_WriteStream.
type mockStream struct {
	unblockCh      chan struct{}
	stopped        atomic.Bool
	closed         atomic.Bool
	writes         atomic.Int32
	blockedInWrite atomic.Bool
}

func newMockStream() *mockStream {
	return &mockStream{unblockCh: make(chan struct{})}
}

func (m *mockStream) Start() error { return nil }

func (m *mockStream) Stop() error {
	m.stopped.Store(true)
	select {
	case <-m.unblockCh:
	default:
		close(m.unblockCh)
	}
	return nil
}

func (m *mockStream) Close() error {
	m.closed.Store(true)
	return nil
}

func (m *mockStream) Write() error {
	m.writes.Add(1)
	m.blockedInWrite.Store(true)
	<-m.unblockCh
	return fmt.Errorf("stream stopped")
}

func waitBlocked(t *testing.T, m *mockStream, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for !m.blockedInWrite.Load() {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for renderLoop to block in Write")
		case <-time.After(time.Millisecond):
		}
	}
}

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

func newTestRenderer(t *testing.T) *manager.Renderer {
	t.Helper()
	settings := manager.DefaultAudioManagerSettings()
	settings.InternalBufferSize = 64

	var renderer *manager.Renderer
	capture := &captureBackend{sampleRate: 48000, onStart: func(r *manager.Renderer) { renderer = r }}
	m, err := manager.New(capture, settings)
	if err != nil {
		t.Fatalf("manager.New() error = %v", err)
	}

	handle, err := m.AddSubTrack(track.NewTrackBuilder())
	if err != nil {
		t.Fatalf("AddSubTrack() error = %v", err)
	}
	if _, err := track.Play[fakeSoundHandle](handle, fakeSoundData{amplitude: 1}); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	return renderer
}

// captureBackend hands its Renderer to onStart instead of driving it,
// letting the test run that Renderer against a mockStream directly.
type captureBackend struct {
	sampleRate int
	onStart    func(*manager.Renderer)
}

func (c *captureBackend) SampleRate() int { return c.sampleRate }
func (c *captureBackend) Start(r *manager.Renderer) error {
	c.onStart(r)
	return nil
}
func (c *captureBackend) Stop() error { return nil }

func TestRenderLoopFillsBufferFromRenderer(t *testing.T) {
	renderer := newTestRenderer(t)
	stream := newMockStream()
	buf := make([]float32, framesPerBuffer*channels)
	b := newWithStream(48000, stream, buf)

	if err := b.startLoop(renderer); err != nil {
		t.Fatalf("startLoop() error = %v", err)
	}
	waitBlocked(t, stream, time.Second)

	if b.buf[0] != 1 || b.buf[1] != 1 {
		t.Fatalf("buf[0:2] = [%v, %v], want [1, 1] (interleaved stereo from a unit-amplitude sound)", b.buf[0], b.buf[1])
	}

	if err := b.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !stream.stopped.Load() || !stream.closed.Load() {
		t.Fatal("expected Stop() to stop and close the stream")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	renderer := newTestRenderer(t)
	stream := newMockStream()
	buf := make([]float32, framesPerBuffer*channels)
	b := newWithStream(48000, stream, buf)

	if err := b.startLoop(renderer); err != nil {
		t.Fatalf("startLoop() error = %v", err)
	}
	waitBlocked(t, stream, time.Second)

	if err := b.Stop(); err != nil {
		t.Fatalf("first Stop() error = %v", err)
	}
	if err := b.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}
