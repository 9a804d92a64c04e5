// Package portaudio implements manager.Backend on top of PortAudio,
// driving a Renderer from a dedicated goroutine that blocks on the
// stream's blocking Write API.
package portaudio

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	gopa "github.com/gordonklaus/portaudio"

	"github.com/korangar/audio/frame"
	"github.com/korangar/audio/manager"
)

const (
	channels        = 2
	framesPerBuffer = 960
)

// Device describes an available output device.
type Device struct {
	ID   int
	Name string
}

// ListOutputDevices returns the system's available audio output devices.
// It initializes PortAudio for the duration of the call and terminates it
// again before returning.
func ListOutputDevices() ([]Device, error) {
	if err := gopa.Initialize(); err != nil {
		return nil, err
	}
	defer gopa.Terminate()

	devices, err := gopa.Devices()
	if err != nil {
		return nil, err
	}
	var out []Device
	for i, d := range devices {
		if d.MaxOutputChannels > 0 {
			out = append(out, Device{ID: i, Name: d.Name})
		}
	}
	return out, nil
}

func resolveOutputDevice(devices []*gopa.DeviceInfo, name string) (*gopa.DeviceInfo, error) {
	if name == "" {
		return gopa.DefaultOutputDevice()
	}
	for _, d := range devices {
		if d.Name == name && d.MaxOutputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("portaudio: no output device named %q", name)
}

// paStream abstracts a PortAudio stream for testing.
type paStream interface {
	Start() error
	Stop() error
	Close() error
	Write() error
}

// Backend opens a stereo PortAudio output stream and feeds it from a
// Renderer. It satisfies manager.Backend.
type Backend struct {
	mu     sync.Mutex
	device *gopa.DeviceInfo
	stream paStream
	buf    []float32

	running atomic.Bool
	wg      sync.WaitGroup

	// initialized is set when New initialized PortAudio, so Stop knows to
	// terminate it.
	initialized bool
}

// New initializes PortAudio and resolves the output device named
// deviceName (or the system default, if deviceName is empty), but does not
// yet open a stream — that happens in Start, once the sample rate is
// needed to build the Renderer.
func New(deviceName string) (*Backend, error) {
	if err := gopa.Initialize(); err != nil {
		return nil, err
	}
	devices, err := gopa.Devices()
	if err != nil {
		gopa.Terminate()
		return nil, err
	}
	device, err := resolveOutputDevice(devices, deviceName)
	if err != nil {
		gopa.Terminate()
		return nil, err
	}
	return &Backend{device: device, initialized: true}, nil
}

// SampleRate returns the device's default sample rate.
func (b *Backend) SampleRate() int {
	return int(b.device.DefaultSampleRate)
}

// newWithStream builds a Backend around an already-open stream, skipping
// device resolution. Used by tests to drive renderLoop against a fake
// paStream without a real audio device.
func newWithStream(sampleRate int, stream paStream, buf []float32) *Backend {
	return &Backend{
		device: &gopa.DeviceInfo{Name: "test", DefaultSampleRate: float64(sampleRate)},
		stream: stream,
		buf:    buf,
	}
}

// Start opens the output stream and launches the goroutine that drives
// renderer from it.
func (b *Backend) Start(renderer *manager.Renderer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stream != nil {
		return fmt.Errorf("portaudio: backend already started")
	}

	buf := make([]float32, framesPerBuffer*channels)
	params := gopa.StreamParameters{
		Output: gopa.StreamDeviceParameters{
			Device:   b.device,
			Channels: channels,
			Latency:  b.device.DefaultLowOutputLatency,
		},
		SampleRate:      b.device.DefaultSampleRate,
		FramesPerBuffer: framesPerBuffer,
	}
	stream, err := gopa.OpenStream(params, buf)
	if err != nil {
		return err
	}

	b.stream = stream
	b.buf = buf
	if err := b.startLoop(renderer); err != nil {
		stream.Close()
		b.stream = nil
		return err
	}

	log.Printf("[portaudio] started output=%s", b.device.Name)
	return nil
}

// startLoop starts b.stream and launches renderLoop. Callers hold b.mu or
// are constructing b fresh (newWithStream, in tests).
func (b *Backend) startLoop(renderer *manager.Renderer) error {
	if err := b.stream.Start(); err != nil {
		return err
	}
	b.running.Store(true)
	b.wg.Add(1)
	go b.renderLoop(renderer)
	return nil
}

func (b *Backend) renderLoop(renderer *manager.Renderer) {
	defer b.wg.Done()

	frames := make([]frame.Frame, framesPerBuffer)
	for b.running.Load() {
		renderer.Process(frames)
		for i, f := range frames {
			b.buf[2*i] = f.Left
			b.buf[2*i+1] = f.Right
		}
		if err := b.stream.Write(); err != nil {
			if b.running.Load() {
				log.Printf("[portaudio] write: %v", err)
			}
			return
		}
	}
}

// Stop halts the render goroutine and closes the stream.
//
// Order matters: Pa_StopStream is thread-safe and unblocks any in-flight
// Pa_WriteStream call, which lets renderLoop exit. wg.Wait must complete
// before Pa_CloseStream frees the native stream, or renderLoop could still
// be touching it.
func (b *Backend) Stop() error {
	if !b.running.CompareAndSwap(true, false) {
		return nil
	}

	b.mu.Lock()
	stream := b.stream
	b.mu.Unlock()

	if stream == nil {
		return nil
	}

	if err := stream.Stop(); err != nil {
		return err
	}
	b.wg.Wait()

	b.mu.Lock()
	b.stream = nil
	b.mu.Unlock()

	if err := stream.Close(); err != nil {
		return err
	}
	if !b.initialized {
		return nil
	}
	return gopa.Terminate()
}
