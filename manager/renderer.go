package manager

import (
	"github.com/korangar/audio/frame"
	"github.com/korangar/audio/mixer"
)

// Renderer is the audio-thread side of an AudioManager: a Backend calls
// Process once per host callback with however many frames the driver
// handed it.
type Renderer struct {
	mixer              *mixer.Mixer
	sampleRate         int
	internalBufferSize int
}

func newRenderer(m *mixer.Mixer, sampleRate, internalBufferSize int) *Renderer {
	return &Renderer{mixer: m, sampleRate: sampleRate, internalBufferSize: internalBufferSize}
}

// SampleRate returns the sample rate this renderer was built for.
func (r *Renderer) SampleRate() int {
	return r.sampleRate
}

// Process renders len(out) frames into out. The mixer's own temporary
// buffers are sized to internalBufferSize, the interval at which
// modulators (volume fades, tweened positions) are advanced; a driver
// callback can ask for more frames than that in one go, so Process splits
// out into internalBufferSize-sized sub-blocks and runs an independent
// mixer callback — its own OnStartProcessing, parameter advance, and sum —
// over each one. This keeps modulator resolution constant regardless of
// the host's chosen buffer size.
func (r *Renderer) Process(out []frame.Frame) {
	dt := 1.0 / float64(r.sampleRate)
	for len(out) > 0 {
		n := len(out)
		if n > r.internalBufferSize {
			n = r.internalBufferSize
		}
		r.mixer.OnStartProcessing()
		r.mixer.Process(out[:n], dt)
		out = out[n:]
	}
}
