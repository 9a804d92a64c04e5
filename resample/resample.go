// Package resample implements rational sample-rate conversion using a
// windowed-sinc (Kaiser) polyphase FIR filter.
package resample

import (
	"github.com/korangar/audio/engineerr"
	"github.com/korangar/audio/frame"
)

// defaultFCutoff is the normalized cutoff frequency passed to the sinc
// kernel; slightly under 1 leaves headroom against the window's transition
// band so the passband stays flat.
const defaultFCutoff = 0.9

// Resampler converts audio at ratio L : M (upsample by L, decimate by M)
// using a polyphase decomposition of a windowed-sinc lowpass filter, so the
// upsampled signal is never materialized.
type Resampler struct {
	factor     int // L, the upsampling factor / number of polyphase branches
	decimation int // M, the decimation factor
	npoints    int // taps per subfilter

	sincs [][]float64 // sincs[phase][tap]

	phaseIndex int // fractional position within the polyphase cycle, carried across Process calls
}

// New creates a Resampler for converting from sourceRate to outputRate,
// with npoints taps per polyphase branch. An odd npoints is rounded up to
// the next even number.
func New(sourceRate, outputRate, npoints int) *Resampler {
	l, m := reduceRatio(outputRate, sourceRate)
	if npoints%2 != 0 {
		npoints++
	}

	totpoints := npoints * l
	window := kaiserWindow(totpoints)

	y := make([]float64, totpoints)
	sum := 0.0
	for k := 0; k < totpoints; k++ {
		val := window[k] * sinc((float64(k)-float64(totpoints)/2)*defaultFCutoff/float64(l))
		y[k] = val
		sum += val
	}
	sum /= float64(l)

	sincs := make([][]float64, l)
	for p := range sincs {
		sincs[p] = make([]float64, npoints)
	}
	for p := 0; p < npoints; p++ {
		for n := 0; n < l; n++ {
			sincs[l-1-n][p] = y[l*p+n] / sum
		}
	}

	return &Resampler{
		factor:     l,
		decimation: m,
		npoints:    npoints,
		sincs:      sincs,
	}
}

// reduceRatio reduces the outputRate:sourceRate fraction by their GCD, to
// keep the polyphase branch count (and thus per-call work) as small as
// possible for common ratios like 44100:48000.
func reduceRatio(outputRate, sourceRate int) (l, m int) {
	g := gcd(outputRate, sourceRate)
	return outputRate / g, sourceRate / g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

// Process resamples as many whole output frames as in is sufficient for,
// writing them into out. It reports how many input frames were consumed
// and how many output frames were produced.
//
// Process fails with InsufficientInputBufferSize if in has fewer than
// npoints frames, or InsufficientOutputBufferSize if out is empty.
func (r *Resampler) Process(in []frame.Frame, out []frame.Frame) (consumed, produced int, err error) {
	if len(in) < r.npoints {
		return 0, 0, engineerr.InsufficientInputBufferSize{Expected: r.npoints, Actual: len(in)}
	}
	if len(out) == 0 {
		return 0, 0, engineerr.InsufficientOutputBufferSize{Expected: 1, Actual: 0}
	}

	for produced < len(out) && consumed+r.npoints <= len(in) {
		window := in[consumed : consumed+r.npoints]
		out[produced] = r.convolve(window, r.phaseIndex)

		produced++
		r.phaseIndex += r.decimation
		for r.phaseIndex >= r.factor {
			r.phaseIndex -= r.factor
			consumed++
		}
	}

	return consumed, produced, nil
}

func (r *Resampler) convolve(window []frame.Frame, phase int) frame.Frame {
	taps := r.sincs[phase]
	var left, right float64
	for i, f := range window {
		left += float64(f.Left) * taps[i]
		right += float64(f.Right) * taps[i]
	}
	return frame.Frame{Left: float32(left), Right: float32(right)}
}

