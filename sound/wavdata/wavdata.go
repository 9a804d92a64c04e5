// Package wavdata loads RIFF/WAVE PCM audio into an in-memory frame buffer,
// the static-sound equivalent of the engine's "load everything up front"
// sound source. It is the Go stand-in for a full media-container decoder:
// no third-party library in the dependency pack parses containers or codecs
// generically, so this package reads the one raw format (WAV) directly with
// encoding/binary, following the same raw-sample framing convention the
// ffmpeg-based decoder elsewhere in the retrieved pack uses for f32le audio.
package wavdata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/korangar/audio/decibel"
	"github.com/korangar/audio/frame"
)

// Settings configures playback of a Data once it becomes a sound.
type Settings struct {
	Loops  bool
	Volume decibel.Decibels
}

// DefaultSettings returns the settings a freshly loaded Data starts with.
func DefaultSettings() Settings {
	return Settings{Volume: decibel.Identity}
}

// Data is a piece of audio loaded into memory all at once. It is cheap to
// copy: the frame buffer is shared between copies.
type Data struct {
	SampleRate int
	Frames     []frame.Frame
	Settings   Settings
}

// NumFrames returns the number of frames in the buffer.
func (d Data) NumFrames() int {
	return len(d.Frames)
}

// Volume returns a copy of d with its playback volume overridden.
func (d Data) Volume(volume decibel.Decibels) Data {
	new := d
	new.Settings.Volume = volume
	return new
}

// Looping returns a copy of d with its loop setting overridden.
func (d Data) Looping(loops bool) Data {
	new := d
	new.Settings.Loops = loops
	return new
}

var (
	errNotRIFF       = errors.New("wavdata: not a RIFF/WAVE file")
	errNoFormatChunk = errors.New("wavdata: missing fmt chunk")
	errNoDataChunk   = errors.New("wavdata: missing data chunk")
	errUnsupported   = errors.New("wavdata: unsupported sample format")
)

type waveFormat struct {
	audioFormat   uint16
	channels      uint16
	sampleRate    uint32
	bitsPerSample uint16
}

// Load reads a RIFF/WAVE stream and decodes it into a Data with the
// default settings. Supported formats: 16-bit PCM and 32-bit IEEE float,
// mono or stereo.
func Load(r io.Reader) (Data, error) {
	var riffHeader [12]byte
	if _, err := io.ReadFull(r, riffHeader[:]); err != nil {
		return Data{}, fmt.Errorf("wavdata: reading RIFF header: %w", err)
	}
	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return Data{}, errNotRIFF
	}

	var format *waveFormat
	var rawSamples []byte

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(r, chunkHeader[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return Data{}, fmt.Errorf("wavdata: reading chunk header: %w", err)
		}
		chunkID := string(chunkHeader[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		body := make([]byte, chunkSize)
		if _, err := io.ReadFull(r, body); err != nil {
			return Data{}, fmt.Errorf("wavdata: reading %s chunk: %w", chunkID, err)
		}
		if chunkSize%2 == 1 {
			// Chunks are word-aligned; skip the pad byte.
			var pad [1]byte
			io.ReadFull(r, pad[:])
		}

		switch chunkID {
		case "fmt ":
			if len(body) < 16 {
				return Data{}, errNoFormatChunk
			}
			format = &waveFormat{
				audioFormat:   binary.LittleEndian.Uint16(body[0:2]),
				channels:      binary.LittleEndian.Uint16(body[2:4]),
				sampleRate:    binary.LittleEndian.Uint32(body[4:8]),
				bitsPerSample: binary.LittleEndian.Uint16(body[14:16]),
			}
		case "data":
			rawSamples = body
		}
	}

	if format == nil {
		return Data{}, errNoFormatChunk
	}
	if rawSamples == nil {
		return Data{}, errNoDataChunk
	}

	frames, err := decodeFrames(format, rawSamples)
	if err != nil {
		return Data{}, err
	}

	return Data{
		SampleRate: int(format.sampleRate),
		Frames:     frames,
		Settings:   DefaultSettings(),
	}, nil
}

const (
	formatPCM   = 1
	formatFloat = 3
)

func decodeFrames(format *waveFormat, raw []byte) ([]frame.Frame, error) {
	bytesPerSample := int(format.bitsPerSample) / 8
	channels := int(format.channels)
	if channels < 1 {
		channels = 1
	}
	frameSize := bytesPerSample * channels
	if frameSize == 0 {
		return nil, errUnsupported
	}

	numFrames := len(raw) / frameSize
	frames := make([]frame.Frame, numFrames)

	readSample := func(offset int) (float32, error) {
		switch {
		case format.audioFormat == formatPCM && format.bitsPerSample == 16:
			v := int16(binary.LittleEndian.Uint16(raw[offset : offset+2]))
			return float32(v) / 32768, nil
		case format.audioFormat == formatFloat && format.bitsPerSample == 32:
			bits := binary.LittleEndian.Uint32(raw[offset : offset+4])
			return math.Float32frombits(bits), nil
		default:
			return 0, fmt.Errorf("%w: format=%d bits=%d", errUnsupported, format.audioFormat, format.bitsPerSample)
		}
	}

	for i := 0; i < numFrames; i++ {
		base := i * frameSize
		left, err := readSample(base)
		if err != nil {
			return nil, err
		}
		if channels == 1 {
			frames[i] = frame.FromMono(left)
			continue
		}
		right, err := readSample(base + bytesPerSample)
		if err != nil {
			return nil, err
		}
		frames[i] = frame.Frame{Left: left, Right: right}
	}

	return frames, nil
}

