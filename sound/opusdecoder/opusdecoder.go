// Package opusdecoder implements streamingsound.Decoder over a stream of
// length-prefixed raw Opus packets (not an Ogg container), the concrete
// codec the audio thread's streaming sound pipeline
// decodes in a background goroutine.
package opusdecoder

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	"gopkg.in/hraban/opus.v2"

	"github.com/korangar/audio/frame"
)

// channels is fixed at stereo: mono Opus streams are decoded and
// duplicated to both output channels.
const channels = 2

// maxFrameBytes bounds a single compressed packet; packets larger than this
// are rejected rather than risking an unbounded allocation on the decode
// goroutine.
const maxFrameBytes = 64 * 1024

// Decoder decodes a length-prefixed stream of raw Opus packets at a fixed
// sample rate. Packet framing is [4-byte little-endian length][payload]*,
// matching the framing the rest of the retrieved pack uses for recorded
// Opus frames.
type Decoder struct {
	sampleRate int
	decoder    *opus.Decoder
	source     io.ReadSeeker
	reader     *bufio.Reader
	pcm        []int16
}

// New creates a Decoder reading length-prefixed Opus packets from source at
// sampleRate.
func New(source io.ReadSeeker, sampleRate int) (*Decoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		sampleRate: sampleRate,
		decoder:    dec,
		source:     source,
		reader:     bufio.NewReader(source),
		pcm:        make([]int16, sampleRate*channels), // generous upper bound for one packet
	}, nil
}

// SampleRate returns the decoder's native output sample rate.
func (d *Decoder) SampleRate() int {
	return d.sampleRate
}

// DecodeBlock decodes Opus packets until out is filled or the stream is
// exhausted.
func (d *Decoder) DecodeBlock(out []frame.Frame) (int, error) {
	written := 0
	for written < len(out) {
		packet, err := d.readPacket()
		if err != nil {
			return written, err
		}

		n, err := d.decoder.Decode(packet, d.pcm)
		if err != nil {
			return written, err
		}

		for i := 0; i < n && written < len(out); i++ {
			left := pcm16ToFloat(d.pcm[i*channels])
			right := pcm16ToFloat(d.pcm[i*channels+1])
			out[written] = frame.Frame{Left: left, Right: right}
			written++
		}
	}
	return written, nil
}

func (d *Decoder) readPacket() ([]byte, error) {
	var lengthBytes [4]byte
	if _, err := io.ReadFull(d.reader, lengthBytes[:]); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(lengthBytes[:])
	if length > maxFrameBytes {
		return nil, errors.New("opusdecoder: packet exceeds maximum frame size")
	}
	packet := make([]byte, length)
	if _, err := io.ReadFull(d.reader, packet); err != nil {
		return nil, err
	}
	return packet, nil
}

// SeekToFrame seeks the underlying stream back to its start and resets the
// decoder state. Arbitrary mid-stream seeking is not supported by the
// length-prefixed Opus framing; loop points are expected at frame 0.
func (d *Decoder) SeekToFrame(position int) error {
	if position != 0 {
		return errors.New("opusdecoder: only seeking to the start of the stream is supported")
	}
	if _, err := d.source.Seek(0, io.SeekStart); err != nil {
		return err
	}
	d.reader.Reset(d.source)

	dec, err := opus.NewDecoder(d.sampleRate, channels)
	if err != nil {
		return err
	}
	d.decoder = dec
	return nil
}

// Close is a no-op: the underlying source's lifetime is owned by the
// caller that constructed the Decoder.
func (d *Decoder) Close() error {
	return nil
}

func pcm16ToFloat(sample int16) float32 {
	return float32(sample) / 32768
}
