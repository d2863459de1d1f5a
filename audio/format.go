package audio

import (
	"time"
)

const (
	sampleRate    = 44100
	channels      = 1
	bitsPerSample = 16

	// DefaultChunkFrames is the number of frames read from the input device per chunk.
	DefaultChunkFrames = 2048
)

// Format describes a linear PCM stream. SampleWidth is in bytes.
type Format struct {
	SampleRate  int
	Channels    int
	SampleWidth int
}

// DefaultFormat is the capture profile: mono 16-bit PCM at 44.1kHz.
var DefaultFormat = Format{
	SampleRate:  sampleRate,
	Channels:    channels,
	SampleWidth: bitsPerSample / 8,
}

// Buffer holds interleaved 16-bit samples sharing a single Format.
type Buffer struct {
	Format  Format
	Samples []int16
	// Path is where the buffer was persisted, if anywhere.
	Path string
}

func (b *Buffer) Frames() int {
	if b.Format.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

func (b *Buffer) Duration() time.Duration {
	if b.Format.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.Format.SampleRate)
}

// Bytes is the size of the PCM payload.
func (b *Buffer) Bytes() int {
	return len(b.Samples) * b.Format.SampleWidth
}

// ChunkCount returns how many chunks of chunkFrames frames cover d at the
// given rate, rounding up.
func ChunkCount(rate, chunkFrames int, d time.Duration) int {
	if rate <= 0 || chunkFrames <= 0 || d <= 0 {
		return 0
	}
	num := int64(rate) * int64(d)
	den := int64(chunkFrames) * int64(time.Second)
	return int((num + den - 1) / den)
}
