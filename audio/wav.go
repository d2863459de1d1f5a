package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/youpy/go-riff"
	"github.com/youpy/go-wav"
)

// WriteWAV encodes b as a PCM WAV stream.
func WriteWAV(w io.Writer, b *Buffer) error {
	if b.Format.SampleWidth != 2 {
		return fmt.Errorf("unsupported sample width %d", b.Format.SampleWidth)
	}
	ww := wav.NewWriter(w,
		uint32(b.Frames()),
		uint16(b.Format.Channels),
		uint32(b.Format.SampleRate),
		uint16(b.Format.SampleWidth*8))
	if err := binary.Write(ww, binary.LittleEndian, b.Samples); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	return nil
}

// SaveWAV writes b to path and records the path on the buffer.
func SaveWAV(path string, b *Buffer) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteWAV(file, b); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	b.Path = path
	return nil
}

// ReadWAV decodes a 16-bit PCM WAV stream into a Buffer.
func ReadWAV(r riff.RIFFReader) (*Buffer, error) {
	reader := wav.NewReader(r)
	format, err := pcmFormat(reader)
	if err != nil {
		return nil, err
	}

	buf := &Buffer{Format: format}
	for {
		samples, err := reader.ReadSamples(DefaultChunkFrames)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		for _, s := range samples {
			for ch := 0; ch < format.Channels; ch++ {
				buf.Samples = append(buf.Samples, int16(s.Values[ch]))
			}
		}
	}
	return buf, nil
}

// DecodeWAV decodes an in-memory WAV payload.
func DecodeWAV(data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}
	return ReadWAV(bytes.NewReader(data))
}

func pcmFormat(reader *wav.Reader) (Format, error) {
	wf, err := reader.Format()
	if err != nil {
		return Format{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if wf.AudioFormat != wav.AudioFormatPCM || wf.BitsPerSample != bitsPerSample {
		return Format{}, fmt.Errorf("%w: format %d with %d bits per sample", ErrDecode, wf.AudioFormat, wf.BitsPerSample)
	}
	if wf.NumChannels < 1 || wf.NumChannels > 2 || wf.SampleRate == 0 {
		return Format{}, fmt.Errorf("%w: %d channels at %dHz", ErrDecode, wf.NumChannels, wf.SampleRate)
	}
	return Format{
		SampleRate:  int(wf.SampleRate),
		Channels:    int(wf.NumChannels),
		SampleWidth: int(wf.BitsPerSample) / 8,
	}, nil
}
