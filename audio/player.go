package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/youpy/go-wav"
)

// Play streams the WAV file at path to dev in chunks of chunkFrames frames.
// The last chunk is padded with silence. Cancelling ctx stops playback at the
// next chunk boundary with ErrInterrupted.
func Play(ctx context.Context, dev Device, path string, chunkFrames int) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer file.Close()

	reader := wav.NewReader(file)
	format, err := pcmFormat(reader)
	if err != nil {
		return err
	}

	stream, err := dev.OpenOutput(format, chunkFrames)
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			slog.Warn("Failed to close output stream", "error", err)
		}
	}()

	out := make([]int16, chunkFrames*format.Channels)
	filled, written := 0, 0
	flush := func() error {
		for i := filled; i < len(out); i++ {
			out[i] = 0
		}
		filled = 0
		written++
		return stream.Write(out)
	}

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrInterrupted, err)
		}
		samples, err := reader.ReadSamples(uint32(chunkFrames - filled/format.Channels))
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDecode, err)
		}
		for _, s := range samples {
			for ch := 0; ch < format.Channels; ch++ {
				out[filled] = int16(s.Values[ch])
				filled++
			}
		}
		if filled == len(out) {
			if err := flush(); err != nil {
				return fmt.Errorf("failed to write chunk: %w", err)
			}
		}
	}
	if filled > 0 {
		if err := flush(); err != nil {
			return fmt.Errorf("failed to write chunk: %w", err)
		}
	}

	slog.Debug("Playback finished", "path", path, "chunks", written)
	return nil
}

// Player binds an output device for playback.
type Player struct {
	Device      Device
	ChunkFrames int
}

func (p *Player) Play(ctx context.Context, path string) error {
	return Play(ctx, p.Device, path, p.ChunkFrames)
}
