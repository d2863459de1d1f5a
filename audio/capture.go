package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CaptureSpec describes one fixed-length recording.
type CaptureSpec struct {
	Format      Format
	ChunkFrames int
	Duration    time.Duration
	// Path is where the recording is saved as WAV.
	Path string
}

// Capture records spec.Duration of audio from dev in fixed-size chunks and
// saves it to spec.Path. Cancelling ctx between chunks closes the stream,
// drops the partial recording and returns ErrAborted.
func Capture(ctx context.Context, dev Device, spec CaptureSpec) (*Buffer, error) {
	if spec.Format.SampleWidth != 2 || spec.Format.Channels < 1 {
		return nil, fmt.Errorf("%w: unsupported format %+v", ErrDevice, spec.Format)
	}
	chunks := ChunkCount(spec.Format.SampleRate, spec.ChunkFrames, spec.Duration)
	if chunks == 0 {
		return nil, fmt.Errorf("invalid capture spec: %d frames per chunk for %s", spec.ChunkFrames, spec.Duration)
	}

	stream, err := dev.OpenInput(spec.Format, spec.ChunkFrames)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			slog.Warn("Failed to close input stream", "error", err)
		}
	}()

	chunkSamples := spec.ChunkFrames * spec.Format.Channels
	samples := make([]int16, chunks*chunkSamples)

	slog.Debug("Recording", "chunks", chunks, "chunkFrames", spec.ChunkFrames, "duration", spec.Duration)
	for i := 0; i < chunks; i++ {
		select {
		case <-ctx.Done():
			slog.Info("Recording interrupted", "chunksRead", i, "chunks", chunks)
			return nil, ErrAborted
		default:
		}
		if err := stream.Read(samples[i*chunkSamples : (i+1)*chunkSamples]); err != nil {
			return nil, fmt.Errorf("failed to read chunk %d: %w", i, err)
		}
	}

	buf := &Buffer{Format: spec.Format, Samples: samples}
	if spec.Path != "" {
		if err := SaveWAV(spec.Path, buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// Recorder binds a device to a capture spec.
type Recorder struct {
	Device Device
	Spec   CaptureSpec
}

func (r *Recorder) Record(ctx context.Context) (*Buffer, error) {
	return Capture(ctx, r.Device, r.Spec)
}
