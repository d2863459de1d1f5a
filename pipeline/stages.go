package pipeline

//go:generate mockgen -source=stages.go -destination=mock_stages_test.go -package=pipeline

import (
	"context"
	"time"

	"github.com/bosley/parley/audio"
	"github.com/bosley/parley/store"
	"github.com/bosley/parley/synth"
	"github.com/bosley/parley/transcription"
)

type Recorder interface {
	Record(ctx context.Context) (*audio.Buffer, error)
}

type Uploader interface {
	Upload(ctx context.Context, localPath, key string) (store.BlobRef, error)
}

type Transcriber interface {
	Submit(ctx context.Context, media store.BlobRef, languageCode string) (*transcription.Job, error)
	Await(ctx context.Context, job *transcription.Job, maxAttempts int, interval time.Duration) (store.BlobRef, error)
}

type Resolver interface {
	Resolve(ctx context.Context, ref store.BlobRef) (string, error)
}

type Responder interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Synthesizer interface {
	BuildQuery(ctx context.Context, speaker int, text string) (synth.Query, error)
	Render(ctx context.Context, speaker int, q synth.Query) (*audio.Buffer, error)
}

type Player interface {
	Play(ctx context.Context, path string) error
}
