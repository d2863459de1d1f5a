package pipeline

import (
	"errors"
	"fmt"

	"github.com/bosley/parley/audio"
	"github.com/bosley/parley/dialogue"
	"github.com/bosley/parley/store"
	"github.com/bosley/parley/synth"
	"github.com/bosley/parley/transcript"
	"github.com/bosley/parley/transcription"
)

// StageError reports the stage that ended a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Summary is a one-line, user-facing description of the failure.
func (e *StageError) Summary() string {
	return fmt.Sprintf("%s failed: %s (%v)", e.Stage, describe(e.Stage, e.Err), e.Err)
}

func describe(stage Stage, err error) string {
	var (
		dialogueErr *dialogue.RequestError
		synthErr    *synth.RequestError
	)
	switch {
	case errors.Is(err, audio.ErrAborted):
		return "recording was cancelled"
	case errors.Is(err, audio.ErrInterrupted):
		return "playback was interrupted"
	case errors.Is(err, audio.ErrDevice):
		return "audio device error"
	case errors.Is(err, audio.ErrNotFound):
		return "audio file not found"
	case errors.Is(err, audio.ErrDecode):
		return "audio file could not be decoded"
	case errors.Is(err, store.ErrUnauthorized):
		return "store credentials are missing or were rejected"
	case errors.Is(err, store.ErrNotFound) && stage == StageUpload:
		return "recording to upload does not exist"
	case errors.Is(err, store.ErrNotFound):
		return "object does not exist in the store"
	case errors.Is(err, store.ErrUnknown):
		return "store request failed"
	case errors.Is(err, transcription.ErrTimeout):
		return "transcription did not finish within the polling limit"
	case errors.Is(err, transcription.ErrJobFailed):
		return "transcription job failed"
	case errors.Is(err, transcript.ErrEmptyResult):
		return "no speech was recognized"
	case errors.Is(err, transcript.ErrParse):
		return "transcript could not be parsed"
	case errors.As(err, &dialogueErr):
		return "language model request failed"
	case errors.As(err, &synthErr):
		return "speech synthesis request failed"
	}
	return "unexpected error"
}
