package audio

import (
	"errors"
)

var (
	ErrDevice      = errors.New("audio device error")
	ErrAborted     = errors.New("capture aborted")
	ErrInterrupted = errors.New("playback interrupted")
	ErrNotFound    = errors.New("audio file not found")
	ErrDecode      = errors.New("audio decode error")
)

// Device opens blocking PCM streams. Streams are owned by the caller and must
// be closed before the call that opened them returns.
type Device interface {
	OpenInput(f Format, framesPerBuffer int) (InputStream, error)
	OpenOutput(f Format, framesPerBuffer int) (OutputStream, error)
}

// InputStream fills buf with exactly len(buf) interleaved samples.
type InputStream interface {
	Read(buf []int16) error
	Close() error
}

// OutputStream writes exactly len(buf) interleaved samples.
type OutputStream interface {
	Write(buf []int16) error
	Close() error
}
