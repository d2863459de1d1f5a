package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bosley/parley/audio"
	"github.com/bosley/parley/pipeline"
	"github.com/bosley/parley/store"
)

func TestExitStatus(t *testing.T) {
	uploadErr := &pipeline.StageError{
		Stage: pipeline.StageUpload,
		Err:   &store.Error{Op: "upload", Ref: store.BlobRef{Bucket: "voices", Key: "user.wav"}, Kind: store.ErrUnauthorized, Err: errors.New("no credentials available")},
	}

	tests := []struct {
		name   string
		res    *pipeline.Result
		err    error
		code   int
		output string
	}{
		{
			name:   "success prints reply",
			res:    &pipeline.Result{RunID: "run", Transcript: "hello", Reply: "hi there"},
			code:   exitOK,
			output: "hi there",
		},
		{
			name:   "upload unauthorized",
			err:    uploadErr,
			code:   exitFailed,
			output: "upload failed: store credentials are missing or were rejected",
		},
		{
			name:   "capture aborted",
			err:    &pipeline.StageError{Stage: pipeline.StageCapture, Err: audio.ErrAborted},
			code:   exitOK,
			output: "Recording cancelled.",
		},
		{
			name:   "unstaged error",
			err:    fmt.Errorf("run: %w", context.DeadlineExceeded),
			code:   exitFailed,
			output: "context deadline exceeded",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if got := exitStatus(&out, tt.res, tt.err); got != tt.code {
				t.Errorf("exit status = %d, want %d", got, tt.code)
			}
			if !strings.Contains(out.String(), tt.output) {
				t.Errorf("output %q does not contain %q", out.String(), tt.output)
			}
		})
	}
}
