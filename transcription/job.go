package transcription

import (
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"

	"github.com/bosley/parley/store"
)

// Status is the lifecycle state of a job as seen by this client.
type Status string

const (
	StatusSubmitted  Status = "SUBMITTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var (
	ErrTimeout   = errors.New("transcription job did not finish in time")
	ErrJobFailed = errors.New("transcription job failed")
)

// Job tracks one submitted transcription job. Status, RawStatus, Output,
// FailureReason and Polls change only as a result of status reads.
type Job struct {
	Name         string
	Media        store.BlobRef
	LanguageCode string
	SubmittedAt  time.Time

	Status        Status
	RawStatus     string
	Output        store.BlobRef
	FailureReason string
	Polls         int
}

func statusOf(s types.TranscriptionJobStatus) Status {
	switch s {
	case types.TranscriptionJobStatusCompleted:
		return StatusCompleted
	case types.TranscriptionJobStatusFailed:
		return StatusFailed
	default:
		return StatusInProgress
	}
}
