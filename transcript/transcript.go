package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"

	"github.com/bosley/parley/store"
)

var (
	ErrParse       = errors.New("transcript does not have the expected shape")
	ErrEmptyResult = errors.New("transcript has no recognized speech")
)

// Document is the result file written by a transcription job. Pointer
// fields are required and are checked after decoding.
type Document struct {
	JobName   string   `json:"jobName"`
	AccountID string   `json:"accountId"`
	Status    string   `json:"status"`
	Results   *Results `json:"results"`
}

type Results struct {
	Transcripts   []Text     `json:"transcripts"`
	AudioSegments *[]Segment `json:"audio_segments"`
}

type Text struct {
	Transcript string `json:"transcript"`
}

type Segment struct {
	ID         int     `json:"id"`
	Transcript *string `json:"transcript"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
}

// Parse decodes data and returns the first segment's text. Later segments
// are not read.
func Parse(data []byte) (string, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	if doc.Results == nil {
		return "", fmt.Errorf("%w: missing results", ErrParse)
	}
	if doc.Results.AudioSegments == nil {
		return "", fmt.Errorf("%w: missing results.audio_segments", ErrParse)
	}
	segments := *doc.Results.AudioSegments
	if len(segments) == 0 {
		return "", ErrEmptyResult
	}
	first := segments[0]
	if first.Transcript == nil {
		return "", fmt.Errorf("%w: missing results.audio_segments[0].transcript", ErrParse)
	}
	text := strings.TrimSpace(*first.Transcript)
	if text == "" {
		return "", ErrEmptyResult
	}
	if len(segments) > 1 {
		slog.Debug("Ignoring extra transcript segments", "job", doc.JobName, "segments", len(segments))
	}
	return text, nil
}

type Downloader interface {
	Download(ctx context.Context, ref store.BlobRef) ([]byte, error)
}

// Resolver fetches and parses transcript files.
type Resolver struct {
	store Downloader
}

func NewResolver(d Downloader) *Resolver {
	return &Resolver{store: d}
}

func (r *Resolver) Resolve(ctx context.Context, ref store.BlobRef) (string, error) {
	data, err := r.store.Download(ctx, ref)
	if err != nil {
		return "", err
	}
	text, err := Parse(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", ref.URI(), err)
	}
	return text, nil
}
