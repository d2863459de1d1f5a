package synth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"

	"github.com/bosley/parley/audio"
)

const (
	opQuery     = "audio_query"
	opSynthesis = "synthesis"

	maxErrorBody = 512
)

// Query is the utterance description returned by the query endpoint. It is
// passed back to Render unchanged.
type Query struct {
	raw json.RawMessage
}

func (q Query) Bytes() []byte {
	return q.raw
}

func (q Query) IsZero() bool {
	return len(q.raw) == 0
}

// Client talks to a VOICEVOX-compatible engine.
type Client struct {
	queryURL     string
	synthesisURL string
	outPath      string
	http         *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// NewClient creates a Client. Rendered audio is written to outPath.
func NewClient(queryURL, synthesisURL, outPath string, opts ...Option) *Client {
	c := &Client{
		queryURL:     queryURL,
		synthesisURL: synthesisURL,
		outPath:      outPath,
		http:         &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildQuery asks the engine to describe how text is spoken by speaker.
func (c *Client) BuildQuery(ctx context.Context, speaker int, text string) (Query, error) {
	endpoint, err := withParams(c.queryURL, speaker, text)
	if err != nil {
		return Query{}, &RequestError{Op: opQuery, Err: err}
	}
	body, err := c.post(ctx, opQuery, endpoint, nil)
	if err != nil {
		return Query{}, err
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return Query{}, &RequestError{Op: opQuery, StatusCode: http.StatusOK, Err: ErrMalformedQuery}
	}
	return Query{raw: json.RawMessage(body)}, nil
}

// Render synthesizes q as speaker, writes the WAV bytes to the output path
// and returns the decoded audio.
func (c *Client) Render(ctx context.Context, speaker int, q Query) (*audio.Buffer, error) {
	if q.IsZero() {
		return nil, &RequestError{Op: opSynthesis, Err: ErrMalformedQuery}
	}
	endpoint, err := withParams(c.synthesisURL, speaker, "")
	if err != nil {
		return nil, &RequestError{Op: opSynthesis, Err: err}
	}
	data, err := c.post(ctx, opSynthesis, endpoint, q.raw)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &RequestError{Op: opSynthesis, StatusCode: http.StatusOK, Err: errors.New("empty audio")}
	}

	buf, err := audio.DecodeWAV(data)
	if err != nil {
		return nil, &RequestError{Op: opSynthesis, StatusCode: http.StatusOK, Err: err}
	}
	if err := os.WriteFile(c.outPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", c.outPath, err)
	}
	buf.Path = c.outPath

	slog.Debug("Synthesized reply",
		"path", c.outPath,
		"size", humanize.Bytes(uint64(len(data))),
		"duration", buf.Duration(),
		"sampleRate", buf.Format.SampleRate)
	return buf, nil
}

func (c *Client) post(ctx context.Context, op, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RequestError{Op: op, StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(msg))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	return data, nil
}

func withParams(raw string, speaker int, text string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("speaker", strconv.Itoa(speaker))
	if text != "" {
		q.Set("text", text)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
