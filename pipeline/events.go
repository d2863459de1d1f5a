package pipeline

import (
	"fmt"
	"io"
	"sync"
	"time"
)

type Stage string

const (
	StageCapture    Stage = "capture"
	StageUpload     Stage = "upload"
	StageTranscribe Stage = "transcribe"
	StageResolve    Stage = "resolve"
	StageDialogue   Stage = "dialogue"
	StageSynthesize Stage = "synthesize"
	StagePlayback   Stage = "playback"
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StageCapture,
	StageUpload,
	StageTranscribe,
	StageResolve,
	StageDialogue,
	StageSynthesize,
	StagePlayback,
}

type EventKind string

const (
	EventStarted   EventKind = "started"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
)

type Event struct {
	RunID   string    `json:"runId"`
	Stage   Stage     `json:"stage"`
	Kind    EventKind `json:"kind"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Reporter receives progress events. Report must not block for long.
type Reporter interface {
	Report(Event)
}

type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }

type multiReporter []Reporter

func (m multiReporter) Report(e Event) {
	for _, r := range m {
		r.Report(e)
	}
}

// Multi fans events out to every non-nil reporter.
func Multi(reporters ...Reporter) Reporter {
	var m multiReporter
	for _, r := range reporters {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

// Console prints one line per event.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Report(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	marker := "..."
	switch e.Kind {
	case EventCompleted:
		marker = "ok"
	case EventFailed:
		marker = "FAILED"
	}
	fmt.Fprintf(c.w, "[%-10s] %-6s %s\n", e.Stage, marker, e.Message)
}
