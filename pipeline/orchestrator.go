package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/bosley/parley/audio"
)

type Config struct {
	Language     string
	Speaker      int
	PollAttempts int
	PollInterval time.Duration
}

// Components are the collaborators of a run, one per stage.
type Components struct {
	Recorder    Recorder
	Uploader    Uploader
	Transcriber Transcriber
	Resolver    Resolver
	Responder   Responder
	Synthesizer Synthesizer
	Player      Player
}

type Result struct {
	RunID      string
	Transcript string
	Reply      string
	ReplyAudio string
}

type Orchestrator struct {
	c        Components
	cfg      Config
	reporter Reporter
	newID    func() string
}

func New(c Components, cfg Config, reporter Reporter) *Orchestrator {
	if reporter == nil {
		reporter = Multi()
	}
	return &Orchestrator{
		c:        c,
		cfg:      cfg,
		reporter: reporter,
		newID:    uuid.NewString,
	}
}

// Run performs one utterance round trip. The first failing stage ends the
// run with a *StageError. Only capture observes ctx cancellation; every
// later stage runs to completion or failure.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: o.newID()}
	log := slog.With("run", res.RunID)

	o.started(res, StageCapture, "recording")
	rec, err := o.c.Recorder.Record(ctx)
	if err == nil && rec.Path == "" {
		err = errors.New("recording was not saved")
	}
	if err != nil {
		return res, o.failed(log, res, StageCapture, err)
	}
	o.completed(res, StageCapture, "%s of audio, %s", rec.Duration().Round(time.Millisecond), humanize.Bytes(uint64(rec.Bytes())))

	ctx = context.WithoutCancel(ctx)

	key := filepath.Base(rec.Path)
	o.started(res, StageUpload, "uploading %s", key)
	media, err := o.c.Uploader.Upload(ctx, rec.Path, key)
	if err != nil {
		return res, o.failed(log, res, StageUpload, err)
	}
	o.completed(res, StageUpload, "%s", media.URI())

	o.started(res, StageTranscribe, "submitting job (%s)", o.cfg.Language)
	job, err := o.c.Transcriber.Submit(ctx, media, o.cfg.Language)
	if err != nil {
		return res, o.failed(log, res, StageTranscribe, err)
	}
	log.Info("Waiting for transcription", "job", job.Name, "maxAttempts", o.cfg.PollAttempts, "interval", o.cfg.PollInterval)
	output, err := o.c.Transcriber.Await(ctx, job, o.cfg.PollAttempts, o.cfg.PollInterval)
	if err != nil {
		return res, o.failed(log, res, StageTranscribe, err)
	}
	o.completed(res, StageTranscribe, "job %s finished after %d polls", job.Name, job.Polls)

	o.started(res, StageResolve, "fetching %s", output.URI())
	text, err := o.c.Resolver.Resolve(ctx, output)
	if err != nil {
		return res, o.failed(log, res, StageResolve, err)
	}
	res.Transcript = text
	o.completed(res, StageResolve, "heard %q", text)

	o.started(res, StageDialogue, "asking the language model")
	reply, err := o.c.Responder.Complete(ctx, text)
	if err != nil {
		return res, o.failed(log, res, StageDialogue, err)
	}
	res.Reply = reply
	o.completed(res, StageDialogue, "replied %q", reply)

	speaker := o.cfg.Speaker
	o.started(res, StageSynthesize, "speaker %d", speaker)
	query, err := o.c.Synthesizer.BuildQuery(ctx, speaker, reply)
	if err != nil {
		return res, o.failed(log, res, StageSynthesize, err)
	}
	speech, err := o.c.Synthesizer.Render(ctx, speaker, query)
	if err == nil && speech.Path == "" {
		err = errors.New("synthesized audio was not saved")
	}
	if err != nil {
		return res, o.failed(log, res, StageSynthesize, err)
	}
	res.ReplyAudio = speech.Path
	o.completed(res, StageSynthesize, "%s of speech at %s", speech.Duration().Round(time.Millisecond), speech.Path)

	o.started(res, StagePlayback, "playing %s", speech.Path)
	if err := o.c.Player.Play(ctx, speech.Path); err != nil {
		return res, o.failed(log, res, StagePlayback, err)
	}
	o.completed(res, StagePlayback, "done")

	return res, nil
}

func (o *Orchestrator) started(res *Result, stage Stage, format string, args ...any) {
	o.emit(res, stage, EventStarted, fmt.Sprintf(format, args...))
}

func (o *Orchestrator) completed(res *Result, stage Stage, format string, args ...any) {
	o.emit(res, stage, EventCompleted, fmt.Sprintf(format, args...))
}

func (o *Orchestrator) failed(log *slog.Logger, res *Result, stage Stage, err error) error {
	serr := &StageError{Stage: stage, Err: err}
	if errors.Is(err, audio.ErrAborted) {
		log.Info("Run aborted", "stage", stage)
	} else {
		log.Error("Stage failed", "stage", stage, "error", err)
	}
	o.emit(res, stage, EventFailed, serr.Summary())
	return serr
}

func (o *Orchestrator) emit(res *Result, stage Stage, kind EventKind, msg string) {
	o.reporter.Report(Event{
		RunID:   res.RunID,
		Stage:   stage,
		Kind:    kind,
		Message: msg,
		Time:    time.Now(),
	})
}
