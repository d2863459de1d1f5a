package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bosley/parley/audio"
	"github.com/bosley/parley/config"
	"github.com/bosley/parley/dialogue"
	"github.com/bosley/parley/pipeline"
	"github.com/bosley/parley/status"
	"github.com/bosley/parley/store"
	"github.com/bosley/parley/synth"
	"github.com/bosley/parley/transcript"
	"github.com/bosley/parley/transcription"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitStartup = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	envFile := flag.String("env", ".env", "Path to env file (optional)")
	playFile := flag.String("play", "", "Play audio file and exit")
	listDevices := flag.Bool("list-devices", false, "List available audio input devices")
	deviceID := flag.Int("device", 0, "Audio input device ID to use")
	duration := flag.Duration("duration", 0, "Recording length (overrides RECORD_SECONDS)")
	statusAddr := flag.String("status", "", "Serve progress over HTTP on this address (host:port)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	// Restore default handling after the first signal so a second one
	// terminates immediately.
	go func() {
		<-ctx.Done()
		stop()
	}()

	host, err := audio.OpenPortAudio(*deviceID)
	if err != nil {
		slog.Error("Failed to initialize audio", "error", err)
		return exitStartup
	}
	defer host.Close()

	if *listDevices {
		devices, err := host.InputDevices()
		if err != nil {
			slog.Error("Failed to list audio devices", "error", err)
			return exitStartup
		}

		fmt.Println("Available audio input devices:")
		for _, device := range devices {
			fmt.Printf("[%d] %s\n", device.ID, device.Name)
			fmt.Printf("    Max Input Channels: %d\n", device.MaxInputChannels)
			fmt.Printf("    Default Sample Rate: %f\n", device.DefaultSampleRate)
			fmt.Println()
		}
		return exitOK
	}

	if *playFile != "" {
		err := audio.Play(ctx, host, *playFile, audio.DefaultChunkFrames)
		switch {
		case errors.Is(err, audio.ErrInterrupted):
			fmt.Println("Playback stopped.")
		case err != nil:
			slog.Error("Failed to play audio file", "error", err)
			return exitFailed
		}
		return exitOK
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		return exitStartup
	}
	if *duration > 0 {
		cfg.RecordTime = *duration
	}

	orchestrator, err := build(ctx, cfg, host, reporter(ctx, *statusAddr))
	if err != nil {
		slog.Error("Failed to initialize pipeline", "error", err)
		return exitStartup
	}

	fmt.Printf("Speak now, recording for %s...\n", cfg.RecordTime)
	res, err := orchestrator.Run(ctx)
	return exitStatus(os.Stdout, res, err)
}

// exitStatus prints the outcome of a run to w and maps it to a process exit
// code.
func exitStatus(w io.Writer, res *pipeline.Result, err error) int {
	if err != nil {
		if errors.Is(err, audio.ErrAborted) {
			fmt.Fprintln(w, "Recording cancelled.")
			return exitOK
		}
		var serr *pipeline.StageError
		if errors.As(err, &serr) {
			fmt.Fprintln(w, serr.Summary())
		} else {
			fmt.Fprintln(w, err)
		}
		return exitFailed
	}

	fmt.Fprintln(w, res.Reply)
	slog.Debug("Program exiting", "run", res.RunID)
	return exitOK
}

func reporter(ctx context.Context, statusAddr string) pipeline.Reporter {
	console := pipeline.NewConsole(os.Stdout)
	if statusAddr == "" {
		return console
	}

	srv := status.New(statusAddr)
	go func() {
		if err := srv.Start(ctx); err != nil {
			slog.Error("Status server failed", "error", err)
		}
	}()
	return pipeline.Multi(console, srv)
}

func build(ctx context.Context, cfg *config.Config, host *audio.PortAudio, rep pipeline.Reporter) (*pipeline.Orchestrator, error) {
	objects, err := store.New(store.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.Region,
		Bucket:    cfg.Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Insecure:  cfg.S3Insecure,
	})
	if err != nil {
		return nil, err
	}

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	transcriber, err := transcription.NewFromConfig(initCtx, transcription.AWSOptions{
		Region:    cfg.Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	}, cfg.Bucket, transcription.WithJobPrefix(cfg.JobPrefix))
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Components{
		Recorder: &audio.Recorder{
			Device: host,
			Spec: audio.CaptureSpec{
				Format:      audio.DefaultFormat,
				ChunkFrames: audio.DefaultChunkFrames,
				Duration:    cfg.RecordTime,
				Path:        cfg.CapturePath,
			},
		},
		Uploader:    objects,
		Transcriber: transcriber,
		Resolver:    transcript.NewResolver(objects),
		Responder:   dialogue.NewClient(cfg.OpenAIKey, cfg.OpenAIModel),
		Synthesizer: synth.NewClient(cfg.QueryURI, cfg.SynthesisURI, cfg.ReplyPath),
		Player:      &audio.Player{Device: host, ChunkFrames: audio.DefaultChunkFrames},
	}, pipeline.Config{
		Language:     cfg.Language,
		Speaker:      cfg.Speaker,
		PollAttempts: cfg.PollAttempts,
		PollInterval: cfg.PollInterval,
	}, rep), nil
}
