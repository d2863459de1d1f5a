package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/aws/aws-sdk-go-v2/service/transcribe/types"

	"github.com/bosley/parley/store"
)

const (
	DefaultJobPrefix = "Example-job"

	jobNameLayout = "2006-01-02-15-04-05"
)

// API is the subset of the Transcribe client used here.
type API interface {
	StartTranscriptionJob(ctx context.Context, params *transcribe.StartTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, params *transcribe.GetTranscriptionJobInput, optFns ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

type Service struct {
	api          API
	outputBucket string
	prefix       string
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
}

type Option func(*Service)

func WithJobPrefix(prefix string) Option {
	return func(s *Service) { s.prefix = prefix }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) { s.sleep = sleep }
}

// New creates a Service that writes job results to outputBucket.
func New(api API, outputBucket string, opts ...Option) *Service {
	s := &Service{
		api:          api,
		outputBucket: outputBucket,
		prefix:       DefaultJobPrefix,
		now:          time.Now,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AWSOptions selects the region and, optionally, static credentials for the
// Transcribe client. Without keys the default AWS credential chain is used.
type AWSOptions struct {
	Region    string
	AccessKey string
	SecretKey string
}

func (o AWSOptions) loadOptions() []func(*awsconfig.LoadOptions) error {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(o.Region)}
	if o.AccessKey != "" && o.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	}
	return opts
}

// NewFromConfig builds a Service on a Transcribe client configured by o.
func NewFromConfig(ctx context.Context, o AWSOptions, outputBucket string, opts ...Option) (*Service, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, o.loadOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return New(transcribe.NewFromConfig(cfg), outputBucket, opts...), nil
}

// JobName derives a job name from t at second resolution.
func JobName(prefix string, t time.Time) string {
	return prefix + "-" + t.Format(jobNameLayout)
}

// Submit starts a job transcribing media in languageCode.
func (s *Service) Submit(ctx context.Context, media store.BlobRef, languageCode string) (*Job, error) {
	now := s.now()
	job := &Job{
		Name:         JobName(s.prefix, now),
		Media:        media,
		LanguageCode: languageCode,
		SubmittedAt:  now,
		Status:       StatusSubmitted,
	}

	_, err := s.api.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(job.Name),
		Media:                &types.Media{MediaFileUri: aws.String(media.URI())},
		MediaFormat:          types.MediaFormatWav,
		LanguageCode:         types.LanguageCode(languageCode),
		OutputBucketName:     aws.String(s.outputBucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start job %s: %w", job.Name, err)
	}

	slog.Info("Transcription job submitted", "job", job.Name, "media", media.URI(), "language", languageCode)
	return job, nil
}

// Await polls job up to maxAttempts times, interval apart, until it reaches
// a terminal state. It returns the transcript location once the job has
// completed, ErrJobFailed if it failed and ErrTimeout if attempts ran out.
func (s *Service) Await(ctx context.Context, job *Job, maxAttempts int, interval time.Duration) (store.BlobRef, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out, err := s.api.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
			TranscriptionJobName: aws.String(job.Name),
		})
		if err != nil {
			return store.BlobRef{}, fmt.Errorf("failed to read status of job %s: %w", job.Name, err)
		}
		job.Polls = attempt

		tj := out.TranscriptionJob
		if tj == nil {
			return store.BlobRef{}, fmt.Errorf("status of job %s is missing", job.Name)
		}
		job.RawStatus = string(tj.TranscriptionJobStatus)
		job.Status = statusOf(tj.TranscriptionJobStatus)

		switch job.Status {
		case StatusCompleted:
			ref, err := s.outputRef(tj)
			if err != nil {
				return store.BlobRef{}, fmt.Errorf("job %s: %w", job.Name, err)
			}
			job.Output = ref
			slog.Info("Transcription job completed", "job", job.Name, "attempt", attempt, "output", ref.URI())
			return ref, nil
		case StatusFailed:
			job.FailureReason = aws.ToString(tj.FailureReason)
			slog.Warn("Transcription job failed", "job", job.Name, "attempt", attempt, "reason", job.FailureReason)
			return store.BlobRef{}, fmt.Errorf("%w: %s: %s", ErrJobFailed, job.Name, job.FailureReason)
		}

		slog.Debug("Transcription job not finished", "job", job.Name, "status", job.RawStatus, "attempt", attempt, "maxAttempts", maxAttempts)
		if attempt < maxAttempts {
			if err := s.sleep(ctx, interval); err != nil {
				return store.BlobRef{}, err
			}
		}
	}
	return store.BlobRef{}, fmt.Errorf("%w: %s after %d attempts", ErrTimeout, job.Name, maxAttempts)
}

func (s *Service) outputRef(tj *types.TranscriptionJob) (store.BlobRef, error) {
	if tj.Transcript == nil || aws.ToString(tj.Transcript.TranscriptFileUri) == "" {
		return store.BlobRef{}, fmt.Errorf("completed without a transcript location")
	}
	uri := aws.ToString(tj.Transcript.TranscriptFileUri)
	if ref, err := store.ParseURI(uri); err == nil {
		return ref, nil
	}
	// Results land in the output bucket under the last path element.
	key := path.Base(uri)
	if key == "." || key == "/" {
		return store.BlobRef{}, fmt.Errorf("unusable transcript location %q", uri)
	}
	return store.BlobRef{Bucket: s.outputBucket, Key: key}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
