package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultModel        = "gpt-4o-mini"
	DefaultEndpoint     = "s3.amazonaws.com"
	DefaultLanguage     = "ja-JP"
	DefaultJobPrefix    = "Example-job"
	DefaultSpeaker      = 1
	DefaultRecordTime   = 10 * time.Second
	DefaultPollAttempts = 60
	DefaultPollInterval = 10 * time.Second
)

// ErrMissing is returned by Load when one or more required variables are unset.
var ErrMissing = errors.New("missing required configuration")

type Config struct {
	OpenAIKey   string
	OpenAIModel string

	Region       string
	Bucket       string
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	S3Insecure   bool
	Language     string
	JobPrefix    string
	PollAttempts int
	PollInterval time.Duration

	CapturePath string
	ReplyPath   string
	RecordTime  time.Duration

	SynthesisURI string
	QueryURI     string
	Speaker      int
}

// Load reads the optional env file at path and then builds a Config from the
// process environment. A missing env file is not an error.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to load env file %s: %w", path, err)
			}
			slog.Debug("No env file found", "path", path)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	var missing []string
	required := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				return v
			}
		}
		missing = append(missing, keys[0])
		return ""
	}

	cfg := &Config{
		OpenAIKey:    required("OPEN_AI_API_KEY", "OPENAI_API_KEY"),
		Region:       required("AWS_REGION"),
		Bucket:       required("S3_BUCKET_NAME"),
		CapturePath:  required("USER_VOICE_OUTPUT_FILENAME"),
		ReplyPath:    required("VOICEROID_OUTPUT_FILENAME"),
		SynthesisURI: required("VOICEROID_SYNTHESIS_URI"),
		QueryURI:     required("VOICEROID_AUDIO_QUERY_URI"),

		OpenAIModel: getEnv("OPENAI_MODEL", DefaultModel),
		S3Endpoint:  getEnv("S3_ENDPOINT", DefaultEndpoint),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		Language:    getEnv("TRANSCRIBE_LANGUAGE", DefaultLanguage),
		JobPrefix:   getEnv("TRANSCRIBE_JOB_PREFIX", DefaultJobPrefix),
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}

	var err error
	if cfg.S3Insecure, err = getBool("S3_INSECURE", false); err != nil {
		return nil, err
	}
	if cfg.Speaker, err = getInt("VOICEROID_SPEAKER", DefaultSpeaker); err != nil {
		return nil, err
	}
	if cfg.PollAttempts, err = getInt("TRANSCRIBE_MAX_ATTEMPTS", DefaultPollAttempts); err != nil {
		return nil, err
	}
	if cfg.PollAttempts < 1 {
		return nil, fmt.Errorf("TRANSCRIBE_MAX_ATTEMPTS must be at least 1, got %d", cfg.PollAttempts)
	}
	if cfg.PollInterval, err = getDuration("TRANSCRIBE_POLL_INTERVAL", DefaultPollInterval); err != nil {
		return nil, err
	}
	seconds, err := getInt("RECORD_SECONDS", int(DefaultRecordTime/time.Second))
	if err != nil {
		return nil, err
	}
	if seconds < 1 {
		return nil, fmt.Errorf("RECORD_SECONDS must be at least 1, got %d", seconds)
	}
	cfg.RecordTime = time.Duration(seconds) * time.Second

	for name, raw := range map[string]string{
		"VOICEROID_SYNTHESIS_URI":   cfg.SynthesisURI,
		"VOICEROID_AUDIO_QUERY_URI": cfg.QueryURI,
	} {
		if err := checkURL(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	return cfg, nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, defaultValue bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: negative duration", key)
	}
	return d, nil
}
