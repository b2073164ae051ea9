package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Roeeht/Agent-Messiah/internal/language"
)

// AudioTranscriptions is the slice of the OpenAI client used here.
type AudioTranscriptions interface {
	New(ctx context.Context, body openai.AudioTranscriptionNewParams, opts ...option.RequestOption) (*openai.Transcription, error)
}

// Result is a transcribed recording. Filtered is set when the model echoed
// its instructions and Text was dropped.
type Result struct {
	Text     string
	MediaURL string
	Duration time.Duration
	Filtered bool
}

// Service turns a recording URL into caller-language text.
type Service struct {
	fetch   *Fetcher
	audio   AudioTranscriptions
	model   string
	catalog language.Catalog
	timeout time.Duration
	log     *slog.Logger
}

func NewService(fetch *Fetcher, audio AudioTranscriptions, model string, catalog language.Catalog, timeout time.Duration, log *slog.Logger) *Service {
	if model == "" {
		model = "gpt-4o-mini-transcribe"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{fetch: fetch, audio: audio, model: model, catalog: catalog, timeout: timeout, log: log}
}

// Ready reports whether both the download and transcription sides are
// configured.
func (s *Service) Ready() bool {
	return s != nil && s.audio != nil && s.fetch.Ready()
}

func (s *Service) Transcribe(ctx context.Context, recordingURL string) (Result, error) {
	if !s.Ready() {
		return Result{}, ErrNotConfigured
	}
	media, err := s.fetch.Fetch(ctx, recordingURL)
	if err != nil {
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.audio.New(ctx, openai.AudioTranscriptionNewParams{
		File:     openai.File(bytes.NewReader(media.Data), media.Filename, media.ContentType),
		Model:    openai.AudioModel(s.model),
		Language: openai.String(language.PrimaryTag(s.catalog.Tag)),
	})
	if err != nil {
		return Result{MediaURL: media.URL, Duration: media.Duration}, fmt.Errorf("transcribe recording: %w", err)
	}

	out := Result{Text: strings.TrimSpace(resp.Text), MediaURL: media.URL, Duration: media.Duration}
	if out.Text != "" && s.catalog.IsInstructionEcho(out.Text) {
		s.log.Warn("transcription echoed instructions", "media_url", media.URL)
		out.Text = ""
		out.Filtered = true
	}
	return out, nil
}
