package speech

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/nguyentantai21042004/demozone/internal/logger"
)

// OpenAIConfig configures an OpenAI-compatible /audio/transcriptions endpoint.
type OpenAIConfig struct {
	APIBase  string // e.g. "https://api.openai.com/v1" or "https://api.groq.com/openai/v1"
	APIKey   string
	Model    string
	Language string
	Timeout  time.Duration
}

type openAITranscriber struct {
	cfg    OpenAIConfig
	client *openai.Client
	logger logger.Logger
}

// NewOpenAI returns a Transcriber calling the Whisper HTTP API.
func NewOpenAI(cfg OpenAIConfig, log logger.Logger) Transcriber {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIBase != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.APIBase, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &openAITranscriber{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: log,
	}
}

func (o *openAITranscriber) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.cfg.Model,
		FilePath: audioPath,
		Language: o.cfg.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai transcribe: %w", err)
	}

	segments := make([]Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)})
	}
	if len(segments) == 0 && strings.TrimSpace(resp.Text) != "" {
		segments = append(segments, Segment{Text: strings.TrimSpace(resp.Text)})
	}

	o.logger.Info(ctx, "Transcription completed: %d segments, language %s", len(segments), resp.Language)
	return segments, nil
}
