package speech

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"google.golang.org/genai"

	"github.com/nguyentantai21042004/demozone/internal/logger"
)

const transcribePrompt = `Transcribe this recording verbatim in language "%s".
Write one utterance per line. Do not add timestamps, speaker names, headings or commentary.`

type geminiTranscriber struct {
	apiKeys    []string
	mu         sync.Mutex
	currentKey int
	model      string
	language   string
	logger     logger.Logger
}

// NewGemini returns a Transcriber that rotates through the supplied Gemini API keys.
// Gemini does not return timings, so segments carry zero offsets.
func NewGemini(apiKeys []string, model, language string, log logger.Logger) Transcriber {
	return &geminiTranscriber{
		apiKeys:  apiKeys,
		model:    model,
		language: language,
		logger:   log,
	}
}

func (g *geminiTranscriber) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	mime := mimetype.Detect(data).String()

	text, err := g.callGemini(ctx, data, mime)
	if err != nil {
		return nil, err
	}

	var segments []Segment
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			segments = append(segments, Segment{Text: line})
		}
	}

	g.logger.Info(ctx, "Transcription completed: %d lines", len(segments))
	return segments, nil
}

// callGemini rotates API keys on 429 / quota errors.
func (g *geminiTranscriber) callGemini(ctx context.Context, audio []byte, mime string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(audio, mime),
			genai.NewPartFromText(fmt.Sprintf(transcribePrompt, g.language)),
		}, genai.RoleUser),
	}

	var lastErr error
	for range len(g.apiKeys) {
		key, idx := g.key()

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			g.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
		if err != nil {
			errMsg := err.Error()
			if strings.Contains(errMsg, "429") || strings.Contains(errMsg, "quota") || strings.Contains(errMsg, "RESOURCE_EXHAUSTED") {
				g.logger.Warn(ctx, "Key %d rate limited, rotating...", idx+1)
				g.rotateKey()
				lastErr = err
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var text string
			for _, part := range result.Candidates[0].Content.Parts {
				if part.Text != "" {
					text += part.Text
				}
			}
			return text, nil
		}

		return "", fmt.Errorf("empty response from Gemini")
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (g *geminiTranscriber) key() (string, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.apiKeys[g.currentKey], g.currentKey
}

func (g *geminiTranscriber) rotateKey() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.currentKey = (g.currentKey + 1) % len(g.apiKeys)
}
