package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/demozone/internal/logger"
	"github.com/nguyentantai21042004/demozone/pkg/executor"
)

// WhisperCPPConfig configures the whisper.cpp command line backend.
type WhisperCPPConfig struct {
	BinaryPath string
	ModelPath  string
	Language   string
	Prompt     string
	Threads    int
	TempDir    string
}

type whisperCPP struct {
	cfg      WhisperCPPConfig
	executor executor.Executor
	logger   logger.Logger
}

// NewWhisperCPP returns a Transcriber driving the whisper.cpp CLI.
func NewWhisperCPP(cfg WhisperCPPConfig, exec executor.Executor, log logger.Logger) Transcriber {
	return &whisperCPP{cfg: cfg, executor: exec, logger: log}
}

// whisper.cpp -oj output; offsets are milliseconds.
type whisperCPPOutput struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func (w *whisperCPP) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	if err := os.MkdirAll(w.cfg.TempDir, 0755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	workDir, err := os.MkdirTemp(w.cfg.TempDir, "whisper-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// whisper.cpp runs inside workDir, so the input must not be relative
	audioPath, err = filepath.Abs(audioPath)
	if err != nil {
		return nil, fmt.Errorf("resolve audio path: %w", err)
	}

	// whisper.cpp appends .json to the prefix
	outputPrefix := filepath.Join(workDir, "transcript")

	w.logger.Info(ctx, "Starting transcription with %d threads: %s", w.cfg.Threads, audioPath)

	// -oj: JSON output with segment offsets
	// -l: force language (prevents hallucination)
	// -bo: best of 5
	args := []string{
		"-m", w.cfg.ModelPath,
		"-f", audioPath,
		"-oj",
		"-l", w.cfg.Language,
		"-t", strconv.Itoa(w.cfg.Threads),
		"-bo", "5",
		"--output-file", outputPrefix,
	}
	if w.cfg.Prompt != "" {
		args = append(args, "--prompt", w.cfg.Prompt)
	}

	if _, err := w.executor.ExecuteInDir(ctx, workDir, w.cfg.BinaryPath, args...); err != nil {
		return nil, fmt.Errorf("whisper transcribe: %w", err)
	}

	data, err := os.ReadFile(outputPrefix + ".json")
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}

	segments, err := parseWhisperCPP(data)
	if err != nil {
		return nil, err
	}

	w.logger.Info(ctx, "Transcription completed: %d segments", len(segments))
	return segments, nil
}

func parseWhisperCPP(data []byte) ([]Segment, error) {
	var out whisperCPPOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode whisper output: %w", err)
	}

	segments := make([]Segment, 0, len(out.Transcription))
	for _, t := range out.Transcription {
		segments = append(segments, Segment{
			Start: float64(t.Offsets.From) / 1000,
			End:   float64(t.Offsets.To) / 1000,
			Text:  strings.TrimSpace(t.Text),
		})
	}
	return segments, nil
}
