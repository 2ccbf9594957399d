package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nguyentantai21042004/demozone/internal/logger"
	"github.com/nguyentantai21042004/demozone/pkg/executor"
)

type boundsAligner struct{}

// NewBoundsAligner returns an Aligner that only normalises segment
// boundaries: ordered by start, no empty text, no negative or overlapping spans.
func NewBoundsAligner() Aligner {
	return boundsAligner{}
}

func (boundsAligner) Align(_ context.Context, _ string, segments []Segment) ([]Segment, error) {
	return normalize(segments), nil
}

func normalize(segments []Segment) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, s := range segments {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" {
			continue
		}
		if s.Start < 0 {
			s.Start = 0
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })

	for i := range out {
		if i > 0 && out[i].Start < out[i-1].End {
			out[i].Start = out[i-1].End
		}
		if out[i].End < out[i].Start {
			out[i].End = out[i].Start
		}
	}
	return out
}

type commandAligner struct {
	command  string
	args     []string
	tempDir  string
	executor executor.Executor
	logger   logger.Logger
}

// NewCommandAligner runs an external forced-alignment tool. The tool is called as
// `command args... <audio> <segments.json>` and must print the aligned segments
// as JSON (an array, or an object with a "segments" array) on stdout.
func NewCommandAligner(command string, args []string, tempDir string, exec executor.Executor, log logger.Logger) Aligner {
	return &commandAligner{command: command, args: args, tempDir: tempDir, executor: exec, logger: log}
}

func (a *commandAligner) Align(ctx context.Context, audioPath string, segments []Segment) ([]Segment, error) {
	if err := os.MkdirAll(a.tempDir, 0755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	f, err := os.CreateTemp(a.tempDir, "segments-*.json")
	if err != nil {
		return nil, fmt.Errorf("create segments file: %w", err)
	}
	defer os.Remove(f.Name())

	if err := json.NewEncoder(f).Encode(segments); err != nil {
		f.Close()
		return nil, fmt.Errorf("write segments file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close segments file: %w", err)
	}

	a.logger.Info(ctx, "Running aligner %s on %d segments", filepath.Base(a.command), len(segments))

	args := append(append([]string{}, a.args...), audioPath, f.Name())
	out, err := a.executor.Execute(ctx, a.command, args...)
	if err != nil {
		return nil, fmt.Errorf("align: %w", err)
	}

	aligned, err := decodeList[Segment](out, "segments")
	if err != nil {
		return nil, fmt.Errorf("decode aligner output: %w", err)
	}

	a.logger.Info(ctx, "Alignment completed.")
	return normalize(aligned), nil
}

// decodeList accepts either a bare JSON array or an object wrapping it under key.
func decodeList[T any](raw, key string) ([]T, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") {
		var list []T
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
		return nil, err
	}
	inner, ok := wrapped[key]
	if !ok {
		return nil, fmt.Errorf("missing %q in output", key)
	}
	var list []T
	if err := json.Unmarshal(inner, &list); err != nil {
		return nil, err
	}
	return list, nil
}
