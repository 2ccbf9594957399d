package speech

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"github.com/nguyentantai21042004/demozone/internal/logger"
	"github.com/nguyentantai21042004/demozone/pkg/executor"
)

type noopDiarizer struct{}

// NewNoopDiarizer returns a Diarizer that finds no speakers.
func NewNoopDiarizer() Diarizer {
	return noopDiarizer{}
}

func (noopDiarizer) Diarize(context.Context, string, int, int) ([]Turn, error) {
	return nil, nil
}

type commandDiarizer struct {
	command  string
	args     []string
	executor executor.Executor
	logger   logger.Logger
}

// NewCommandDiarizer runs an external diarization tool (for example a pyannote
// wrapper) as `command args... --min-speakers N --max-speakers M <audio>`.
// The tool prints speaker turns as JSON (an array, or {"turns": [...]}).
func NewCommandDiarizer(command string, args []string, exec executor.Executor, log logger.Logger) Diarizer {
	return &commandDiarizer{command: command, args: args, executor: exec, logger: log}
}

func (d *commandDiarizer) Diarize(ctx context.Context, audioPath string, minSpeakers, maxSpeakers int) ([]Turn, error) {
	if minSpeakers < 1 {
		minSpeakers = 1
	}
	if maxSpeakers < minSpeakers {
		maxSpeakers = minSpeakers
	}

	d.logger.Info(ctx, "Running diarizer %s (speakers %d-%d)", filepath.Base(d.command), minSpeakers, maxSpeakers)

	args := append(append([]string{}, d.args...),
		"--min-speakers", strconv.Itoa(minSpeakers),
		"--max-speakers", strconv.Itoa(maxSpeakers),
		audioPath,
	)
	out, err := d.executor.Execute(ctx, d.command, args...)
	if err != nil {
		return nil, fmt.Errorf("diarize: %w", err)
	}

	turns, err := decodeList[Turn](out, "turns")
	if err != nil {
		return nil, fmt.Errorf("decode diarizer output: %w", err)
	}

	d.logger.Info(ctx, "Diarization completed: %d turns", len(turns))
	return turns, nil
}

// AssignSpeakers labels each segment with the speaker whose turns overlap it
// the most. A segment overlapping no turn takes the nearest turn's speaker.
// With no turns the segments are returned unchanged.
func AssignSpeakers(segments []Segment, turns []Turn) []Segment {
	if len(turns) == 0 {
		return segments
	}

	out := make([]Segment, len(segments))
	for i, s := range segments {
		overlap := make(map[string]float64)
		best, bestOverlap := "", 0.0
		for _, t := range turns {
			o := math.Min(s.End, t.End) - math.Max(s.Start, t.Start)
			if o <= 0 {
				continue
			}
			overlap[t.Speaker] += o
			if overlap[t.Speaker] > bestOverlap {
				best, bestOverlap = t.Speaker, overlap[t.Speaker]
			}
		}

		if best == "" {
			nearest := math.Inf(1)
			for _, t := range turns {
				if dist := gap(s, t); dist < nearest {
					best, nearest = t.Speaker, dist
				}
			}
		}

		s.Speaker = best
		out[i] = s
	}
	return out
}

func gap(s Segment, t Turn) float64 {
	switch {
	case t.End <= s.Start:
		return s.Start - t.End
	case t.Start >= s.End:
		return t.Start - s.End
	default:
		return 0
	}
}
