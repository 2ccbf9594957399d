package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/nguyentantai21042004/demozone/internal/logger"
)

// Pipeline chains transcription, alignment and diarization.
type Pipeline struct {
	Transcriber Transcriber
	Aligner     Aligner
	Diarizer    Diarizer
	Logger      logger.Logger
}

// Run transcribes audioPath and returns aligned, speaker-labelled segments.
func (p *Pipeline) Run(ctx context.Context, audioPath string, maxSpeakers int) ([]Segment, error) {
	p.Logger.Info(ctx, "Starting transcription and diarization: %s", audioPath)

	segments, err := p.Transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	segments, err = p.Aligner.Align(ctx, audioPath, segments)
	if err != nil {
		return nil, fmt.Errorf("align: %w", err)
	}

	turns, err := p.Diarizer.Diarize(ctx, audioPath, 1, maxSpeakers)
	if err != nil {
		return nil, fmt.Errorf("diarize: %w", err)
	}

	return AssignSpeakers(segments, turns), nil
}

// JoinText concatenates segment texts with newlines.
func JoinText(segments []Segment) string {
	lines := make([]string, 0, len(segments))
	for _, s := range segments {
		lines = append(lines, s.Text)
	}
	return strings.Join(lines, "\n")
}
