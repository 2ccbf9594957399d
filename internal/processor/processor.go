package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/demozone/internal/speech"
)

// ProcessAudio orchestrates the audio pipeline:
// claim -> reserve transcript -> convert -> transcribe/align/diarize -> write -> forward.
func (p *implProcessor) ProcessAudio(ctx context.Context, audioPath string, session Session) error {
	startTime := time.Now()
	p.logger.Info(ctx, "Processing audio file: %s (session %s)", audioPath, session.ID)

	key, claimed, err := p.claim(ctx, audioPath, session.ID)
	if err != nil {
		return err
	}
	if !claimed {
		p.logger.Info(ctx, "Already processed or out of attempts, skipping: %s", audioPath)
		return nil
	}

	transcriptPath, err := p.reserveTranscript(audioPath, session.ID)
	if err != nil {
		p.markFailed(ctx, key)
		return fmt.Errorf("reserve transcript: %w", err)
	}

	if err := p.runAudio(ctx, audioPath, transcriptPath, session); err != nil {
		// drop the reservation so a retry reuses the name
		os.Remove(transcriptPath)
		p.markFailed(ctx, key)
		return err
	}

	if err := p.ledger.MarkDone(ctx, key); err != nil {
		p.logger.Warn(ctx, "Failed to mark %s done: %v", audioPath, err)
	}

	if err := p.archive(ctx, audioPath); err != nil {
		p.logger.Warn(ctx, "Failed to archive %s: %v", audioPath, err)
	}

	p.logger.Info(ctx, "Audio processed in %s: %s", time.Since(startTime), audioPath)
	return nil
}

func (p *implProcessor) runAudio(ctx context.Context, audioPath, transcriptPath string, session Session) error {
	// Step 1: Normalise the audio for the speech model
	inputPath, converted, err := p.convertAudio(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("convert audio: %w", err)
	}
	if converted {
		defer p.cleanupTempFile(ctx, inputPath)
	}

	// Step 2: Transcribe, align and diarize
	if err := p.sem.acquire(ctx); err != nil {
		return err
	}
	segments, err := p.transcribe(ctx, inputPath, session.MaxSpeakers)
	p.sem.release()
	if err != nil {
		return fmt.Errorf("speech pipeline: %w", err)
	}

	// Step 3: Persist transcript renditions
	transcript := speech.JoinText(segments)
	if err := p.writeTranscript(ctx, transcriptPath, transcript, segments); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}

	// Step 4: Forward
	if strings.TrimSpace(transcript) == "" {
		p.logger.Error(ctx, "Transcript is empty, not sending to API.")
		return nil
	}
	urls, err := p.urls.List(ctx)
	if err != nil {
		p.logger.Error(ctx, "Reading image urls failed: %v", err)
		return nil
	}
	if err := p.forwarder.SendTranscript(ctx, transcriptPath, urls); err != nil {
		// the transcript is on disk; a failed forward is not retried
		p.logger.Error(ctx, "Forwarding transcript %s failed: %v", transcriptPath, err)
	}
	return nil
}

func (p *implProcessor) transcribe(ctx context.Context, audioPath string, maxSpeakers int) ([]speech.Segment, error) {
	if p.cfg.Transcriber.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Transcriber.Timeout)
		defer cancel()
	}
	return p.speech.Run(ctx, audioPath, maxSpeakers)
}

// reserveTranscript creates transcript_<session>_<YYYYmmdd_HHMMSS>.txt next to
// the audio file, or under paths.transcripts when configured. A name already
// taken by another recording gets a _1, _2, ... suffix.
func (p *implProcessor) reserveTranscript(audioPath, sessionID string) (string, error) {
	dir := p.cfg.Paths.Transcripts
	if dir == "" {
		dir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}

	stem := fmt.Sprintf("transcript_%s_%s", safeID(sessionID), p.now().Format("20060102_150405"))
	candidate := filepath.Join(dir, stem+".txt")
	for i := 1; ; i++ {
		f, err := os.OpenFile(candidate, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			return candidate, f.Close()
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d.txt", stem, i))
	}
}

func (p *implProcessor) claim(ctx context.Context, path, sessionID string) (string, bool, error) {
	key, err := contentKey(path, sessionID)
	if err != nil {
		return "", false, fmt.Errorf("hash %s: %w", path, err)
	}
	ok, err := p.ledger.Claim(ctx, key, path, sessionID)
	if err != nil {
		return "", false, err
	}
	return key, ok, nil
}

func (p *implProcessor) markFailed(ctx context.Context, key string) {
	// cancellation must not prevent recording the failure
	if err := p.ledger.MarkFailed(context.WithoutCancel(ctx), key); err != nil {
		p.logger.Warn(ctx, "Failed to mark %s failed: %v", key, err)
	}
}

// safeID keeps session ids usable inside file names.
func safeID(id string) string {
	if id == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}
