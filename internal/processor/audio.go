package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// convertAudio re-encodes non-WAV input to 16kHz mono WAV under paths.temp.
// It returns the path to feed the speech pipeline and whether that path is a
// temp file the caller must remove.
func (p *implProcessor) convertAudio(ctx context.Context, audioPath string) (string, bool, error) {
	if !p.cfg.FFmpeg.Enabled || strings.EqualFold(filepath.Ext(audioPath), ".wav") {
		return audioPath, false, nil
	}

	if err := os.MkdirAll(p.cfg.Paths.Temp, 0755); err != nil {
		return "", false, fmt.Errorf("create temp dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	outPath := filepath.Join(p.cfg.Paths.Temp, fmt.Sprintf("%s_%d_16k.wav", base, p.now().UnixNano()))

	p.logger.Info(ctx, "Converting audio: %s", audioPath)

	// -ar 16000 -ac 1: 16kHz mono, what the speech models expect
	args := []string{
		"-i", audioPath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-threads", "0",
		"-y",
		outPath,
	}

	if _, err := p.executor.Execute(ctx, p.cfg.FFmpeg.BinaryPath, args...); err != nil {
		os.Remove(outPath)
		return "", false, fmt.Errorf("ffmpeg convert audio: %w", err)
	}

	p.logger.Debug(ctx, "Audio converted: %s", outPath)
	return outPath, true, nil
}
