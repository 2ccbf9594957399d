package speech

import (
	"context"

	"github.com/nguyentantai21042004/demozone/internal/config"
	"github.com/nguyentantai21042004/demozone/internal/logger"
	"github.com/nguyentantai21042004/demozone/pkg/executor"
)

// New builds the speech pipeline selected by cfg.
func New(cfg *config.Config, exec executor.Executor, log logger.Logger) *Pipeline {
	p := &Pipeline{
		Aligner:  NewBoundsAligner(),
		Diarizer: NewNoopDiarizer(),
		Logger:   log,
	}

	tc := cfg.Transcriber
	switch tc.Backend {
	case config.BackendOpenAI:
		p.Transcriber = NewOpenAI(OpenAIConfig{
			APIBase:  tc.OpenAI.APIBase,
			APIKey:   tc.OpenAI.APIKey,
			Model:    tc.OpenAI.Model,
			Language: tc.Language,
			Timeout:  tc.Timeout,
		}, log)
	case config.BackendGemini:
		p.Transcriber = NewGemini(tc.Gemini.APIKeys, tc.Gemini.Model, tc.Language, log)
	default:
		p.Transcriber = NewWhisperCPP(WhisperCPPConfig{
			BinaryPath: tc.WhisperCPP.BinaryPath,
			ModelPath:  tc.WhisperCPP.ModelPath,
			Language:   tc.Language,
			Prompt:     tc.WhisperCPP.Prompt,
			Threads:    tc.WhisperCPP.Threads,
			TempDir:    cfg.Paths.Temp,
		}, exec, log)
	}

	if cfg.Aligner.Command != "" {
		p.Aligner = NewCommandAligner(cfg.Aligner.Command, cfg.Aligner.Args, cfg.Paths.Temp, exec, log)
	}
	if cfg.Diarizer.Command != "" {
		p.Diarizer = NewCommandDiarizer(cfg.Diarizer.Command, cfg.Diarizer.Args, exec, log)
	} else {
		log.Warn(context.Background(), "No diarizer.command configured: transcripts carry no speaker labels and max_speakers is ignored")
	}

	return p
}
