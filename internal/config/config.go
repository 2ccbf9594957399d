package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Paths       PathsConfig       `yaml:"paths"`
	Watcher     WatcherConfig     `yaml:"watcher"`
	Session     SessionConfig     `yaml:"session"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
	Aligner     CommandConfig     `yaml:"aligner"`
	Diarizer    CommandConfig     `yaml:"diarizer"`
	FFmpeg      FFmpegConfig      `yaml:"ffmpeg"`
	Transcript  TranscriptConfig  `yaml:"transcript"`
	Image       ImageConfig       `yaml:"image"`
	Blob        BlobConfig        `yaml:"blob"`
	Forwarder   ForwarderConfig   `yaml:"forwarder"`
	Ledger      LedgerConfig      `yaml:"ledger"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	MaxUploadMB    int64    `yaml:"max_upload_mb"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AudioExts      []string `yaml:"audio_exts"`
	ImageExts      []string `yaml:"image_exts"`
}

type PathsConfig struct {
	Audio           string `yaml:"audio"`
	Images          string `yaml:"images"`
	ProcessedImages string `yaml:"processed_images"`
	Transcripts     string `yaml:"transcripts"`
	Temp            string `yaml:"temp"`
	Archive         string `yaml:"archive"`
}

type WatcherConfig struct {
	SettleDelay    time.Duration `yaml:"settle_delay"`
	AudioExts      []string      `yaml:"audio_exts"`
	ImageExts      []string      `yaml:"image_exts"`
	RescanSchedule string        `yaml:"rescan_schedule"`
}

type SessionConfig struct {
	DefaultID          string `yaml:"default_id"`
	DefaultMaxSpeakers int    `yaml:"default_max_speakers"`
}

type TranscriberConfig struct {
	Backend     string        `yaml:"backend"`
	Language    string        `yaml:"language"`
	MaxParallel int           `yaml:"max_parallel"`
	Timeout     time.Duration `yaml:"timeout"`
	WhisperCPP  WhisperCPP    `yaml:"whispercpp"`
	OpenAI      OpenAIConfig  `yaml:"openai"`
	Gemini      GeminiConfig  `yaml:"gemini"`
}

type WhisperCPP struct {
	BinaryPath string `yaml:"binary_path"`
	ModelPath  string `yaml:"model_path"`
	Prompt     string `yaml:"prompt"`
	Threads    int    `yaml:"threads"`
}

type OpenAIConfig struct {
	APIBase string `yaml:"api_base"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

type GeminiConfig struct {
	APIKeys []string `yaml:"api_keys"`
	Model   string   `yaml:"model"`
}

// CommandConfig describes an external tool invoked through the executor.
// An empty Command disables the stage.
type CommandConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

type FFmpegConfig struct {
	Enabled    bool   `yaml:"enabled"`
	BinaryPath string `yaml:"binary_path"`
}

type TranscriptConfig struct {
	SRT  bool `yaml:"srt"`
	DOCX bool `yaml:"docx"`
}

type ImageConfig struct {
	ForwardMode string `yaml:"forward_mode"`
}

type BlobConfig struct {
	Backend    string        `yaml:"backend"`
	NameSuffix string        `yaml:"name_suffix"`
	Timeout    time.Duration `yaml:"timeout"`
	Azure      AzureConfig   `yaml:"azure"`
	GCS        GCSConfig     `yaml:"gcs"`
}

type AzureConfig struct {
	ContainerSASURL string `yaml:"container_sas_url"`
}

type GCSConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

type ForwarderConfig struct {
	URL        string        `yaml:"url"`
	BotID      string        `yaml:"bot_id"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

type LedgerConfig struct {
	Path        string `yaml:"path"`
	MaxAttempts int    `yaml:"max_attempts"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

// Transcriber backends.
const (
	BackendWhisperCPP = "whispercpp"
	BackendOpenAI     = "openai"
	BackendGemini     = "gemini"
)

// Blob backends.
const (
	BlobAzure = "azure"
	BlobGCS   = "gcs"
)

// Image forward modes.
const (
	ForwardLog    = "log"
	ForwardSingle = "single"
)

var (
	defaultAudioUploadExts = []string{"wav", "mp3", "aac", "ogg", "oga", "flac", "m4a", "wma"}
	defaultImageExts       = []string{"jpg", "jpe", "jpeg", "png", "gif", "svg", "bmp", "webp"}
	defaultAudioWatchExts  = []string{"wav", "mp3", "flac", "aac", "ogg", "wma", "m4a"}
)

func (c *Config) Validate() error {
	if c.Forwarder.URL == "" {
		return fmt.Errorf("forwarder.url is required")
	}
	if c.Forwarder.BotID == "" {
		return fmt.Errorf("forwarder.bot_id is required")
	}

	if c.Transcriber.Backend == "" {
		c.Transcriber.Backend = BackendWhisperCPP
	}
	switch c.Transcriber.Backend {
	case BackendWhisperCPP:
		if c.Transcriber.WhisperCPP.ModelPath == "" {
			return fmt.Errorf("transcriber.whispercpp.model_path is required")
		}
		if c.Transcriber.WhisperCPP.BinaryPath == "" {
			c.Transcriber.WhisperCPP.BinaryPath = "whisper-cli"
		}
		if c.Transcriber.WhisperCPP.Threads == 0 {
			c.Transcriber.WhisperCPP.Threads = 4
		}
	case BackendOpenAI:
		if c.Transcriber.OpenAI.APIKey == "" {
			return fmt.Errorf("transcriber.openai.api_key is required")
		}
		if c.Transcriber.OpenAI.APIBase == "" {
			c.Transcriber.OpenAI.APIBase = "https://api.openai.com/v1"
		}
		if c.Transcriber.OpenAI.Model == "" {
			c.Transcriber.OpenAI.Model = "whisper-1"
		}
	case BackendGemini:
		if len(c.Transcriber.Gemini.APIKeys) == 0 {
			return fmt.Errorf("transcriber.gemini.api_keys is required")
		}
		for i, key := range c.Transcriber.Gemini.APIKeys {
			// an unset ${VAR} expands to an empty key
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("transcriber.gemini.api_keys[%d] is empty", i)
			}
		}
		if c.Transcriber.Gemini.Model == "" {
			c.Transcriber.Gemini.Model = "gemini-2.5-flash"
		}
	default:
		return fmt.Errorf("unknown transcriber.backend %q", c.Transcriber.Backend)
	}

	if c.Blob.Backend == "" {
		c.Blob.Backend = BlobAzure
	}
	switch c.Blob.Backend {
	case BlobAzure:
		if c.Blob.Azure.ContainerSASURL == "" {
			return fmt.Errorf("blob.azure.container_sas_url is required")
		}
		if !strings.Contains(c.Blob.Azure.ContainerSASURL, "?") {
			return fmt.Errorf("blob.azure.container_sas_url must carry a SAS query string")
		}
	case BlobGCS:
		if c.Blob.GCS.Bucket == "" {
			return fmt.Errorf("blob.gcs.bucket is required")
		}
	default:
		return fmt.Errorf("unknown blob.backend %q", c.Blob.Backend)
	}

	if c.Image.ForwardMode == "" {
		c.Image.ForwardMode = ForwardLog
	}
	if c.Image.ForwardMode != ForwardLog && c.Image.ForwardMode != ForwardSingle {
		return fmt.Errorf("unknown image.forward_mode %q", c.Image.ForwardMode)
	}

	if c.Server.Addr == "" {
		c.Server.Addr = "0.0.0.0:5000"
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 100
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if len(c.Server.AudioExts) == 0 {
		c.Server.AudioExts = defaultAudioUploadExts
	}
	if len(c.Server.ImageExts) == 0 {
		c.Server.ImageExts = defaultImageExts
	}

	if c.Paths.Audio == "" {
		c.Paths.Audio = "uploads/audio"
	}
	if c.Paths.Images == "" {
		c.Paths.Images = "uploads/images"
	}
	if c.Paths.ProcessedImages == "" {
		c.Paths.ProcessedImages = "processed_images"
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = "data/temp"
	}

	if c.Watcher.SettleDelay == 0 {
		c.Watcher.SettleDelay = 500 * time.Millisecond
	}
	if len(c.Watcher.AudioExts) == 0 {
		c.Watcher.AudioExts = defaultAudioWatchExts
	}
	if len(c.Watcher.ImageExts) == 0 {
		c.Watcher.ImageExts = defaultImageExts
	}
	if c.Watcher.RescanSchedule != "" {
		if _, err := cron.ParseStandard(c.Watcher.RescanSchedule); err != nil {
			return fmt.Errorf("invalid watcher.rescan_schedule: %w", err)
		}
	}

	if c.Session.DefaultID == "" {
		c.Session.DefaultID = "default"
	}
	if c.Session.DefaultMaxSpeakers == 0 {
		c.Session.DefaultMaxSpeakers = 2
	}

	if c.Transcriber.Language == "" {
		c.Transcriber.Language = "en"
	}
	if c.Transcriber.MaxParallel == 0 {
		c.Transcriber.MaxParallel = 1
	}
	if c.Transcriber.Timeout == 0 {
		c.Transcriber.Timeout = 10 * time.Minute
	}
	if c.FFmpeg.BinaryPath == "" {
		c.FFmpeg.BinaryPath = "ffmpeg"
	}

	if c.Blob.NameSuffix == "" {
		c.Blob.NameSuffix = ".png"
	}
	if c.Blob.Timeout == 0 {
		c.Blob.Timeout = 60 * time.Second
	}

	if c.Forwarder.Timeout == 0 {
		c.Forwarder.Timeout = 30 * time.Second
	}
	// a negative value disables retries
	switch {
	case c.Forwarder.MaxRetries == 0:
		c.Forwarder.MaxRetries = 2
	case c.Forwarder.MaxRetries < 0:
		c.Forwarder.MaxRetries = 0
	}

	if c.Ledger.Path == "" {
		c.Ledger.Path = "data/demozone.db"
	}
	if c.Ledger.MaxAttempts <= 0 {
		c.Ledger.MaxAttempts = 3
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}

	return nil
}
