package processor

import "context"

// Session carries the per-upload parameters threaded through processing.
type Session struct {
	ID          string
	MaxSpeakers int
}

// Processor turns new media files into forwarded artifacts.
type Processor interface {
	// ProcessAudio transcribes and diarizes an audio file, writes the transcript
	// and forwards it. Duplicates are skipped without error.
	ProcessAudio(ctx context.Context, audioPath string, session Session) error
	// ProcessImage uploads an image to blob storage, records its URL and forwards it.
	ProcessImage(ctx context.Context, imagePath string, session Session) error
	// Handler returns the watcher callback for a directory holding files of kind
	// (ledger.KindAudio or ledger.KindImage). The callback never returns an error.
	Handler(kind string) func(ctx context.Context, path string) error
}
