package speech

import "context"

// Segment is a timed piece of transcript. Times are in seconds.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
}

// Turn is a span of audio attributed to one speaker.
type Turn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// Transcriber converts an audio file into timed segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]Segment, error)
}

// Aligner refines segment boundaries against the audio.
type Aligner interface {
	Align(ctx context.Context, audioPath string, segments []Segment) ([]Segment, error)
}

// Diarizer finds who spoke when.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string, minSpeakers, maxSpeakers int) ([]Turn, error)
}
