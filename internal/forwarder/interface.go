package forwarder

import "context"

// Forwarder relays derived artifacts to the external workflow endpoint.
type Forwarder interface {
	// SendTranscript posts the base64 transcript at transcriptPath (empty for none)
	// together with imageURLs.
	SendTranscript(ctx context.Context, transcriptPath string, imageURLs []string) error
	// SendImageURL posts a single image URL with no transcript.
	SendImageURL(ctx context.Context, imageURL string) error
}

// Payload is the JSON body the workflow endpoint expects.
type Payload struct {
	BotID             string   `json:"bot_id"`
	TranscriptionFile string   `json:"transcription_file"`
	ImageURLs         []string `json:"image_urls"`
}
