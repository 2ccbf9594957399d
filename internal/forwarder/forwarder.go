package forwarder

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

func (f *implForwarder) SendTranscript(ctx context.Context, transcriptPath string, imageURLs []string) error {
	transcript := ""
	if transcriptPath != "" {
		data, err := os.ReadFile(transcriptPath)
		if err != nil {
			return fmt.Errorf("read transcript: %w", err)
		}
		transcript = base64.StdEncoding.EncodeToString(data)
	}

	// the endpoint expects a list, never null
	urls := imageURLs
	if urls == nil {
		urls = []string{}
	}

	if err := f.post(ctx, Payload{BotID: f.cfg.BotID, TranscriptionFile: transcript, ImageURLs: urls}); err != nil {
		f.logger.Error(ctx, "Error sending data to API: %v", err)
		return err
	}
	f.logger.Info(ctx, "Data sent to API successfully (%d image urls)", len(urls))
	return nil
}

func (f *implForwarder) SendImageURL(ctx context.Context, imageURL string) error {
	if err := f.post(ctx, Payload{BotID: f.cfg.BotID, ImageURLs: []string{imageURL}}); err != nil {
		f.logger.Error(ctx, "Error sending image URL to API: %v", err)
		return err
	}
	f.logger.Info(ctx, "Image URL sent to API successfully")
	return nil
}

func (f *implForwarder) post(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	resp, err := f.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.URL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("workflow API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
