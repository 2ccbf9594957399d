package processor

import (
	"context"
	"fmt"
	"os"

	"github.com/nguyentantai21042004/demozone/internal/blob"
	"github.com/nguyentantai21042004/demozone/internal/config"
)

// ProcessImage uploads the image, records its URL and forwards it.
func (p *implProcessor) ProcessImage(ctx context.Context, imagePath string, session Session) error {
	if imagePath == "" {
		return fmt.Errorf("invalid filepath: empty")
	}
	if _, err := os.Stat(imagePath); err != nil {
		return fmt.Errorf("invalid filepath %s: %w", imagePath, err)
	}

	p.logger.Info(ctx, "Processing image file: %s (session %s)", imagePath, session.ID)

	key, claimed, err := p.claim(ctx, imagePath, session.ID)
	if err != nil {
		return err
	}
	if !claimed {
		p.logger.Info(ctx, "Already processed or out of attempts, skipping: %s", imagePath)
		return nil
	}

	if err := p.runImage(ctx, imagePath); err != nil {
		p.markFailed(ctx, key)
		return err
	}

	if err := p.ledger.MarkDone(ctx, key); err != nil {
		p.logger.Warn(ctx, "Failed to mark %s done: %v", imagePath, err)
	}
	if err := p.archive(ctx, imagePath); err != nil {
		p.logger.Warn(ctx, "Failed to archive %s: %v", imagePath, err)
	}
	return nil
}

func (p *implProcessor) runImage(ctx context.Context, imagePath string) error {
	p.logger.Info(ctx, "Uploading to blob storage: %s", imagePath)
	url, err := blob.UploadFile(ctx, p.blob, imagePath, p.cfg.Blob.NameSuffix, p.cfg.Blob.Timeout)
	if err != nil {
		return fmt.Errorf("failed to upload image to blob storage: %w", err)
	}
	p.logger.Info(ctx, "Image uploaded to blob storage: %s", url)

	if err := p.urls.Append(ctx, url); err != nil {
		return fmt.Errorf("save url: %w", err)
	}
	p.logger.Info(ctx, "URL saved to %s", p.urls.Path())

	var fwdErr error
	if p.cfg.Image.ForwardMode == config.ForwardSingle {
		fwdErr = p.forwarder.SendImageURL(ctx, url)
	} else {
		var urls []string
		if urls, fwdErr = p.urls.List(ctx); fwdErr == nil {
			fwdErr = p.forwarder.SendTranscript(ctx, "", urls)
		}
	}
	if fwdErr != nil {
		p.logger.Error(ctx, "Forwarding image url failed: %v", fwdErr)
	}
	return nil
}
