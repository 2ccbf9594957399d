package processor

import (
	"context"
	"errors"

	"github.com/nguyentantai21042004/demozone/internal/ledger"
)

var errUnknownKind = errors.New("unknown file kind")

// Handler returns the watcher callback for files of kind. Processing errors
// are logged and swallowed so a bad file never stops its watcher.
func (p *implProcessor) Handler(kind string) func(ctx context.Context, path string) error {
	return func(ctx context.Context, path string) error {
		session := p.resolveSession(ctx, path)

		var err error
		switch kind {
		case ledger.KindAudio:
			err = p.ProcessAudio(ctx, path, session)
		case ledger.KindImage:
			err = p.ProcessImage(ctx, path, session)
		default:
			err = errUnknownKind
		}

		if err != nil {
			p.logger.Error(ctx, "Error processing %s file %s: %v", kind, path, err)
		}
		return nil
	}
}

// resolveSession returns the session registered for path at upload time, or
// the configured defaults for files that arrived some other way.
func (p *implProcessor) resolveSession(ctx context.Context, path string) Session {
	session := Session{
		ID:          p.cfg.Session.DefaultID,
		MaxSpeakers: p.cfg.Session.DefaultMaxSpeakers,
	}

	u, found, err := p.ledger.LookupUpload(ctx, path)
	if err != nil {
		p.logger.Warn(ctx, "Session lookup failed for %s: %v", path, err)
		return session
	}
	if !found {
		return session
	}

	if u.SessionID != "" {
		session.ID = u.SessionID
	}
	if u.MaxSpeakers > 0 {
		session.MaxSpeakers = u.MaxSpeakers
	}
	return session
}
