package processor

import "context"

// semaphore caps how many speech pipelines run at once; models are memory
// hungry, so transcription is serialised by default.
type semaphore struct {
	slots chan struct{}
}

// newSemaphore returns a semaphore with n slots, at least one.
func newSemaphore(n int) *semaphore {
	if n < 1 {
		n = 1
	}
	return &semaphore{slots: make(chan struct{}, n)}
}

// acquire blocks for a free slot or until ctx is done.
func (s *semaphore) acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *semaphore) release() {
	<-s.slots
}
