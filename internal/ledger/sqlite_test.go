package ledger

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) (Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(context.Background(), path, 0)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, path
}

func TestClaimOnce(t *testing.T) {
	l, _ := openTest(t)
	ctx := context.Background()

	ok, err := l.Claim(ctx, "s1:abc", "uploads/audio/clip.wav", "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Claim(ctx, "s1:abc", "uploads/audio/clip.wav", "s1")
	require.NoError(t, err)
	assert.False(t, ok, "second claim of an in-flight key must fail")

	require.NoError(t, l.MarkDone(ctx, "s1:abc"))
	ok, err = l.Claim(ctx, "s1:abc", "uploads/audio/clip.wav", "s1")
	require.NoError(t, err)
	assert.False(t, ok, "done keys are never reclaimed")
}

func TestClaimAfterFailure(t *testing.T) {
	l, _ := openTest(t)
	ctx := context.Background()

	ok, err := l.Claim(ctx, "k", "a.wav", "s")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, l.MarkFailed(ctx, "k"))

	ok, err = l.Claim(ctx, "k", "a.wav", "s")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClaimConcurrent(t *testing.T) {
	l, _ := openTest(t)
	ctx := context.Background()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := l.Claim(ctx, "race", "a.wav", "s")
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestReopenResetsInFlight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	l, err := Open(ctx, path, 0)
	require.NoError(t, err)
	ok, err := l.Claim(ctx, "k", "a.wav", "s")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, l.Close())

	l, err = Open(ctx, path, 0)
	require.NoError(t, err)
	defer l.Close()

	ok, err = l.Claim(ctx, "k", "a.wav", "s")
	require.NoError(t, err)
	assert.True(t, ok, "entry interrupted by a crash should be retryable")
}

func TestUploadRegistry(t *testing.T) {
	l, _ := openTest(t)
	ctx := context.Background()

	_, found, err := l.LookupUpload(ctx, "uploads/audio/none.wav")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, l.RegisterUpload(ctx, Upload{
		Path:        "uploads/audio/clip.wav",
		SessionID:   "sess-7",
		MaxSpeakers: 3,
		Kind:        "audio",
	}))

	abs, err := filepath.Abs("uploads/audio/clip.wav")
	require.NoError(t, err)

	u, found, err := l.LookupUpload(ctx, abs)
	require.NoError(t, err)
	require.True(t, found, "relative and absolute paths resolve to the same upload")
	assert.Equal(t, "sess-7", u.SessionID)
	assert.Equal(t, 3, u.MaxSpeakers)
	assert.Equal(t, "audio", u.Kind)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestClaimAttemptsExhausted(t *testing.T) {
	l, err := Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"), 2)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	ctx := context.Background()

	ok, err := l.Claim(ctx, "k", "a.wav", "s")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, l.MarkFailed(ctx, "k"))

	ok, err = l.Claim(ctx, "k", "a.wav", "s")
	require.NoError(t, err)
	require.True(t, ok, "second attempt allowed")
	require.NoError(t, l.MarkFailed(ctx, "k"))

	ok, err = l.Claim(ctx, "k", "a.wav", "s")
	require.NoError(t, err)
	assert.False(t, ok, "attempts used up")
}
