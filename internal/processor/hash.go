package processor

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// contentKey identifies a file by session and content so renamed or re-saved
// copies of the same bytes are processed once per session.
func contentKey(path, sessionID string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return sessionID + ":" + hex.EncodeToString(h.Sum(nil)), nil
}
