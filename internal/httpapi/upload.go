package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nguyentantai21042004/demozone/internal/ledger"
)

const maxSpeakersLimit = 20

func (s *implServer) upload(set uploadSet) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if s.maxUploadBytes > 0 {
			if c.Request.ContentLength > s.maxUploadBytes {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
				return
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)
		}

		fh, err := c.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
				return
			}
			if emptyFilePart(c.Request) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "No selected file"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file part"})
			return
		}

		name := secureFilename(fh.Filename)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filename"})
			return
		}
		if _, ok := set.exts[extension(name)]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed"})
			return
		}

		sessionID := strings.TrimSpace(c.PostForm("session_id"))
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		maxSpeakers := 0
		if set.kind == ledger.KindAudio {
			maxSpeakers = s.defaultSpeak
			if raw := strings.TrimSpace(c.PostForm("max_speakers")); raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil || n < 1 || n > maxSpeakersLimit {
					c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("max_speakers must be between 1 and %d", maxSpeakersLimit)})
					return
				}
				maxSpeakers = n
			}
		}

		if err := os.MkdirAll(set.dir, 0755); err != nil {
			s.logger.Error(ctx, "Create upload dir %s: %v", set.dir, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
			return
		}

		final := s.reserve(set.dir, name)
		defer s.unreserve(final)

		// write under a hidden temp name so the watcher only sees complete files
		part := filepath.Join(set.dir, "."+filepath.Base(final)+".part")
		if err := c.SaveUploadedFile(fh, part); err != nil {
			os.Remove(part)
			s.logger.Error(ctx, "Save upload %s: %v", part, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
			return
		}

		if err := s.ledger.RegisterUpload(ctx, ledger.Upload{
			Path:        final,
			SessionID:   sessionID,
			MaxSpeakers: maxSpeakers,
			Kind:        set.kind,
		}); err != nil {
			os.Remove(part)
			s.logger.Error(ctx, "Register upload %s: %v", final, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
			return
		}

		if err := os.Rename(part, final); err != nil {
			os.Remove(part)
			s.logger.Error(ctx, "Move upload into place %s: %v", final, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
			return
		}

		s.logger.Info(ctx, "Saved %s upload %s (session %s)", set.kind, final, sessionID)
		c.JSON(http.StatusOK, gin.H{
			"message":    "File uploaded successfully",
			"filename":   filepath.Base(final),
			"session_id": sessionID,
		})
	}
}

// emptyFilePart reports whether the form carried a file field with an empty
// filename. The multipart reader files such parts under form values.
func emptyFilePart(r *http.Request) bool {
	if r.MultipartForm == nil {
		return false
	}
	_, ok := r.MultipartForm.Value["file"]
	return ok
}

// reserve picks a free path for name inside dir, appending _1, _2, ... before
// the extension when the name is taken on disk or by an in-flight upload.
func (s *implServer) reserve(dir, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(dir, name)
	for i := 1; s.taken(candidate); i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
	s.reserved[candidate] = struct{}{}
	return candidate
}

func (s *implServer) unreserve(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, path)
}

func (s *implServer) taken(path string) bool {
	if _, ok := s.reserved[path]; ok {
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}
