package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/demozone/internal/config"
	"github.com/nguyentantai21042004/demozone/internal/ledger"
	"github.com/nguyentantai21042004/demozone/internal/logger"
)

type testServer struct {
	handler http.Handler
	cfg     *config.Config
	ledger  ledger.Ledger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Server.MaxUploadMB = 1
	cfg.Server.AudioExts = []string{"wav", "mp3", "aac", "ogg", "oga", "flac", "m4a", "wma"}
	cfg.Server.ImageExts = []string{"jpg", "jpe", "jpeg", "png", "gif", "svg", "bmp", "webp"}
	cfg.Paths.Audio = filepath.Join(dir, "uploads", "audio")
	cfg.Paths.Images = filepath.Join(dir, "uploads", "images")
	cfg.Session.DefaultMaxSpeakers = 2

	l, err := ledger.Open(context.Background(), filepath.Join(dir, "ledger.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	return &testServer{handler: New(cfg, l, logger.Discard()).Handler(), cfg: cfg, ledger: l}
}

func (ts *testServer) upload(t *testing.T, path, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestUploadAudio(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.upload(t, "/upload/audio", "clip.wav", []byte("RIFF"), map[string]string{"session_id": "s1", "max_speakers": "3"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "File uploaded successfully", body["message"])
	assert.Equal(t, "clip.wav", body["filename"])
	assert.Equal(t, "s1", body["session_id"])

	saved := filepath.Join(ts.cfg.Paths.Audio, "clip.wav")
	data, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))
	assert.Equal(t, []string{"clip.wav"}, listDir(t, ts.cfg.Paths.Audio), "no temp file left behind")

	u, found, err := ts.ledger.LookupUpload(context.Background(), saved)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "s1", u.SessionID)
	assert.Equal(t, 3, u.MaxSpeakers)
	assert.Equal(t, ledger.KindAudio, u.Kind)
}

func TestUploadGeneratesSessionID(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.upload(t, "/upload/image", "photo.PNG", []byte("png"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Len(t, body["session_id"], 36)

	u, found, err := ts.ledger.LookupUpload(context.Background(), filepath.Join(ts.cfg.Paths.Images, "photo.PNG"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, ledger.KindImage, u.Kind)
	assert.Equal(t, 0, u.MaxSpeakers)
}

func TestUploadSanitizesAndDeduplicates(t *testing.T) {
	ts := newTestServer(t)

	for _, want := range []string{"my_clip.wav", "my_clip_1.wav", "my_clip_2.wav"} {
		rec := ts.upload(t, "/upload/audio", "../../my clip.wav", []byte("RIFF"), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, want, decode(t, rec)["filename"])
		assert.FileExists(t, filepath.Join(ts.cfg.Paths.Audio, want))
	}
}

func TestUploadRejections(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		filename string
		fields   map[string]string
		wantErr  string
	}{
		{name: "no file part", path: "/upload/audio", wantErr: "No file part"},
		{name: "disallowed audio ext", path: "/upload/audio", filename: "evil.exe", wantErr: "File type not allowed"},
		{name: "image into audio", path: "/upload/audio", filename: "photo.png", wantErr: "File type not allowed"},
		{name: "audio into image", path: "/upload/image", filename: "clip.wav", wantErr: "File type not allowed"},
		{name: "no extension", path: "/upload/image", filename: "README", wantErr: "File type not allowed"},
		{name: "name sanitizes to nothing", path: "/upload/image", filename: "...", wantErr: "Invalid filename"},
		{name: "max speakers not a number", path: "/upload/audio", filename: "a.wav", fields: map[string]string{"max_speakers": "two"}, wantErr: "max_speakers must be between 1 and 20"},
		{name: "max speakers too large", path: "/upload/audio", filename: "a.wav", fields: map[string]string{"max_speakers": "21"}, wantErr: "max_speakers must be between 1 and 20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)

			rec := ts.upload(t, tt.path, tt.filename, []byte("data"), tt.fields)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantErr, decode(t, rec)["error"])

			assert.Empty(t, listDir(t, ts.cfg.Paths.Audio))
			assert.Empty(t, listDir(t, ts.cfg.Paths.Images))
		})
	}
}

func TestUploadEmptyFilename(t *testing.T) {
	ts := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename=""`)
	hdr.Set("Content-Type", "application/octet-stream")
	pw, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = pw.Write([]byte("data"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload/audio", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No selected file", decode(t, rec)["error"])
	assert.Empty(t, listDir(t, ts.cfg.Paths.Audio))
}

func TestUploadTooLarge(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.upload(t, "/upload/audio", "big.wav", bytes.Repeat([]byte("x"), 2<<20), nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "File too large", decode(t, rec)["error"])
	assert.Empty(t, listDir(t, ts.cfg.Paths.Audio))
}

func TestRequestIDPropagated(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "req-42")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(headerRequestID))
}

func TestSecureFilename(t *testing.T) {
	tests := map[string]string{
		"My cool movie.mov":          "My_cool_movie.mov",
		"../../../etc/passwd":        "etc_passwd",
		"i contain cool ümläuts.txt": "i_contain_cool_umlauts.txt",
		"  .hidden.wav ":             "hidden.wav",
		"a\\b.png":                   "a_b.png",
		"___":                        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, secureFilename(in), in)
	}
}
