package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/demozone/internal/config"
	"github.com/nguyentantai21042004/demozone/internal/logger"
)

type fakeExecutor struct {
	calls  [][]string
	out    string
	err    error
	onCall func(name string, args []string)
}

func (f *fakeExecutor) Execute(_ context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.onCall != nil {
		f.onCall(name, args)
	}
	return f.out, f.err
}

func (f *fakeExecutor) ExecuteInDir(ctx context.Context, _ string, name string, args ...string) (string, error) {
	return f.Execute(ctx, name, args...)
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestWhisperCPPTranscribe(t *testing.T) {
	exec := &fakeExecutor{
		onCall: func(_ string, args []string) {
			out := `{"transcription":[
				{"offsets":{"from":0,"to":1500},"text":" Hello there."},
				{"offsets":{"from":1500,"to":3200},"text":" General Kenobi."}
			]}`
			_ = os.WriteFile(argAfter(args, "--output-file")+".json", []byte(out), 0644)
		},
	}

	tr := NewWhisperCPP(WhisperCPPConfig{
		BinaryPath: "whisper-cli",
		ModelPath:  "models/ggml-large-v2.bin",
		Language:   "en",
		Threads:    4,
		TempDir:    t.TempDir(),
	}, exec, logger.Discard())

	segs, err := tr.Transcribe(context.Background(), "clip.wav")
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, Segment{Start: 0, End: 1.5, Text: "Hello there."}, segs[0])
	assert.Equal(t, Segment{Start: 1.5, End: 3.2, Text: "General Kenobi."}, segs[1])

	require.Len(t, exec.calls, 1)
	assert.Equal(t, "whisper-cli", exec.calls[0][0])
	assert.Equal(t, "models/ggml-large-v2.bin", argAfter(exec.calls[0], "-m"))
	absClip, err := filepath.Abs("clip.wav")
	require.NoError(t, err)
	assert.Equal(t, absClip, argAfter(exec.calls[0], "-f"))
}

func TestWhisperCPPCommandFailure(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("exit status 1")}
	tr := NewWhisperCPP(WhisperCPPConfig{TempDir: t.TempDir()}, exec, logger.Discard())

	_, err := tr.Transcribe(context.Background(), "clip.wav")
	assert.ErrorContains(t, err, "whisper transcribe")
}

func TestOpenAITranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))
		assert.Equal(t, "whisper-1", r.FormValue("model"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(file)
		assert.Equal(t, "RIFFdata", string(data))

		json.NewEncoder(w).Encode(map[string]any{
			"text":     "hi there",
			"language": "en",
			"segments": []map[string]any{
				{"id": 0, "start": 0.0, "end": 1.0, "text": " hi"},
				{"id": 1, "start": 1.0, "end": 2.0, "text": " there"},
			},
		})
	}))
	defer srv.Close()

	audio := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFFdata"), 0644))

	tr := NewOpenAI(OpenAIConfig{APIBase: srv.URL + "/v1", APIKey: "sk-test", Model: "whisper-1"}, logger.Discard())
	segs, err := tr.Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, []Segment{{Start: 0, End: 1, Text: "hi"}, {Start: 1, End: 2, Text: "there"}}, segs)
}

func TestOpenAITranscribeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	audio := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(audio, []byte("x"), 0644))

	tr := NewOpenAI(OpenAIConfig{APIBase: srv.URL, Model: "whisper-1"}, logger.Discard())
	_, err := tr.Transcribe(context.Background(), audio)
	assert.ErrorContains(t, err, "openai transcribe")
	assert.ErrorContains(t, err, "401")
}

func TestBoundsAligner(t *testing.T) {
	in := []Segment{
		{Start: 2, End: 3, Text: " second "},
		{Start: 0, End: 2.5, Text: "first"},
		{Start: 4, End: 3.5, Text: "third"},
		{Start: 5, End: 6, Text: "   "},
		{Start: -1, End: 0, Text: "zero"},
	}

	out, err := NewBoundsAligner().Align(context.Background(), "", in)
	require.NoError(t, err)
	assert.Equal(t, []Segment{
		{Start: 0, End: 2.5, Text: "first"},
		{Start: 2.5, End: 2.5, Text: "zero"},
		{Start: 2.5, End: 3, Text: "second"},
		{Start: 4, End: 4, Text: "third"},
	}, out)
}

func TestCommandAligner(t *testing.T) {
	exec := &fakeExecutor{
		out: `{"segments":[{"start":0.1,"end":0.9,"text":"hi"}]}`,
		onCall: func(_ string, args []string) {
			data, err := os.ReadFile(args[len(args)-1])
			require.NoError(t, err)
			assert.Contains(t, string(data), `"text":"hi"`)
		},
	}

	a := NewCommandAligner("align-tool", []string{"--lang", "en"}, t.TempDir(), exec, logger.Discard())
	out, err := a.Align(context.Background(), "clip.wav", []Segment{{Start: 0, End: 1, Text: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, []Segment{{Start: 0.1, End: 0.9, Text: "hi"}}, out)
	assert.Equal(t, []string{"align-tool", "--lang", "en", "clip.wav"}, exec.calls[0][:4])
}

func TestCommandDiarizer(t *testing.T) {
	exec := &fakeExecutor{out: `[{"start":0,"end":2,"speaker":"SPEAKER_00"}]`}
	d := NewCommandDiarizer("diarize", nil, exec, logger.Discard())

	turns, err := d.Diarize(context.Background(), "clip.wav", 0, 3)
	require.NoError(t, err)
	assert.Equal(t, []Turn{{Start: 0, End: 2, Speaker: "SPEAKER_00"}}, turns)
	assert.Equal(t, []string{"diarize", "--min-speakers", "1", "--max-speakers", "3", "clip.wav"}, exec.calls[0])
}

func TestAssignSpeakers(t *testing.T) {
	segs := []Segment{
		{Start: 0, End: 2, Text: "a"},
		{Start: 2, End: 5, Text: "b"},
		{Start: 9, End: 10, Text: "c"},
	}
	turns := []Turn{
		{Start: 0, End: 2.5, Speaker: "S0"},
		{Start: 2.5, End: 6, Speaker: "S1"},
	}

	out := AssignSpeakers(segs, turns)
	assert.Equal(t, "S0", out[0].Speaker)
	assert.Equal(t, "S1", out[1].Speaker)
	assert.Equal(t, "S1", out[2].Speaker, "nearest turn wins when nothing overlaps")

	assert.Equal(t, segs, AssignSpeakers(segs, nil))
}

type stubTranscriber struct{ segs []Segment }

func (s stubTranscriber) Transcribe(context.Context, string) ([]Segment, error) { return s.segs, nil }

func TestPipelineRun(t *testing.T) {
	p := &Pipeline{
		Transcriber: stubTranscriber{segs: []Segment{{Start: 1, End: 2, Text: " two"}, {Start: 0, End: 1, Text: "one"}}},
		Aligner:     NewBoundsAligner(),
		Diarizer:    NewNoopDiarizer(),
		Logger:      logger.Discard(),
	}

	segs, err := p.Run(context.Background(), "clip.wav", 2)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", JoinText(segs))
}

func TestNewDiarizerSelection(t *testing.T) {
	cfg := &config.Config{}
	cfg.Transcriber.WhisperCPP.ModelPath = "m.bin"

	p := New(cfg, &fakeExecutor{}, logger.Discard())
	assert.IsType(t, noopDiarizer{}, p.Diarizer)

	cfg.Diarizer.Command = "diarize"
	p = New(cfg, &fakeExecutor{}, logger.Discard())
	assert.IsType(t, &commandDiarizer{}, p.Diarizer)
}
