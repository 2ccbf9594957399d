package executor

import "context"

// Executor runs external commands such as ffmpeg, whisper.cpp or a diarization tool.
type Executor interface {
	// Execute runs name with args and returns stdout. A non-zero exit is an
	// error carrying the command's stderr.
	Execute(ctx context.Context, name string, args ...string) (string, error)
	// ExecuteInDir is Execute with dir as the working directory, for tools
	// that drop scratch files next to themselves.
	ExecuteInDir(ctx context.Context, dir string, name string, args ...string) (string, error)
}
