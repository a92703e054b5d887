package ports

import (
	"context"
	"io"

	"wakeloop/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session producing s16le PCM.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// Recognizer turns PCM chunks into finalized utterances.
//
// AcceptAudio returns final=true only when the engine judged the utterance
// complete; text may still be empty in that case.
type Recognizer interface {
	AcceptAudio(chunk []byte) (text string, final bool, err error)
	Close() error
}

// Flusher is implemented by recognizers that hold speech back until the
// audio source ends. Flush is called until it reports final=false.
type Flusher interface {
	Flush() (text string, final bool, err error)
}

// CompletionClient sends a prompt to the language model. Failures come back
// as human-readable text, never as an error.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) string
}

// Synthesizer speaks text aloud and blocks until playback completes.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// MuteController toggles the default audio input. Fire-and-forget.
type MuteController interface {
	SetMuted(ctx context.Context, muted bool)
}

// EventSink receives human-facing loop events.
type EventSink interface {
	ModeChanged(mode domain.Mode, reason domain.ModeReason)
	TranscriptRecognized(text string)
	ResponseReady(prompt string, response string)
	SessionError(code domain.ErrorCode, detail string)
}
