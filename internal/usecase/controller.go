package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"wakeloop/internal/domain"
	"wakeloop/internal/ports"
)

var ErrAudioSourceEnded = errors.New("audio source ended")

// Config controls the session loop. It is not modified after construction.
type Config struct {
	Phrases      domain.Phrases
	Audio        ports.AudioConfig
	ChunkSize    int
	SpeechOutput bool
}

// SessionLoop reads audio, feeds the recognizer and acts on each finalized
// transcript. It is single-threaded; mode is only touched by Run.
type SessionLoop struct {
	audio      ports.AudioCapture
	recognizer ports.Recognizer
	events     ports.EventSink
	dispatcher queryDispatcher
	logger     *slog.Logger
	cfg        Config

	mode domain.Mode
}

func NewSessionLoop(
	audio ports.AudioCapture,
	recognizer ports.Recognizer,
	completion ports.CompletionClient,
	synthesizer ports.Synthesizer,
	mute ports.MuteController,
	events ports.EventSink,
	logger *slog.Logger,
	cfg Config,
) *SessionLoop {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 6000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionLoop{
		audio:      audio,
		recognizer: recognizer,
		events:     events,
		dispatcher: newQueryDispatcher(completion, synthesizer, mute, events, logger, cfg.SpeechOutput),
		logger:     logger,
		cfg:        cfg,
		mode:       domain.ModeIdle,
	}
}

// Mode returns the current mode.
func (l *SessionLoop) Mode() domain.Mode {
	return l.mode
}

// Run captures audio until the quit phrase is recognized, ctx is cancelled,
// or the audio source fails. Quit and cancellation return nil; a source that
// reaches end of stream returns ErrAudioSourceEnded.
func (l *SessionLoop) Run(ctx context.Context) error {
	session, err := l.audio.Start(ctx, l.cfg.Audio)
	if err != nil {
		l.events.SessionError(domain.ErrorCodeStartup, err.Error())
		return fmt.Errorf("failed to start audio capture: %w", err)
	}
	defer func() {
		if err := session.Stop(); err != nil {
			l.events.SessionError(domain.ErrorCodeAudioStop, fmt.Sprintf("failed to stop audio capture cleanly: %v", err))
		}
	}()

	l.events.ModeChanged(l.mode, domain.ModeReasonStartup)

	buf := make([]byte, l.cfg.ChunkSize)
	for {
		n, readErr := readChunk(session, buf)
		if ctx.Err() != nil {
			return nil
		}

		if n > 0 {
			quit, err := l.accept(ctx, buf[:n])
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				quit, err := l.flush(ctx)
				if err != nil {
					return err
				}
				if quit {
					return nil
				}
				return ErrAudioSourceEnded
			}
			l.events.SessionError(domain.ErrorCodeAudioStream, fmt.Sprintf("audio capture error: %v", readErr))
			return fmt.Errorf("audio capture error: %w", readErr)
		}
	}
}

func (l *SessionLoop) accept(ctx context.Context, chunk []byte) (bool, error) {
	text, final, err := l.recognizer.AcceptAudio(chunk)
	return l.deliver(ctx, text, final, err)
}

// flush drains utterances the recognizer still holds once the source ends.
func (l *SessionLoop) flush(ctx context.Context) (bool, error) {
	flusher, ok := l.recognizer.(ports.Flusher)
	if !ok {
		return false, nil
	}
	for ctx.Err() == nil {
		text, final, err := flusher.Flush()
		quit, err := l.deliver(ctx, text, final, err)
		if err != nil || quit || !final {
			return quit, err
		}
	}
	return false, nil
}

func (l *SessionLoop) deliver(ctx context.Context, text string, final bool, err error) (bool, error) {
	if err != nil {
		l.events.SessionError(domain.ErrorCodeRecognition, err.Error())
		return false, fmt.Errorf("speech recognition failed: %w", err)
	}
	if !final {
		return false, nil
	}

	l.events.TranscriptRecognized(text)
	return l.HandleTranscript(ctx, text), nil
}

// HandleTranscript applies one finalized transcript and reports whether the
// session should end.
func (l *SessionLoop) HandleTranscript(ctx context.Context, transcript string) bool {
	next, action := Transition(l.mode, transcript, l.cfg.Phrases)
	l.mode = next

	switch action {
	case domain.ActionQuit:
		l.events.ModeChanged(l.mode, domain.ModeReasonQuitPhrase)
		return true
	case domain.ActionActivate:
		l.events.ModeChanged(l.mode, domain.ModeReasonWakePhrase)
	case domain.ActionDeactivate:
		l.events.ModeChanged(l.mode, domain.ModeReasonCancelPhrase)
	case domain.ActionSkipEmpty:
		l.logger.Info("no valid input detected; nothing dispatched")
	case domain.ActionDispatch:
		l.dispatcher.Dispatch(ctx, transcript)
	}
	return false
}
