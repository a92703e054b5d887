package main

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"wakeloop/internal/domain"
)

// App prints loop events as human-readable status lines.
type App struct {
	mu      sync.Mutex
	out     io.Writer
	logger  *slog.Logger
	phrases domain.Phrases
}

func NewApp(out io.Writer, logger *slog.Logger, phrases domain.Phrases) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{out: out, logger: logger, phrases: phrases}
}

// ModeChanged announces mode transitions.
func (a *App) ModeChanged(mode domain.Mode, reason domain.ModeReason) {
	a.logger.Debug("mode changed", "mode", mode, "reason", reason)
	if message := modeReasonMessage(reason, a.phrases); message != "" {
		a.printLine(message)
	}
}

// TranscriptRecognized echoes every finalized utterance.
func (a *App) TranscriptRecognized(text string) {
	a.printLine("Recognized: " + text)
}

// ResponseReady prints the model response.
func (a *App) ResponseReady(_ string, response string) {
	a.printLine("Ollama Response: " + response)
}

// SessionError prints errors and mirrors them to the structured log.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	a.logger.Error(errorMessage(code, detail), "code", code, "detail", detail)
	a.printLine(fmt.Sprintf("%s: %s", errorMessage(code, detail), detail))
}

func (a *App) printLine(line string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintln(a.out, line)
}

func modeReasonMessage(reason domain.ModeReason, phrases domain.Phrases) string {
	switch reason {
	case domain.ModeReasonStartup:
		return fmt.Sprintf("Listening for '%s'. To stop, press CTRL+C.", phrases.Wake)
	case domain.ModeReasonWakePhrase:
		return fmt.Sprintf("Detected '%s'. Entering listening mode.", phrases.Wake)
	case domain.ModeReasonCancelPhrase:
		return fmt.Sprintf("Detected '%s'. Exiting listening mode.", phrases.Cancel)
	case domain.ModeReasonQuitPhrase:
		return fmt.Sprintf("Detected '%s'. Exiting the program.", phrases.Quit)
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeAudioStream:
		return "Audio streaming issue"
	case domain.ErrorCodeAudioStop:
		return "Audio stop issue"
	case domain.ErrorCodeRecognition:
		return "Speech recognition failed"
	case domain.ErrorCodeSynthesis:
		return "Speech output failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
