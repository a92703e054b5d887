package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"wakeloop/internal/config"
	"wakeloop/internal/domain"
	"wakeloop/internal/usecase"
)

var phrases = domain.Phrases{Wake: "hey dash", Cancel: "stop", Quit: "ending"}

func TestModeReasonMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.ModeReason]string{
		domain.ModeReasonStartup:      "Listening for 'hey dash'. To stop, press CTRL+C.",
		domain.ModeReasonWakePhrase:   "Detected 'hey dash'. Entering listening mode.",
		domain.ModeReasonCancelPhrase: "Detected 'stop'. Exiting listening mode.",
		domain.ModeReasonQuitPhrase:   "Detected 'ending'. Exiting the program.",
	}

	for reason, want := range cases {
		reason := reason
		want := want
		t.Run(string(reason), func(t *testing.T) {
			t.Parallel()
			if got := modeReasonMessage(reason, phrases); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := modeReasonMessage("unknown", phrases); got != "" {
		t.Fatalf("expected empty unknown reason message, got %q", got)
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.ErrorCode]string{
		domain.ErrorCodeStartup:     "Startup failed",
		domain.ErrorCodeAudioStream: "Audio streaming issue",
		domain.ErrorCodeAudioStop:   "Audio stop issue",
		domain.ErrorCodeRecognition: "Speech recognition failed",
		domain.ErrorCodeSynthesis:   "Speech output failed",
	}
	for code, want := range cases {
		if got := errorMessage(code, "ignored"); got != want {
			t.Fatalf("%s: unexpected message: %q", code, got)
		}
	}

	if got := errorMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := errorMessage("unknown", ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestAppPrintsStatusLines(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	app := NewApp(&out, slog.New(slog.NewTextHandler(io.Discard, nil)), phrases)

	app.ModeChanged(domain.ModeIdle, domain.ModeReasonStartup)
	app.TranscriptRecognized("hey dash")
	app.ModeChanged(domain.ModeActive, domain.ModeReasonWakePhrase)
	app.ResponseReady("hi", "Hello there")
	app.SessionError(domain.ErrorCodeSynthesis, "no device")

	want := strings.Join([]string{
		"Listening for 'hey dash'. To stop, press CTRL+C.",
		"Recognized: hey dash",
		"Detected 'hey dash'. Entering listening mode.",
		"Ollama Response: Hello there",
		"Speech output failed: no device",
	}, "\n") + "\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mic := config.Config{Audio: config.AudioConfig{Source: config.AudioSourceMicrophone}}
	file := config.Config{Audio: config.AudioConfig{Source: config.AudioSourceFile}}
	ended := fmt.Errorf("loop: %w", usecase.ErrAudioSourceEnded)

	if got := exitCode(nil, mic, logger); got != 0 {
		t.Fatalf("expected 0 on quit, got %d", got)
	}
	if got := exitCode(ended, file, logger); got != 0 {
		t.Fatalf("expected 0 when a file source ends, got %d", got)
	}
	if got := exitCode(ended, mic, logger); got != 1 {
		t.Fatalf("expected 1 when the microphone stream ends, got %d", got)
	}
	if got := exitCode(errors.New("recognizer died"), mic, logger); got != 1 {
		t.Fatalf("expected 1 on loop failure, got %d", got)
	}
}

func TestExitCodeDoesNotRepeatReportedErrors(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo}))
	mic := config.Config{Audio: config.AudioConfig{Source: config.AudioSourceMicrophone}}

	if got := exitCode(errors.New("failed to start audio capture: ffmpeg missing"), mic, logger); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if logs.Len() != 0 {
		t.Fatalf("expected reported error not to be logged again, got %q", logs.String())
	}

	exitCode(fmt.Errorf("loop: %w", usecase.ErrAudioSourceEnded), mic, logger)
	if !strings.Contains(logs.String(), "audio capture ended unexpectedly") {
		t.Fatalf("expected unreported stream end to be logged, got %q", logs.String())
	}
}
