package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"wakeloop/internal/audio"
	"wakeloop/internal/config"
	"wakeloop/internal/domain"
	"wakeloop/internal/ports"
	"wakeloop/internal/providers/deepgram"
	"wakeloop/internal/providers/espeak"
	"wakeloop/internal/providers/ollama"
	"wakeloop/internal/providers/vosk"
	"wakeloop/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Loop   *usecase.SessionLoop
	Config config.Config

	recognizer ports.Recognizer
}

// Close releases the recognizer.
func (s Services) Close() error {
	if s.recognizer == nil {
		return nil
	}
	return s.recognizer.Close()
}

// Build loads configuration and wires all runtime dependencies.
func Build(ctx context.Context, events ports.EventSink, fs afero.Fs, logger *slog.Logger) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	return BuildWithConfig(ctx, cfg, events, fs, logger)
}

// BuildWithConfig wires the runtime graph for an already loaded config.
func BuildWithConfig(ctx context.Context, cfg config.Config, events ports.EventSink, fs afero.Fs, logger *slog.Logger) (Services, error) {
	if logger == nil {
		logger = slog.Default()
	}

	capture, err := newCapture(cfg, fs)
	if err != nil {
		return Services{}, err
	}

	recognizer, err := newRecognizer(ctx, cfg, fs)
	if err != nil {
		return Services{}, err
	}

	var synthesizer ports.Synthesizer
	if cfg.Speech.Enabled {
		synthesizer = espeak.NewSynthesizer(espeak.Config{
			Command: cfg.Speech.Command,
			Voice:   cfg.Speech.Voice,
			Rate:    cfg.Speech.Rate,
		}, nil)
	}

	loop := usecase.NewSessionLoop(
		capture,
		recognizer,
		ollama.NewClient(ollama.Config{
			URL:   cfg.Completion.URL,
			Model: cfg.Completion.Model,
		}, logger),
		synthesizer,
		audio.NewPactlMute(cfg.Speech.Enabled, cfg.Speech.MuteCommand, cfg.Speech.MuteSource, logger),
		events,
		logger,
		usecase.Config{
			Phrases: domain.Phrases{
				Wake:   cfg.Phrases.Wake,
				Cancel: cfg.Phrases.Cancel,
				Quit:   cfg.Phrases.Quit,
			},
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    1,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			ChunkSize:    cfg.Session.ChunkSize,
			SpeechOutput: cfg.Speech.Enabled,
		},
	)

	return Services{Loop: loop, Config: cfg, recognizer: recognizer}, nil
}

func newCapture(cfg config.Config, fs afero.Fs) (ports.AudioCapture, error) {
	switch cfg.Audio.Source {
	case config.AudioSourceFile:
		exists, err := afero.Exists(fs, cfg.Audio.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat audio file: %w", err)
		}
		if !exists {
			return nil, fmt.Errorf("audio file %q not found", cfg.Audio.FilePath)
		}
		return audio.NewWAVCapture(fs, cfg.Audio.FilePath), nil
	default:
		return audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand), nil
	}
}

func newRecognizer(ctx context.Context, cfg config.Config, fs afero.Fs) (ports.Recognizer, error) {
	switch cfg.Recognizer.Engine {
	case config.RecognizerDeepgram:
		return deepgram.NewRecognizer(ctx, deepgram.Config{
			APIKey:     cfg.Deepgram.APIKey,
			APIBaseURL: cfg.Deepgram.APIBaseURL,
			Model:      cfg.Deepgram.Model,
			Language:   cfg.Deepgram.Language,
			SampleRate: cfg.Audio.SampleRate,
		})
	default:
		ok, err := afero.DirExists(fs, cfg.Recognizer.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat vosk model: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("vosk model directory %q not found", cfg.Recognizer.ModelPath)
		}
		return vosk.NewRecognizer(vosk.Config{
			ModelPath:  cfg.Recognizer.ModelPath,
			SampleRate: cfg.Audio.SampleRate,
			LogLevel:   cfg.Recognizer.VoskLogLevel,
		})
	}
}
