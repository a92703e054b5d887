package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	AudioSourceMicrophone = "microphone"
	AudioSourceFile       = "file"

	RecognizerVosk     = "vosk"
	RecognizerDeepgram = "deepgram"
)

// Config stores runtime configuration. It is read-only after Load.
type Config struct {
	Phrases    PhrasesConfig
	Audio      AudioConfig
	Recognizer RecognizerConfig
	Deepgram   DeepgramConfig
	Completion CompletionConfig
	Speech     SpeechConfig
	Session    SessionConfig
	Log        LogConfig
}

type PhrasesConfig struct {
	Wake   string
	Cancel string
	Quit   string
}

type AudioConfig struct {
	Source          string
	FilePath        string
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
}

type RecognizerConfig struct {
	Engine       string
	ModelPath    string
	VoskLogLevel int
}

type DeepgramConfig struct {
	APIKey     string
	APIBaseURL string
	Model      string
	Language   string
}

type CompletionConfig struct {
	URL   string
	Model string
}

type SpeechConfig struct {
	Enabled     bool
	Command     string
	Voice       string
	Rate        int
	MuteCommand string
	MuteSource  string
}

type SessionConfig struct {
	ChunkSize int
}

type LogConfig struct {
	Level slog.Level
}

// Load resolves configuration from an optional .env file, environment
// variables and compiled-in defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Config{
		Phrases: PhrasesConfig{
			Wake:   envOrDefault("WAKELOOP_WAKE_PHRASE", "hey dash"),
			Cancel: envOrDefault("WAKELOOP_CANCEL_PHRASE", "stop"),
			Quit:   envOrDefault("WAKELOOP_QUIT_PHRASE", "ending"),
		},
		Audio: AudioConfig{
			Source:          strings.ToLower(envOrDefault("WAKELOOP_AUDIO_SOURCE", AudioSourceMicrophone)),
			FilePath:        strings.TrimSpace(os.Getenv("WAKELOOP_AUDIO_FILE")),
			RecorderCommand: envOrDefault("WAKELOOP_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("WAKELOOP_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("WAKELOOP_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("WAKELOOP_SAMPLE_RATE", 16000),
		},
		Recognizer: RecognizerConfig{
			Engine:       strings.ToLower(envOrDefault("WAKELOOP_RECOGNIZER", RecognizerVosk)),
			ModelPath:    envOrDefault("WAKELOOP_VOSK_MODEL", "vosk-model-small-en-us-0.15"),
			VoskLogLevel: envOrDefaultInt("WAKELOOP_VOSK_LOG_LEVEL", 0),
		},
		Deepgram: DeepgramConfig{
			APIKey:     strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL: envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			Model:      envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			Language:   strings.TrimSpace(os.Getenv("DEEPGRAM_LANGUAGE")),
		},
		Completion: CompletionConfig{
			URL:   envOrDefault("WAKELOOP_COMPLETION_URL", "http://localhost:11434/api/generate"),
			Model: envOrDefault("WAKELOOP_COMPLETION_MODEL", "llama"),
		},
		Speech: SpeechConfig{
			Enabled:     envOrDefaultBool("WAKELOOP_SPEECH_OUTPUT", false),
			Command:     envOrDefault("WAKELOOP_TTS_COMMAND", "espeak-ng"),
			Voice:       envOrDefault("WAKELOOP_TTS_VOICE", "en"),
			Rate:        envOrDefaultInt("WAKELOOP_TTS_RATE", 175),
			MuteCommand: envOrDefault("WAKELOOP_MUTE_COMMAND", "pactl"),
			MuteSource:  envOrDefault("WAKELOOP_MUTE_SOURCE", "@DEFAULT_SOURCE@"),
		},
		Session: SessionConfig{
			ChunkSize: envOrDefaultInt("WAKELOOP_AUDIO_CHUNK_SIZE", 6000),
		},
		Log: LogConfig{
			Level: envOrDefaultLevel("WAKELOOP_LOG_LEVEL", slog.LevelInfo),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Session.ChunkSize <= 0 {
		cfg.Session.ChunkSize = 6000
	}
	if cfg.Speech.Rate <= 0 {
		cfg.Speech.Rate = 175
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	phrases := map[string]string{
		"wake":   c.Phrases.Wake,
		"cancel": c.Phrases.Cancel,
		"quit":   c.Phrases.Quit,
	}
	seen := make(map[string]string, len(phrases))
	for _, name := range []string{"wake", "cancel", "quit"} {
		phrase := phrases[name]
		if other, ok := seen[phrase]; ok {
			return fmt.Errorf("%s phrase %q duplicates the %s phrase", name, phrase, other)
		}
		seen[phrase] = name
	}

	switch c.Audio.Source {
	case AudioSourceMicrophone:
	case AudioSourceFile:
		if c.Audio.FilePath == "" {
			return errors.New("WAKELOOP_AUDIO_FILE is required when the audio source is file")
		}
	default:
		return fmt.Errorf("unknown audio source %q", c.Audio.Source)
	}

	switch c.Recognizer.Engine {
	case RecognizerVosk, RecognizerDeepgram:
	default:
		return fmt.Errorf("unknown recognizer %q", c.Recognizer.Engine)
	}
	return nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func envOrDefaultLevel(key string, fallback slog.Level) slog.Level {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return fallback
	}
	return level
}
