package vosk

import (
	"encoding/json"
	"errors"
	"fmt"

	vosk "github.com/alphacep/vosk-api/go"
)

var ErrDecode = errors.New("vosk failed to decode audio")

// Config controls the local Vosk model.
type Config struct {
	ModelPath  string
	SampleRate int
	LogLevel   int
}

// Recognizer implements ports.Recognizer on top of a Kaldi recognizer.
type Recognizer struct {
	model *vosk.VoskModel
	rec   *vosk.VoskRecognizer
}

func NewRecognizer(cfg Config) (*Recognizer, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	vosk.SetLogLevel(cfg.LogLevel)

	model, err := vosk.NewModel(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load vosk model %q: %w", cfg.ModelPath, err)
	}
	rec, err := vosk.NewRecognizer(model, float64(cfg.SampleRate))
	if err != nil {
		model.Free()
		return nil, fmt.Errorf("failed to create vosk recognizer: %w", err)
	}
	return &Recognizer{model: model, rec: rec}, nil
}

// AcceptAudio feeds one PCM chunk. Vosk's own endpointing decides when the
// utterance is final.
func (r *Recognizer) AcceptAudio(chunk []byte) (string, bool, error) {
	if len(chunk) == 0 {
		return "", false, nil
	}
	switch r.rec.AcceptWaveform(chunk) {
	case 0:
		return "", false, nil
	case -1:
		return "", false, ErrDecode
	}
	text, err := resultText(r.rec.Result())
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// Flush finalizes whatever audio Vosk has buffered without an endpoint.
func (r *Recognizer) Flush() (string, bool, error) {
	text, err := resultText(r.rec.FinalResult())
	if err != nil {
		return "", false, err
	}
	return text, text != "", nil
}

func (r *Recognizer) Close() error {
	r.rec.Free()
	r.model.Free()
	return nil
}

type result struct {
	Text string `json:"text"`
}

func resultText(raw string) (string, error) {
	var res result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return "", fmt.Errorf("failed to parse vosk result: %w", err)
	}
	return res.Text, nil
}
