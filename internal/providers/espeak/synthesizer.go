package espeak

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// Config controls the espeak-ng invocation.
type Config struct {
	Command string
	Voice   string
	Rate    int
}

// Player plays a decoded stream and blocks until it has finished.
type Player interface {
	Play(ctx context.Context, streamer beep.Streamer, format beep.Format) error
}

// Synthesizer implements ports.Synthesizer with espeak-ng for synthesis and
// a Player for output.
type Synthesizer struct {
	cfg    Config
	player Player
}

func NewSynthesizer(cfg Config, player Player) *Synthesizer {
	if cfg.Command == "" {
		cfg.Command = "espeak-ng"
	}
	if cfg.Voice == "" {
		cfg.Voice = "en"
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 175
	}
	if player == nil {
		player = &SpeakerPlayer{}
	}
	return &Synthesizer{cfg: cfg, player: player}
}

// Speak renders text to WAV and plays it. Blank text is a no-op.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.cfg.Command,
		"--stdout",
		"-v", s.cfg.Voice,
		"-s", strconv.Itoa(s.cfg.Rate),
		"--", text,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("espeak-ng failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	streamer, format, err := wav.Decode(bytes.NewReader(stdout.Bytes()))
	if err != nil {
		return fmt.Errorf("failed to decode synthesized audio: %w", err)
	}
	defer streamer.Close()

	return s.player.Play(ctx, streamer, format)
}

// SpeakerPlayer plays through the default output device. The speaker is
// initialized lazily and re-initialized when the sample rate changes.
type SpeakerPlayer struct {
	mu   sync.Mutex
	rate beep.SampleRate
}

func (p *SpeakerPlayer) Play(ctx context.Context, streamer beep.Streamer, format beep.Format) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rate != format.SampleRate {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			return fmt.Errorf("failed to initialize speaker: %w", err)
		}
		p.rate = format.SampleRate
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
