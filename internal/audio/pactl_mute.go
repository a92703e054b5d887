package audio

import (
	"context"
	"log/slog"
	"os/exec"
)

// PactlMute toggles the input source mute flag with pactl. When disabled
// every call is a no-op. Unmuting ignores ctx cancellation.
type PactlMute struct {
	enabled bool
	command string
	source  string
	logger  *slog.Logger
}

func NewPactlMute(enabled bool, command string, source string, logger *slog.Logger) *PactlMute {
	if command == "" {
		command = "pactl"
	}
	if source == "" {
		source = "@DEFAULT_SOURCE@"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PactlMute{enabled: enabled, command: command, source: source, logger: logger}
}

func (m *PactlMute) SetMuted(ctx context.Context, muted bool) {
	if !m.enabled {
		return
	}

	flag := "0"
	if muted {
		flag = "1"
	} else {
		ctx = context.WithoutCancel(ctx)
	}
	out, err := exec.CommandContext(ctx, m.command, "set-source-mute", m.source, flag).CombinedOutput()
	if err != nil {
		m.logger.Debug("mute toggle failed",
			"muted", muted,
			"error", err,
			"output", trimOutput(string(out)),
		)
	}
}
