package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"wakeloop/internal/domain"
	"wakeloop/internal/ports"
)

// queryDispatcher runs one query: mute, complete, speak, unmute. The mute
// and speech steps only happen when speech output is enabled.
type queryDispatcher struct {
	completion   ports.CompletionClient
	synthesizer  ports.Synthesizer
	mute         ports.MuteController
	events       ports.EventSink
	logger       *slog.Logger
	speechOutput bool
}

func newQueryDispatcher(
	completion ports.CompletionClient,
	synthesizer ports.Synthesizer,
	mute ports.MuteController,
	events ports.EventSink,
	logger *slog.Logger,
	speechOutput bool,
) queryDispatcher {
	return queryDispatcher{
		completion:   completion,
		synthesizer:  synthesizer,
		mute:         mute,
		events:       events,
		logger:       logger,
		speechOutput: speechOutput && synthesizer != nil,
	}
}

func (d queryDispatcher) Dispatch(ctx context.Context, prompt string) string {
	logger := d.logger.With("query_id", uuid.NewString())
	started := time.Now()
	logger.Debug("dispatching query", "prompt", prompt, "speech_output", d.speechOutput)

	if d.speechOutput {
		d.mute.SetMuted(ctx, true)
	}

	response := d.completion.Complete(ctx, prompt)
	logger.Debug("completion finished", "elapsed", time.Since(started), "chars", len(response))
	d.events.ResponseReady(prompt, response)

	if d.speechOutput {
		if err := d.synthesizer.Speak(ctx, response); err != nil {
			logger.Warn("speech output failed", "error", err)
			d.events.SessionError(domain.ErrorCodeSynthesis, err.Error())
		}
		// The microphone stays muted after exit unless unmute survives cancellation.
		d.mute.SetMuted(context.WithoutCancel(ctx), false)
	}

	return response
}
