package usecase

import (
	"strings"

	"wakeloop/internal/domain"
)

// Transition decides the next mode and the side effect for one finalized
// transcript. It has no side effects of its own.
//
// Quit wins over everything, cancel works from either mode, and control
// phrases are matched by exact, case-sensitive equality.
func Transition(mode domain.Mode, transcript string, phrases domain.Phrases) (domain.Mode, domain.Action) {
	switch {
	case transcript == phrases.Quit:
		return mode, domain.ActionQuit
	case transcript == phrases.Cancel:
		return domain.ModeIdle, domain.ActionDeactivate
	case mode != domain.ModeActive:
		if transcript == phrases.Wake {
			return domain.ModeActive, domain.ActionActivate
		}
		return domain.ModeIdle, domain.ActionNone
	case transcript == phrases.Wake:
		return domain.ModeActive, domain.ActionNone
	case strings.TrimSpace(transcript) == "":
		return domain.ModeActive, domain.ActionSkipEmpty
	default:
		return domain.ModeActive, domain.ActionDispatch
	}
}
