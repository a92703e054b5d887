package usecase

import (
	"testing"

	"wakeloop/internal/domain"
)

var testPhrases = domain.Phrases{Wake: "hey dash", Cancel: "stop", Quit: "ending"}

func TestTransitionTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		mode       domain.Mode
		transcript string
		wantMode   domain.Mode
		wantAction domain.Action
	}{
		{"idle_wake", domain.ModeIdle, "hey dash", domain.ModeActive, domain.ActionActivate},
		{"idle_other", domain.ModeIdle, "what time is it", domain.ModeIdle, domain.ActionNone},
		{"idle_empty", domain.ModeIdle, "", domain.ModeIdle, domain.ActionNone},
		{"idle_quit", domain.ModeIdle, "ending", domain.ModeIdle, domain.ActionQuit},
		{"idle_cancel", domain.ModeIdle, "stop", domain.ModeIdle, domain.ActionDeactivate},
		{"active_quit", domain.ModeActive, "ending", domain.ModeActive, domain.ActionQuit},
		{"active_cancel", domain.ModeActive, "stop", domain.ModeIdle, domain.ActionDeactivate},
		{"active_query", domain.ModeActive, "what time is it", domain.ModeActive, domain.ActionDispatch},
		{"active_empty", domain.ModeActive, "", domain.ModeActive, domain.ActionSkipEmpty},
		{"active_whitespace", domain.ModeActive, " \t ", domain.ModeActive, domain.ActionSkipEmpty},
		{"active_wake_again", domain.ModeActive, "hey dash", domain.ModeActive, domain.ActionNone},
		{"case_sensitive_wake", domain.ModeIdle, "Hey Dash", domain.ModeIdle, domain.ActionNone},
		{"no_substring_wake", domain.ModeIdle, "hey dash please", domain.ModeIdle, domain.ActionNone},
		{"padded_quit_is_query", domain.ModeActive, " ending", domain.ModeActive, domain.ActionDispatch},
		{"substring_cancel_is_query", domain.ModeActive, "stop the music", domain.ModeActive, domain.ActionDispatch},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			mode, action := Transition(tc.mode, tc.transcript, testPhrases)
			if mode != tc.wantMode || action != tc.wantAction {
				t.Fatalf("Transition(%s, %q) = (%s, %s), want (%s, %s)",
					tc.mode, tc.transcript, mode, action, tc.wantMode, tc.wantAction)
			}
		})
	}
}

func TestTransitionIdleOnlyLeavesOnWake(t *testing.T) {
	t.Parallel()

	inputs := []string{"", " ", "stop", "hello", "hey", "dash", "hey dash!", "HEY DASH"}
	for _, in := range inputs {
		mode, action := Transition(domain.ModeIdle, in, testPhrases)
		if mode != domain.ModeIdle {
			t.Fatalf("%q moved idle to %s", in, mode)
		}
		if action == domain.ActionDispatch || action == domain.ActionSkipEmpty {
			t.Fatalf("%q produced %s while idle", in, action)
		}
	}
}

func TestTransitionBlankNeverDispatches(t *testing.T) {
	t.Parallel()

	for _, mode := range []domain.Mode{domain.ModeIdle, domain.ModeActive} {
		for _, in := range []string{"", " ", "\n", "\t \n"} {
			if _, action := Transition(mode, in, testPhrases); action == domain.ActionDispatch {
				t.Fatalf("blank %q dispatched in %s", in, mode)
			}
		}
	}
}
