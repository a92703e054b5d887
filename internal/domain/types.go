package domain

// Mode models whether the assistant is listening for queries.
type Mode string

const (
	ModeIdle   Mode = "idle"
	ModeActive Mode = "active"
)

// ModeReason provides a structured reason for mode announcements.
type ModeReason string

const (
	ModeReasonStartup      ModeReason = "startup"
	ModeReasonWakePhrase   ModeReason = "wake_phrase"
	ModeReasonCancelPhrase ModeReason = "cancel_phrase"
	ModeReasonQuitPhrase   ModeReason = "quit_phrase"
)

// ErrorCode identifies non-fatal and fatal loop errors.
type ErrorCode string

const (
	ErrorCodeStartup     ErrorCode = "startup"
	ErrorCodeAudioStream ErrorCode = "audio_stream"
	ErrorCodeAudioStop   ErrorCode = "audio_stop"
	ErrorCodeRecognition ErrorCode = "recognition"
	ErrorCodeSynthesis   ErrorCode = "synthesis"
)

// Action is the side effect chosen for a transcript.
type Action string

const (
	ActionNone       Action = "none"
	ActionActivate   Action = "activate"
	ActionDeactivate Action = "deactivate"
	ActionQuit       Action = "quit"
	ActionDispatch   Action = "dispatch"
	ActionSkipEmpty  Action = "skip_empty"
)

// Phrases are the spoken control commands. Matching is exact and case-sensitive.
type Phrases struct {
	Wake   string
	Cancel string
	Quit   string
}

// IsControl reports whether text equals one of the control phrases.
func (p Phrases) IsControl(text string) bool {
	return text == p.Wake || text == p.Cancel || text == p.Quit
}
