package deepgram

import "strings"

type segmentKind string

const (
	segmentPartial segmentKind = "partial"
	segmentFinal   segmentKind = "final"
)

// segment is one transcript message received from the websocket.
type segment struct {
	Kind        segmentKind
	Text        string
	SpeechFinal bool
}

// utteranceAssembler joins final segments until Deepgram's endpointing marks
// the end of speech.
type utteranceAssembler struct {
	finals []string
}

// Add records a segment and, on speech_final, returns the finished utterance.
// Utterances with no final text are dropped.
func (a *utteranceAssembler) Add(seg segment) (string, bool) {
	text := strings.TrimSpace(seg.Text)
	if text != "" && (seg.Kind == segmentFinal || seg.SpeechFinal) {
		a.finals = append(a.finals, text)
	}
	if !seg.SpeechFinal {
		return "", false
	}

	utterance := strings.Join(a.finals, " ")
	a.finals = a.finals[:0]
	if utterance == "" {
		return "", false
	}
	return utterance, true
}

// Pending returns and clears final text not yet closed by speech_final.
func (a *utteranceAssembler) Pending() string {
	utterance := strings.Join(a.finals, " ")
	a.finals = a.finals[:0]
	return utterance
}
