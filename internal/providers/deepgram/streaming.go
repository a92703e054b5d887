package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var ErrStreamClosed = errors.New("deepgram stream closed")

// Config controls Deepgram websocket settings.
type Config struct {
	APIKey     string
	APIBaseURL string
	Model      string
	Language   string
	SampleRate int

	// CloseTimeout bounds how long Close waits for the server to finish.
	CloseTimeout time.Duration
}

// Recognizer implements ports.Recognizer over a Deepgram live session.
type Recognizer struct {
	session      *streamingSession
	assembler    utteranceAssembler
	closeTimeout time.Duration

	flushDeadline time.Time
}

// NewRecognizer dials the live transcription endpoint. The session is torn
// down when ctx is cancelled.
func NewRecognizer(ctx context.Context, cfg Config) (*Recognizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("DEEPGRAM_API_KEY is not configured")
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.deepgram.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 4 * time.Second
	}

	wsURL, err := buildListenURL(cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+cfg.APIKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Deepgram websocket: %w", err)
	}

	return &Recognizer{
		session:      startSession(ctx, conn),
		closeTimeout: cfg.CloseTimeout,
	}, nil
}

// AcceptAudio sends a chunk and drains whatever segments have arrived so far.
// Segments after a finished utterance stay queued for the next call.
func (r *Recognizer) AcceptAudio(chunk []byte) (string, bool, error) {
	if len(chunk) == 0 {
		return "", false, nil
	}
	if err := r.session.SendAudio(chunk); err != nil {
		return "", false, err
	}

	for {
		select {
		case seg, ok := <-r.session.events:
			if !ok {
				if err := r.session.waitErr(); err != nil {
					return "", false, err
				}
				return "", false, ErrStreamClosed
			}
			if text, done := r.assembler.Add(seg); done {
				return text, true, nil
			}
		default:
			return "", false, nil
		}
	}
}

// Flush ends the audio stream and returns the next utterance Deepgram sends
// back before closing the socket. Final text with no closing speech_final is
// returned once the stream ends or CloseTimeout passes. Call it repeatedly
// until final is false.
func (r *Recognizer) Flush() (string, bool, error) {
	if r.flushDeadline.IsZero() {
		r.flushDeadline = time.Now().Add(r.closeTimeout)
		_ = r.session.CloseSend()
	}

	timer := time.NewTimer(time.Until(r.flushDeadline))
	defer timer.Stop()

	for {
		select {
		case seg, ok := <-r.session.events:
			if !ok {
				if err := r.session.waitErr(); err != nil {
					return "", false, err
				}
				text := r.assembler.Pending()
				return text, text != "", nil
			}
			if text, done := r.assembler.Add(seg); done {
				return text, true, nil
			}
		case <-timer.C:
			text := r.assembler.Pending()
			return text, text != "", nil
		}
	}
}

func (r *Recognizer) Close() error {
	_ = r.session.CloseSend()
	return waitForStream(r.session, r.closeTimeout)
}

func waitForStream(session *streamingSession, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- session.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		_ = session.Close()
		return <-done
	}
}

type streamingSession struct {
	conn *websocket.Conn

	events chan segment
	audio  chan []byte
	done   chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeSendOnce sync.Once
	closeOnce     sync.Once
	sendMu        sync.RWMutex
	sendClosed    bool
}

func startSession(ctx context.Context, conn *websocket.Conn) *streamingSession {
	s := &streamingSession{
		conn:   conn,
		events: make(chan segment, 64),
		audio:  make(chan []byte, 32),
		done:   make(chan struct{}),
	}

	s.wg.Add(2)
	go s.readLoop()
	go s.writeLoop()
	go func() {
		s.wg.Wait()
		close(s.events)
		close(s.done)
		_ = conn.Close()
	}()

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()

	return s
}

func (s *streamingSession) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	s.sendMu.RLock()
	closed := s.sendClosed
	s.sendMu.RUnlock()
	if closed {
		return errors.New("audio stream is already closed")
	}

	copied := append([]byte(nil), chunk...)
	select {
	case s.audio <- copied:
		return nil
	case <-s.done:
		if err := s.waitErr(); err != nil {
			return err
		}
		return ErrStreamClosed
	}
}

func (s *streamingSession) CloseSend() error {
	s.closeSendOnce.Do(func() {
		s.sendMu.Lock()
		s.sendClosed = true
		close(s.audio)
		s.sendMu.Unlock()
	})
	return nil
}

func (s *streamingSession) Wait() error {
	<-s.done
	return s.waitErr()
}

func (s *streamingSession) Close() error {
	s.closeOnce.Do(func() {
		_ = s.CloseSend()
		_ = s.conn.Close()
	})
	<-s.done
	return s.waitErr()
}

func (s *streamingSession) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *streamingSession) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func (s *streamingSession) writeLoop() {
	defer s.wg.Done()

	for chunk := range s.audio {
		if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			s.setErr(fmt.Errorf("failed to send audio: %w", err))
			return
		}
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		s.setErr(fmt.Errorf("failed to close stream: %w", err))
	}
}

func (s *streamingSession) readLoop() {
	defer s.wg.Done()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("failed to read provider event: %w", err))
			return
		}

		var response deepgramResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			continue
		}

		if strings.EqualFold(response.Type, "Error") {
			message := strings.TrimSpace(response.Message)
			if message == "" {
				message = "deepgram returned an unknown error"
			}
			s.setErr(errors.New(message))
			_ = s.conn.Close()
			return
		}

		transcript := extractTranscript(response)
		if transcript == "" && !response.SpeechFinal {
			continue
		}

		seg := segment{Kind: segmentPartial, Text: transcript, SpeechFinal: response.SpeechFinal}
		if response.IsFinal || response.SpeechFinal {
			seg.Kind = segmentFinal
		}
		s.emit(seg)
	}
}

// emit drops the segment when the consumer is too far behind; the loop only
// drains between audio chunks. Only final results are requested, so the
// buffer covers minutes of speech.
func (s *streamingSession) emit(seg segment) {
	select {
	case s.events <- seg:
	case <-s.done:
	default:
	}
}

type deepgramResponse struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func extractTranscript(response deepgramResponse) string {
	if len(response.Channel.Alternatives) == 0 {
		return ""
	}
	return strings.TrimSpace(response.Channel.Alternatives[0].Transcript)
}

func buildListenURL(cfg Config) (string, error) {
	base := strings.TrimSpace(cfg.APIBaseURL)
	if base == "" {
		base = "https://api.deepgram.com/v1"
	}

	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	listenURL, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram API base URL: %w", err)
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}

	query := listenURL.Query()
	query.Set("model", cfg.Model)
	query.Set("encoding", "linear16")
	query.Set("sample_rate", fmt.Sprintf("%d", sampleRate))
	query.Set("channels", "1")
	query.Set("interim_results", "false")
	query.Set("smart_format", "false")
	query.Set("punctuate", "false")
	if cfg.Language != "" {
		query.Set("language", cfg.Language)
	}
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}
