package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAssembleConcatenatesUntilDone(t *testing.T) {
	t.Parallel()

	stream := `{"response":"Hel"}
{"response":"lo"}
{"done":true}
`
	got, err := Assemble(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestAssembleSkipsMalformedChunks(t *testing.T) {
	t.Parallel()

	stream := "{\"response\":\"A\"}\nnot json\n{\"response\":\"B\"}\n{\"done\":true}\n"
	got, err := Assemble(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "AB" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestAssembleSkipsOversizedChunk(t *testing.T) {
	t.Parallel()

	huge := `{"response":"` + strings.Repeat("x", 2<<20)
	stream := "{\"response\":\"A\"}\n" + huge + "\n{\"response\":\"B\"}\n{\"done\":true}\n"
	got, err := Assemble(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "AB" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestAssembleReturnsPartialTextOnReadFailure(t *testing.T) {
	t.Parallel()

	r := io.MultiReader(strings.NewReader("{\"response\":\"A\"}\n"), failingReader{})
	got, err := Assemble(r)
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("expected read error, got %v", err)
	}
	if got != "A" {
		t.Fatalf("expected text read before the failure, got %q", got)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestAssembleStopsAtFirstDone(t *testing.T) {
	t.Parallel()

	stream := "{\"response\":\" first \",\"done\":true}\n{\"response\":\"ignored\"}\n"
	got, err := Assemble(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "first" {
		t.Fatalf("expected trimmed text before done, got %q", got)
	}
}

func TestAssembleWithoutDoneUsesWholeStream(t *testing.T) {
	t.Parallel()

	got, err := Assemble(strings.NewReader("\n{\"response\":\"x\"}\n\n{\"response\":\"y\",\"model\":\"llama\"}"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "xy" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestAccumulatorIgnoresChunksAfterDone(t *testing.T) {
	t.Parallel()

	var acc accumulator
	acc.step([]byte(`{"response":"a","done":true}`))
	acc.step([]byte(`{"response":"b"}`))
	if got := acc.result(); got != "a" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestClientCompleteStreamsResponse(t *testing.T) {
	t.Parallel()

	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/generate" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		flusher, _ := w.(http.Flusher)
		for _, line := range []string{`{"response":"Hel"}`, `{"response":"lo"}`, `{"done":true}`} {
			_, _ = w.Write([]byte(line + "\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	defer srv.Close()

	client := NewClient(Config{URL: srv.URL + "/api/generate", Model: "llama"}, nil)
	if got := client.Complete(context.Background(), "say hello"); got != "Hello" {
		t.Fatalf("unexpected completion: %q", got)
	}
	if gotReq.Model != "llama" || gotReq.Prompt != "say hello" {
		t.Fatalf("unexpected request body: %+v", gotReq)
	}
}

func TestClientCompleteNonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"response":"should not be read"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{URL: srv.URL}, nil)
	if got := client.Complete(context.Background(), "hi"); got != ErrStatusText {
		t.Fatalf("expected fixed status error text, got %q", got)
	}
}

func TestClientCompleteTransportFailure(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{URL: "http://ollama.invalid/api/generate"}, nil)
	client.HTTPClient = &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})}

	got := client.Complete(context.Background(), "hi")
	if !strings.HasPrefix(got, "Error querying Ollama: ") || !strings.Contains(got, "connection refused") {
		t.Fatalf("unexpected transport error text: %q", got)
	}
}

func TestNewClientDefaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{}, nil)
	if c.cfg.URL != "http://localhost:11434/api/generate" || c.cfg.Model != "llama" {
		t.Fatalf("unexpected defaults: %+v", c.cfg)
	}
	if c.HTTPClient.Timeout != 0 {
		t.Fatalf("expected no client timeout, got %s", c.HTTPClient.Timeout)
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
