package ollama

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// accumulator folds streamed generate chunks into one response.
type accumulator struct {
	text strings.Builder
	done bool
}

// step consumes one raw chunk. Malformed chunks leave the state unchanged.
func (a *accumulator) step(raw []byte) {
	if a.done {
		return
	}
	var chunk generateChunk
	if err := json.Unmarshal(raw, &chunk); err != nil {
		return
	}
	a.text.WriteString(chunk.Response)
	if chunk.Done {
		a.done = true
	}
}

func (a *accumulator) result() string {
	return strings.TrimSpace(a.text.String())
}

// Assemble reads newline-delimited generate chunks until a done chunk or the
// end of r. Lines have no length limit. The returned error is the read
// failure, if any; text assembled up to that point is still returned.
func Assemble(r io.Reader) (string, error) {
	reader := bufio.NewReader(r)

	var acc accumulator
	for !acc.done {
		line, err := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			acc.step(trimmed)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return acc.result(), err
		}
	}
	return acc.result(), nil
}
