package usecase

import (
	"errors"
	"io"
)

// readChunk blocks until buf is full or the source ends. A short final chunk
// is returned together with io.EOF.
func readChunk(source io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(source, buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return n, io.EOF
	}
	return n, err
}
