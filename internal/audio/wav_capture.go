package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-audio/wav"
	"github.com/spf13/afero"

	"wakeloop/internal/ports"
)

var ErrUnsupportedWAV = errors.New("unsupported wav format")

// WAVCapture replays a recorded WAV file in place of the microphone.
type WAVCapture struct {
	fs   afero.Fs
	path string
}

func NewWAVCapture(fs afero.Fs, path string) *WAVCapture {
	return &WAVCapture{fs: fs, path: path}
}

// Start decodes the whole file up front. Only mono 16-bit PCM at the
// configured sample rate is accepted.
func (c *WAVCapture) Start(_ context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}

	file, err := c.fs.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid wav file", ErrUnsupportedWAV, c.path)
	}
	if decoder.NumChans != 1 || decoder.BitDepth != 16 || int(decoder.SampleRate) != cfg.SampleRate {
		return nil, fmt.Errorf("%w: want mono 16-bit %d Hz, got %d channel(s) %d-bit %d Hz",
			ErrUnsupportedWAV, cfg.SampleRate, decoder.NumChans, decoder.BitDepth, decoder.SampleRate)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio file: %w", err)
	}

	pcm := make([]byte, 2*len(buf.Data))
	for i, sample := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(sample)))
	}

	return &wavSession{Reader: bytes.NewReader(pcm)}, nil
}

type wavSession struct {
	*bytes.Reader
}

func (s *wavSession) Close() error { return nil }
func (s *wavSession) Stop() error  { return nil }
