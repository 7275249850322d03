//go:build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// MicrophoneSource records utterances from the default input device.
type MicrophoneSource struct {
	cfg    MicrophoneConfig
	logger *slog.Logger

	mu     sync.Mutex
	stream *portaudio.Stream
	frame  []int16
}

func NewMicrophoneSource(cfg MicrophoneConfig, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	m.frame = make([]int16, m.cfg.FramesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.cfg.SampleRate), len(m.frame), m.frame)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}

	m.stream = stream
	m.logger.Info("microphone started", "sample_rate", m.cfg.SampleRate)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return nil
	}
	if err := m.stream.Stop(); err != nil {
		m.logger.Warn("stopping stream", "error", err)
	}
	if err := m.stream.Close(); err != nil {
		m.logger.Warn("closing stream", "error", err)
	}
	m.stream = nil
	return portaudio.Terminate()
}

// NextCommand blocks until one utterance has been recorded and returns it as
// WAV. Cancellation is observed between frames.
func (m *MicrophoneSource) NextCommand(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return nil, fmt.Errorf("microphone not started")
	}

	u := newUtterance(m.cfg)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := m.stream.Read(); err != nil {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}

		if u.add(m.frame) {
			break
		}
	}

	m.logger.Debug("utterance recorded", "samples", len(u.samples))
	return samplesToWav(u.samples, m.cfg.SampleRate), nil
}
