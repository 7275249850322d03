// Package console runs a conversation in a terminal: typed lines stand in for
// spoken utterances and replies are printed.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"voice-bridge/internal/domain"
)

type Source struct {
	in    io.Reader
	lines chan []byte
	once  sync.Once
}

func NewSource(in io.Reader) *Source {
	return &Source{
		in:    in,
		lines: make(chan []byte),
	}
}

func (s *Source) Name() string {
	return "console"
}

func (s *Source) Start(_ context.Context) error {
	s.once.Do(func() {
		go s.scan()
	})
	return nil
}

func (s *Source) Stop() error {
	return nil
}

func (s *Source) scan() {
	defer close(s.lines)

	scanner := bufio.NewScanner(s.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		s.lines <- []byte(domain.TextCommandPrefix + line)
	}
}

func (s *Source) NextCommand(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			return nil, io.EOF
		}
		return line, nil
	}
}

type Speaker struct {
	mu  sync.Mutex
	out io.Writer
}

func NewSpeaker(out io.Writer) *Speaker {
	return &Speaker{out: out}
}

func (s *Speaker) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.out, "> %s\n", text); err != nil {
		return fmt.Errorf("writing reply: %w", err)
	}
	return nil
}
