package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"voice-bridge/internal/application"
	"voice-bridge/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeDialogue replays a fixed sequence of predicted actions.
type fakeDialogue struct {
	predictions []string
	outputs     map[string][]domain.Message
	appendErr   error
	predictErr  error
	emptyScores bool

	appended     []string
	executed     []string
	predictCalls int
}

func (f *fakeDialogue) Append(_ context.Context, _ string, text string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, text)
	return nil
}

func (f *fakeDialogue) Predict(_ context.Context, _ string) ([]domain.ActionScore, error) {
	f.predictCalls++
	if f.predictErr != nil {
		return nil, f.predictErr
	}
	if f.emptyScores {
		return nil, nil
	}
	action := domain.ActionListen
	if len(f.predictions) > 0 {
		action = f.predictions[0]
		f.predictions = f.predictions[1:]
	}
	return []domain.ActionScore{{Action: action, Score: 0.9}, {Action: "fallback", Score: 0.1}}, nil
}

func (f *fakeDialogue) Execute(_ context.Context, _ string, action string) ([]domain.Message, error) {
	f.executed = append(f.executed, action)
	return f.outputs[action], nil
}

// fakeChannel answers prompts from a script and records what was said.
type fakeChannel struct {
	replies  []string
	onPrompt func(n int)

	spoken  []string
	prompts []string
}

func (f *fakeChannel) Speak(_ context.Context, text string) {
	f.spoken = append(f.spoken, text)
}

func (f *fakeChannel) Prompt(_ context.Context, text string, opts application.PromptOptions) (string, bool, error) {
	f.prompts = append(f.prompts, text)
	if f.onPrompt != nil {
		f.onPrompt(len(f.prompts))
	}
	if len(f.replies) == 0 {
		return "", false, nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]

	if opts.Validate != nil && !opts.Validate(reply) {
		if opts.OnFail != nil {
			f.spoken = append(f.spoken, opts.OnFail(reply))
		}
		return "", false, nil
	}
	return reply, true, nil
}

// scriptedSource hands out queued commands, then blocks until cancelled.
type scriptedSource struct {
	mu       sync.Mutex
	commands [][]byte
}

func textCommands(texts ...string) *scriptedSource {
	s := &scriptedSource{}
	for _, t := range texts {
		s.commands = append(s.commands, []byte(domain.TextCommandPrefix+t))
	}
	return s
}

func (s *scriptedSource) Start(_ context.Context) error { return nil }
func (s *scriptedSource) Stop() error                   { return nil }
func (s *scriptedSource) Name() string                  { return "scripted" }

func (s *scriptedSource) NextCommand(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	if len(s.commands) > 0 {
		cmd := s.commands[0]
		s.commands = s.commands[1:]
		s.mu.Unlock()
		return cmd, nil
	}
	s.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

type recordingSpeaker struct {
	mu     sync.Mutex
	said   []string
	failOn string
}

func (r *recordingSpeaker) Speak(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn != "" && text == r.failOn {
		return errors.New("speaker unavailable")
	}
	r.said = append(r.said, text)
	return nil
}

func (r *recordingSpeaker) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.said...)
}

type mapSTT struct {
	transcripts map[string]string
}

func (m *mapSTT) Transcribe(_ context.Context, audio []byte) (string, error) {
	if text, ok := m.transcripts[string(audio)]; ok {
		return text, nil
	}
	return "", errors.New("unrecognised audio")
}

type countingMetrics struct {
	application.NoopMetrics
	outcomes []string
	ended    []string
	limits   int
}

func (c *countingMetrics) Disambiguation(outcome string)   { c.outcomes = append(c.outcomes, outcome) }
func (c *countingMetrics) ConversationEnded(reason string) { c.ended = append(c.ended, reason) }
func (c *countingMetrics) ActionLimitReached()             { c.limits++ }
