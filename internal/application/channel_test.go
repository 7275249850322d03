package application_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-bridge/internal/application"
)

func TestVoiceChannel_PromptAcceptsFirstReply(t *testing.T) {
	speaker := &recordingSpeaker{}
	ch := application.NewVoiceChannel(textCommands("  hello  "), &application.NoopSTT{}, speaker, time.Second, discardLogger())

	reply, ok, err := ch.Prompt(context.Background(), "What now?", application.PromptOptions{})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", reply)
	assert.Equal(t, []string{"What now?"}, speaker.lines())
}

func TestVoiceChannel_RetriesRejectedReplies(t *testing.T) {
	speaker := &recordingSpeaker{}
	ch := application.NewVoiceChannel(textCommands("blue", "green"), &application.NoopSTT{}, speaker, time.Second, discardLogger())

	reply, ok, err := ch.Prompt(context.Background(), "Red or green?", application.PromptOptions{
		Validate:   func(u string) bool { return u == "green" || u == "red" },
		MaxRetries: 1,
		OnFail:     func(u string) string { return "not " + u },
	})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "green", reply)
	assert.Equal(t, []string{"Red or green?", "not blue"}, speaker.lines())
}

func TestVoiceChannel_ExhaustedRetries(t *testing.T) {
	speaker := &recordingSpeaker{}
	ch := application.NewVoiceChannel(textCommands("blue", "green"), &application.NoopSTT{}, speaker, time.Second, discardLogger())

	_, ok, err := ch.Prompt(context.Background(), "Red?", application.PromptOptions{
		Validate: func(u string) bool { return u == "red" },
		OnFail:   func(string) string { return "Sorry I didn't catch that." },
	})

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"Red?", "Sorry I didn't catch that."}, speaker.lines())
}

func TestVoiceChannel_TimeoutMeansNoReply(t *testing.T) {
	ch := application.NewVoiceChannel(textCommands(), &application.NoopSTT{}, &recordingSpeaker{}, 20*time.Millisecond, discardLogger())

	_, ok, err := ch.Prompt(context.Background(), "Anyone?", application.PromptOptions{})

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVoiceChannel_CancelledContext(t *testing.T) {
	ch := application.NewVoiceChannel(textCommands(), &application.NoopSTT{}, &recordingSpeaker{}, time.Second, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := ch.Prompt(ctx, "Anyone?", application.PromptOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

func TestVoiceChannel_TranscribesAudio(t *testing.T) {
	source := &scriptedSource{commands: [][]byte{[]byte("RIFF-yes")}}
	stt := &mapSTT{transcripts: map[string]string{"RIFF-yes": "Yes please"}}
	ch := application.NewVoiceChannel(source, stt, &recordingSpeaker{}, time.Second, discardLogger())

	reply, ok, err := ch.Prompt(context.Background(), "", application.PromptOptions{})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Yes please", reply)
}

func TestVoiceChannel_TranscriptionFailure(t *testing.T) {
	source := &scriptedSource{commands: [][]byte{[]byte("RIFF-noise")}}
	ch := application.NewVoiceChannel(source, &mapSTT{}, &recordingSpeaker{}, time.Second, discardLogger())

	_, _, err := ch.Prompt(context.Background(), "", application.PromptOptions{})

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "transcribing"))
}

func TestVoiceChannel_SpeakerFailureIsNotFatal(t *testing.T) {
	speaker := &recordingSpeaker{failOn: "broken"}
	ch := application.NewVoiceChannel(textCommands("fine"), &application.NoopSTT{}, speaker, time.Second, discardLogger())

	reply, ok, err := ch.Prompt(context.Background(), "broken", application.PromptOptions{})

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fine", reply)
}
