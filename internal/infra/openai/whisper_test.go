package openai_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-bridge/internal/infra/openai"
)

func TestWhisperClient_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-large", r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))

		file, _, err := r.FormFile("file")
		if assert.NoError(t, err) {
			data, _ := io.ReadAll(file)
			assert.Equal(t, "RIFF-audio", string(data))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":" talk to rasa "}`))
	}))
	defer server.Close()

	client := openai.NewWhisperClientWithURL("test-key", "en", server.URL+"/v1/", "whisper-large")

	text, err := client.Transcribe(context.Background(), []byte("RIFF-audio"))

	require.NoError(t, err)
	assert.Equal(t, " talk to rasa ", text)
}

func TestWhisperClient_NoLanguageNoKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		_, hasLanguage := r.MultipartForm.Value["language"]
		assert.False(t, hasLanguage)
		assert.Equal(t, openai.DefaultModel, r.FormValue("model"))
		w.Write([]byte(`{"text":"hello"}`))
	}))
	defer server.Close()

	text, err := openai.NewWhisperClientWithURL("", "", server.URL, "").Transcribe(context.Background(), []byte("x"))

	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestWhisperClient_BadRequestNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unsupported format", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := openai.NewWhisperClientWithURL("k", "en", server.URL, "").Transcribe(context.Background(), []byte("x"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load())
}
