package pushover_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-bridge/internal/application"
	"voice-bridge/internal/infra/pushover"
)

var _ application.Speaker = (*pushover.Client)(nil)

func TestClient_Speak(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "tok", r.PostForm.Get("token"))
		assert.Equal(t, "usr", r.PostForm.Get("user"))
		assert.Equal(t, "Hello", r.PostForm.Get("message"))
		assert.Equal(t, "Rasa", r.PostForm.Get("title"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := pushover.NewClientWithURL("tok", "usr", "Rasa", server.URL).Speak(context.Background(), "Hello")
	require.NoError(t, err)
}

func TestClient_SpeakError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := pushover.NewClientWithURL("tok", "usr", "Rasa", server.URL).Speak(context.Background(), "Hello")
	assert.Error(t, err)
}

func TestClient_UnconfiguredIsSilent(t *testing.T) {
	err := pushover.NewClientWithURL("", "", "Rasa", "http://127.0.0.1:1").Speak(context.Background(), "Hello")
	assert.NoError(t, err)
}
