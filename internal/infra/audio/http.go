package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"voice-bridge/internal/domain"
)

const maxPendingReplies = 100

// HTTPSource receives utterances over HTTP and queues spoken replies for
// clients that poll GET /replies, so a remote device can act as microphone
// and loudspeaker.
type HTTPSource struct {
	addr        string
	server      *http.Server
	audioChan   chan []byte
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
	mux         *http.ServeMux
	closeOnce   sync.Once
	rateLimiter *RateLimiter
	authToken   string

	repliesMu sync.Mutex
	replies   []string
	onStop    func()
}

func NewHTTPSource(addr string, authToken string, logger *slog.Logger) *HTTPSource {
	h := &HTTPSource{
		addr:        addr,
		audioChan:   make(chan []byte, 10),
		logger:      logger,
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(30, time.Minute), // 30 requests per minute per IP
		authToken:   authToken,
	}
	h.mux.HandleFunc("POST /audio", h.rateLimiter.Middleware(h.handleAudio))
	h.mux.HandleFunc("POST /text", h.rateLimiter.Middleware(h.handleText))
	h.mux.HandleFunc("POST /alexa", h.rateLimiter.Middleware(h.requireToken(h.handleText)))
	h.mux.HandleFunc("POST /stop", h.requireToken(h.handleStop))
	h.mux.HandleFunc("GET /replies", h.handleReplies)
	h.mux.HandleFunc("GET /health", h.handleHealth)
	return h
}

func (h *HTTPSource) Name() string {
	return "http"
}

// OnStop registers the callback run by POST /stop.
func (h *HTTPSource) OnStop(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onStop = fn
}

func (h *HTTPSource) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}

	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		h.logger.Info("HTTP audio server starting", "addr", h.addr)
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", "error", err)
		}
	}()

	h.running = true
	return nil
}

func (h *HTTPSource) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.server.Shutdown(ctx); err != nil {
			h.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := h.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	h.closeOnce.Do(func() {
		close(h.audioChan)
	})
	h.running = false
	return nil
}

func (h *HTTPSource) NextCommand(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case audio, ok := <-h.audioChan:
		if !ok {
			return nil, fmt.Errorf("audio channel closed")
		}
		return audio, nil
	}
}

// Speak queues a reply for GET /replies. The oldest reply is dropped once
// maxPendingReplies are waiting.
func (h *HTTPSource) Speak(_ context.Context, text string) error {
	h.repliesMu.Lock()
	defer h.repliesMu.Unlock()

	if len(h.replies) >= maxPendingReplies {
		h.replies = h.replies[1:]
	}
	h.replies = append(h.replies, text)
	return nil
}

func (h *HTTPSource) Handler() http.Handler {
	return h.mux
}

func (h *HTTPSource) InjectAudio(data []byte) {
	select {
	case h.audioChan <- data:
	default:
	}
}

func (h *HTTPSource) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.authToken != "" {
			token := r.Header.Get("X-Auth-Token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}

			if token != h.authToken {
				h.logger.Warn("unauthorized request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (h *HTTPSource) handleAudio(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 10*1024*1024))
	if err != nil {
		h.logger.Error("reading audio body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if len(data) == 0 {
		http.Error(w, "empty audio", http.StatusBadRequest)
		return
	}

	select {
	case h.audioChan <- data:
		h.logger.Info("received audio via HTTP", "bytes", len(data))
		writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "bytes": len(data)})
	default:
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
	}
}

func (h *HTTPSource) handleText(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	text := string(data)
	if text == "" {
		http.Error(w, "empty text", http.StatusBadRequest)
		return
	}

	marker := []byte(domain.TextCommandPrefix + text)

	select {
	case h.audioChan <- marker:
		h.logger.Info("received text command via HTTP", "path", r.URL.Path, "text", text)
		writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "text": text})
	default:
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
	}
}

func (h *HTTPSource) handleStop(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	onStop := h.onStop
	h.mu.Unlock()

	if onStop == nil {
		http.Error(w, "stop not supported", http.StatusNotImplemented)
		return
	}

	onStop()
	h.logger.Info("stop requested via HTTP")
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "stopping"})
}

func (h *HTTPSource) handleReplies(w http.ResponseWriter, r *http.Request) {
	h.repliesMu.Lock()
	replies := h.replies
	h.replies = nil
	h.repliesMu.Unlock()

	if replies == nil {
		replies = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"replies": replies})
}

func (h *HTTPSource) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	running := h.running
	queueSize := len(h.audioChan)
	h.mu.Unlock()

	status := "ok"
	statusCode := http.StatusOK

	if !running {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, map[string]any{"status": status, "running": running, "queue_size": queueSize})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
