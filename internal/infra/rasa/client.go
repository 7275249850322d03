// Package rasa talks to a Rasa-compatible dialogue service over its HTTP
// conversation API.
package rasa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voice-bridge/internal/domain"
	"voice-bridge/internal/infra"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retry      infra.RetryConfig
}

func NewClient(baseURL, token string, timeout time.Duration, retry infra.RetryConfig) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
	}
}

type appendRequest struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

type executeRequest struct {
	Name string `json:"name"`
}

type predictResponse struct {
	Scores []struct {
		Action string  `json:"action"`
		Score  float64 `json:"score"`
	} `json:"scores"`
}

type executeResponse struct {
	Messages []wireMessage `json:"messages"`
}

type wireMessage struct {
	Text    string `json:"text"`
	Buttons []struct {
		Title   string `json:"title"`
		Payload string `json:"payload"`
	} `json:"buttons"`
}

func (c *Client) Append(ctx context.Context, conversationID, text string) error {
	body, err := json.Marshal(appendRequest{Text: text, Sender: domain.SenderUser})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	path := c.conversationPath(conversationID, "messages")
	if _, err := c.doRequest(ctx, path, url.Values{"include_events": {"NONE"}}, body, false); err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

func (c *Client) Predict(ctx context.Context, conversationID string) ([]domain.ActionScore, error) {
	resp, err := c.doRequest(ctx, c.conversationPath(conversationID, "predict"), nil, nil, true)
	if err != nil {
		return nil, fmt.Errorf("predicting action: %w", err)
	}

	var parsed predictResponse
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return nil, fmt.Errorf("parsing prediction: %w", err)
	}

	scores := make([]domain.ActionScore, 0, len(parsed.Scores))
	for _, s := range parsed.Scores {
		scores = append(scores, domain.ActionScore{Action: s.Action, Score: s.Score})
	}
	return scores, nil
}

func (c *Client) Execute(ctx context.Context, conversationID, action string) ([]domain.Message, error) {
	body, err := json.Marshal(executeRequest{Name: action})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	path := c.conversationPath(conversationID, "execute")
	resp, err := c.doRequest(ctx, path, url.Values{"include_events": {"APPLIED"}}, body, false)
	if err != nil {
		return nil, fmt.Errorf("executing action %s: %w", action, err)
	}

	var parsed executeResponse
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return nil, fmt.Errorf("parsing execution result: %w", err)
	}

	messages := make([]domain.Message, 0, len(parsed.Messages))
	for _, m := range parsed.Messages {
		buttons := make([]domain.Button, 0, len(m.Buttons))
		for _, b := range m.Buttons {
			buttons = append(buttons, domain.Button{Title: b.Title, Payload: b.Payload})
		}
		messages = append(messages, domain.NewMessage(m.Text, buttons))
	}
	return messages, nil
}

func (c *Client) conversationPath(conversationID, endpoint string) string {
	return fmt.Sprintf("/conversations/%s/%s", url.PathEscape(conversationID), endpoint)
}

// doRequest posts to the dialogue service. Predict is read-only and retried on
// any transient failure. Append and Execute change the tracker, so they are
// only retried when the service cannot have applied them: a failed dial or a
// 429. A 5xx or a lost response may mean the change already happened.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values, body []byte, idempotent bool) ([]byte, error) {
	if c.token != "" {
		if query == nil {
			query = url.Values{}
		}
		query.Set("token", c.token)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var respBody []byte

	retryErr := infra.WithRetry(ctx, c.retry, func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bodyReader)
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if !idempotent && !isDialError(err) {
				return infra.Permanent(fmt.Errorf("sending request: %w", err))
			}
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			if !idempotent {
				return infra.Permanent(fmt.Errorf("reading response: %w", err))
			}
			return fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return infra.Permanent(fmt.Errorf("unauthorized: check the dialogue service token"))
		}

		if infra.IsRetryableHTTPStatus(resp.StatusCode) {
			if !idempotent && resp.StatusCode != http.StatusTooManyRequests {
				return infra.Permanent(fmt.Errorf("dialogue service error %d: %s", resp.StatusCode, string(respBody)))
			}
			return fmt.Errorf("dialogue service error %d (retryable): %s", resp.StatusCode, string(respBody))
		}

		if resp.StatusCode >= 400 {
			return infra.Permanent(fmt.Errorf("dialogue service error %d: %s", resp.StatusCode, string(respBody)))
		}

		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return respBody, nil
}

func isDialError(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
