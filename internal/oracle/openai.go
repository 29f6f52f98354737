package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"profilematch/internal/config"
)

// OpenAIRanker calls the chat completions endpoint of any OpenAI compatible
// API.
type OpenAIRanker struct {
	cfg         config.Config
	httpClient  *http.Client
	backoffBase time.Duration
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func NewOpenAIRanker(cfg config.Config) *OpenAIRanker {
	return &OpenAIRanker{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: time.Duration(cfg.OracleTimeoutMs) * time.Millisecond},
		backoffBase: 250 * time.Millisecond,
	}
}

func (r *OpenAIRanker) Rank(ctx context.Context, query, corpus string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: r.cfg.OpenAIModel,
		Messages: []chatMessage{
			{Role: "system", Content: SystemMessage},
			{Role: "user", Content: BuildPrompt(query, corpus)},
		},
	})
	if err != nil {
		return "", err
	}

	body, err := r.postJSON(ctx, "chat/completions", payload)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("openai api error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (r *OpenAIRanker) postJSON(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	if strings.TrimSpace(r.cfg.OpenAIAPIKey) == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}
	u := strings.TrimRight(r.cfg.OpenAIBaseURL, "/") + "/" + endpoint

	attempts := max(1, r.cfg.OracleRetries)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+r.cfg.OpenAIAPIKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := r.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if attempt < attempts {
				if err := r.wait(ctx, attempt); err != nil {
					return nil, err
				}
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			if attempt < attempts {
				if err := r.wait(ctx, attempt); err != nil {
					return nil, err
				}
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < attempts {
				lastErr = fmt.Errorf("openai status %d", resp.StatusCode)
				if err := r.wait(ctx, attempt); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("openai api error: status=%d body=%s", resp.StatusCode, string(body))
		}
		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("openai request failed")
	}
	return nil, lastErr
}

func (r *OpenAIRanker) wait(ctx context.Context, attempt int) error {
	if r.backoffBase <= 0 {
		return ctx.Err()
	}
	backoff := r.backoffBase*time.Duration(1<<(attempt-1)) + time.Duration(rand.Intn(100))*time.Millisecond
	t := time.NewTimer(backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
