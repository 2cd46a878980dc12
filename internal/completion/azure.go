package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/KiranJulakanti/chatagent/internal/chat"
	"github.com/KiranJulakanti/chatagent/internal/config"
	"github.com/KiranJulakanti/chatagent/internal/observability"
	"github.com/KiranJulakanti/chatagent/internal/reliability"
	"github.com/KiranJulakanti/chatagent/internal/telemetry"
)

// Execution settings carried over from the deployed assistant configuration.
const (
	maxTokens   = 500
	temperature = 0.7
	topP        = 0.95

	retryBackoffBase = 200 * time.Millisecond
	retryBackoffCap  = 2 * time.Second
)

// AzureClient talks to an Azure OpenAI chat-completions deployment.
type AzureClient struct {
	endpoint    string
	apiKey      string
	deployment  string
	apiVersion  string
	maxAttempts int
	timeout     time.Duration
	client      *http.Client
	tracker     telemetry.Tracker
	metrics     *observability.Metrics
}

func NewAzureClient(cfg config.Config, tracker telemetry.Tracker, metrics *observability.Metrics) *AzureClient {
	if tracker == nil {
		tracker = telemetry.NewNop()
	}
	return &AzureClient{
		endpoint:    strings.TrimRight(strings.TrimSpace(cfg.AzureOpenAIEndpoint), "/"),
		apiKey:      cfg.AzureOpenAIAPIKey,
		deployment:  cfg.AzureOpenAIDeployment,
		apiVersion:  cfg.AzureOpenAIAPIVersion,
		maxAttempts: cfg.CompletionMaxAttempts,
		timeout:     cfg.CompletionTimeout,
		client:      &http.Client{},
		tracker:     tracker,
		metrics:     metrics,
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type completionResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

func (c *AzureClient) Complete(ctx context.Context, messages []chat.Message) (Result, error) {
	if len(messages) == 0 {
		return Result{}, errors.New("empty message list")
	}

	attempts := c.maxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(reliability.ExponentialBackoff(attempt-1, retryBackoffBase, retryBackoffCap)):
			}
		}

		res, retryable, err := c.complete(ctx, messages)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return Result{}, lastErr
}

func (c *AzureClient) complete(ctx context.Context, messages []chat.Message) (Result, bool, error) {
	payload := completionRequest{
		Messages:    make([]wireMessage, 0, len(messages)),
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}
	for _, m := range messages {
		payload.Messages = append(payload.Messages, wireMessage{Role: string(m.Role), Content: m.Text})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, false, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s", c.endpoint, c.deployment, c.apiVersion)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, false, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("api-key", c.apiKey)
	}

	start := time.Now().UTC()
	res, err := c.client.Do(httpReq)
	elapsed := time.Since(start)

	depName := "ChatCompletion/" + c.deployment
	if err != nil {
		c.trackCall(depName, start, elapsed, false)
		return Result{}, reliability.IsTimeout(err), fmt.Errorf("send completion request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.trackCall(depName, start, elapsed, false)
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return Result{}, reliability.IsRetryableHTTPStatus(res.StatusCode),
			fmt.Errorf("completion provider status %d: %s", res.StatusCode, string(snippet))
	}

	var parsed completionResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		c.trackCall(depName, start, elapsed, false)
		return Result{}, false, fmt.Errorf("decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		c.trackCall(depName, start, elapsed, false)
		return Result{}, false, errors.New("completion response has no choices")
	}

	c.trackCall(depName, start, elapsed, true)
	if parsed.Usage != nil {
		c.tracker.TrackEvent("completion.token_usage", map[string]string{
			"prompt_tokens":     strconv.Itoa(parsed.Usage.PromptTokens),
			"completion_tokens": strconv.Itoa(parsed.Usage.CompletionTokens),
			"total_tokens":      strconv.Itoa(parsed.Usage.TotalTokens),
		})
	}

	return Result{Text: parsed.Choices[0].Message.Content, Usage: parsed.Usage}, false, nil
}

func (c *AzureClient) trackCall(name string, start time.Time, elapsed time.Duration, success bool) {
	c.tracker.TrackDependency(telemetry.Dependency{
		Type:     "AzureOpenAI",
		Name:     name,
		Target:   c.endpoint,
		Start:    start,
		Duration: elapsed,
		Success:  success,
	})
	if c.metrics != nil {
		c.metrics.ObserveCompletionLatency(elapsed)
	}
}
