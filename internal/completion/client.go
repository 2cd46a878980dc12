package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KiranJulakanti/chatagent/internal/chat"
	"github.com/KiranJulakanti/chatagent/internal/config"
	"github.com/KiranJulakanti/chatagent/internal/observability"
	"github.com/KiranJulakanti/chatagent/internal/telemetry"
)

// Usage carries the provider's token counters when it reports them.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is the single top completion for a request.
type Result struct {
	Text  string
	Usage *Usage
}

// Client sends an ordered list of role-tagged messages to the completion
// provider and returns the top response text. Implementations must be safe
// for concurrent use across sessions.
type Client interface {
	Complete(ctx context.Context, messages []chat.Message) (Result, error)
}

// NewClient builds the configured completion client.
func NewClient(cfg config.Config, tracker telemetry.Tracker, metrics *observability.Metrics) (Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.CompletionMode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.AzureOpenAIEndpoint) != "" {
			return NewAzureClient(cfg, tracker, metrics), nil
		}
		return NewMockClient(), nil
	case "azure":
		if strings.TrimSpace(cfg.AzureOpenAIEndpoint) == "" {
			return nil, errors.New("AZURE_OPENAI_ENDPOINT is required for azure mode")
		}
		return NewAzureClient(cfg, tracker, metrics), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported completion mode %q", cfg.CompletionMode)
	}
}
