package completion

import (
	"context"
	"fmt"
	"strings"

	"github.com/KiranJulakanti/chatagent/internal/chat"
)

// MockClient provides deterministic local replies when no completion provider
// is configured. Tests script it through ReplyFn.
type MockClient struct {
	ReplyFn func(messages []chat.Message) string
}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Complete(ctx context.Context, messages []chat.Message) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	if c.ReplyFn != nil {
		return Result{Text: c.ReplyFn(messages)}, nil
	}
	return Result{Text: buildMockReply(messages)}, nil
}

func buildMockReply(messages []chat.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == chat.RoleUser {
			text := strings.TrimSpace(messages[i].Text)
			if text == "" {
				break
			}
			return fmt.Sprintf("I heard you: %s", text)
		}
	}
	return "I am listening."
}
