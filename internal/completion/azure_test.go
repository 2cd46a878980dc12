package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KiranJulakanti/chatagent/internal/chat"
	"github.com/KiranJulakanti/chatagent/internal/config"
	"github.com/KiranJulakanti/chatagent/internal/telemetry"
)

func azureTestConfig(endpoint string) config.Config {
	return config.Config{
		AzureOpenAIEndpoint:   endpoint,
		AzureOpenAIAPIKey:     "test-key",
		AzureOpenAIDeployment: "gpt-test",
		AzureOpenAIAPIVersion: "2024-06-01",
		CompletionTimeout:     2 * time.Second,
		CompletionMaxAttempts: 2,
	}
}

func TestAzureClientComplete(t *testing.T) {
	var gotPath, gotKey string
	var gotBody completionRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "RecommendedProducts"}},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12},
		})
	}))
	defer ts.Close()

	sink := telemetry.NewInMemorySink(16)
	client := NewAzureClient(azureTestConfig(ts.URL), telemetry.NewService(sink, nil), nil)

	res, err := client.Complete(context.Background(), []chat.Message{
		chat.System("classify"),
		chat.User("show me laptops"),
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if res.Text != "RecommendedProducts" {
		t.Fatalf("Text = %q, want RecommendedProducts", res.Text)
	}
	if res.Usage == nil || res.Usage.TotalTokens != 12 {
		t.Fatalf("Usage = %+v, want total 12", res.Usage)
	}

	if gotPath != "/openai/deployments/gpt-test/chat/completions" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("api-key header = %q", gotKey)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" {
		t.Fatalf("unexpected wire messages: %+v", gotBody.Messages)
	}

	recs := sink.Recent(0)
	var sawDependency, sawUsage bool
	for _, rec := range recs {
		if rec.Kind == telemetry.KindDependency && rec.Success {
			sawDependency = true
		}
		if rec.Kind == telemetry.KindEvent && rec.Name == "completion.token_usage" {
			sawUsage = true
		}
	}
	if !sawDependency || !sawUsage {
		t.Fatalf("expected dependency and usage records, got %+v", recs)
	}
}

func TestAzureClientRetriesRetryableStatus(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "ok"}},
			},
		})
	}))
	defer ts.Close()

	client := NewAzureClient(azureTestConfig(ts.URL), telemetry.NewNop(), nil)
	res, err := client.Complete(context.Background(), []chat.Message{chat.User("hi")})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if res.Text != "ok" {
		t.Fatalf("Text = %q, want ok", res.Text)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestAzureClientDoesNotRetryClientError(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	client := NewAzureClient(azureTestConfig(ts.URL), telemetry.NewNop(), nil)
	_, err := client.Complete(context.Background(), []chat.Message{chat.User("hi")})
	if err == nil {
		t.Fatalf("Complete() expected error")
	}
	if !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("error = %v, want status 400", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestNewClientModes(t *testing.T) {
	cfg := config.Config{CompletionMode: "auto"}
	c, err := NewClient(cfg, telemetry.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewClient(auto) error = %v", err)
	}
	if _, ok := c.(*MockClient); !ok {
		t.Fatalf("auto without endpoint should yield MockClient, got %T", c)
	}

	cfg.AzureOpenAIEndpoint = "https://example.openai.azure.com"
	c, err = NewClient(cfg, telemetry.NewNop(), nil)
	if err != nil {
		t.Fatalf("NewClient(auto+endpoint) error = %v", err)
	}
	if _, ok := c.(*AzureClient); !ok {
		t.Fatalf("auto with endpoint should yield AzureClient, got %T", c)
	}

	cfg = config.Config{CompletionMode: "azure"}
	if _, err := NewClient(cfg, telemetry.NewNop(), nil); err == nil {
		t.Fatalf("azure mode without endpoint should fail")
	}
}

func TestMockClientEcho(t *testing.T) {
	c := NewMockClient()
	res, err := c.Complete(context.Background(), []chat.Message{chat.System("sys"), chat.User("hello")})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if res.Text != "I heard you: hello" {
		t.Fatalf("Text = %q", res.Text)
	}
}
