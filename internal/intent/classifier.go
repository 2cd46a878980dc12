package intent

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/KiranJulakanti/chatagent/internal/chat"
	"github.com/KiranJulakanti/chatagent/internal/completion"
	"github.com/KiranJulakanti/chatagent/internal/observability"
	"github.com/KiranJulakanti/chatagent/internal/policy"
	"github.com/KiranJulakanti/chatagent/internal/telemetry"
)

// Classifier wraps the completion client with the single-shot classification
// prompt and its sibling product prompts. Each call sends a fresh system+user
// pair; the ongoing conversation history is never included, so classification
// is stateless per call.
type Classifier struct {
	client  completion.Client
	tracker telemetry.Tracker
	metrics *observability.Metrics
}

func NewClassifier(client completion.Client, tracker telemetry.Tracker, metrics *observability.Metrics) *Classifier {
	if tracker == nil {
		tracker = telemetry.NewNop()
	}
	return &Classifier{client: client, tracker: tracker, metrics: metrics}
}

// Classify resolves the user's message to one of the closed intent labels,
// defaulting to Unknown when the model's answer matches nothing.
func (c *Classifier) Classify(ctx context.Context, userInput string) (Intent, error) {
	op := c.tracker.StartOperation("GetUserIntent", "classifier")
	defer op.End()
	op.SetProperty("input_length", strconv.Itoa(len(userInput)))

	start := time.Now()
	res, err := c.client.Complete(ctx, []chat.Message{
		chat.System(classifierInstruction),
		chat.User(userInput),
	})
	if err != nil {
		c.tracker.TrackException(err, map[string]string{"function": "GetUserIntent"})
		return Unknown, fmt.Errorf("classify intent: %w", err)
	}

	trimmed := strings.TrimSpace(res.Text)
	predicted := Parse(trimmed)
	if predicted == Unknown && trimmed != string(Unknown) {
		c.tracker.TrackTrace("intent not recognized in closed set", telemetry.SeverityWarning, map[string]string{
			"received": policy.Preview(res.Text, 50),
		})
		if c.metrics != nil {
			c.metrics.ObserveIndicator("unknown_intent")
		}
	}

	c.tracker.TrackEvent("IntentClassified", map[string]string{
		"intent":             string(predicted),
		"processing_time_ms": strconv.FormatInt(time.Since(start).Milliseconds(), 10),
	})
	if c.metrics != nil {
		c.metrics.Intents.WithLabelValues(string(predicted)).Inc()
	}

	return predicted, nil
}

// FormatProductDetails reshapes raw catalog output into the short
// conversational list pushed to the client.
func (c *Classifier) FormatProductDetails(ctx context.Context, products string) (string, error) {
	op := c.tracker.StartOperation("FormatProductDetails", "classifier")
	defer op.End()
	op.SetProperty("products_length", strconv.Itoa(len(products)))

	res, err := c.client.Complete(ctx, []chat.Message{
		chat.System(formatProductsInstruction),
		chat.User(products),
	})
	if err != nil {
		c.tracker.TrackException(err, map[string]string{"function": "FormatProductDetails"})
		return "", fmt.Errorf("format product details: %w", err)
	}
	return res.Text, nil
}

// ModelProductDetails asks the model itself for a product list; used as the
// catalog source when no catalog backend is configured.
func (c *Classifier) ModelProductDetails(ctx context.Context) (string, error) {
	op := c.tracker.StartOperation("GetProductDetails", "classifier")
	defer op.End()

	res, err := c.client.Complete(ctx, []chat.Message{
		chat.System(productDetailsInstruction),
		chat.User("List the products."),
	})
	if err != nil {
		c.tracker.TrackException(err, map[string]string{"function": "GetProductDetails"})
		return "", fmt.Errorf("model product details: %w", err)
	}
	return res.Text, nil
}
