package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KiranJulakanti/chatagent/internal/catalog"
	"github.com/KiranJulakanti/chatagent/internal/chat"
	"github.com/KiranJulakanti/chatagent/internal/intent"
	"github.com/KiranJulakanti/chatagent/internal/observability"
	"github.com/KiranJulakanti/chatagent/internal/policy"
	"github.com/KiranJulakanti/chatagent/internal/session"
	"github.com/KiranJulakanti/chatagent/internal/telemetry"
)

const systemSender = "System"

const (
	msgWelcome            = "Welcome to the Chat Application! How can I assist you today?"
	msgCouldNotUnderstand = "I couldn't understand your message. Please try again."
	msgWorkingOnProducts  = "I am working on pulling the product details for you, please hang on!"
	msgPurchaseFollowUp   = "Are you interested to purchase one or more of these product(s)?"
	msgAskCustomerStatus  = "Thank you for showing your interest. Before proceeding, I wanted to know if you are a new customer?"
	msgAskDetailsConsent  = "Great, in that case I would require your personal details to create an account with us. Are you interested to proceed?"
	msgAskForDetails      = "Please provide your details as CustomerName and CustomerTaxId."
	msgDetailsInterim     = "Ok, I received your details. I am in the process of creating your account, please hang on a few minutes while we set it up."
	msgUnknownIntent      = "I'm not sure how to respond to that. Could you rephrase your question?"
	msgFlowOutOfOrder     = "Let's take this step by step. If you would like to buy something, first tell me you want to purchase and I will guide you through the rest."
	msgDetailsUnreadable  = "I couldn't read your details. Please send them as JSON with CustomerName and CustomerTaxId fields."
)

const conversationSystemPrompt = "You are a helpful AI assistant that provides concise and accurate information."

// Channel delivers assistant messages back to one connected client.
type Channel interface {
	Push(ctx context.Context, sender, text string) error
}

// ProductSource returns raw catalog output for the recommendation flow.
type ProductSource interface {
	ProductDetails(ctx context.Context, q catalog.Query) (string, error)
}

// AccountCreator provisions a customer account and returns its id.
type AccountCreator interface {
	CreateCustomerAccount(ctx context.Context, customerName, taxID string) (string, error)
}

// CustomerDetails is the payload a client submits to open an account.
// Field names are part of the client contract.
type CustomerDetails struct {
	CustomerName  string `json:"CustomerName"`
	CustomerTaxId string `json:"CustomerTaxId"`
}

// Options collects the collaborators a Dispatcher needs. Products may be
// nil, in which case the recommendation flow asks the model directly.
type Options struct {
	Classifier       *intent.Classifier
	Products         ProductSource
	Accounts         AccountCreator
	Sessions         *session.Manager
	Tracker          telemetry.Tracker
	Metrics          *observability.Metrics
	CatalogQuery     catalog.Query
	HistoryRetention int
}

// Dispatcher runs the classify-then-dispatch cycle for every inbound
// message and owns the purchase-flow state machine. It is safe for
// concurrent use across sessions; a single session's messages must be
// handled sequentially because the conversation history is not locked.
type Dispatcher struct {
	classifier *intent.Classifier
	products   ProductSource
	accounts   AccountCreator
	sessions   *session.Manager
	tracker    telemetry.Tracker
	metrics    *observability.Metrics
	query      catalog.Query
	retention  int
}

func New(opts Options) *Dispatcher {
	tracker := opts.Tracker
	if tracker == nil {
		tracker = telemetry.NewNop()
	}
	retention := opts.HistoryRetention
	if retention <= 0 {
		retention = chat.DefaultRetention
	}
	return &Dispatcher{
		classifier: opts.Classifier,
		products:   opts.Products,
		accounts:   opts.Accounts,
		sessions:   opts.Sessions,
		tracker:    tracker,
		metrics:    opts.Metrics,
		query:      opts.CatalogQuery,
		retention:  retention,
	}
}

// HandleMessage processes one user turn. It is the only place where a
// handler failure becomes a user-visible chat message; nothing below it
// swallows errors silently.
func (d *Dispatcher) HandleMessage(ctx context.Context, sess *session.Session, hist *chat.History, ch Channel, userInput, rawMessage string) {
	op := d.tracker.StartOperation("ProcessUserMessage", "chat")
	defer op.End()
	op.SetProperty("session_id", sess.ID)
	op.SetProperty("message_length", strconv.Itoa(len(userInput)))

	t := &turn{d: d, hist: hist, ch: ch}

	trimmed := strings.TrimSpace(userInput)
	if trimmed == "" || strings.EqualFold(trimmed, "exit") {
		d.tracker.TrackTrace("received empty message", telemetry.SeverityWarning, nil)
		_ = t.push(ctx, msgCouldNotUnderstand)
		return
	}

	d.tracker.TrackEvent("UserMessageReceived", map[string]string{
		"message_preview": policy.Preview(userInput, 20),
	})
	if hist != nil {
		hist.Append(chat.User(userInput))
	}

	label, err := d.classifier.Classify(ctx, userInput)
	if err != nil {
		d.failTurn(ctx, t, label, err)
		return
	}

	if rawMessage == "" {
		rawMessage = userInput
	}
	if err := d.respondToIntent(ctx, t, sess, label, userInput, rawMessage); err != nil {
		d.failTurn(ctx, t, label, err)
	}
	if hist != nil {
		hist.Trim()
	}
}

// failTurn records the failure and converts it into a single pushed
// chat message.
func (d *Dispatcher) failTurn(ctx context.Context, t *turn, label intent.Intent, err error) {
	d.tracker.TrackException(err, map[string]string{"intent": string(label)})
	if d.metrics != nil {
		d.metrics.HandlerErrors.WithLabelValues(string(label)).Inc()
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		_ = t.push(ctx, msgDetailsUnreadable)
		return
	}
	_ = t.push(ctx, fmt.Sprintf("Something went wrong while handling your message: %v", err))
}

func (d *Dispatcher) respondToIntent(ctx context.Context, t *turn, sess *session.Session, label intent.Intent, userInput, rawMessage string) error {
	op := d.tracker.StartOperation("Intent."+string(label), "intent")
	defer op.End()

	start := time.Now()
	defer func() {
		if d.metrics != nil {
			d.metrics.ObserveHandlerLatency(string(label), time.Since(start))
		}
	}()

	d.tracker.TrackTrace("processing intent", telemetry.SeverityInformation, map[string]string{
		"intent":          string(label),
		"message_preview": policy.Preview(userInput, 50),
	})

	switch label {
	case intent.RecommendedProducts:
		return d.recommendProducts(ctx, t)

	case intent.WantToPurchase:
		d.tracker.TrackEvent("PurchaseIntentDetected", nil)
		d.setFlow(sess, session.FlowAwaitingCustomerStatus)
		return t.push(ctx, msgAskCustomerStatus)

	case intent.NewCustomer:
		if sess.Flow != session.FlowAwaitingCustomerStatus {
			return d.rejectOutOfOrder(ctx, t, sess, label)
		}
		d.tracker.TrackEvent("NewCustomerIdentified", nil)
		d.setFlow(sess, session.FlowAwaitingDetailsConsent)
		return t.push(ctx, msgAskDetailsConsent)

	case intent.CreateAccount:
		// A direct request to open an account skips the new-customer
		// question and lands at the consent ask.
		d.tracker.TrackEvent("AccountCreationRequested", nil)
		d.setFlow(sess, session.FlowAwaitingDetailsConsent)
		return t.push(ctx, msgAskDetailsConsent)

	case intent.ProvideDetails:
		if sess.Flow != session.FlowAwaitingDetailsConsent {
			return d.rejectOutOfOrder(ctx, t, sess, label)
		}
		d.tracker.TrackEvent("CustomerRequestedToProvideDetails", nil)
		d.setFlow(sess, session.FlowAwaitingDetails)
		return t.push(ctx, msgAskForDetails)

	case intent.DetailsReceived:
		if sess.Flow != session.FlowAwaitingDetails {
			return d.rejectOutOfOrder(ctx, t, sess, label)
		}
		return d.createAccount(ctx, t, sess, rawMessage)

	case intent.Unknown:
		d.tracker.TrackEvent("UnknownIntentDetected", nil)
		return t.push(ctx, msgUnknownIntent)
	}

	// Unreachable for labels produced by Parse; an unexpected value
	// still gets an answer instead of an error.
	d.tracker.TrackTrace("no handler for intent", telemetry.SeverityWarning, map[string]string{
		"intent": string(label),
	})
	return t.push(ctx, msgUnknownIntent)
}

// rejectOutOfOrder answers a purchase-flow intent that arrived before its
// prerequisite step. The flow state is left untouched.
func (d *Dispatcher) rejectOutOfOrder(ctx context.Context, t *turn, sess *session.Session, label intent.Intent) error {
	d.tracker.TrackTrace("purchase flow intent out of order", telemetry.SeverityWarning, map[string]string{
		"intent": string(label),
		"flow":   string(sess.Flow),
	})
	if d.metrics != nil {
		d.metrics.ObserveIndicator("flow_out_of_order")
	}
	return t.push(ctx, msgFlowOutOfOrder)
}

func (d *Dispatcher) recommendProducts(ctx context.Context, t *turn) error {
	if err := t.push(ctx, msgWorkingOnProducts); err != nil {
		return err
	}

	var (
		products string
		err      error
	)
	if d.products != nil {
		q := d.query
		q.CorrelationID = uuid.NewString()
		products, err = d.products.ProductDetails(ctx, q)
	} else {
		products, err = d.classifier.ModelProductDetails(ctx)
	}
	if err != nil {
		return fmt.Errorf("fetch product details: %w", err)
	}

	formatted, err := d.classifier.FormatProductDetails(ctx, products)
	if err != nil {
		return err
	}
	if err := t.push(ctx, formatted); err != nil {
		return err
	}
	return t.push(ctx, msgPurchaseFollowUp)
}

func (d *Dispatcher) createAccount(ctx context.Context, t *turn, sess *session.Session, rawMessage string) error {
	if err := t.push(ctx, msgDetailsInterim); err != nil {
		return err
	}

	details, err := parseCustomerDetails(rawMessage)
	if err != nil {
		return err
	}

	// The tax id is sensitive and never enters telemetry properties.
	d.tracker.TrackEvent("CustomerDetailsReceived", map[string]string{
		"customer_name": details.CustomerName,
	})

	if d.accounts == nil {
		return errors.New("account backend not configured")
	}
	accountID, err := d.accounts.CreateCustomerAccount(ctx, details.CustomerName, details.CustomerTaxId)
	if err != nil {
		return fmt.Errorf("create customer account: %w", err)
	}

	d.setFlow(sess, session.FlowIdle)
	return t.push(ctx, fmt.Sprintf("Great news! Your account has been successfully set up. Please save this CustomerAccountId: %s for future reference in our communications.", accountID))
}

func (d *Dispatcher) setFlow(sess *session.Session, flow session.FlowState) {
	sess.Flow = flow
	if d.sessions != nil {
		if _, err := d.sessions.SetFlow(sess.ID, flow); err != nil {
			d.tracker.TrackTrace("flow update on unknown session", telemetry.SeverityWarning, map[string]string{
				"session_id": sess.ID,
			})
		}
	}
}

func parseCustomerDetails(raw string) (CustomerDetails, error) {
	var details CustomerDetails
	if err := json.Unmarshal([]byte(raw), &details); err != nil {
		return details, newValidationError("customer_details", "not valid JSON")
	}
	if strings.TrimSpace(details.CustomerName) == "" {
		return details, newValidationError("CustomerName", "required")
	}
	if strings.TrimSpace(details.CustomerTaxId) == "" {
		return details, newValidationError("CustomerTaxId", "required")
	}
	return details, nil
}

// turn scopes a single user message: every push lands in the conversation
// history so the next completion call sees the full exchange.
type turn struct {
	d    *Dispatcher
	hist *chat.History
	ch   Channel
}

func (t *turn) push(ctx context.Context, text string) error {
	if err := t.ch.Push(ctx, systemSender, text); err != nil {
		t.d.tracker.TrackException(err, map[string]string{"message_type": "system_message"})
		return fmt.Errorf("push message: %w", err)
	}
	if t.hist != nil {
		t.hist.Append(chat.Assistant(text))
	}
	t.d.tracker.TrackTrace("system message sent", telemetry.SeverityInformation, map[string]string{
		"message_preview": policy.Preview(text, 50),
	})
	return nil
}
