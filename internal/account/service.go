package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/KiranJulakanti/chatagent/internal/auth"
	"github.com/KiranJulakanti/chatagent/internal/observability"
	"github.com/KiranJulakanti/chatagent/internal/telemetry"
)

// Service is a typed wrapper around the account-creation backend. The account
// id is generated client-side and returned on success; the backend response
// body is not relied upon. A non-2xx status is always an error.
type Service struct {
	apiURL  string
	tokens  auth.TokenProvider
	client  *http.Client
	timeout time.Duration
	tracker telemetry.Tracker
	metrics *observability.Metrics
}

func New(apiURL string, tokens auth.TokenProvider, timeout time.Duration, tracker telemetry.Tracker, metrics *observability.Metrics) *Service {
	if tracker == nil {
		tracker = telemetry.NewNop()
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Service{
		apiURL:  strings.TrimSpace(apiURL),
		tokens:  tokens,
		client:  &http.Client{},
		timeout: timeout,
		tracker: tracker,
		metrics: metrics,
	}
}

type createRequest struct {
	CustomerName  string `json:"customerName"`
	CustomerTaxID string `json:"customerTaxId"`
	AccountID     string `json:"accountId"`
}

// CreateCustomerAccount registers the customer and returns the generated
// account id. The tax id goes only on the wire, never into telemetry.
func (s *Service) CreateCustomerAccount(ctx context.Context, customerName, taxID string) (string, error) {
	op := s.tracker.StartOperation("CreateCustomerAccount", "account")
	defer op.End()
	op.SetProperty("customer_name", customerName)

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("account token: %w", err)
	}

	accountID := GenerateAccountID()
	op.SetProperty("account_id", accountID)

	payload, err := json.Marshal(createRequest{
		CustomerName:  customerName,
		CustomerTaxID: taxID,
		AccountID:     accountID,
	})
	if err != nil {
		return "", fmt.Errorf("marshal account request: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create account request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now().UTC()
	res, err := s.client.Do(req)
	elapsed := time.Since(start)
	s.trackCall(start, elapsed, err == nil && res != nil && res.StatusCode >= 200 && res.StatusCode < 300)
	if err != nil {
		return "", fmt.Errorf("account request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return "", fmt.Errorf("account status %d: %s", res.StatusCode, string(snippet))
	}

	s.tracker.TrackEvent("CustomerAccountCreated", map[string]string{
		"account_id": accountID,
	})
	return accountID, nil
}

// GenerateAccountID produces a demo account id in the DEM000xxxxx range.
func GenerateAccountID() string {
	return fmt.Sprintf("DEM000%05d", 10000+rand.Intn(90000))
}

func (s *Service) trackCall(start time.Time, elapsed time.Duration, success bool) {
	s.tracker.TrackDependency(telemetry.Dependency{
		Type:     "CaseAPI",
		Name:     "CreateCustomerAccount",
		Target:   s.apiURL,
		Start:    start,
		Duration: elapsed,
		Success:  success,
	})
	if s.metrics != nil {
		s.metrics.ObserveDependencyLatency("account_api", elapsed)
	}
}
