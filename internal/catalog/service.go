package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KiranJulakanti/chatagent/internal/auth"
	"github.com/KiranJulakanti/chatagent/internal/observability"
	"github.com/KiranJulakanti/chatagent/internal/telemetry"
)

// Query identifies one product lookup.
type Query struct {
	BigID         string
	SKUID         string
	Market        string
	Language      string
	CorrelationID string
}

// Service is a typed wrapper around the product catalog backend. It acquires
// a bearer credential, issues one GET, and hands the body back as raw text;
// deserializing catalog JSON is the formatting prompt's job, not ours.
type Service struct {
	baseURL string
	tokens  auth.TokenProvider
	client  *http.Client
	timeout time.Duration
	tracker telemetry.Tracker
	metrics *observability.Metrics
}

func New(baseURL string, tokens auth.TokenProvider, timeout time.Duration, tracker telemetry.Tracker, metrics *observability.Metrics) *Service {
	if tracker == nil {
		tracker = telemetry.NewNop()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		tokens:  tokens,
		client:  &http.Client{},
		timeout: timeout,
		tracker: tracker,
		metrics: metrics,
	}
}

// ProductDetails fetches one product's catalog entry. A non-2xx status is an
// error; timeouts surface as adapter failures.
func (s *Service) ProductDetails(ctx context.Context, q Query) (string, error) {
	op := s.tracker.StartOperation("GetProductDetails", "catalog")
	defer op.End()
	if q.CorrelationID == "" {
		q.CorrelationID = uuid.NewString()
	}
	op.SetProperty("big_id", q.BigID)
	op.SetProperty("sku_id", q.SKUID)
	op.SetProperty("market", q.Market)
	op.SetProperty("correlation_id", q.CorrelationID)

	token, err := s.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	requestURL := fmt.Sprintf("%s/%s/%s?%s", s.baseURL,
		url.PathEscape(q.BigID), url.PathEscape(q.SKUID),
		url.Values{
			"market":     {q.Market},
			"languages":  {q.Language},
			"catalogIds": {"4"},
		}.Encode())

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("create catalog request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("MS-CorrelationId", q.CorrelationID)

	start := time.Now().UTC()
	res, err := s.client.Do(req)
	elapsed := time.Since(start)
	s.trackCall(q, requestURL, start, elapsed, err == nil && res != nil && res.StatusCode >= 200 && res.StatusCode < 300)
	if err != nil {
		return "", fmt.Errorf("catalog request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read catalog response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("catalog status %d: %s", res.StatusCode, truncate(string(body), 200))
	}

	return string(body), nil
}

func (s *Service) fetchToken(ctx context.Context) (string, error) {
	start := time.Now().UTC()
	token, err := s.tokens.Token(ctx)
	s.tracker.TrackDependency(telemetry.Dependency{
		Type:     "AuthTokenProvider",
		Name:     "GetToken",
		Target:   "catalog",
		Start:    start,
		Duration: time.Since(start),
		Success:  err == nil,
	})
	if err != nil {
		return "", fmt.Errorf("catalog token: %w", err)
	}
	return token, nil
}

func (s *Service) trackCall(q Query, target string, start time.Time, elapsed time.Duration, success bool) {
	s.tracker.TrackDependency(telemetry.Dependency{
		Type:     "CatalogAPI",
		Name:     fmt.Sprintf("GetProductDetails/%s/%s", q.Market, q.Language),
		Target:   target,
		Start:    start,
		Duration: elapsed,
		Success:  success,
	})
	if s.metrics != nil {
		s.metrics.ObserveDependencyLatency("catalog_api", elapsed)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
