package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// refresh a little early so in-flight requests never carry an expired token
const expirySkew = 30 * time.Second

// TokenProvider yields a bearer credential for one backend. Providers are
// shared across sessions, so implementations must be safe for concurrent use.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenProvider serves a pre-issued bearer token.
type StaticTokenProvider struct {
	token string
}

func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: strings.TrimSpace(token)}
}

func (p *StaticTokenProvider) Token(context.Context) (string, error) {
	if p.token == "" {
		return "", errors.New("no bearer token configured")
	}
	return p.token, nil
}

// ClientCredentialsProvider acquires tokens from an OAuth2 token endpoint
// and caches them until shortly before expiry.
type ClientCredentialsProvider struct {
	tokenURL     string
	clientID     string
	clientSecret string
	scope        string
	client       *http.Client

	mu      sync.Mutex
	cached  string
	expires time.Time
}

func NewClientCredentialsProvider(tokenURL, clientID, clientSecret, scope string) *ClientCredentialsProvider {
	return &ClientCredentialsProvider{
		tokenURL:     strings.TrimSpace(tokenURL),
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *ClientCredentialsProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" && time.Now().Before(p.expires.Add(-expirySkew)) {
		return p.cached, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
	}
	if p.scope != "" {
		form.Set("scope", p.scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 1<<10))
		return "", fmt.Errorf("token endpoint status %d: %s", res.StatusCode, string(snippet))
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", errors.New("token endpoint returned empty access_token")
	}

	p.cached = parsed.AccessToken
	ttl := time.Duration(parsed.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = time.Minute
	}
	p.expires = time.Now().Add(ttl)

	return p.cached, nil
}
