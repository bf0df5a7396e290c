package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/expressions"
	"github.com/Ramsey-B/clover/pkg/httpclient"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var (
	// ErrNoCredentials is returned when neither a token nor OAuth credentials are configured
	ErrNoCredentials = errors.New("no destination credentials configured")

	// ErrTokenExtractionFailed is returned when token extraction from the refresh response fails
	ErrTokenExtractionFailed = errors.New("failed to extract token from response")

	// ErrRefreshFailed is returned when the token refresh request fails
	ErrRefreshFailed = errors.New("token refresh failed")
)

const (
	// DefaultTTLSeconds is the default token lifetime if the response carries none
	DefaultTTLSeconds = 3600 // 1 hour

	// DefaultSkewSeconds is the refresh margin before expiry
	DefaultSkewSeconds = 60 // 1 minute before expiry
)

// TokenProvider yields a bearer token for outbound API calls.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenProvider wraps a private app token that never expires.
type StaticTokenProvider struct {
	token string
}

func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

func (p *StaticTokenProvider) Token(ctx context.Context) (string, error) {
	if p.token == "" {
		return "", ErrNoCredentials
	}
	return p.token, nil
}

// CachedToken represents a cached authentication token
type CachedToken struct {
	Token        string `json:"token"`
	TokenType    string `json:"token_type,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	CreatedAt    int64  `json:"created_at"`
}

// IsExpired checks if the token is expired (with skew)
func (t *CachedToken) IsExpired(skewSeconds int) bool {
	if t.ExpiresAt == 0 {
		return false // No expiry set
	}
	now := time.Now().Unix()
	return now >= (t.ExpiresAt - int64(skewSeconds))
}

// OAuthConfig configures the refresh-token flow.
type OAuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Manager refreshes OAuth tokens ahead of expiry. Extraction paths run
// through the expressions evaluator so the response shape stays
// configuration, not code.
type Manager struct {
	config    OAuthConfig
	client    *httpclient.Client
	evaluator *expressions.Evaluator
	logger    ectologger.Logger

	mu     sync.Mutex
	cached *CachedToken
}

// NewManager creates a new auth manager
func NewManager(config OAuthConfig, client *httpclient.Client, evaluator *expressions.Evaluator, logger ectologger.Logger) *Manager {
	return &Manager{
		config:    config,
		client:    client,
		evaluator: evaluator,
		logger:    logger,
	}
}

// Token returns a valid bearer token, refreshing when the cached one is
// missing or inside the expiry skew.
func (m *Manager) Token(ctx context.Context) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "AuthManager.Token")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil && !m.cached.IsExpired(DefaultSkewSeconds) {
		return m.cached.Token, nil
	}

	token, err := m.refresh(ctx)
	if err != nil {
		metrics.AuthTokenRefreshes.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.AuthTokenRefreshes.WithLabelValues("success").Inc()

	m.cached = token
	return token.Token, nil
}

func (m *Manager) refresh(ctx context.Context) (*CachedToken, error) {
	ctx, span := tracing.StartSpan(ctx, "AuthManager.refresh")
	defer span.End()

	if m.config.ClientID == "" || m.config.RefreshToken == "" {
		return nil, ErrNoCredentials
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", m.config.ClientID)
	form.Set("client_secret", m.config.ClientSecret)
	form.Set("refresh_token", m.config.RefreshToken)

	resp, err := m.client.PostForm(ctx, m.config.TokenURL, form)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	if !resp.IsSuccess() {
		m.logger.WithContext(ctx).WithField("status", resp.StatusCode).Error("token refresh rejected")
		return nil, fmt.Errorf("%w: status %d", ErrRefreshFailed, resp.StatusCode)
	}

	if err := httpclient.ParseResponse(resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExtractionFailed, err)
	}

	accessToken, err := m.evaluator.EvaluateString("access_token", resp.BodyJSON)
	if err != nil || strings.TrimSpace(accessToken) == "" {
		return nil, ErrTokenExtractionFailed
	}

	expiresIn, err := m.evaluator.EvaluateInt("expires_in", resp.BodyJSON)
	if err != nil || expiresIn <= 0 {
		expiresIn = DefaultTTLSeconds
	}

	refreshToken, _ := m.evaluator.EvaluateString("refresh_token", resp.BodyJSON)
	if refreshToken != "" {
		m.config.RefreshToken = refreshToken
	}

	now := time.Now().Unix()
	token := &CachedToken{
		Token:        accessToken,
		TokenType:    "Bearer",
		RefreshToken: refreshToken,
		ExpiresAt:    now + int64(expiresIn),
		CreatedAt:    now,
	}

	m.logger.WithContext(ctx).WithField("expires_in", expiresIn).Info("destination token refreshed")
	return token, nil
}
