package servicetitan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"servicetitan-mcp/internal/circuitbreaker"
	"servicetitan-mcp/internal/common/errors"
	"servicetitan-mcp/internal/common/logging"
	"servicetitan-mcp/internal/config"
)

// tokenResponse maps the OAuth token endpoint response. ExpiresIn is a
// pointer so a missing field can fall back to the documented default.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   *int   `json:"expires_in"`
}

const defaultTokenLifetime = 3600

// TokenManager acquires and caches the OAuth access token for the
// ServiceTitan API using the client credentials grant.
//
// Token reads take the fast path under a read lock. When the token is
// missing or inside the refresh buffer, callers serialize on the write
// lock and re-check before exchanging, so N concurrent callers with an
// expired token produce exactly one request to the auth server.
//
// The token value itself stays inside this struct. It is returned only
// to Client for the Authorization header and is never logged or embedded
// in an error.
type TokenManager struct {
	cfg        *config.Config
	httpClient *http.Client
	breaker    *circuitbreaker.GoBreakerAdapter
	logger     logging.Logger

	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time
}

// NewTokenManager creates a token manager that exchanges credentials
// through the given HTTP client. The auth endpoint sits behind a circuit
// breaker so a flapping identity server stops being hammered.
func NewTokenManager(cfg *config.Config, httpClient *http.Client, logger logging.Logger) *TokenManager {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &TokenManager{
		cfg:        cfg,
		httpClient: httpClient,
		breaker:    circuitbreaker.NewGoBreaker("servicetitan-oauth", circuitbreaker.OAuthConfig, logger),
		logger:     logger,
	}
}

// Token returns a valid access token, refreshing it first when the
// cached one is missing or expires within the configured buffer.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	if m.isValidLocked() {
		token := m.accessToken
		m.mu.RUnlock()
		return token, nil
	}
	m.mu.RUnlock()

	return m.refresh(ctx)
}

// Invalidate drops the cached token so the next call performs a fresh
// exchange. Called when the API answers 401 regardless of what the local
// expiry says.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.accessToken = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()
}

// isValidLocked reports whether the cached token exists and will stay
// valid past the refresh buffer. Callers must hold at least a read lock.
// time.Now carries a monotonic reading, so wall-clock jumps cannot make
// an expired token look fresh.
func (m *TokenManager) isValidLocked() bool {
	return m.accessToken != "" &&
		time.Now().Before(m.expiresAt.Add(-m.cfg.TokenRefreshBuffer))
}

func (m *TokenManager) refresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have refreshed while this one waited for the lock.
	if m.isValidLocked() {
		return m.accessToken, nil
	}

	token, expiresIn, err := m.exchange(ctx)
	if err != nil {
		return "", err
	}

	m.accessToken = token
	m.expiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	m.logger.Info("servicetitan.auth.success", logging.Int("expires_in_seconds", expiresIn))
	return token, nil
}

// exchange POSTs the client credentials grant and returns the new token
// with its lifetime in seconds. Exchange failures of every flavor come
// back as authentication errors; the caller cannot retry its way past a
// broken credential.
func (m *TokenManager) exchange(ctx context.Context) (string, int, error) {
	m.logger.Info("servicetitan.auth.refreshing")

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", m.cfg.ClientID)
	form.Set("client_secret", m.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, errors.AuthError("cannot build authentication request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp *http.Response
	err = m.breaker.Execute(ctx, func() error {
		var doErr error
		resp, doErr = m.httpClient.Do(req)
		return doErr
	})
	if err != nil {
		return "", 0, m.classifyExchangeFailure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		m.logger.Error("servicetitan.auth.failed", nil, logging.Int("status_code", resp.StatusCode))
		// The body may carry identity-server debugging detail; only the
		// status reaches the error.
		return "", 0, errors.AuthError(fmt.Sprintf("authentication failed (HTTP %d)", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		m.logger.Error("servicetitan.auth.request_error", nil)
		return "", 0, errors.AuthError("network error during authentication").WithCause(err)
	}

	var payload tokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		m.logger.Error("servicetitan.auth.malformed_response", nil)
		return "", 0, errors.AuthError("ServiceTitan returned an unexpected token response")
	}
	if payload.AccessToken == "" {
		m.logger.Error("servicetitan.auth.malformed_response", nil)
		return "", 0, errors.AuthError("ServiceTitan returned an empty access token")
	}

	expiresIn := defaultTokenLifetime
	if payload.ExpiresIn != nil {
		expiresIn = *payload.ExpiresIn
	}
	return payload.AccessToken, expiresIn, nil
}

// classifyExchangeFailure maps transport and breaker failures from the
// token endpoint onto authentication errors with stable wording.
func (m *TokenManager) classifyExchangeFailure(err error) *errors.AppError {
	if isBreakerOpen(err) {
		m.logger.Error("servicetitan.auth.connect_error", nil)
		return errors.AuthError("cannot connect to ServiceTitan authentication server").WithCause(err)
	}

	switch transportKindOf(err) {
	case kindTimeout:
		m.logger.Error("servicetitan.auth.timeout", nil)
		return errors.AuthError("ServiceTitan authentication server did not respond in time").WithCause(err)
	case kindConnect:
		m.logger.Error("servicetitan.auth.connect_error", nil)
		return errors.AuthError("cannot connect to ServiceTitan authentication server").WithCause(err)
	default:
		m.logger.Error("servicetitan.auth.request_error", nil)
		return errors.AuthError("network error during authentication").WithCause(err)
	}
}
