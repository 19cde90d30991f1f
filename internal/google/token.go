package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"

	"famsync/internal/store"
)

const defaultRevokeURL = "https://oauth2.googleapis.com/revoke"

// TokenManagerOptions configures a TokenManager. Endpoint, RevokeURL and
// HTTPClient exist so tests can point the manager at a local server.
type TokenManagerOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Account      string
	Store        store.CredentialStore
	Endpoint     oauth2.Endpoint
	RevokeURL    string
	HTTPClient   *http.Client
}

// TokenManager owns the OAuth2 credential lifecycle for one account:
// authorization URL construction, code exchange, refresh, expiry detection
// and revocation. Tokens persist through the injected CredentialStore, so
// multiple accounts can sync concurrently without shared mutable state.
type TokenManager struct {
	config     *oauth2.Config
	account    string
	store      store.CredentialStore
	logger     *slog.Logger
	revokeURL  string
	httpClient *http.Client

	mu    sync.Mutex
	token *oauth2.Token
}

// NewTokenManager creates a manager for the given account. Scopes are fixed
// to calendar read/write.
func NewTokenManager(logger *slog.Logger, opts TokenManagerOptions) *TokenManager {
	endpoint := opts.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = googleoauth.Endpoint
	}
	revokeURL := opts.RevokeURL
	if revokeURL == "" {
		revokeURL = defaultRevokeURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &TokenManager{
		config: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Scopes:       []string{calendar.CalendarScope, calendar.CalendarEventsScope},
			Endpoint:     endpoint,
		},
		account:    opts.Account,
		store:      opts.Store,
		logger:     logger,
		revokeURL:  revokeURL,
		httpClient: httpClient,
	}
}

// AuthorizationURL builds the consent URL for the authorization-code flow.
func (m *TokenManager) AuthorizationURL() (string, error) {
	if m.config.ClientID == "" {
		return "", fmt.Errorf("cannot build authorization URL: %w", ErrNotConfigured)
	}
	return m.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline), nil
}

// ExchangeCode trades an authorization code for a token and persists it.
func (m *TokenManager) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if m.config.ClientID == "" {
		return nil, fmt.Errorf("cannot exchange code: %w", ErrNotConfigured)
	}

	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthExchange, err)
	}

	if err := m.store.Set(m.account, token); err != nil {
		return nil, fmt.Errorf("failed to persist token: %w", err)
	}

	m.mu.Lock()
	m.token = token
	m.mu.Unlock()

	m.logger.Info("Authenticated with Google Calendar.", "account", m.account)
	return token, nil
}

// EnsureValid returns a currently valid access token, refreshing through the
// stored refresh token when the cached one has expired. A rejected refresh
// (the endpoint denies the grant) clears the stored credential and reports
// ErrReauthRequired; transient endpoint failures keep the credential so a
// later cycle can retry.
func (m *TokenManager) EnsureValid(ctx context.Context) (string, error) {
	token, err := m.currentToken(ctx)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// currentToken loads, validates and refreshes the account token under lock.
func (m *TokenManager) currentToken(ctx context.Context) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := m.token
	if token == nil {
		stored, err := m.store.Get(m.account)
		if err != nil {
			if errors.Is(err, store.ErrNoCredentials) {
				return nil, fmt.Errorf("account %s: %w", m.account, ErrReauthRequired)
			}
			return nil, fmt.Errorf("failed to load credentials: %w", err)
		}
		token = stored
	}

	if token.Valid() {
		m.token = token
		return token, nil
	}

	if token.RefreshToken == "" {
		return nil, fmt.Errorf("token expired with no refresh token: %w", ErrReauthRequired)
	}

	refreshed, err := m.config.TokenSource(ctx, token).Token()
	if err != nil {
		// Only clear the credential when the endpoint rejected the grant
		// itself; a 5xx or network failure leaves a still-valid refresh
		// token that a later cycle can retry with.
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			switch retrieveErr.Response.StatusCode {
			case http.StatusBadRequest, http.StatusUnauthorized:
				m.logger.Warn("Refresh token rejected, clearing credentials.", "account", m.account, "error", err)
				m.token = nil
				if clearErr := m.store.Clear(m.account); clearErr != nil {
					m.logger.Error("Failed to clear credentials after rejected refresh", "error", clearErr)
				}
				return nil, fmt.Errorf("token refresh rejected: %w", ErrReauthRequired)
			}
			m.logger.Warn("Token refresh failed, keeping credentials for retry.", "account", m.account, "error", err)
			return nil, fmt.Errorf("token refresh failed: %w", &TransientError{Status: retrieveErr.Response.StatusCode, Err: err})
		}
		m.logger.Warn("Token refresh failed, keeping credentials for retry.", "account", m.account, "error", err)
		return nil, fmt.Errorf("token refresh failed: %w", &TransientError{Err: err})
	}

	// The refresh endpoint may omit the refresh token; carry the old one.
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = token.RefreshToken
	}

	if err := m.store.Set(m.account, refreshed); err != nil {
		m.logger.Error("Failed to persist refreshed token", "error", err)
	}
	m.token = refreshed
	m.logger.Debug("Refreshed access token.", "account", m.account)
	return refreshed, nil
}

// IsAuthenticated reports whether a non-expired or refreshable credential
// exists for the account.
func (m *TokenManager) IsAuthenticated() bool {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if token == nil {
		stored, err := m.store.Get(m.account)
		if err != nil {
			return false
		}
		token = stored
	}
	return token.Valid() || token.RefreshToken != ""
}

// Revoke invalidates the credential remotely on a best-effort basis and then
// unconditionally clears it locally. Remote failures are logged, not
// propagated; the account ends up unauthenticated regardless.
func (m *TokenManager) Revoke(ctx context.Context) error {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()
	if token == nil {
		token, _ = m.store.Get(m.account)
	}

	if token != nil {
		revocable := token.RefreshToken
		if revocable == "" {
			revocable = token.AccessToken
		}
		if err := m.postRevocation(ctx, revocable); err != nil {
			m.logger.Warn("Remote token revocation failed, clearing local credentials anyway.",
				"account", m.account, "error", err)
		}
	}

	m.mu.Lock()
	m.token = nil
	m.mu.Unlock()

	if err := m.store.Clear(m.account); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	m.logger.Info("Disconnected from Google Calendar.", "account", m.account)
	return nil
}

func (m *TokenManager) postRevocation(ctx context.Context, token string) error {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("revocation endpoint returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// TokenSource returns an oauth2.TokenSource backed by the manager, so API
// clients pick up refreshed tokens and refreshes land in the store.
func (m *TokenManager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &managerTokenSource{ctx: ctx, m: m}
}

type managerTokenSource struct {
	ctx context.Context
	m   *TokenManager
}

func (s *managerTokenSource) Token() (*oauth2.Token, error) {
	return s.m.currentToken(s.ctx)
}
