package renewsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/mkrupp/renewbot/internal/domain"
	"github.com/mkrupp/renewbot/internal/infra/logging"
)

// PanelConfig holds connection parameters for the remote panel.
type PanelConfig struct {
	// Address is the base URL of the panel, e.g. "https://panel.example.com"
	Address string `env:"ADDRESS"`

	// Username is the panel admin account used for the credential exchange
	Username string `env:"USERNAME"`

	// Password is the panel admin password
	Password string `env:"PASSWORD"`
}

// TokenManager owns the lifecycle of the single bearer token used against
// the panel. It obtains a token on demand and caches it; it keeps no local
// expiry clock and learns of expiry only when a caller reports a rejected
// token via Invalidate.
type TokenManager struct {
	cfg        PanelConfig
	httpClient *http.Client
	log        logging.Logger

	mu    sync.Mutex
	token string
}

// NewTokenManager creates a new TokenManager for the given panel.
// If httpClient is nil, http.DefaultClient will be used.
func NewTokenManager(cfg PanelConfig, httpClient *http.Client) *TokenManager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	cfg.Address = strings.TrimRight(cfg.Address, "/")

	return &TokenManager{
		cfg:        cfg,
		httpClient: httpClient,
		log:        logging.GetLogger("svc.renewsvc.token_manager"),
	}
}

// Token returns the cached bearer token, performing the credential exchange
// first when the cache is empty. Concurrent callers share one exchange.
func (tm *TokenManager) Token(ctx context.Context) (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.token != "" {
		return tm.token, nil
	}

	token, err := tm.exchange(ctx)
	if err != nil {
		return "", err
	}

	tm.token = token

	return token, nil
}

// Invalidate clears the cached token unconditionally. Safe to call from
// concurrent operations; a spurious invalidation only costs one extra
// credential exchange.
func (tm *TokenManager) Invalidate() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.token = ""

	tm.log.Debug("token invalidated")
}

func (tm *TokenManager) exchange(ctx context.Context) (_ string, err error) {
	log := tm.log

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "credential exchange failed", "error", err)
		} else {
			log.DebugContext(ctx, "credential exchange succeeded")
		}
	}()

	form := url.Values{}
	form.Set("username", tm.cfg.Username)
	form.Set("password", tm.cfg.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		tm.cfg.Address+"/api/admin/token",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := tm.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrAuthFailed, resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: decode body: %w", domain.ErrAuthFailed, err)
	}

	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: response carries no access token", domain.ErrAuthFailed)
	}

	return payload.AccessToken, nil
}
