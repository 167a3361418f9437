package renewsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mkrupp/renewbot/internal/domain"
	"github.com/mkrupp/renewbot/internal/infra/logging"
)

// PanelClient defines the three remote operations a renewal needs. Each
// implementation must treat an expired bearer token as retryable exactly
// once; everything else surfaces as an error.
type PanelClient interface {
	// FetchUser retrieves the panel record for username.
	// Returns the record and true if found, or nil and false if the panel
	// does not know the name. A missing user is not an error.
	FetchUser(ctx context.Context, username string) (*domain.PanelUser, bool, error)

	// ModifyUser sets the account's expiry to the given Unix timestamp and
	// marks it active. Returns the updated record as reported by the panel.
	ModifyUser(ctx context.Context, username string, expire int64) (*domain.PanelUser, error)

	// ResetUsage zeroes the account's usage counters.
	ResetUsage(ctx context.Context, username string) error
}

// HTTPPanelClient implements PanelClient against the panel's HTTP API,
// authenticating every request with a bearer token from a TokenManager.
type HTTPPanelClient struct {
	base       string
	tokens     *TokenManager
	httpClient *http.Client
	log        logging.Logger
}

var _ PanelClient = (*HTTPPanelClient)(nil)

// NewHTTPPanelClient creates a new HTTPPanelClient for the given panel.
// If httpClient is nil, http.DefaultClient will be used.
func NewHTTPPanelClient(cfg PanelConfig, tokens *TokenManager, httpClient *http.Client) *HTTPPanelClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPPanelClient{
		base:       strings.TrimRight(cfg.Address, "/"),
		tokens:     tokens,
		httpClient: httpClient,
		log:        logging.GetLogger("svc.renewsvc.panel_client"),
	}
}

// FetchUser implements PanelClient.FetchUser.
func (pc *HTTPPanelClient) FetchUser(ctx context.Context, username string) (*domain.PanelUser, bool, error) {
	status, body, err := pc.do(ctx, http.MethodGet, "/api/user/"+username, nil)
	if err != nil {
		return nil, false, err
	}

	switch status {
	case http.StatusOK:
		var user domain.PanelUser

		if err := json.Unmarshal(body, &user); err != nil {
			return nil, false, fmt.Errorf("decode user: %w", err)
		}

		return &user, true, nil
	case http.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, &domain.RemoteError{StatusCode: status, Body: string(body)}
	}
}

// ModifyUser implements PanelClient.ModifyUser.
func (pc *HTTPPanelClient) ModifyUser(ctx context.Context, username string, expire int64) (*domain.PanelUser, error) {
	payload := map[string]any{
		"expire": expire,
		"status": "active",
	}

	status, body, err := pc.do(ctx, http.MethodPut, "/api/user/"+username, payload)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK && status != http.StatusCreated {
		return nil, &domain.RemoteError{StatusCode: status, Body: string(body)}
	}

	var user domain.PanelUser

	if err := json.Unmarshal(body, &user); err != nil {
		// The mutation went through; a malformed echo is not worth failing
		// the renewal over.
		user = domain.PanelUser{Username: username, Status: "active", Expire: expire}
	}

	return &user, nil
}

// ResetUsage implements PanelClient.ResetUsage.
func (pc *HTTPPanelClient) ResetUsage(ctx context.Context, username string) error {
	status, body, err := pc.do(ctx, http.MethodPost, "/api/user/"+username+"/reset", nil)
	if err != nil {
		return err
	}

	if status != http.StatusOK && status != http.StatusNoContent {
		return &domain.RemoteError{StatusCode: status, Body: string(body)}
	}

	return nil
}

// do issues one panel request under the retry-once-on-unauthorized protocol:
// a 401 on the first attempt invalidates the shared token and the request is
// repeated exactly once with a fresh one. A 401 on the second attempt is
// returned to the caller like any other status. Transport failures become
// remote errors.
func (pc *HTTPPanelClient) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var bodyBytes []byte

	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode payload: %w", err)
		}

		bodyBytes = encoded
	}

	for attempt := 0; ; attempt++ {
		token, err := pc.tokens.Token(ctx)
		if err != nil {
			return 0, nil, fmt.Errorf("get token: %w", err)
		}

		var reqBody io.Reader
		if bodyBytes != nil {
			reqBody = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, pc.base+path, reqBody)
		if err != nil {
			return 0, nil, fmt.Errorf("new request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+token)

		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := pc.httpClient.Do(req)
		if err != nil {
			return 0, nil, &domain.RemoteError{Body: err.Error()}
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if err != nil {
			return 0, nil, fmt.Errorf("read body: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			pc.log.DebugContext(ctx, "token rejected, retrying with fresh token",
				logging.Group("request", "method", method, "path", path),
			)
			pc.tokens.Invalidate()

			continue
		}

		return resp.StatusCode, respBody, nil
	}
}
