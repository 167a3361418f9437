package renewsvc_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mkrupp/renewbot/internal/domain"
	"github.com/mkrupp/renewbot/internal/svc/renewsvc"
)

// panelFixture is a fake panel that issues sequentially numbered tokens and
// lets each test script the responses of the user endpoints.
type panelFixture struct {
	tokenCalls atomic.Int64
	opCalls    atomic.Int64

	// handle receives the request once the fixture has counted it.
	handle func(callNo int64, w http.ResponseWriter, r *http.Request)

	server *httptest.Server
}

func newPanelFixture(t *testing.T, handle func(callNo int64, w http.ResponseWriter, r *http.Request)) *panelFixture {
	t.Helper()

	fixture := &panelFixture{handle: handle}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/admin/token", func(w http.ResponseWriter, r *http.Request) {
		n := fixture.tokenCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": fmt.Sprintf("token%d", n),
		})
	})
	mux.HandleFunc("/api/user/", func(w http.ResponseWriter, r *http.Request) {
		fixture.handle(fixture.opCalls.Add(1), w, r)
	})

	fixture.server = httptest.NewServer(mux)
	t.Cleanup(fixture.server.Close)

	return fixture
}

func (f *panelFixture) client() *renewsvc.HTTPPanelClient {
	cfg := renewsvc.PanelConfig{
		Address:  f.server.URL,
		Username: "admin",
		Password: "pass",
	}

	return renewsvc.NewHTTPPanelClient(cfg, renewsvc.NewTokenManager(cfg, nil), nil)
}

// rejectFirstToken answers 401 to the first call (which must carry token1)
// and runs ok on the second (which must carry token2).
func rejectFirstToken(t *testing.T, ok func(w http.ResponseWriter, r *http.Request)) func(int64, http.ResponseWriter, *http.Request) {
	t.Helper()

	return func(callNo int64, w http.ResponseWriter, r *http.Request) {
		switch callNo {
		case 1:
			if got := r.Header.Get("Authorization"); got != "Bearer token1" {
				t.Errorf("first attempt Authorization = %q, want %q", got, "Bearer token1")
			}

			w.WriteHeader(http.StatusUnauthorized)
		default:
			if got := r.Header.Get("Authorization"); got != "Bearer token2" {
				t.Errorf("retry Authorization = %q, want %q", got, "Bearer token2")
			}

			ok(w, r)
		}
	}
}

func TestHTTPPanelClient_FetchUser_Reauth(t *testing.T) {
	t.Parallel()

	fixture := newPanelFixture(t, rejectFirstToken(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.PanelUser{Username: "alice", Status: "active", Expire: 123})
	}))

	user, found, err := fixture.client().FetchUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FetchUser() error = %v", err)
	}
	if !found {
		t.Fatal("FetchUser() found = false, want true")
	}
	if user.Username != "alice" {
		t.Errorf("FetchUser() username = %q, want %q", user.Username, "alice")
	}
	if got := fixture.tokenCalls.Load(); got != 2 {
		t.Errorf("token calls = %d, want 2", got)
	}
	if got := fixture.opCalls.Load(); got != 2 {
		t.Errorf("user calls = %d, want 2", got)
	}
}

func TestHTTPPanelClient_ModifyUser_Reauth(t *testing.T) {
	t.Parallel()

	fixture := newPanelFixture(t, rejectFirstToken(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %q, want PUT", r.Method)
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload["status"] != "active" {
			t.Errorf("payload status = %v, want active", payload["status"])
		}

		_ = json.NewEncoder(w).Encode(domain.PanelUser{Username: "alice", Status: "active", Expire: 123})
	}))

	user, err := fixture.client().ModifyUser(context.Background(), "alice", 123)
	if err != nil {
		t.Fatalf("ModifyUser() error = %v", err)
	}
	if user.Expire != 123 {
		t.Errorf("ModifyUser() expire = %d, want 123", user.Expire)
	}
	if got := fixture.tokenCalls.Load(); got != 2 {
		t.Errorf("token calls = %d, want 2", got)
	}
	if got := fixture.opCalls.Load(); got != 2 {
		t.Errorf("put calls = %d, want 2", got)
	}
}

func TestHTTPPanelClient_ResetUsage_Reauth(t *testing.T) {
	t.Parallel()

	fixture := newPanelFixture(t, rejectFirstToken(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := fixture.client().ResetUsage(context.Background(), "alice"); err != nil {
		t.Fatalf("ResetUsage() error = %v", err)
	}
	if got := fixture.tokenCalls.Load(); got != 2 {
		t.Errorf("token calls = %d, want 2", got)
	}
	if got := fixture.opCalls.Load(); got != 2 {
		t.Errorf("reset calls = %d, want 2", got)
	}
}

func TestHTTPPanelClient_SecondUnauthorizedIsFatal(t *testing.T) {
	t.Parallel()

	fixture := newPanelFixture(t, func(_ int64, w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, _, err := fixture.client().FetchUser(context.Background(), "alice")

	var remoteErr *domain.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("FetchUser() error = %v, want RemoteError", err)
	}
	if remoteErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", remoteErr.StatusCode)
	}

	// Exactly one retry, never a third attempt.
	if got := fixture.opCalls.Load(); got != 2 {
		t.Errorf("user calls = %d, want 2", got)
	}
}

func TestHTTPPanelClient_FetchUser_NotFound(t *testing.T) {
	t.Parallel()

	fixture := newPanelFixture(t, func(_ int64, w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	user, found, err := fixture.client().FetchUser(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("FetchUser() error = %v, want nil for 404", err)
	}
	if found || user != nil {
		t.Errorf("FetchUser() = (%v, %v), want (nil, false)", user, found)
	}
}

func TestHTTPPanelClient_ServerErrorIsRemote(t *testing.T) {
	t.Parallel()

	fixture := newPanelFixture(t, func(_ int64, w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})

	err := fixture.client().ResetUsage(context.Background(), "alice")

	var remoteErr *domain.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("ResetUsage() error = %v, want RemoteError", err)
	}
	if remoteErr.StatusCode != http.StatusInternalServerError || remoteErr.Body != "boom" {
		t.Errorf("RemoteError = %+v, want 500/boom", remoteErr)
	}
}

func TestHTTPPanelClient_TokenIsCachedAcrossOperations(t *testing.T) {
	t.Parallel()

	fixture := newPanelFixture(t, func(_ int64, w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.PanelUser{Username: "alice"})
	})

	client := fixture.client()

	for range 3 {
		if _, _, err := client.FetchUser(context.Background(), "alice"); err != nil {
			t.Fatalf("FetchUser() error = %v", err)
		}
	}

	if got := fixture.tokenCalls.Load(); got != 1 {
		t.Errorf("token calls = %d, want 1 (cached)", got)
	}
}

func TestTokenManager_ExchangeFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "bad credentials", http.StatusUnauthorized)
			},
		},
		{
			name: "unparsable body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
		},
		{
			name: "missing token field",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"token_type":"bearer"}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			manager := renewsvc.NewTokenManager(renewsvc.PanelConfig{
				Address:  server.URL,
				Username: "admin",
				Password: "pass",
			}, nil)

			if _, err := manager.Token(context.Background()); !errors.Is(err, domain.ErrAuthFailed) {
				t.Errorf("Token() error = %v, want ErrAuthFailed", err)
			}
		})
	}
}
