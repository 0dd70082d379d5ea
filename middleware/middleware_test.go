package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/tenantgate/database"
	"github.com/akinalp/tenantgate/handlers"
	"github.com/akinalp/tenantgate/models"
	"github.com/akinalp/tenantgate/pkg"
	"github.com/akinalp/tenantgate/pkg/metrics"
	"github.com/akinalp/tenantgate/tenant"
)

type envelope struct {
	Message string `json:"message"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

type fakeClients struct {
	opened []string
	err    error
}

func (f *fakeClients) Client(_ context.Context, id string) (*database.DB, error) {
	if err := tenant.Validate(id); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	f.opened = append(f.opened, id)
	return &database.DB{Name: id}, nil
}

func tenantEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := tenant.FromContext(r.Context())
		_, _ = w.Write([]byte(id))
	})
}

func TestTenantMiddleware(t *testing.T) {
	clients := &fakeClients{}
	h := NewTenantMiddleware(clients, "main", zap.NewNop()).Resolve(tenantEcho())

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set(tenant.Header, "acme")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "acme", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	require.Equal(t, "main", rec.Body.String(), "falls back to the default database")
	require.Equal(t, []string{"acme", "main"}, clients.opened)
}

func TestTenantMiddleware_Missing(t *testing.T) {
	h := NewTenantMiddleware(&fakeClients{}, "", zap.NewNop()).Resolve(tenantEcho())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.Equal(t, "DB_NAME_MISSING", env.Error.Code)
	require.Equal(t, "Database name not provided.", env.Message)
}

func TestTenantMiddleware_OpenFailure(t *testing.T) {
	clients := &fakeClients{err: pkg.NewInternalError("DB_CONNECTION_FAILED", errors.New("refused"))}
	h := NewTenantMiddleware(clients, "main", zap.NewNop()).Resolve(tenantEcho())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "DB_CONNECTION_FAILED", decode(t, rec).Error.Code)
}

type spyAuth struct {
	sessions       map[string]*models.Session
	lookupErr      error
	verifierCalled int
	verifyErr      error
}

func (s *spyAuth) GetSession(_ context.Context, token string) (*models.Session, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	if sess, ok := s.sessions[token]; ok {
		return sess, nil
	}
	return nil, pkg.NewAuthError("SESSION_NOT_FOUND", "Session not found.")
}

func (s *spyAuth) ValidateAccessToken(string) (*models.TokenClaims, error) {
	s.verifierCalled++
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return &models.TokenClaims{UserID: 1}, nil
}

func protectedEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := handlers.ClaimsFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": claims.UserID, "token": handlers.TokenFromContext(r.Context())})
	})
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		spy      *spyAuth
		status   int
		code     string
		verified int
	}{
		{
			name:   "missing header",
			spy:    &spyAuth{},
			status: http.StatusUnauthorized,
			code:   "TOKEN_REQUIRED",
		},
		{
			name:   "wrong scheme",
			header: "Basic abc",
			spy:    &spyAuth{},
			status: http.StatusUnauthorized,
			code:   "TOKEN_REQUIRED",
		},
		{
			name:   "unknown token never reaches the verifier",
			header: "Bearer nope",
			spy:    &spyAuth{},
			status: http.StatusUnauthorized,
			code:   "TOKEN_INVALID",
		},
		{
			name:   "inactive session",
			header: "Bearer tok",
			spy:    &spyAuth{sessions: map[string]*models.Session{"tok": {UserID: 1}}},
			status: http.StatusUnauthorized,
			code:   "TOKEN_INVALID",
		},
		{
			name:     "bad signature",
			header:   "Bearer tok",
			spy:      &spyAuth{sessions: map[string]*models.Session{"tok": {UserID: 1, IsActive: true}}, verifyErr: pkg.ErrUnauthorized},
			status:   http.StatusUnauthorized,
			code:     "TOKEN_INVALID",
			verified: 1,
		},
		{
			name:     "session of another user",
			header:   "Bearer tok",
			spy:      &spyAuth{sessions: map[string]*models.Session{"tok": {UserID: 2, IsActive: true}}},
			status:   http.StatusUnauthorized,
			code:     "TOKEN_INVALID",
			verified: 1,
		},
		{
			name:   "lookup failure",
			header: "Bearer tok",
			spy:    &spyAuth{lookupErr: pkg.NewInternalError("SESSION_FETCH_FAILED", errors.New("disk I/O error"))},
			status: http.StatusInternalServerError,
			code:   "SESSION_FETCH_FAILED",
		},
		{
			name:     "valid",
			header:   "bearer tok",
			spy:      &spyAuth{sessions: map[string]*models.Session{"tok": {UserID: 1, IsActive: true}}},
			status:   http.StatusOK,
			verified: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthMiddleware(tt.spy, zap.NewNop()).Require(protectedEcho())
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, tt.verified, tt.spy.verifierCalled)
			if tt.code != "" {
				require.Equal(t, tt.code, decode(t, rec).Error.Code)
				return
			}
			var body map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			require.Equal(t, "tok", body["token"])
		})
	}
}

func TestLoggingAndRecover(t *testing.T) {
	m := metrics.New(func() int { return 0 })
	mux := http.NewServeMux()
	mux.HandleFunc("GET /menu/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "boom" {
			panic("kaboom")
		}
		w.WriteHeader(http.StatusOK)
	})
	h := Chain(mux, Recover(zap.NewNop()), Logging(zap.NewNop(), m, nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/menu/7", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/menu/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "SERVER_ERROR", decode(t, rec).Error.Code)

	require.Equal(t, float64(1), testutil.ToFloat64(m.Requests.WithLabelValues("GET", "GET /menu/{id}", "200")))
}
