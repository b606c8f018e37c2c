package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/luofilm/luofilm/pkg/httpx"
	"github.com/luofilm/luofilm/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler, mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestAuthnAndScopes(t *testing.T) {
	hs, err := jwtx.NewHS256([]byte(strings.Repeat("k", jwtx.MinSecretLen)), "")
	require.NoError(t, err)

	var gotUser string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = httpx.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := httpx.Chain(inner, httpx.AuthnMiddleware(hs), httpx.RequireAnyScope(jwtx.ScopeAdminWrite))

	call := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing bearer", func(t *testing.T) {
		rec := call("")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("bad token", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, call("nope").Code)
	})

	t.Run("insufficient scope", func(t *testing.T) {
		tok, err := hs.Sign(jwtx.NewClaims("u1", []string{"profile:read"}, time.Minute, "", time.Now()))
		require.NoError(t, err)
		rec := call(tok)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Body.String(), "insufficient_scope")
	})

	t.Run("admin passes", func(t *testing.T) {
		tok, err := hs.Sign(jwtx.NewClaims("admin-1", []string{jwtx.ScopeAdminWrite}, time.Minute, "", time.Now()))
		require.NoError(t, err)
		require.Equal(t, http.StatusNoContent, call(tok).Code)
		require.Equal(t, "admin-1", gotUser)
	})
}

func TestWriteJSONForbidsCaching(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteJSON(rec, http.StatusOK, map[string]bool{"ok": true})

	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	require.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	require.Equal(t, "0", rec.Header().Get("Expires"))
}
