package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/educypnishi/embassydemo/internal/faults"
	"github.com/educypnishi/embassydemo/internal/session"
	"github.com/educypnishi/embassydemo/internal/simrand"
)

func performWith(t *testing.T, mw gin.HandlerFunc, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/probe", mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireSession(t *testing.T) {
	rng := simrand.New(1)
	registry := session.NewRegistry(session.NewMemoryStore(), rng)
	registry.SetEarlyExpiryChance(0)

	s, err := registry.Create(context.Background(), "someone")
	require.NoError(t, err)

	mw := RequireSession(registry)

	w := performWith(t, mw, "/probe", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Session expired")

	w = performWith(t, mw, "/probe", map[string]string{HeaderSessionToken: s.Token})
	require.Equal(t, http.StatusOK, w.Code)

	// Query fallback works too.
	w = performWith(t, mw, "/probe?token="+s.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdminKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)

	mw := RequireAdminKey(string(hash))

	w := performWith(t, mw, "/probe", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = performWith(t, mw, "/probe", map[string]string{HeaderAdminKey: "wrong"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = performWith(t, mw, "/probe", map[string]string{HeaderAdminKey: "letmein"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdminKeyOpenWhenUnset(t *testing.T) {
	w := performWith(t, RequireAdminKey(""), "/probe", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestInjectFaultsPassesAndShortCircuits(t *testing.T) {
	rng := simrand.New(1)

	clean := faults.Class{Name: "clean"}
	w := performWith(t, InjectFaults(faults.New(rng, nil), clean), "/probe", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// A full error budget always short-circuits into 429 or 503.
	doomed := faults.Class{Name: "doomed", ErrorBudget: 1}
	for i := 0; i < 20; i++ {
		w = performWith(t, InjectFaults(faults.New(rng, nil), doomed), "/probe", nil)
		require.Contains(t, []int{http.StatusTooManyRequests, http.StatusServiceUnavailable}, w.Code)
		require.Contains(t, w.Body.String(), "heavyLoad")
	}
}

func TestRequireMonth(t *testing.T) {
	mw := RequireMonth()

	for _, target := range []string{"/probe", "/probe?month=2026", "/probe?month=December+2026", "/probe?month=2026-13"} {
		w := performWith(t, mw, target, nil)
		require.Equal(t, http.StatusBadRequest, w.Code, target)
	}

	w := performWith(t, mw, "/probe?month=2026-09", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireDate(t *testing.T) {
	mw := RequireDate()

	for _, target := range []string{"/probe", "/probe?date=2026-09", "/probe?date=14-09-2026"} {
		w := performWith(t, mw, target, nil)
		require.Equal(t, http.StatusBadRequest, w.Code, target)
	}

	w := performWith(t, mw, "/probe?date=2026-09-14", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
