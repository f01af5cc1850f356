package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var secret = []byte("test-secret")

func sign(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return s
}

func whoami(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-User", UserEmail(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

func TestRequireAuth(t *testing.T) {
	h := NewAuthMiddleware(secret).RequireAuth(http.HandlerFunc(whoami))
	valid := jwt.MapClaims{"sub": 7, "email": "a@x.io", "exp": time.Now().Add(time.Hour).Unix()}

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, jwt.MapClaims{"sub": 7, "email": "a@x.io", "exp": time.Now().Add(-time.Hour).Unix()}, jwt.SigningMethodHS256), http.StatusUnauthorized},
		{"no email", "Bearer " + sign(t, jwt.MapClaims{"sub": 7}, jwt.SigningMethodHS256), http.StatusUnauthorized},
		{"ok", "Bearer " + sign(t, valid, jwt.SigningMethodHS256), http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusNoContent {
				assert.Equal(t, "a@x.io", rec.Header().Get("X-User"))
			}
		})
	}
}

func TestRateLimiterPerUser(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, zap.NewNop())
	h := rl.Handler(http.HandlerFunc(whoami))

	do := func(id int64) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if id != 0 {
			req = req.WithContext(WithUser(req.Context(), id, "u@x.io"))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do(1))
	assert.Equal(t, http.StatusNoContent, do(1))
	assert.Equal(t, http.StatusTooManyRequests, do(1))
	assert.Equal(t, http.StatusNoContent, do(2), "other users keep their own budget")
	assert.Equal(t, http.StatusNoContent, do(0))

	rl.now = func() time.Time { return time.Now().Add(time.Minute) }
	assert.Equal(t, 3, rl.Cleanup(time.Second))
	assert.Equal(t, http.StatusNoContent, do(1))
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1000, 10, zap.NewNop())
	clock := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	rl.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}
	h := rl.Handler(http.HandlerFunc(whoami))

	for i := 0; i < 500; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = fmt.Sprintf("10.0.%d.%d:4000", i/256, i%256)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	rl.mu.Lock()
	assert.Len(t, rl.limiters, 500)
	rl.mu.Unlock()

	mu.Lock()
	clock = clock.Add(10 * time.Minute)
	mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl.StartCleanup(ctx, 5*time.Millisecond, time.Minute)
	require.Eventually(t, func() bool {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		return len(rl.limiters) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestZapRequestLoggerLevelsAndUser(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	auth := NewAuthMiddleware(secret)
	h := ZapRequestLogger(zap.New(core))(auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.MapClaims{"sub": 42, "email": "a@x.io"}, jwt.SigningMethodHS256))
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	fields := entry.ContextMap()
	assert.EqualValues(t, 503, fields["status"])
	assert.EqualValues(t, 42, fields["user_id"])
	assert.Equal(t, "/api/me", fields["path"])

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/me", nil))
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
	_, hasUser := logs.All()[1].ContextMap()["user_id"]
	assert.False(t, hasUser)
}
