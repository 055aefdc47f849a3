package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signTestToken(t *testing.T, secret string, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newAuthedHandler(t *testing.T) (http.HandlerFunc, *uuid.UUID) {
	t.Helper()
	server := NewServer(nil, nil, nil, nil, testSecret, time.Hour)
	var seen uuid.UUID
	handler := server.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		seen = userIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return handler, &seen
}

func TestRequireAuthAcceptsCookie(t *testing.T) {
	handler, seen := newAuthedHandler(t)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: authCookieName, Value: signTestToken(t, testSecret, userID.String())})
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, *seen)
}

func TestRequireAuthAcceptsBearerFallback(t *testing.T) {
	handler, seen := newAuthedHandler(t)
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, testSecret, userID.String()))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, *seen)
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	handler, _ := newAuthedHandler(t)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsForgedToken(t *testing.T) {
	handler, _ := newAuthedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: authCookieName, Value: signTestToken(t, "other-secret", uuid.NewString())})
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthRejectsGarbageClaims(t *testing.T) {
	handler, _ := newAuthedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: authCookieName, Value: signTestToken(t, testSecret, "not-a-uuid")})
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	// Other clients are unaffected.
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)
	defer rl.Stop()

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.Eventually(t, func() bool {
		return rl.Allow("10.0.0.1")
	}, time.Second, 10*time.Millisecond)
}
