package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tripplanner/internal/models"
	"tripplanner/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingLookupStorage fails every token lookup with a backend error.
type failingLookupStorage struct {
	storage.Storage
}

func (failingLookupStorage) GetUserByTokenHash(context.Context, string) (*models.User, error) {
	return nil, errors.New("connection reset")
}

// newTestUserWithToken stores a user and returns it with its raw token.
func newTestUserWithToken(t *testing.T, store storage.Storage, email string) (*models.User, string) {
	t.Helper()
	token, err := models.GenerateToken()
	require.NoError(t, err)
	user := models.NewUser(email, "Test User", token)
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user, token
}

func TestAuthMiddleware(t *testing.T) {
	store, err := storage.NewMemoryStorage(storage.Config{})
	require.NoError(t, err)
	user, token := newTestUserWithToken(t, store, "ada@example.com")

	var seen *models.User
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	mw := authMiddleware(store)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		wantUser       bool
	}{
		{"valid token returns 200", "Bearer " + token, http.StatusOK, true},
		{"missing authorization header returns 401", "", http.StatusUnauthorized, false},
		{"invalid token returns 401", "Bearer tp_not-a-real-token", http.StatusUnauthorized, false},
		{"invalid bearer format returns 401", "Token " + token, http.StatusUnauthorized, false},
		{"empty bearer token returns 401", "Bearer   ", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/trips", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			mw(handler).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.wantUser {
				require.NotNil(t, seen)
				assert.Equal(t, user.ID, seen.ID)
			} else {
				assert.Nil(t, seen)
				assert.Equal(t, models.ErrorCodeUnauthorized, decodeError(t, rr).Code)
			}
		})
	}
}

func TestAuthMiddleware_StorageFailure(t *testing.T) {
	mem, err := storage.NewMemoryStorage(storage.Config{})
	require.NoError(t, err)

	called := false
	handler := authMiddleware(failingLookupStorage{Storage: mem})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trips", nil)
	req.Header.Set("Authorization", "Bearer tp_whatever")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, models.ErrorCodeServiceUnavailable, decodeError(t, rr).Code)
}

func TestDemoUserMiddleware(t *testing.T) {
	demo := models.NewUser("demo@example.com", "Demo", "tp_demo")

	t.Run("injects demo user", func(t *testing.T) {
		var seen *models.User
		handler := demoUserMiddleware(demo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = UserFromContext(r.Context())
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/trips", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, seen)
		assert.Equal(t, demo.ID, seen.ID)
	})

	t.Run("no demo user configured", func(t *testing.T) {
		handler := demoUserMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/trips", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestUserFromContext_Empty(t *testing.T) {
	assert.Nil(t, UserFromContext(context.Background()))
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.1:1234", "198.51.100.2"},
		{"remote addr fallback", nil, "192.0.2.10:5555", "192.0.2.10:5555"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
