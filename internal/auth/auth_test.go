package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/eduflow/internal"
	"github.com/yourname/eduflow/internal/config"
)

func TestLocalAuthProvider(t *testing.T) {
	p := NewLocalAuthProvider("MOCK-TOKEN", "u1", internal.NewNopLogger())
	user, err := p.Authenticate(context.Background(), "MOCK-TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = p.Authenticate(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTAuthProvider(t *testing.T) {
	p := NewJWTAuthProvider([]byte("secret"), internal.NewNopLogger())
	token, err := p.Issue("u42", "Ada", time.Hour)
	require.NoError(t, err)

	user, err := p.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u42", user.ID)
	assert.Equal(t, "Ada", user.Name)

	expired, err := p.Issue("u42", "Ada", -time.Minute)
	require.NoError(t, err)
	_, err = p.Authenticate(context.Background(), expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewJWTAuthProvider([]byte("other"), internal.NewNopLogger())
	forged, err := other.Issue("u42", "Ada", time.Hour)
	require.NoError(t, err)
	_, err = p.Authenticate(context.Background(), forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSubject, err := p.Issue("", "Ada", time.Hour)
	require.NoError(t, err)
	_, err = p.Authenticate(context.Background(), noSubject)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRemoteAuthProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["token"] != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(internal.User{ID: "remote-1", Name: "Remote"})
	}))
	defer srv.Close()

	p := NewRemoteAuthProvider(srv.URL, internal.NewNopLogger())
	user, err := p.Authenticate(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "remote-1", user.ID)

	_, err = p.Authenticate(context.Background(), "bad")
	assert.Error(t, err)
}

func TestNewProviderByMode(t *testing.T) {
	logger := internal.NewNopLogger()
	p, err := NewProvider(&config.Config{AuthMode: "local", AuthToken: "t", AuthUserID: "u"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &LocalAuthProvider{}, p)

	p, err = NewProvider(&config.Config{AuthMode: "jwt", JWTSecret: "s"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &JWTAuthProvider{}, p)

	_, err = NewProvider(&config.Config{AuthMode: "ldap"}, logger)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(NewLocalAuthProvider("MOCK-TOKEN", "u1", internal.NewNopLogger())))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, c.MustGet("user"))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer MOCK-TOKEN")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"u1"`)

	for _, header := range []string{"", "Bearer wrong", "MOCK-TOKEN"} {
		w = httptest.NewRecorder()
		req, _ = http.NewRequest("GET", "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}
