package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_RoundTrip(t *testing.T) {
	v := NewVerifier("test-secret", "")

	token, err := v.Sign(Identity{AccountID: "acct-1", Email: "Asha@Example.com", Name: "Asha"}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", id.AccountID)
	assert.Equal(t, "asha@example.com", id.Email)
	assert.False(t, id.IsAdmin)
}

func TestVerify_AdminEmail(t *testing.T) {
	v := NewVerifier("test-secret", " Admin@Example.com ")

	token, err := v.Sign(Identity{AccountID: "acct-9", Email: "admin@example.com"}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin)
}

func TestVerify_Rejects(t *testing.T) {
	v := NewVerifier("test-secret", "")
	other := NewVerifier("other-secret", "")

	wrongKey, err := other.Sign(Identity{AccountID: "acct-1"}, time.Hour)
	require.NoError(t, err)
	expired, err := v.Sign(Identity{AccountID: "acct-1"}, -time.Minute)
	require.NoError(t, err)
	noSubject, err := v.Sign(Identity{Name: "ghost"}, time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":      "",
		"garbage":    "not-a-jwt",
		"wrong key":  wrongKey,
		"expired":    expired,
		"no subject": noSubject,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerify_NoSecretConfigured(t *testing.T) {
	signer := NewVerifier("s", "")
	token, err := signer.Sign(Identity{AccountID: "a"}, time.Hour)
	require.NoError(t, err)

	_, err = NewVerifier("", "").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestOwnerKey(t *testing.T) {
	byAccount := &Identity{AccountID: "acct-1", Email: "a@example.com"}
	byEmail := &Identity{Email: "A@Example.com "}
	sameEmail := &Identity{Email: "a@example.com"}
	var anonymous *Identity

	assert.Len(t, byAccount.OwnerKey(), 16)
	assert.Equal(t, byEmail.OwnerKey(), sameEmail.OwnerKey())
	assert.NotEqual(t, byAccount.OwnerKey(), byEmail.OwnerKey())
	assert.Len(t, anonymous.OwnerKey(), 16)
	assert.NotEqual(t, anonymous.OwnerKey(), byAccount.OwnerKey())
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := NewVerifier("test-secret", "")
	token, err := v.Sign(Identity{AccountID: "acct-1", Email: "a@example.com"}, time.Hour)
	require.NoError(t, err)

	var seen *Identity
	router := gin.New()
	router.Use(v.Middleware())
	router.GET("/", func(c *gin.Context) {
		seen = FromContext(c)
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		want    string
	}{
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token}) }, "acct-1"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, "acct-1"},
		{"invalid token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, ""},
		{"anonymous", func(r *http.Request) {}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusNoContent, w.Code)
			if tt.want == "" {
				assert.Nil(t, seen)
				assert.False(t, seen.Authenticated())
			} else {
				require.NotNil(t, seen)
				assert.Equal(t, tt.want, seen.AccountID)
			}
		})
	}
}
