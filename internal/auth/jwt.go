package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookie carries the session token issued by the auth service
	SessionCookie = "ek_token"

	identityKey = "identity"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the session token payload
type Claims struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 session tokens
type Verifier struct {
	secret     []byte
	adminEmail string
}

// NewVerifier creates a verifier. A caller whose e-mail equals adminEmail is
// treated as admin even without the isAdmin claim.
func NewVerifier(secret, adminEmail string) *Verifier {
	return &Verifier{
		secret:     []byte(secret),
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
	}
}

// Verify parses a token and returns the caller it names
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	if len(v.secret) == 0 || tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	id := &Identity{
		AccountID: strings.TrimSpace(claims.UserID),
		Email:     strings.ToLower(strings.TrimSpace(claims.Email)),
		Name:      claims.Name,
		IsAdmin:   claims.IsAdmin,
	}
	if !id.Authenticated() {
		return nil, ErrInvalidToken
	}
	if v.adminEmail != "" && id.Email == v.adminEmail {
		id.IsAdmin = true
	}
	return id, nil
}

// Sign issues a session token for id
func (v *Verifier) Sign(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:  id.AccountID,
		Email:   id.Email,
		Name:    id.Name,
		IsAdmin: id.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// Middleware resolves the caller from the session cookie or a bearer token.
// Requests without a valid token continue anonymously; each operation decides
// whether that is allowed.
func (v *Verifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := v.Verify(tokenFromRequest(c.Request)); err == nil {
			c.Set(identityKey, id)
		}
		c.Next()
	}
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// FromContext returns the caller set by Middleware, or nil when anonymous
func FromContext(c *gin.Context) *Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*Identity)
	return id
}
