package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Identity is the verified caller of a request. A nil *Identity is anonymous.
type Identity struct {
	AccountID string
	Email     string
	Name      string
	IsAdmin   bool
}

func (id *Identity) Authenticated() bool {
	return id != nil && (id.AccountID != "" || id.Email != "")
}

func (id *Identity) Admin() bool {
	return id != nil && id.IsAdmin
}

// OwnerKey is a short stable hash of the caller used to namespace temporary
// uploads without exposing the account id or e-mail.
func (id *Identity) OwnerKey() string {
	subject := "anon"
	if id != nil {
		if id.AccountID != "" {
			subject = id.AccountID
		} else if id.Email != "" {
			subject = id.Email
		}
	}
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(subject))))
	return hex.EncodeToString(sum[:])[:16]
}

// Label names the caller in audit fields, preferring the e-mail
func (id *Identity) Label() string {
	if id == nil {
		return ""
	}
	if id.Email != "" {
		return id.Email
	}
	return id.AccountID
}
