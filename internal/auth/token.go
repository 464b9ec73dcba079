// Package auth verifies the bearer tokens presented by clients at connection
// time. Token issuance belongs to the main platform; this service only
// consumes them.
package auth

import (
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// The three admission failure modes are kept distinct so clients can tell
// "log in again" apart from a malformed credential.
var (
	ErrTokenMissing = errors.New("auth: token missing")
	ErrTokenInvalid = errors.New("auth: token invalid")
	ErrNoIdentity   = errors.New("auth: no usable identity claim")
)

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks an HS256 token against the shared signing secret and returns
// the user identity it carries.
func (v *Verifier) Verify(token string) (int64, error) {
	if token == "" {
		return 0, ErrTokenMissing
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return 0, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrTokenInvalid
	}

	// The platform has issued identities under different claim names over
	// time; collapse them here so nothing downstream has to care.
	for _, name := range []string{"id", "userId", "sub"} {
		if id, ok := userIDClaim(claims[name]); ok {
			return id, nil
		}
	}
	return 0, ErrNoIdentity
}

func userIDClaim(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case float64:
		if v > 0 {
			return int64(v), true
		}
	case string:
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			return id, true
		}
	}
	return 0, false
}
