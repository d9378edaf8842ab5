package jobs

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSubject is the required "sub" claim of signed trigger tokens.
const TokenSubject = "jobs"

var (
	ErrMissingCredentials = errors.New("missing bearer token")
	ErrInvalidCredentials = errors.New("invalid bearer token")
)

// Authorizer gates job triggers with a shared secret. The bearer value must be
// the secret itself or an HS256 JWT signed with it. An empty secret leaves
// triggers open.
type Authorizer struct {
	secret []byte
}

func NewAuthorizer(secret string) *Authorizer {
	return &Authorizer{secret: []byte(secret)}
}

// Enabled reports whether a secret is configured.
func (a *Authorizer) Enabled() bool {
	return len(a.secret) > 0
}

// Check validates an Authorization header value.
func (a *Authorizer) Check(header string) error {
	if !a.Enabled() {
		return nil
	}
	token, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return ErrMissingCredentials
	}
	if subtle.ConstantTimeCompare([]byte(token), a.secret) == 1 {
		return nil
	}
	if a.validJWT(token) {
		return nil
	}
	return ErrInvalidCredentials
}

func (a *Authorizer) validJWT(token string) bool {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithSubject(TokenSubject), jwt.WithExpirationRequired())
	return err == nil && parsed.Valid
}

// MintToken signs a trigger token valid for ttl.
func MintToken(secret string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("secret is empty")
	}
	claims := jwt.RegisteredClaims{
		Subject:   TokenSubject,
		Issuer:    "jobctl",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
