package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

// clockSkew is the tolerated difference between the token issuer's clock
// and ours when checking expiry.
const clockSkew = 2 * time.Minute

// subjectClaims are checked in order for the authenticated user ID.
var subjectClaims = []string{"sub", "userId", "nameid"}

// Error is a token rejection. The boundary maps every Error to the same
// 401 response, carrying only the short reason.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return "unauthorized: " + e.Reason
}

// Validator verifies bearer tokens signed with the shared HMAC secret.
type Validator struct {
	secrets SecretProvider
}

// NewValidator creates a Validator backed by the given secret provider.
func NewValidator(secrets SecretProvider) *Validator {
	return &Validator{secrets: secrets}
}

// Validate extracts and verifies the bearer token from request headers
// and returns the authenticated user ID. Every token problem comes back
// as *Error; any other error is an infrastructure failure (secret
// retrieval) and must not be reported as unauthorized.
func (v *Validator) Validate(ctx context.Context, headers map[string]string) (string, error) {
	raw, ok := headerValue(headers, "Authorization")
	if !ok {
		return "", &Error{Reason: "missing Authorization header"}
	}
	if len(raw) < len(bearerPrefix) || !strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
		return "", &Error{Reason: "invalid Authorization header"}
	}
	token := strings.TrimSpace(raw[len(bearerPrefix):])
	if token == "" {
		return "", &Error{Reason: "token missing"}
	}

	secret, err := v.secrets.GetSecret(ctx)
	if err != nil {
		return "", err
	}

	parsed, err := jwt.Parse(token,
		func(t *jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithLeeway(clockSkew),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", &Error{Reason: "token expired"}
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", &Error{Reason: "invalid signature"}
		default:
			return "", &Error{Reason: "token invalid"}
		}
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", &Error{Reason: "token invalid"}
	}
	for _, name := range subjectClaims {
		if sub, ok := claims[name].(string); ok && sub != "" {
			return sub, nil
		}
	}
	return "", &Error{Reason: "token missing sub claim"}
}

// headerValue finds a header case-insensitively; API Gateway does not
// normalize header casing.
func headerValue(headers map[string]string, name string) (string, bool) {
	if v, ok := headers[name]; ok {
		return v, true
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
