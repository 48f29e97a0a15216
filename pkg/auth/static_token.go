package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"
)

// ErrStaticTokenMismatch is returned when the presented token does not
// match the configured static operator token.
var ErrStaticTokenMismatch = errors.New("static token mismatch")

// StaticTokenValidator validates a single pre-shared operator token,
// for standing up the status API before an operator has bothered to
// configure JWT issuance. Comparison is constant-time since the token
// doubles as a shared secret.
type StaticTokenValidator struct {
	token string
}

// NewStaticTokenValidator creates a validator for a fixed shared secret.
func NewStaticTokenValidator(token string) *StaticTokenValidator {
	return &StaticTokenValidator{token: token}
}

// ValidateToken accepts exactly the configured token and issues an
// operator-role claim with no expiry tracking (the token itself is
// the credential, not a session).
func (v *StaticTokenValidator) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	if subtle.ConstantTimeCompare([]byte(token), []byte(v.token)) != 1 {
		return nil, ErrStaticTokenMismatch
	}
	return &Claims{
		UserID:   "static",
		Username: "static",
		Role:     RoleOperator,
		IssuedAt: time.Now(),
	}, nil
}

// Name identifies this validator in CompositeTokenValidator's chain.
func (v *StaticTokenValidator) Name() string {
	return "static"
}
