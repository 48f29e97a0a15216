package auth

import (
	"context"
	"errors"
)

// TokenValidator abstracts status-API bearer-token validation. The
// status API's RequireBearer/RequireRole middleware depends only on
// this interface, so JWTManager and StaticTokenValidator are
// interchangeable (and composable via CompositeTokenValidator) behind it.
type TokenValidator interface {
	// ValidateToken validates token and returns its claims.
	// Returns an error if the token is invalid, expired, or malformed.
	ValidateToken(ctx context.Context, token string) (*Claims, error)

	// Name identifies the validator, for logging which method accepted
	// (or rejected) a given request.
	Name() string
}

// ErrNoValidatorMatched is returned when no validator in a
// CompositeTokenValidator's chain accepts the token.
var ErrNoValidatorMatched = errors.New("no validator could validate the token")

// CompositeTokenValidator accepts a bearer token if any one of its
// validators does, letting cmd/coordinator offer both a signed JWT and
// a static operator token on the same status API without the
// middleware needing to know which one a request used.
type CompositeTokenValidator struct {
	validators []TokenValidator
}

// NewCompositeTokenValidator builds a validator that tries each of
// validators in order, stopping at the first success.
func NewCompositeTokenValidator(validators ...TokenValidator) *CompositeTokenValidator {
	return &CompositeTokenValidator{validators: validators}
}

// ValidateToken tries each validator in order until one succeeds.
func (c *CompositeTokenValidator) ValidateToken(ctx context.Context, token string) (*Claims, error) {
	if len(c.validators) == 0 {
		return nil, ErrNoValidatorMatched
	}

	var lastErr error
	for _, v := range c.validators {
		claims, err := v.ValidateToken(ctx, token)
		if err == nil {
			return claims, nil
		}
		lastErr = err
	}

	// Return the last error (most specific)
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNoValidatorMatched
}

// Name returns the fixed name "composite"; it does not list the chained validators
func (c *CompositeTokenValidator) Name() string {
	return "composite"
}

// AddValidator adds a validator to the chain
func (c *CompositeTokenValidator) AddValidator(v TokenValidator) {
	c.validators = append(c.validators, v)
}
