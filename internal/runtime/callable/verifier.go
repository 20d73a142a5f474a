package callable

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// UnverifiedVerifier decodes a JWT without checking its signature and
// returns the claims as-is. The emulator issues unsigned development tokens,
// so signature verification is skipped there; production deployments must
// use a real verifier.
type UnverifiedVerifier struct{}

// Verify implements TokenVerifier.
func (UnverifiedVerifier) Verify(_ context.Context, token string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return map[string]any(claims), nil
}
