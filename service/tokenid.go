package service

import (
	"context"
	"fmt"

	"github.com/layer-3/casque/core"
	"github.com/layer-3/casque/ports"
)

// TokenIDResolver looks up and validates a user's CASQUE token id.
// Results are never cached: every call reads the directory.
type TokenIDResolver struct {
	directory ports.Directory
}

// NewTokenIDResolver creates a resolver backed by directory
func NewTokenIDResolver(directory ports.Directory) *TokenIDResolver {
	return &TokenIDResolver{directory: directory}
}

// Resolve returns the token id of username. It fails with core.ErrTokenUnavailable when the
// directory has no value and with core.ErrTokenMalformed when the value has the wrong format.
func (r *TokenIDResolver) Resolve(ctx context.Context, username string) (core.TokenID, error) {
	value, ok, err := r.directory.GetClaim(ctx, username, core.TokenIDClaim)
	if err != nil {
		return "", fmt.Errorf("%w: unable to get token id for user %s: %w", core.ErrTokenUnavailable, username, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: token id is null for user %s", core.ErrTokenUnavailable, username)
	}

	return core.ParseTokenID(value, username)
}
