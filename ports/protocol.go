package ports

import (
	"context"

	"github.com/layer-3/casque/core"
)

// ProtocolClient performs one round trip with the challenge-issuing authority.
// Transport faults and timeouts are reported as core.OutcomeError, never as a panic
// or a separate error value.
type ProtocolClient interface {
	Send(ctx context.Context, req core.AccessRequest) core.Exchange
}

// Directory resolves user claims
type Directory interface {
	// GetClaim returns ok=false when the user has no value for the claim
	GetClaim(ctx context.Context, username, claimURI string) (value string, ok bool, err error)
}

// ChallengePresenter renders a challenge and waits for the user's answer
type ChallengePresenter interface {
	PresentChallenge(ctx context.Context, contextID, challenge string) error
}

// LogoutHandler ends an authenticated session. Implementations that cannot log out
// return core.ErrUnsupportedLogout.
type LogoutHandler interface {
	Logout(ctx context.Context, contextID string) error
}
