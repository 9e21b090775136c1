// Package casque implements CASQUE SNR challenge-response login.
//
// A login spans several HTTP round trips. The first carries a username; the service
// resolves the user's token id, asks the CASQUE SNR server for a challenge over RADIUS and
// shows it. Later round trips carry the user's answer until the server accepts or rejects.
// Nothing is kept in process memory between round trips: the attempt lives in a session
// store keyed by the sessionDataKey of the login page.
package casque

import (
	"context"

	"github.com/layer-3/casque/core"
	"github.com/layer-3/casque/ports"
	"github.com/layer-3/casque/service"
)

// Authenticator is the capability set a host framework drives
type Authenticator interface {
	// Process routes an invocation to Logout, Initiate or Resume
	Process(ctx context.Context, req *core.Request, presenter ports.ChallengePresenter) (core.Result, error)

	// Initiate starts a login for req.Username
	Initiate(ctx context.Context, req *core.Request, presenter ports.ChallengePresenter) (core.Result, error)

	// Resume answers the outstanding challenge of the attempt
	Resume(ctx context.Context, req *core.Request, presenter ports.ChallengePresenter) (core.Result, error)

	// Logout ends the session of the attempt
	Logout(ctx context.Context, req *core.Request) (core.Result, error)
}

var _ Authenticator = (*service.AuthService)(nil)
