package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/layer-3/casque/core"
	"github.com/layer-3/casque/ports"
)

// AuthService drives the CASQUE SNR challenge-response exchange. It keeps no attempt
// state in memory: everything needed between invocations lives in the session store.
type AuthService struct {
	resolver *TokenIDResolver
	client   ports.ProtocolClient
	attempts *AttemptStore
	eventPub ports.EventPublisher
	logout   ports.LogoutHandler
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service.
// eventPub and logout may be nil.
func NewAuthService(
	resolver *TokenIDResolver,
	client ports.ProtocolClient,
	attempts *AttemptStore,
	eventPub ports.EventPublisher,
	logout ports.LogoutHandler,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		resolver: resolver,
		client:   client,
		attempts: attempts,
		eventPub: eventPub,
		logout:   logout,
		logger:   logger.With("authenticator", core.AuthenticatorName),
	}
}

// Process handles one inbound invocation: a logout, the start of a login, or the
// answer to an outstanding challenge.
func (s *AuthService) Process(ctx context.Context, req *core.Request, presenter ports.ChallengePresenter) (core.Result, error) {
	if req.Logout {
		return s.Logout(ctx, req)
	}

	attempt, err := s.attempts.Load(ctx, req.ContextID)
	if err != nil {
		return s.fail(ctx, req.ContextID, err)
	}

	if !attempt.AwaitingResponse() {
		return s.Initiate(ctx, req, presenter)
	}
	return s.Resume(ctx, req, presenter)
}

// Initiate starts a login: it resolves the user's token id and asks the authority for
// a challenge.
func (s *AuthService) Initiate(ctx context.Context, req *core.Request, presenter ports.ChallengePresenter) (core.Result, error) {
	username := req.Username
	if username == "" {
		return s.fail(ctx, req.ContextID, core.ErrMissingUsername)
	}

	if err := s.attempts.Begin(ctx, req.ContextID, username); err != nil {
		return s.fail(ctx, req.ContextID, err)
	}

	tokenID, err := s.resolver.Resolve(ctx, username)
	if err != nil {
		s.logger.Warn("unable to start the authentication process", "username", username, "error", err)
		s.publishResult(ctx, username, false, "token id unavailable")
		return s.fail(ctx, req.ContextID, fmt.Errorf("%w: %w", core.ErrInvalidCredentials, err))
	}

	ex := s.client.Send(ctx, core.AccessRequest{
		Principal:  core.BootstrapPrincipal,
		Credential: tokenID.Credential(username),
	})

	switch ex.Outcome {
	case core.OutcomeChallenge:
		return s.challenge(ctx, req.ContextID, username, ex, presenter)
	case core.OutcomeReject:
		return s.reject(ctx, req.ContextID, username)
	default:
		// The first round must be a challenge
		return s.failExchange(ctx, req.ContextID, username, ex)
	}
}

// Resume continues a login with the user's answer to the outstanding challenge.
func (s *AuthService) Resume(ctx context.Context, req *core.Request, presenter ports.ChallengePresenter) (core.Result, error) {
	state, err := s.attempts.TakePendingState(ctx, req.ContextID)
	if err != nil {
		return s.fail(ctx, req.ContextID, err)
	}
	if len(state) == 0 {
		return s.fail(ctx, req.ContextID, fmt.Errorf("%w: no outstanding challenge", core.ErrInvalidCredentials))
	}

	attempt, err := s.attempts.Load(ctx, req.ContextID)
	if err != nil {
		return s.fail(ctx, req.ContextID, err)
	}
	username := attempt.Username

	if req.Action != core.ActionLogin {
		s.logger.Info("challenge abandoned", "username", username, "action", req.Action)
		s.publishResult(ctx, username, false, "cancelled")
		return s.fail(ctx, req.ContextID, core.ErrLoginCancelled)
	}

	if username == "" {
		return s.fail(ctx, req.ContextID, fmt.Errorf("%w: attempt has no username", core.ErrInvalidCredentials))
	}

	ex := s.client.Send(ctx, core.AccessRequest{
		Principal:  username,
		Credential: req.Response,
		State:      state,
	})

	switch ex.Outcome {
	case core.OutcomeChallenge:
		return s.challenge(ctx, req.ContextID, username, ex, presenter)
	case core.OutcomeAccept:
		return s.accept(ctx, req.ContextID, username)
	case core.OutcomeReject:
		return s.reject(ctx, req.ContextID, username)
	default:
		return s.failExchange(ctx, req.ContextID, username, ex)
	}
}

// Logout delegates to the logout handler. An unsupported logout still completes.
func (s *AuthService) Logout(ctx context.Context, req *core.Request) (core.Result, error) {
	err := core.ErrUnsupportedLogout
	if s.logout != nil {
		err = s.logout.Logout(ctx, req.ContextID)
	}

	if errors.Is(err, core.ErrUnsupportedLogout) {
		s.logger.Debug("ignoring unsupported logout", "context_id", req.ContextID)
		err = nil
	}
	if err != nil {
		return core.Result{Status: core.StatusFailed}, fmt.Errorf("logout failed: %w", err)
	}

	return core.Result{Status: core.StatusCompleted}, nil
}

func (s *AuthService) challenge(ctx context.Context, contextID, username string, ex core.Exchange, presenter ports.ChallengePresenter) (core.Result, error) {
	if len(ex.State) == 0 {
		// Without a state the next answer could not be correlated
		return s.failExchange(ctx, contextID, username, core.Exchange{
			Outcome: core.OutcomeError,
			Detail:  "challenge without state",
		})
	}

	if err := s.attempts.SetPendingState(ctx, contextID, username, ex.State); err != nil {
		return s.fail(ctx, contextID, err)
	}

	if err := presenter.PresentChallenge(ctx, contextID, ex.Challenge); err != nil {
		return s.fail(ctx, contextID, fmt.Errorf("failed to present challenge: %w", err))
	}

	s.logger.Debug("challenge issued", "username", username, "context_id", contextID)
	return core.Result{Status: core.StatusIncomplete}, nil
}

func (s *AuthService) accept(ctx context.Context, contextID, username string) (core.Result, error) {
	if err := s.attempts.Clear(ctx, contextID); err != nil {
		s.logger.Error("failed to clear accepted attempt", "username", username, "error", err)
		return core.Result{Status: core.StatusFailed}, err
	}

	s.logger.Info("user authenticated", "username", username)
	s.publishResult(ctx, username, true, "")
	return core.Result{Status: core.StatusCompleted, Subject: username}, nil
}

func (s *AuthService) reject(ctx context.Context, contextID, username string) (core.Result, error) {
	s.logger.Info("user authentication failed due to invalid credentials", "username", username)
	s.publishResult(ctx, username, false, "rejected")
	return s.fail(ctx, contextID, core.ErrInvalidCredentials)
}

func (s *AuthService) failExchange(ctx context.Context, contextID, username string, ex core.Exchange) (core.Result, error) {
	reason := ex.Reason()
	if errors.Is(ex.Err, core.ErrTransport) {
		s.logger.Error("authority unreachable", "username", username, "transport", true, "error", ex.Err)
	} else {
		s.logger.Warn("user authentication failed", "username", username, "outcome", ex.Outcome.String(), "reason", reason)
	}

	s.publishResult(ctx, username, false, reason)
	return s.fail(ctx, contextID, fmt.Errorf("%w: %s", core.ErrInvalidCredentials, reason))
}

// fail clears the attempt and reports a terminal failure
func (s *AuthService) fail(ctx context.Context, contextID string, cause error) (core.Result, error) {
	if err := s.attempts.Clear(ctx, contextID); err != nil {
		s.logger.Error("failed to clear login attempt", "context_id", contextID, "error", err)
	}
	return core.Result{Status: core.StatusFailed}, cause
}

func (s *AuthService) publishResult(ctx context.Context, username string, accepted bool, reason string) {
	if s.eventPub == nil {
		return
	}
	if err := s.eventPub.PublishResult(ctx, username, accepted, reason); err != nil {
		// Log the error but keep the login decision
		s.logger.Warn("failed to publish login result", "username", username, "error", err)
	}
}
