package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/layer-3/casque/adapters/directory"
	"github.com/layer-3/casque/adapters/store"
	"github.com/layer-3/casque/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	responses []core.Exchange
	requests  []core.AccessRequest
}

func (f *fakeClient) Send(ctx context.Context, req core.AccessRequest) core.Exchange {
	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return core.ErrorExchange(errors.New("no response scripted"))
	}
	ex := f.responses[0]
	f.responses = f.responses[1:]
	return ex
}

type fakePresenter struct {
	contextID string
	challenge string
	calls     int
	err       error
}

func (p *fakePresenter) PresentChallenge(ctx context.Context, contextID, challenge string) error {
	p.calls++
	p.contextID = contextID
	p.challenge = challenge
	return p.err
}

type resultEvent struct {
	username string
	accepted bool
	reason   string
}

type fakeEvents struct {
	results []resultEvent
	logouts []string
	err     error
}

func (e *fakeEvents) PublishLogout(ctx context.Context, contextID string) error {
	e.logouts = append(e.logouts, contextID)
	return e.err
}

func (e *fakeEvents) PublishResult(ctx context.Context, username string, accepted bool, reason string) error {
	e.results = append(e.results, resultEvent{username, accepted, reason})
	return e.err
}

type fakeLogout struct {
	err   error
	calls int
}

func (l *fakeLogout) Logout(ctx context.Context, contextID string) error {
	l.calls++
	return l.err
}

type fixture struct {
	svc       *AuthService
	client    *fakeClient
	sessions  *store.MemoryStore
	dir       *directory.MemoryDirectory
	events    *fakeEvents
	logout    *fakeLogout
	presenter *fakePresenter
}

const ctxID = "3f1c2a9e-context"

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		client:    &fakeClient{},
		sessions:  store.NewMemoryStore(0),
		dir:       directory.NewMemoryDirectory(),
		events:    &fakeEvents{},
		logout:    &fakeLogout{},
		presenter: &fakePresenter{},
	}
	f.dir.SetClaim("alice", core.TokenIDClaim, "FFF 000001")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewAuthService(
		NewTokenIDResolver(f.dir),
		f.client,
		NewAttemptStore(f.sessions),
		f.events,
		f.logout,
		logger,
	)
	return f
}

func (f *fixture) process(t *testing.T, req *core.Request) (core.Result, error) {
	t.Helper()
	return f.svc.Process(context.Background(), req, f.presenter)
}

func (f *fixture) attempt(t *testing.T) *core.LoginAttempt {
	t.Helper()
	attempt, err := NewAttemptStore(f.sessions).Load(context.Background(), ctxID)
	require.NoError(t, err)
	return attempt
}

func (f *fixture) assertCleared(t *testing.T) {
	t.Helper()
	attempt := f.attempt(t)
	assert.Empty(t, attempt.PendingState)
	assert.Empty(t, attempt.Username)
}

func challenge(text, state string) core.Exchange {
	return core.Exchange{Outcome: core.OutcomeChallenge, Challenge: text, State: []byte(state)}
}

func (f *fixture) startAlice(t *testing.T) {
	t.Helper()
	f.client.responses = append(f.client.responses, challenge("Enter OTP", "S1"))
	result, err := f.process(t, &core.Request{ContextID: ctxID, Username: "alice"})
	require.NoError(t, err)
	require.Equal(t, core.StatusIncomplete, result.Status)
}

func TestInitiateIssuesChallenge(t *testing.T) {
	f := newFixture(t)
	f.client.responses = []core.Exchange{challenge("Enter OTP", "S1")}

	result, err := f.process(t, &core.Request{ContextID: ctxID, Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, core.StatusIncomplete, result.Status)

	require.Len(t, f.client.requests, 1)
	assert.Equal(t, core.AccessRequest{
		Principal:  "CASQUE SNR",
		Credential: "FFF 000001alice",
	}, f.client.requests[0])

	attempt := f.attempt(t)
	assert.Equal(t, []byte("S1"), attempt.PendingState)
	assert.Equal(t, "alice", attempt.Username)
	assert.Equal(t, core.AuthenticatorName, attempt.Authenticator)

	assert.Equal(t, 1, f.presenter.calls)
	assert.Equal(t, ctxID, f.presenter.contextID)
	assert.Equal(t, "Enter OTP", f.presenter.challenge)
}

func TestResumeAccepts(t *testing.T) {
	f := newFixture(t)
	f.startAlice(t)
	f.client.responses = []core.Exchange{{Outcome: core.OutcomeAccept}}

	result, err := f.process(t, &core.Request{ContextID: ctxID, Action: core.ActionLogin, Response: "123456"})
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, result.Status)
	assert.Equal(t, "alice", result.Subject)

	require.Len(t, f.client.requests, 2)
	assert.Equal(t, core.AccessRequest{
		Principal:  "alice",
		Credential: "123456",
		State:      []byte("S1"),
	}, f.client.requests[1])

	f.assertCleared(t)
	require.Len(t, f.events.results, 1)
	assert.Equal(t, resultEvent{username: "alice", accepted: true}, f.events.results[0])
}

func TestMissingTokenNeverContactsAuthority(t *testing.T) {
	f := newFixture(t)

	result, err := f.process(t, &core.Request{ContextID: ctxID, Username: "bob"})
	assert.Equal(t, core.StatusFailed, result.Status)
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	assert.ErrorIs(t, err, core.ErrTokenUnavailable)
	assert.Empty(t, f.client.requests)
	assert.Zero(t, f.presenter.calls)
	f.assertCleared(t)
}

func TestMalformedTokenNeverContactsAuthority(t *testing.T) {
	for _, token := range []string{"AB1123456", "ZZZ 123456", "AB1 12345", ""} {
		t.Run(token, func(t *testing.T) {
			f := newFixture(t)
			f.dir.SetClaim("carol", core.TokenIDClaim, token)

			result, err := f.process(t, &core.Request{ContextID: ctxID, Username: "carol"})
			assert.Equal(t, core.StatusFailed, result.Status)
			assert.ErrorIs(t, err, core.ErrInvalidCredentials)
			assert.ErrorIs(t, err, core.ErrTokenMalformed)
			assert.Empty(t, f.client.requests)
			f.assertCleared(t)
		})
	}
}

func TestCredentialIsTokenIDThenUsername(t *testing.T) {
	for _, token := range []string{"000 000000", "abc 123456", "FfF 999999"} {
		f := newFixture(t)
		f.dir.SetClaim("dave", core.TokenIDClaim, token)
		f.client.responses = []core.Exchange{challenge("c", "s")}

		_, err := f.process(t, &core.Request{ContextID: ctxID, Username: "dave"})
		require.NoError(t, err)
		require.Len(t, f.client.requests, 1)
		assert.Equal(t, token+"dave", f.client.requests[0].Credential)
	}
}

func TestMissingUsername(t *testing.T) {
	f := newFixture(t)

	result, err := f.process(t, &core.Request{ContextID: ctxID})
	assert.Equal(t, core.StatusFailed, result.Status)
	assert.ErrorIs(t, err, core.ErrMissingUsername)
	assert.Empty(t, f.client.requests)
}

func TestCancelDoesNotContactAuthority(t *testing.T) {
	for _, action := range []string{core.ActionCancel, "", "LOGIN", "unknown"} {
		t.Run(action, func(t *testing.T) {
			f := newFixture(t)
			f.startAlice(t)

			result, err := f.process(t, &core.Request{ContextID: ctxID, Action: action, Response: "123456"})
			assert.Equal(t, core.StatusFailed, result.Status)
			assert.ErrorIs(t, err, core.ErrLoginCancelled)
			assert.Len(t, f.client.requests, 1)
			f.assertCleared(t)
		})
	}
}

func TestInitiateNonChallengeFails(t *testing.T) {
	tests := []struct {
		name     string
		exchange core.Exchange
	}{
		{"reject", core.Exchange{Outcome: core.OutcomeReject}},
		{"accept", core.Exchange{Outcome: core.OutcomeAccept}},
		{"error", core.Exchange{Outcome: core.OutcomeError, Detail: "bad authenticator"}},
		{"transport", core.ErrorExchange(core.ErrTransport)},
		{"challenge without state", core.Exchange{Outcome: core.OutcomeChallenge, Challenge: "Enter OTP"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.client.responses = []core.Exchange{tt.exchange}

			result, err := f.process(t, &core.Request{ContextID: ctxID, Username: "alice"})
			assert.Equal(t, core.StatusFailed, result.Status)
			assert.ErrorIs(t, err, core.ErrInvalidCredentials)
			assert.Zero(t, f.presenter.calls)
			f.assertCleared(t)

			require.Len(t, f.events.results, 1)
			assert.False(t, f.events.results[0].accepted)
		})
	}
}

func TestErrorDetailIsCarried(t *testing.T) {
	f := newFixture(t)
	f.client.responses = []core.Exchange{{Outcome: core.OutcomeError, Detail: "bad authenticator"}}

	_, err := f.process(t, &core.Request{ContextID: ctxID, Username: "alice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad authenticator")
}

func TestResumeFailures(t *testing.T) {
	tests := []struct {
		name     string
		exchange core.Exchange
	}{
		{"reject", core.Exchange{Outcome: core.OutcomeReject}},
		{"error", core.Exchange{Outcome: core.OutcomeError, Detail: "server busy"}},
		{"timeout", core.ErrorExchange(errors.Join(core.ErrTransport, context.DeadlineExceeded))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.startAlice(t)
			f.client.responses = []core.Exchange{tt.exchange}

			result, err := f.process(t, &core.Request{ContextID: ctxID, Action: core.ActionLogin, Response: "000000"})
			assert.Equal(t, core.StatusFailed, result.Status)
			assert.ErrorIs(t, err, core.ErrInvalidCredentials)
			f.assertCleared(t)
		})
	}
}

func TestMultiRoundChallenge(t *testing.T) {
	f := newFixture(t)
	f.startAlice(t)

	f.client.responses = []core.Exchange{challenge("Enter second OTP", "S2")}
	result, err := f.process(t, &core.Request{ContextID: ctxID, Action: core.ActionLogin, Response: "111111"})
	require.NoError(t, err)
	assert.Equal(t, core.StatusIncomplete, result.Status)
	assert.Equal(t, []byte("S2"), f.attempt(t).PendingState)
	assert.Equal(t, "Enter second OTP", f.presenter.challenge)

	f.client.responses = []core.Exchange{{Outcome: core.OutcomeAccept}}
	result, err = f.process(t, &core.Request{ContextID: ctxID, Action: core.ActionLogin, Response: "222222"})
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, result.Status)
	assert.Equal(t, "alice", result.Subject)

	require.Len(t, f.client.requests, 3)
	assert.Equal(t, []byte("S2"), f.client.requests[2].State)
	assert.Equal(t, "alice", f.client.requests[2].Principal)
}

func TestChallengeChainOutlivesAttemptTTL(t *testing.T) {
	f := newFixture(t)
	f.sessions = store.NewMemoryStore(150 * time.Millisecond)
	f.svc.attempts = NewAttemptStore(f.sessions)
	f.startAlice(t)

	// Each round answers within the TTL while the whole chain runs past it
	f.client.responses = []core.Exchange{challenge("Enter second OTP", "S2"), {Outcome: core.OutcomeAccept}}

	time.Sleep(100 * time.Millisecond)
	result, err := f.process(t, &core.Request{ContextID: ctxID, Action: core.ActionLogin, Response: "111111"})
	require.NoError(t, err)
	require.Equal(t, core.StatusIncomplete, result.Status)

	time.Sleep(100 * time.Millisecond)
	result, err = f.process(t, &core.Request{ContextID: ctxID, Action: core.ActionLogin, Response: "222222"})
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, result.Status)
	assert.Equal(t, "alice", result.Subject)
	assert.Len(t, f.client.requests, 3)
}

func TestReplayedResumeStartsOver(t *testing.T) {
	f := newFixture(t)
	f.startAlice(t)
	f.client.responses = []core.Exchange{{Outcome: core.OutcomeReject}}

	resume := &core.Request{ContextID: ctxID, Action: core.ActionLogin, Response: "123456"}
	_, err := f.process(t, resume)
	require.ErrorIs(t, err, core.ErrInvalidCredentials)

	// The same answer again finds no pending state and is treated as a new login
	result, err := f.process(t, resume)
	assert.Equal(t, core.StatusFailed, result.Status)
	assert.ErrorIs(t, err, core.ErrMissingUsername)
	assert.Len(t, f.client.requests, 2)
}

func TestResumeWithoutPendingState(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Resume(context.Background(), &core.Request{ContextID: ctxID, Action: core.ActionLogin}, f.presenter)
	assert.Equal(t, core.StatusFailed, result.Status)
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	assert.Empty(t, f.client.requests)
}

func TestPresenterFailureClearsAttempt(t *testing.T) {
	f := newFixture(t)
	f.presenter.err = errors.New("connection reset")
	f.client.responses = []core.Exchange{challenge("Enter OTP", "S1")}

	result, err := f.process(t, &core.Request{ContextID: ctxID, Username: "alice"})
	assert.Equal(t, core.StatusFailed, result.Status)
	assert.Error(t, err)
	f.assertCleared(t)
}

func TestEventFailureKeepsDecision(t *testing.T) {
	f := newFixture(t)
	f.startAlice(t)
	f.events.err = errors.New("stream down")
	f.client.responses = []core.Exchange{{Outcome: core.OutcomeAccept}}

	result, err := f.process(t, &core.Request{ContextID: ctxID, Action: core.ActionLogin, Response: "123456"})
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, result.Status)
}

func TestLogout(t *testing.T) {
	t.Run("supported", func(t *testing.T) {
		f := newFixture(t)
		result, err := f.process(t, &core.Request{ContextID: ctxID, Logout: true})
		require.NoError(t, err)
		assert.Equal(t, core.StatusCompleted, result.Status)
		assert.Equal(t, 1, f.logout.calls)
		assert.Empty(t, f.client.requests)
	})

	t.Run("unsupported", func(t *testing.T) {
		f := newFixture(t)
		f.logout.err = core.ErrUnsupportedLogout
		result, err := f.process(t, &core.Request{ContextID: ctxID, Logout: true})
		require.NoError(t, err)
		assert.Equal(t, core.StatusCompleted, result.Status)
	})

	t.Run("failed", func(t *testing.T) {
		f := newFixture(t)
		f.logout.err = errors.New("boom")
		result, err := f.process(t, &core.Request{ContextID: ctxID, Logout: true})
		assert.Error(t, err)
		assert.Equal(t, core.StatusFailed, result.Status)
	})
}

func TestLogoutNotifier(t *testing.T) {
	sessions := store.NewMemoryStore(0)
	attempts := NewAttemptStore(sessions)
	ctx := context.Background()
	require.NoError(t, attempts.Begin(ctx, ctxID, "alice"))

	assert.ErrorIs(t, NewLogoutNotifier(attempts, nil).Logout(ctx, ctxID), core.ErrUnsupportedLogout)

	events := &fakeEvents{}
	require.NoError(t, NewLogoutNotifier(attempts, events).Logout(ctx, ctxID))
	assert.Equal(t, []string{ctxID}, events.logouts)

	attempt, err := attempts.Load(ctx, ctxID)
	require.NoError(t, err)
	assert.Empty(t, attempt.Username)
}
