package core

import "time"

// AuthenticatorName marks a login attempt as claimed by this authenticator
const AuthenticatorName = "CasqueAuthenticator"

// FriendlyName is the short name shown to operators and used in routes
const FriendlyName = "casque"

// BootstrapPrincipal is the fixed identity sent with the first access request
const BootstrapPrincipal = "CASQUE SNR"

// ActionLogin is the only action that continues an outstanding challenge
const ActionLogin = "login"

// ActionCancel abandons an outstanding challenge
const ActionCancel = "cancel"

// LoginAttempt is the per-attempt state persisted between HTTP round trips
type LoginAttempt struct {
	ContextID     string // Identifier correlating the challenge page with its resumption
	Username      string // Pending username, set on initiate
	PendingState  []byte // Continuation state of the outstanding challenge
	Authenticator string // Active authenticator marker
}

// AwaitingResponse reports whether a challenge is outstanding for the attempt
func (a *LoginAttempt) AwaitingResponse() bool {
	return a != nil && len(a.PendingState) > 0
}

// Request is one inbound invocation of the login flow
type Request struct {
	ContextID string // sessionDataKey of the attempt
	Username  string // Initiate only
	Action    string // Resume only: login or cancel
	Response  string // Resume only: the user's answer to the challenge
	Logout    bool   // Set when the invocation is a logout rather than a login
}

// FlowStatus is the outcome of one invocation
type FlowStatus int

const (
	// StatusIncomplete means a challenge was presented and the caller must come back
	StatusIncomplete FlowStatus = iota
	// StatusCompleted means the attempt finished successfully
	StatusCompleted
	// StatusFailed means the attempt finished and access is denied
	StatusFailed
)

func (s FlowStatus) String() string {
	switch s {
	case StatusIncomplete:
		return "incomplete"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is returned by every invocation of the login flow
type Result struct {
	Status  FlowStatus
	Subject string // Authenticated username, only set when a login was accepted
}

// Subject is an authenticated user asserted after a successful login
type Subject struct {
	ID        string    // Unique assertion identifier
	Username  string    // Authenticated username
	IssuedAt  time.Time // When the assertion was created
	ExpiresAt time.Time // When the assertion expires
}
