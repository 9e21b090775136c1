package core

// Outcome is the type of answer returned by the challenge-issuing authority
type Outcome int

const (
	OutcomeError Outcome = iota
	OutcomeChallenge
	OutcomeAccept
	OutcomeReject
)

func (o Outcome) String() string {
	switch o {
	case OutcomeChallenge:
		return "challenge"
	case OutcomeAccept:
		return "accept"
	case OutcomeReject:
		return "reject"
	default:
		return "error"
	}
}

// AccessRequest is one request sent to the authority
type AccessRequest struct {
	Principal  string // Bootstrap identity or the resolved username
	Credential string // TokenID+username on the first round, the user's answer afterwards
	State      []byte // Continuation state from the previous round, nil on the first
}

// Exchange is the result of one round trip with the authority
type Exchange struct {
	Outcome   Outcome
	State     []byte // Continuation state, Challenge only
	Challenge string // Challenge text, Challenge only
	Detail    string // Human readable reason, Error only
	Err       error  // Underlying fault, Error only
}

// ErrorExchange builds an Error outcome from a fault
func ErrorExchange(err error) Exchange {
	return Exchange{Outcome: OutcomeError, Detail: err.Error(), Err: err}
}

// Reason returns a description of a non-challenge exchange suitable for logs
func (e Exchange) Reason() string {
	if e.Detail != "" {
		return e.Detail
	}
	return "unexpected " + e.Outcome.String() + " response"
}
