package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/layer-3/casque/core"
	"github.com/layer-3/casque/ports"
)

const (
	slotPendingState  = "pendingState"
	slotUsername      = "username"
	slotAuthenticator = "activeAuthenticator"
)

// slotTaker is implemented by stores that can read and clear a slot atomically
type slotTaker interface {
	Take(ctx context.Context, contextID, key string) ([]byte, error)
}

// AttemptStore maps a core.LoginAttempt onto the slots of a session store
type AttemptStore struct {
	store ports.SessionStore
}

// NewAttemptStore creates a typed view over a session store
func NewAttemptStore(store ports.SessionStore) *AttemptStore {
	return &AttemptStore{store: store}
}

// Load reads the attempt identified by contextID. Empty slots yield zero fields.
func (a *AttemptStore) Load(ctx context.Context, contextID string) (*core.LoginAttempt, error) {
	attempt := &core.LoginAttempt{ContextID: contextID}

	state, err := a.get(ctx, contextID, slotPendingState)
	if err != nil {
		return nil, err
	}
	username, err := a.get(ctx, contextID, slotUsername)
	if err != nil {
		return nil, err
	}
	marker, err := a.get(ctx, contextID, slotAuthenticator)
	if err != nil {
		return nil, err
	}

	attempt.PendingState = state
	attempt.Username = string(username)
	attempt.Authenticator = string(marker)
	return attempt, nil
}

// Begin records the username of a new attempt and claims it for this authenticator.
// Any continuation state left from an earlier attempt is dropped.
func (a *AttemptStore) Begin(ctx context.Context, contextID, username string) error {
	if err := a.set(ctx, contextID, slotPendingState, nil); err != nil {
		return err
	}
	if err := a.set(ctx, contextID, slotUsername, []byte(username)); err != nil {
		return err
	}
	return a.set(ctx, contextID, slotAuthenticator, []byte(core.AuthenticatorName))
}

// SetPendingState stores the continuation state of an outstanding challenge. The
// username and marker are rewritten with it so every slot of the attempt shares the
// expiry of the latest round.
func (a *AttemptStore) SetPendingState(ctx context.Context, contextID, username string, state []byte) error {
	if err := a.set(ctx, contextID, slotPendingState, state); err != nil {
		return err
	}
	if err := a.set(ctx, contextID, slotUsername, []byte(username)); err != nil {
		return err
	}
	return a.set(ctx, contextID, slotAuthenticator, []byte(core.AuthenticatorName))
}

// TakePendingState returns the continuation state and clears it, so a state is
// consumed at most once.
func (a *AttemptStore) TakePendingState(ctx context.Context, contextID string) ([]byte, error) {
	if taker, ok := a.store.(slotTaker); ok {
		state, err := taker.Take(ctx, contextID, slotPendingState)
		if errors.Is(err, core.ErrSlotNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to take pending state: %w", err)
		}
		return state, nil
	}

	state, err := a.get(ctx, contextID, slotPendingState)
	if err != nil {
		return nil, err
	}
	if err := a.set(ctx, contextID, slotPendingState, nil); err != nil {
		return nil, err
	}
	return state, nil
}

// Clear removes the pending state and username of a finished attempt
func (a *AttemptStore) Clear(ctx context.Context, contextID string) error {
	stateErr := a.set(ctx, contextID, slotPendingState, nil)
	nameErr := a.set(ctx, contextID, slotUsername, nil)
	return errors.Join(stateErr, nameErr)
}

func (a *AttemptStore) get(ctx context.Context, contextID, key string) ([]byte, error) {
	value, err := a.store.Get(ctx, contextID, key)
	if errors.Is(err, core.ErrSlotNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (a *AttemptStore) set(ctx context.Context, contextID, key string, value []byte) error {
	if err := a.store.Set(ctx, contextID, key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
