package ports

import "context"

// SessionStore keeps the slots of one login attempt across HTTP round trips.
// Slots are scoped by the attempt's context identifier.
type SessionStore interface {
	// Get returns core.ErrSlotNotFound when the slot is empty
	Get(ctx context.Context, contextID, key string) ([]byte, error)
	// Set stores value in the slot; an empty value clears it
	Set(ctx context.Context, contextID, key string, value []byte) error
}
