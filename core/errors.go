package core

import "errors"

var (
	ErrMissingUsername      = errors.New("username is missing")
	ErrTokenUnavailable     = errors.New("token id unavailable")
	ErrTokenMalformed       = errors.New("token id malformed")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrLoginCancelled       = errors.New("login cancelled")
	ErrTransport            = errors.New("transport error")
	ErrConfiguration        = errors.New("configuration error")
	ErrUnsupportedLogout    = errors.New("logout not supported")
	ErrSlotNotFound         = errors.New("session slot not found")
	ErrStoreOperationFailed = errors.New("store operation failed")
	ErrTokenExpired         = errors.New("token has expired")
	ErrInvalidToken         = errors.New("invalid token")
)
