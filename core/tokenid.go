package core

import (
	"fmt"
	"regexp"
)

// TokenIDClaim is the directory claim holding a user's CASQUE SNR token id
const TokenIDClaim = "http://wso2.org/claims/identity/casqueSnrToken"

// 3 hex characters, one space, 6 digits, e.g. "FFF 000001"
var tokenIDFormat = regexp.MustCompile(`^[a-fA-F0-9]{3} [0-9]{6}$`)

// TokenID identifies the CASQUE token assigned to a user
type TokenID string

// ValidTokenID reports whether s has the token id format
func ValidTokenID(s string) bool {
	return tokenIDFormat.MatchString(s)
}

// ParseTokenID validates a token id read from the directory for username
func ParseTokenID(s, username string) (TokenID, error) {
	if !ValidTokenID(s) {
		return "", fmt.Errorf("%w: %q is a badly formatted token id for user %s", ErrTokenMalformed, s, username)
	}
	return TokenID(s), nil
}

// Credential builds the credential material of the first access request
func (t TokenID) Credential(username string) string {
	return string(t) + username
}
