package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SubjectClaims are the claims of a subject assertion
type SubjectClaims struct {
	jwt.RegisteredClaims
	Authenticator string `json:"amr"` // Authenticator that verified the subject
}
