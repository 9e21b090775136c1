package tokenizer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/casque/core"
	"github.com/layer-3/casque/ports"
)

const AudienceSubject = "casque:subject"

// JWTTokenizer implements the Tokenizer interface using JWT
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
}

// NewJWTTokenizer creates a new JWT tokenizer
func NewJWTTokenizer(signKey *ecdsa.PrivateKey) ports.Tokenizer {
	return &JWTTokenizer{signKey: signKey}
}

// SubjectToToken converts an authenticated Subject to a signed JWT
func (j *JWTTokenizer) SubjectToToken(subject *core.Subject) (string, error) {
	claims := SubjectClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.Username,
			ID:        subject.ID,
			ExpiresAt: jwt.NewNumericDate(subject.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(subject.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceSubject},
		},
		Authenticator: core.AuthenticatorName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// TokenToSubject parses a signed JWT and returns the asserted Subject
func (j *JWTTokenizer) TokenToSubject(tokenStr string) (*core.Subject, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SubjectClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceSubject))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SubjectClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}

	subject := &core.Subject{
		ID:       claims.ID,
		Username: claims.Subject,
	}
	if claims.IssuedAt != nil {
		subject.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		subject.ExpiresAt = claims.ExpiresAt.Time
	}

	return subject, nil
}
