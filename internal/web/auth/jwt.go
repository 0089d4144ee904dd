package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/conduit-lang/delivery/internal/delivery"
)

// ErrInvalidToken is returned for member tokens that fail validation
var ErrInvalidToken = errors.New("invalid member token")

// MemberClaims are the claims carried by a member bearer token
type MemberClaims struct {
	Groups []string `json:"groups"`
	jwt.RegisteredClaims
}

// MemberTokens issues and validates HS256 member tokens
type MemberTokens struct {
	secretKey []byte
	tokenTTL  time.Duration
	issuer    string
}

// NewMemberTokens creates a token service with the given secret key and token TTL
func NewMemberTokens(secretKey string, tokenTTL time.Duration) *MemberTokens {
	return &MemberTokens{
		secretKey: []byte(secretKey),
		tokenTTL:  tokenTTL,
		issuer:    "delivery",
	}
}

// Issue signs a token for the member
func (s *MemberTokens) Issue(memberID string, groups []string) (string, error) {
	now := time.Now()
	claims := MemberClaims{
		Groups: groups,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// Validate parses a token and returns the member it identifies
func (s *MemberTokens) Validate(tokenString string) (*delivery.Member, error) {
	var claims MemberClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		// Verify exact signing method to prevent algorithm confusion attacks
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &delivery.Member{ID: claims.Subject, Groups: claims.Groups}, nil
}
