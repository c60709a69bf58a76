package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed, expired, or not meant for this service.
var ErrInvalidToken = errors.New("invalid token")

// TokenProvider issues and validates bearer access tokens. The subject is the user ID; roles
// are never carried in the token and are always read fresh from the account.
type TokenProvider struct {
	keys      *KeyPair
	method    jwt.SigningMethod
	parser    *jwt.Parser
	issuer    string
	audience  string
	accessTTL time.Duration
}

// NewTokenProvider returns a TokenProvider that signs and verifies with keys.
func NewTokenProvider(keys *KeyPair, issuer, audience string, accessTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		keys:   keys,
		method: jwt.GetSigningMethod(keys.Alg),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{keys.Alg}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
		),
		issuer:    issuer,
		audience:  audience,
		accessTTL: accessTTL,
	}
}

// IssueAccess issues a short-lived access JWT for userID. Returns the token and its expiry.
func (p *TokenProvider) IssueAccess(userID string) (token string, expiresAt time.Time, err error) {
	if userID == "" {
		return "", time.Time{}, errors.New("security: empty subject")
	}
	jti := make([]byte, 16)
	if _, err := rand.Read(jti); err != nil {
		return "", time.Time{}, err
	}
	now := time.Now().UTC()
	expiresAt = now.Add(p.accessTTL)
	claims := jwt.RegisteredClaims{
		ID:        hex.EncodeToString(jti),
		Subject:   userID,
		Issuer:    p.issuer,
		Audience:  jwt.ClaimStrings{p.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err = jwt.NewWithClaims(p.method, claims).SignedString(p.keys.Signer)
	return token, expiresAt, err
}

// ValidateAccess checks algorithm, signature, expiry, issuer and audience and returns the user ID.
func (p *TokenProvider) ValidateAccess(tokenString string) (userID string, err error) {
	var claims jwt.RegisteredClaims
	token, err := p.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return p.keys.Public, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
