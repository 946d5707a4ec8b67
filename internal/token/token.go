// Package token issues and verifies the bearer tokens the Kernel's
// authentication gate checks on every protected route. Tokens are
// HS256 JWTs with four claims: sub (the user's UUID), jti (a fresh
// UUID per issuance, used for revocation), iat, and exp.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dispatchengine/engine/internal/domain"
	"github.com/dispatchengine/engine/internal/pkg/ctxutil"
)

// RevocationChecker is consulted by Verify after the signature check
// passes. A nil checker disables revocation entirely.
type RevocationChecker interface {
	IsRevoked(jti string) bool
}

// Issuer signs and verifies tokens against a single HMAC secret.
// Verify restricts parsing to HS256 explicitly; a caller-supplied alg
// header is never trusted to pick the algorithm.
type Issuer struct {
	secret     []byte
	revocation RevocationChecker
}

func New(secret []byte, revocation RevocationChecker) *Issuer {
	return &Issuer{secret: secret, revocation: revocation}
}

// Issue mints a new token for sub, returning the signed string and the
// jti that was embedded so the caller can record it for revocation.
func (i *Issuer) Issue(sub string, ttl time.Duration) (string, string, error) {
	jti := uuid.New().String()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

// Verify parses raw, enforces HS256 only, and returns the decoded auth
// data. A bad signature or revoked jti surfaces as a
// *domain.SignatureError; a sub or jti that doesn't parse as a uuid
// surfaces as a *domain.ParseError.
func (i *Issuer) Verify(raw string) (*ctxutil.AuthData, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return nil, domain.NewSignatureError("invalid token signature")
	}
	if claims.IssuedAt == nil {
		return nil, domain.NewSignatureError("malformed token claims")
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, domain.NewParseError("sub is not a uuid")
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return nil, domain.NewParseError("jti is not a uuid")
	}
	if i.revocation != nil && i.revocation.IsRevoked(claims.ID) {
		return nil, domain.NewSignatureError("token has been revoked")
	}
	return &ctxutil.AuthData{
		Sub: claims.Subject,
		JTI: claims.ID,
		IAT: claims.IssuedAt.Unix(),
	}, nil
}
