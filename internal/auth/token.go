package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Bekiboo/Elevatus-Dashboard/internal/ids"
)

const (
	tokenTypeSession    = "session"
	tokenTypeInvitation = "invitation"
)

// Claims represents the signed session payload. Name fields are intentionally
// absent; callers needing the full profile re-fetch it by id.
type Claims struct {
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Subject), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// IssueToken signs a session JWT embedding {id, email, role} using HS256.
func (s *Service) IssueToken(u *User) (string, time.Time, error) {
	if u == nil || u.ID <= 0 {
		return "", time.Time{}, errors.New("user is required")
	}
	now := s.now().UTC()
	exp := now.Add(s.sessionTTL)
	claims := Claims{
		Email:     u.Email,
		Role:      u.Role.String(),
		TokenType: tokenTypeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyToken checks signature and expiry and returns the embedded claims.
func (s *Service) VerifyToken(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != s.issuer || claims.TokenType != tokenTypeSession {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// newInvitationToken signs an opaque single-purpose token. Uniqueness comes
// from the ULID jti; the row in the invitations table is authoritative for
// redemption state.
func (s *Service) newInvitationToken() (string, error) {
	now := s.now().UTC()
	claims := Claims{
		TokenType: tokenTypeInvitation,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.inviteTTL)),
			ID:        ids.New(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
