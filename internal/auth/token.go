// Package auth issues and verifies access tokens and carries the
// authenticated principal through request contexts.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/TWRT/courier-dispatch/internal/models"
)

var (
	ErrTokenInvalid = errors.New("access token is invalid")
	ErrTokenExpired = errors.New("access token is expired")
)

// Principal is the authenticated caller.
type Principal struct {
	UserID         int64
	Role           models.Role
	OrganizationID *int64
	CourierID      *int64
}

// OrgID returns the caller's organization, or 0 for superadmins.
func (p Principal) OrgID() int64 {
	if p.OrganizationID == nil {
		return 0
	}
	return *p.OrganizationID
}

type claims struct {
	jwt.RegisteredClaims
	Role           string `json:"role"`
	OrganizationID *int64 `json:"org_id,omitempty"`
	CourierID      *int64 `json:"courier_id,omitempty"`
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue returns a signed token for user and its expiry.
func (i *TokenIssuer) Issue(user models.User) (string, time.Time, error) {
	now := i.now().UTC()
	expires := now.Add(i.ttl)
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
		Role:           string(user.Role),
		OrganizationID: user.OrganizationID,
		CourierID:      user.CourierID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses token and returns the principal it names.
func (i *TokenIssuer) Verify(token string) (Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Principal{}, ErrTokenInvalid
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrTokenExpired
		}
		return Principal{}, ErrTokenInvalid
	}

	userID, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Principal{}, ErrTokenInvalid
	}
	role := models.Role(parsed.Role)
	if !role.Valid() {
		return Principal{}, ErrTokenInvalid
	}
	return Principal{
		UserID:         userID,
		Role:           role,
		OrganizationID: parsed.OrganizationID,
		CourierID:      parsed.CourierID,
	}, nil
}
