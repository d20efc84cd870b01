package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const ClaimsKey ctxKey = 1

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of the bearer tokens issued by the identity service.
// Subject holds the user id.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// Keys verifies HS256 tokens signed with a shared secret.
type Keys struct {
	secret []byte
}

func NewKeys(secret []byte) (*Keys, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}
	return &Keys{secret: secret}, nil
}

// GenerateToken signs claims. Tokens are normally minted by the identity
// service; this is used by tooling and tests sharing the same secret.
func (k *Keys) GenerateToken(claims Claims) (string, error) {
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := tkn.SignedString(k.secret)
	if err != nil {
		return "", fmt.Errorf("signing token %w", err)
	}
	return tokenStr, nil
}

func (k *Keys) ValidateToken(tokenStr string) (Claims, error) {
	var c Claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (interface{}, error) {
		return k.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if c.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return c, nil
}

// NewClaims builds claims for subject valid for ttl.
func NewClaims(subject string, ttl time.Duration, roles ...string) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "storefront",
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: roles,
	}
}
