// Package auth issues and verifies the HS256 access and refresh tokens and
// hashes passwords.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/foodable/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the authenticated identity inside both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

// TokenIssuer signs access and refresh tokens with distinct secrets.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// RefreshTTL is how long an issued refresh token stays valid.
func (ti *TokenIssuer) RefreshTTL() time.Duration { return ti.refreshTTL }

func (ti *TokenIssuer) IssueAccess(userID int64, email string) (string, error) {
	return GenerateToken(ti.claims(userID, email, ti.accessTTL), ti.accessSecret)
}

// IssueRefresh returns a refresh token with a unique ID, so two tokens issued
// for the same user within one second still differ.
func (ti *TokenIssuer) IssueRefresh(userID int64, email string) (string, error) {
	c := ti.claims(userID, email, ti.refreshTTL)
	c.ID = uuid.NewString()
	return GenerateToken(c, ti.refreshSecret)
}

func (ti *TokenIssuer) ParseAccess(token string) (*Claims, error) {
	return ParseToken(token, ti.accessSecret)
}

func (ti *TokenIssuer) ParseRefresh(token string) (*Claims, error) {
	return ParseToken(token, ti.refreshSecret)
}

func (ti *TokenIssuer) claims(userID int64, email string, ttl time.Duration) Claims {
	now := ti.now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Email:  email,
	}
}

func GenerateToken(claims Claims, secretKey []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies signature and expiry. It returns common.ErrTokenExpired
// for expired tokens and common.ErrInvalidToken for anything else.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID <= 0 {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
