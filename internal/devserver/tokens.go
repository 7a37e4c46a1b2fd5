package devserver

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer = "fitnest-devserver"
	tokenTTL    = 72 * time.Hour
)

var ErrInvalidToken = errors.New("devserver: invalid or expired token")

// Tokens issues and verifies HS256 access tokens carrying the account id
// in the "id" claim.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for the account.
func (t *Tokens) Issue(accountID int64, username string) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"id":  accountID,
		"sub": username,
		"iss": tokenIssuer,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify checks the signature and expiry and returns the account id.
func (t *Tokens) Verify(token string) (int64, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, ok := claims["id"].(float64)
	if !ok || id <= 0 {
		return 0, ErrInvalidToken
	}
	return int64(id), nil
}
