// Package auth signs and verifies bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/benjamonnguyen/studyplan"
)

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Issuer creates and verifies HS256 tokens whose subject is the user id.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("provide a signing secret")
	}
	if ttl <= 0 {
		ttl = studyplan.DefaultTokenTTL
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (i *Issuer) Issue(user studyplan.User) (string, error) {
	if user.ID == "" {
		return "", fmt.Errorf("provide user id")
	}
	now := i.now()
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the claims of a valid token. Any failure is ErrAuth.
func (i *Issuer) Verify(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		msg := "Invalid token."
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "Token expired."
		}
		return Claims{}, &studyplan.Error{Kind: studyplan.ErrAuth, Msg: msg, Err: err}
	}
	if claims.Subject == "" {
		return Claims{}, studyplan.Errorf(studyplan.ErrAuth, "Invalid token.")
	}
	return claims, nil
}

// Hasher hashes passwords with bcrypt. A zero Cost uses bcrypt.DefaultCost.
type Hasher struct {
	Cost int
}

func (h Hasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", &studyplan.Error{
			Kind: studyplan.ErrValidation,
			Msg:  fmt.Sprintf("Password must be at most %d bytes.", studyplan.MaxPasswordBytes),
			Err:  err,
		}
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (h Hasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
