package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vedran77/taskmate/pkg/validator"
)

// TokenTTL is the validity window of an issued credential.
const TokenTTL = 365 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims binds a credential to an identity.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type AuthService struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewAuthService(jwtSecret string) *AuthService {
	return &AuthService{
		jwtSecret: []byte(jwtSecret),
		ttl:       TokenTTL,
		now:       time.Now,
	}
}

// IssueToken signs a credential for email.
func (s *AuthService) IssueToken(email string) (string, error) {
	email = strings.TrimSpace(email)
	if errs := validator.ValidateEmail(email); errs.HasErrors() {
		return "", errs
	}

	now := s.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// VerifyToken returns the identity embedded in a valid credential.
func (s *AuthService) VerifyToken(tokenStr string) (string, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	if strings.TrimSpace(claims.Email) == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}
