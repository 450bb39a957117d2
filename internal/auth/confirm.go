package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidLinkToken = errors.New("invalid link token")

const purposeConfirmation = "confirmation"

type linkClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// LinkTokenService signs the stateless tokens embedded in email-confirmation
// links. Password-reset tokens are deliberately not JWTs; they live in the
// credential store so they can be revoked and expired server-side.
type LinkTokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewLinkTokenService(secret string, ttl time.Duration) *LinkTokenService {
	return &LinkTokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (s *LinkTokenService) GenerateConfirmationToken(email string) (string, error) {
	now := time.Now()
	claims := linkClaims{
		Email:   email,
		Purpose: purposeConfirmation,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "recipe-box",
			Subject:   email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateConfirmationToken returns the email the token was issued for.
// Expired, malformed and wrong-purpose tokens all come back as
// ErrInvalidLinkToken; callers must not reveal which.
func (s *LinkTokenService) ValidateConfirmationToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &linkClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidLinkToken
		}
		return s.secret, nil
	})
	if err != nil {
		return "", ErrInvalidLinkToken
	}

	claims, ok := token.Claims.(*linkClaims)
	if !ok || !token.Valid || claims.Purpose != purposeConfirmation {
		return "", ErrInvalidLinkToken
	}

	return claims.Email, nil
}
