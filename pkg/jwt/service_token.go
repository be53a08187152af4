package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// serviceTokenTTL keeps service tokens short-lived; every delivery issues a
// fresh one.
const serviceTokenTTL = 5 * time.Minute

// ServiceTokenIssuer signs short-lived JWTs the engine uses to authenticate
// against the platform's internal APIs.
type ServiceTokenIssuer struct {
	secret string
}

// NewServiceTokenIssuer creates a new ServiceTokenIssuer
func NewServiceTokenIssuer(secret string) *ServiceTokenIssuer {
	return &ServiceTokenIssuer{secret: secret}
}

// Issue signs a token identifying the named service component.
func (s *ServiceTokenIssuer) Issue(service string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  service,
		"role": []string{"service"},
		"iat":  now.Unix(),
		"exp":  now.Add(serviceTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign service token: %w", err)
	}
	return signed, nil
}
