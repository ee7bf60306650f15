// Package session holds the JWT claims a dashboard client presents on every request.
package session

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/studentsync/core"
)

const (
	SigningMethod = "HS256"
	audience      = "StudentDashboard"
)

// Claims represents the authorization claims transmitted via a JWT.
// AccessToken is the classroom/calendar OAuth bearer obtained by the external sign-in flow.
type Claims struct {
	jwt.StandardClaims
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	AccessToken string `json:"gat"`
}

// NewClaims builds claims for the given user identity.
func NewClaims(conf *core.Config, subject, name, email, accessToken string) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   subject,
			Audience:  audience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:        name,
		Email:       email,
		AccessToken: accessToken,
	}
}

// Valid also rejects claims without a subject or platform credential.
func (c *Claims) Valid() error {
	if err := c.StandardClaims.Valid(); err != nil {
		return err
	}
	if c.Subject == "" || c.AccessToken == "" {
		return core.ErrUnauthenticated
	}
	return nil
}

func (c *Claims) Person() core.Person {
	return core.Person{ID: c.Subject, Username: c.Name, Email: c.Email}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims, secret string) (string, error) {
	method := jwt.GetSigningMethod(SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// ParseToken verifies the signature and validity of a token string.
func ParseToken(tokenStr, secret string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != SigningMethod {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, core.ErrUnauthenticated
	}
	return claims, nil
}
