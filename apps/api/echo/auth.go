package echoapi

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/session"
)

const contextTokenKey = "userToken"

// newJWTConfig returns the JWT auth middleware config.
func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: session.SigningMethod,
		ContextKey:    contextTokenKey,
		Claims:        new(session.Claims),
	}
}

func getContextClaims(ctx echo.Context) (*session.Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*session.Claims); ok {
			return claims, nil
		}
	}
	return nil, core.ErrUnauthenticated
}
