package auth

import (
	"errors"
	"time"

	"github.com/goevery/canvas-gateway/internal/ierr"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	jwt.RegisteredClaims
}

type Authentication struct {
	Subject string
}

// Authenticator validates the JWT a client presents as the `token`
// query parameter on the websocket upgrade. The gateway only needs the
// subject; room-level authorization belongs to the domain service.
type Authenticator struct {
	secret    []byte
	jwtParser *jwt.Parser
}

func NewAuthenticator(secret string) *Authenticator {
	jwtParser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30*time.Second),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithAudience("gateway"),
	)

	return &Authenticator{
		secret:    []byte(secret),
		jwtParser: jwtParser,
	}
}

func (a *Authenticator) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("unexpected signing method"))
	}

	return a.secret, nil
}

func (a *Authenticator) AuthenticateToken(tokenString string) (*Authentication, error) {
	if tokenString == "" {
		return nil, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("missing token"))
	}

	claims := Claims{}

	_, err := a.jwtParser.ParseWithClaims(tokenString, &claims, a.keyFunc)
	if err != nil {
		return nil, ierr.New(ierr.ErrorCodeUnauthenticated, err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid subject claim"))
	}

	return &Authentication{
		Subject: subject,
	}, nil
}
