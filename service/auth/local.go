package auth

import (
	"context"

	"ChatRelay/tools/errs"

	"github.com/golang-jwt/jwt/v5"
)

// LocalValidator validates HS256 tokens with a shared secret. It stands
// in for the account oracle in development and tests; production nodes
// configure AUTH_SERVER and never hit this path.
type LocalValidator struct {
	secret []byte
}

func NewLocalValidator(secret string) *LocalValidator {
	return &LocalValidator{secret: []byte(secret)}
}

type localClaims struct {
	Name  string   `json:"name"`
	Type  int      `json:"type"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

func (l *LocalValidator) Authenticate(_ context.Context, token string, roles []string) (*Identity, error) {
	if len(l.secret) == 0 {
		return nil, errs.ErrAuthServer
	}
	if token == "" {
		return nil, errs.ErrToken
	}

	claims := &localClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.New("unexpected signing method")
		}
		return l.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, errs.ErrToken
	}
	if claims.Subject == "" || claims.Type == 0 {
		return nil, errs.ErrToken.WithDetail("incomplete claims")
	}

	id := &Identity{
		User:  claims.Subject,
		Name:  claims.Name,
		Type:  claims.Type,
		Roles: claims.Roles,
	}
	if err := CheckRoles(id, roles); err != nil {
		return nil, err
	}
	return id, nil
}
