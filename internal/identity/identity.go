package identity

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid identity token")

// Identity is a verified external identity. Participants without one are
// guests; token verification failure degrades to guest rather than failing
// the connection.
type Identity struct {
	Id          string
	DisplayName string
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// VerifyToken checks an HS256 token and extracts the identity claims.
func (v *Verifier) VerifyToken(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}

		return v.secret, nil
	})
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	id, _ := claims["sub"].(string)
	if id == "" {
		return Identity{}, ErrInvalidToken
	}

	displayName, _ := claims["display_name"].(string)

	return Identity{
		Id:          id,
		DisplayName: displayName,
	}, nil
}

// IssueToken signs an identity into a token. Used by tests and local
// tooling; production tokens come from the external identity provider.
func (v *Verifier) IssueToken(identity Identity) (string, error) {
	claims := jwt.MapClaims{
		"sub":          identity.Id,
		"display_name": identity.DisplayName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(v.secret)
}
