package service

import (
	"github.com/novelfinder/novelfinder-go/internal/crypto"
	"github.com/novelfinder/novelfinder-go/internal/model"
)

// TokenResolver maps the download token query parameter to a user id.
type TokenResolver func(token string) (int64, error)

// UserIDTokens treats the token as the bare decimal user id returned by login.
func UserIDTokens(token string) (int64, error) {
	ref, err := model.ParseUserRef(token)
	if err != nil {
		return 0, err
	}
	return ref.Int64(), nil
}

// SessionTokens treats the token as a signed session token.
func SessionTokens(secret string) TokenResolver {
	return func(token string) (int64, error) {
		claims, err := crypto.ValidateToken(token, secret)
		if err != nil {
			return 0, err
		}
		return claims.UserID, nil
	}
}
