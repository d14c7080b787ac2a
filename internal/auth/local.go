package auth

import (
	"context"

	"github.com/yourname/eduflow/internal"
)

// LocalAuthProvider accepts a single configured token. Meant for development
// and the single-user desktop build.
type LocalAuthProvider struct {
	Token  string
	UserID string
	logger internal.Logger
}

func (a *LocalAuthProvider) Authenticate(ctx context.Context, token string) (*internal.User, error) {
	if token == a.Token {
		return &internal.User{ID: a.UserID, Name: "Demo User"}, nil
	}
	a.logger.Warnf("invalid token: %s", token)
	return nil, ErrInvalidToken
}

func NewLocalAuthProvider(token, userID string, logger internal.Logger) *LocalAuthProvider {
	return &LocalAuthProvider{Token: token, UserID: userID, logger: logger}
}
