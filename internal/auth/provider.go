package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourname/eduflow/internal"
	"github.com/yourname/eduflow/internal/config"
)

var ErrInvalidToken = errors.New("invalid token")

// Provider resolves a bearer token to the identity whose document is mirrored.
type Provider interface {
	Authenticate(ctx context.Context, token string) (*internal.User, error)
}

func NewProvider(cfg *config.Config, logger internal.Logger) (Provider, error) {
	switch cfg.AuthMode {
	case "local":
		return NewLocalAuthProvider(cfg.AuthToken, cfg.AuthUserID, logger), nil
	case "jwt":
		return NewJWTAuthProvider([]byte(cfg.JWTSecret), logger), nil
	case "remote":
		return NewRemoteAuthProvider(cfg.AuthServiceURL, logger), nil
	default:
		return nil, fmt.Errorf("auth: unknown mode %q", cfg.AuthMode)
	}
}
