// File: internal/auth/verifier.go
package auth

import (
	"context"
	"errors"
	"fmt"

	"crm_dashboard_backend/internal/config"
	"crm_dashboard_backend/internal/domain"
	"crm_dashboard_backend/internal/firebase"

	"go.uber.org/zap"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRevoked is returned by both providers.
	ErrTokenRevoked = firebase.ErrTokenRevoked
)

// IdentityVerifier turns a bearer token into the viewer acting on the dashboard.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Viewer, error)
	// Revoke signs the viewer out. token is the credential used for the current request.
	Revoke(ctx context.Context, token string, viewer domain.Viewer) error
}

// NewIdentityVerifier selects the verifier configured by AUTH_PROVIDER.
func NewIdentityVerifier(cfg *config.Config, logger *zap.Logger) (IdentityVerifier, error) {
	switch cfg.AuthProvider {
	case config.AuthProviderFirebase:
		return firebase.NewFirebaseService(cfg, logger.Named("Firebase"))
	case config.AuthProviderJWT:
		blocklist := NewInMemoryBlocklistService(cfg.JWTAccessTokenExpiry)
		return NewJWTService(cfg, blocklist, logger.Named("JWTService")), nil
	default:
		return nil, fmt.Errorf("unsupported auth provider %q", cfg.AuthProvider)
	}
}
