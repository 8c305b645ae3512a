package firebase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"crm_dashboard_backend/internal/config"
	"crm_dashboard_backend/internal/domain"
)

// RoleClaim is the custom claim carrying the dashboard role.
const RoleClaim = "role"

// ErrTokenRevoked is returned for ID tokens issued before the account's
// refresh tokens were revoked.
var ErrTokenRevoked = errors.New("token has been revoked")

// tokenVerifier is the part of *auth.Client the service uses.
type tokenVerifier interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*auth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// FirebaseService verifies Firebase ID tokens and maps them to dashboard viewers.
type FirebaseService struct {
	authClient tokenVerifier
	isRevoked  func(error) bool
	logger     *zap.Logger
}

// NewFirebaseService initializes the Firebase Admin SDK and creates a new FirebaseService.
func NewFirebaseService(cfg *config.Config, logger *zap.Logger) (*FirebaseService, error) {
	if cfg.FirebaseServiceAccountKeyPath == "" {
		logger.Error("Firebase service account key path is not configured.")
		return nil, fmt.Errorf("firebase service account key path is required")
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	var conf *firebase.Config
	if cfg.FirebaseProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	app, err := firebase.NewApp(context.Background(), conf, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	authClient, err := app.Auth(context.Background())
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized successfully.")
	return &FirebaseService{
		authClient: authClient,
		isRevoked:  auth.IsIDTokenRevoked,
		logger:     logger,
	}, nil
}

// VerifyIDToken verifies a Firebase ID token and returns the token claims.
// Tokens of accounts signed out through Revoke are rejected with ErrTokenRevoked.
func (s *FirebaseService) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if idToken == "" {
		return nil, fmt.Errorf("ID token must not be empty")
	}

	token, err := s.authClient.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		if s.isRevoked != nil && s.isRevoked(err) {
			s.logger.Info("Rejected revoked Firebase ID token")
			return nil, fmt.Errorf("%w: %v", ErrTokenRevoked, err)
		}
		s.logger.Warn("Firebase ID token verification failed", zap.Error(err))
		return nil, fmt.Errorf("failed to verify Firebase ID token: %w", err)
	}

	s.logger.Debug("Firebase ID token verified successfully", zap.String("uid", token.UID))
	return token, nil
}

// Verify verifies idToken and returns the viewer it identifies. The role comes
// from the "role" custom claim; a token without one yields an empty role,
// which the rule engine treats as restricted.
func (s *FirebaseService) Verify(ctx context.Context, idToken string) (*domain.Viewer, error) {
	token, err := s.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	return ViewerFromToken(token), nil
}

// Revoke revokes all refresh tokens of the viewer's Firebase account.
func (s *FirebaseService) Revoke(ctx context.Context, _ string, viewer domain.Viewer) error {
	return s.RevokeRefreshTokens(ctx, viewer.UserID)
}

// RevokeRefreshTokens revokes all refresh tokens for a given user.
func (s *FirebaseService) RevokeRefreshTokens(ctx context.Context, uid string) error {
	if err := s.authClient.RevokeRefreshTokens(ctx, uid); err != nil {
		s.logger.Error("Failed to revoke refresh tokens", zap.Error(err), zap.String("uid", uid))
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	s.logger.Info("Successfully revoked refresh tokens for user", zap.String("uid", uid))
	return nil
}

// ViewerFromToken maps verified token claims to a viewer.
func ViewerFromToken(token *auth.Token) *domain.Viewer {
	viewer := &domain.Viewer{UserID: token.UID}
	if role, ok := token.Claims[RoleClaim].(string); ok {
		viewer.Role = domain.NormalizeRole(role)
	}
	return viewer
}
