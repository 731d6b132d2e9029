package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vitalbite/wearable-sync/internal/domain"
	"github.com/vitalbite/wearable-sync/internal/repository"
	"github.com/vitalbite/wearable-sync/internal/terra"
	"go.uber.org/zap"
)

// connectionService implements ConnectionService
type connectionService struct {
	connections repository.ConnectionRepository
	provider    ProviderClient
	logger      *zap.Logger
	now         func() time.Time
}

// NewConnectionService creates a new connection service
func NewConnectionService(connections repository.ConnectionRepository, provider ProviderClient, logger *zap.Logger) ConnectionService {
	return &connectionService{
		connections: connections,
		provider:    provider,
		logger:      logger,
		now:         time.Now,
	}
}

// Connect generates a hosted-authorization session the UI redirects the user
// to. There is no local fallback, so an upstream failure propagates.
func (s *connectionService) Connect(ctx context.Context, userID string, providers []string) (*terra.WidgetSession, error) {
	session, err := s.provider.GenerateWidgetSession(ctx, userID, providers)
	if err != nil {
		s.logger.Error("Widget session generation failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return session, nil
}

// Disconnect revokes the remote authorization best-effort, then transitions
// the local record to disconnected regardless of the remote outcome. The
// user's intent to disconnect must be honorable locally even when the
// aggregation provider is unreachable.
func (s *connectionService) Disconnect(ctx context.Context, userID, provider string) error {
	conn, err := s.connections.Get(ctx, userID, provider)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to load connection: %w", err)
	}

	if conn.ExternalUserID != "" {
		if err := s.provider.DeauthenticateUser(ctx, conn.ExternalUserID); err != nil {
			s.logger.Warn("Remote deauthorization failed, disconnecting locally anyway",
				zap.String("user_id", userID),
				zap.String("provider", provider),
				zap.Error(err),
			)
		}
	}

	if err := s.connections.MarkDisconnected(ctx, userID, provider, s.now()); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to mark connection disconnected: %w", err)
	}

	s.logger.Info("Provider disconnected",
		zap.String("user_id", userID),
		zap.String("provider", provider),
	)
	return nil
}

// List returns all of a user's provider connections
func (s *connectionService) List(ctx context.Context, userID string) ([]*domain.ConnectedProvider, error) {
	connections, err := s.connections.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	return connections, nil
}
