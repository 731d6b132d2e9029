package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vitalbite/wearable-sync/internal/domain"
	"github.com/vitalbite/wearable-sync/pkg/database"
)

// connectionRepository implements ConnectionRepository on PostgreSQL
type connectionRepository struct {
	db *database.Postgres
}

// NewConnectionRepository creates a new provider connection repository
func NewConnectionRepository(db *database.Postgres) ConnectionRepository {
	return &connectionRepository{db: db}
}

const connectionColumns = `id, user_id, provider, external_user_id, status, connected_at, disconnected_at, last_sync_at, created_at, updated_at`

// Connect upserts the connection into the active state
func (r *connectionRepository) Connect(ctx context.Context, userID, provider, externalUserID string, at time.Time) error {
	query := `
		INSERT INTO connected_providers (id, user_id, provider, external_user_id, status, connected_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $6)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			external_user_id = EXCLUDED.external_user_id,
			status           = EXCLUDED.status,
			connected_at     = EXCLUDED.connected_at,
			disconnected_at  = NULL,
			updated_at       = EXCLUDED.updated_at
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		uuid.New().String(),
		userID,
		provider,
		externalUserID,
		domain.ConnectionActive,
		at,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert provider connection: %w", err)
	}

	return nil
}

// MarkDisconnected flips the connection to disconnected
func (r *connectionRepository) MarkDisconnected(ctx context.Context, userID, provider string, at time.Time) error {
	query := `
		UPDATE connected_providers
		SET status = $3, disconnected_at = $4, updated_at = $4
		WHERE user_id = $1 AND provider = $2
	`

	result, err := r.db.DB.ExecContext(ctx, query, userID, provider, domain.ConnectionDisconnected, at)
	if err != nil {
		return fmt.Errorf("failed to mark connection disconnected: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("connection for user %s provider %s not found: %w", userID, provider, ErrNotFound)
	}

	return nil
}

// TouchSync records a successful sync, creating the record if data arrives
// before the auth event was seen
func (r *connectionRepository) TouchSync(ctx context.Context, userID, provider, externalUserID string, at time.Time) error {
	query := `
		INSERT INTO connected_providers (id, user_id, provider, external_user_id, status, connected_at, last_sync_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $6, $6)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			last_sync_at = EXCLUDED.last_sync_at,
			updated_at   = EXCLUDED.updated_at
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		uuid.New().String(),
		userID,
		provider,
		externalUserID,
		domain.ConnectionActive,
		at,
	)
	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}

	return nil
}

// Get retrieves one connection by user and provider
func (r *connectionRepository) Get(ctx context.Context, userID, provider string) (*domain.ConnectedProvider, error) {
	query := fmt.Sprintf(`SELECT %s FROM connected_providers WHERE user_id = $1 AND provider = $2`, connectionColumns)

	conn, err := scanConnection(r.db.DB.QueryRowContext(ctx, query, userID, provider))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("connection for user %s provider %s not found: %w", userID, provider, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	return conn, nil
}

// ListByUserID retrieves all provider connections for a user, most recently
// connected first
func (r *connectionRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.ConnectedProvider, error) {
	query := fmt.Sprintf(`SELECT %s FROM connected_providers WHERE user_id = $1 ORDER BY connected_at DESC`, connectionColumns)

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var connections []*domain.ConnectedProvider
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		connections = append(connections, conn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate connections: %w", err)
	}

	return connections, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConnection(row rowScanner) (*domain.ConnectedProvider, error) {
	conn := &domain.ConnectedProvider{}
	var externalUserID sql.NullString
	var disconnectedAt, lastSyncAt sql.NullTime

	err := row.Scan(
		&conn.ID,
		&conn.UserID,
		&conn.Provider,
		&externalUserID,
		&conn.Status,
		&conn.ConnectedAt,
		&disconnectedAt,
		&lastSyncAt,
		&conn.CreatedAt,
		&conn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if externalUserID.Valid {
		conn.ExternalUserID = externalUserID.String
	}
	if disconnectedAt.Valid {
		conn.DisconnectedAt = &disconnectedAt.Time
	}
	if lastSyncAt.Valid {
		conn.LastSyncAt = &lastSyncAt.Time
	}

	return conn, nil
}
