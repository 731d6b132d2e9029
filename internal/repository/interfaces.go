package repository

import (
	"context"
	"time"

	"github.com/vitalbite/wearable-sync/internal/domain"
)

// ConnectionRepository defines methods for provider connection lifecycle operations
type ConnectionRepository interface {
	// Connect upserts the (userID, provider) record into the active state,
	// recording the provider-assigned external user id and clearing any
	// previous disconnection timestamp
	Connect(ctx context.Context, userID, provider, externalUserID string, at time.Time) error

	// MarkDisconnected flips the record to disconnected. Repeating the call is
	// a no-op; a missing record yields ErrNotFound
	MarkDisconnected(ctx context.Context, userID, provider string, at time.Time) error

	// TouchSync records a successful data sync. A missing record is created in
	// the active state, since arriving data implies an established connection
	TouchSync(ctx context.Context, userID, provider, externalUserID string, at time.Time) error

	Get(ctx context.Context, userID, provider string) (*domain.ConnectedProvider, error)
	ListByUserID(ctx context.Context, userID string) ([]*domain.ConnectedProvider, error)
}

// EntryRepository defines methods for canonical health entry persistence
type EntryRepository interface {
	// Merge writes the non-nil fields of the draft into the row keyed by
	// (user, provider, data type, date), creating it if absent. Fields the
	// draft leaves nil keep their stored values, which makes redelivery of an
	// identical webhook a no-op
	Merge(ctx context.Context, entry *domain.HealthEntry) error

	Get(ctx context.Context, userID, provider string, dataType domain.DataType, date time.Time) (*domain.HealthEntry, error)
	ListByDateRange(ctx context.Context, userID string, from, to time.Time) ([]*domain.HealthEntry, error)
}
