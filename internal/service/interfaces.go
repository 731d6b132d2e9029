package service

import (
	"context"
	"time"

	"github.com/vitalbite/wearable-sync/internal/domain"
	"github.com/vitalbite/wearable-sync/internal/terra"
)

// WebhookOutcome describes how one inbound webhook was handled. Received is
// always true for anything the service decided to acknowledge; the sender
// must not be made to retry events the receiver intentionally skipped.
type WebhookOutcome struct {
	Received bool
	Updated  bool
	Items    int
	Reason   string
}

// WebhookService runs the ingestion pipeline for one inbound webhook
type WebhookService interface {
	Process(ctx context.Context, body []byte, signature string) (*WebhookOutcome, error)
}

// ConnectionService manages a user's wearable provider connections
type ConnectionService interface {
	// Connect generates a hosted-authorization session at the aggregation provider
	Connect(ctx context.Context, userID string, providers []string) (*terra.WidgetSession, error)
	// Disconnect revokes the remote authorization best-effort and always
	// transitions the local record to disconnected
	Disconnect(ctx context.Context, userID, provider string) error
	List(ctx context.Context, userID string) ([]*domain.ConnectedProvider, error)
}

// SummaryService is the pure read side over persisted health entries
type SummaryService interface {
	Today(ctx context.Context, userID string, date time.Time) (*domain.DailySummary, error)
	WeeklyAverage(ctx context.Context, userID string, end time.Time) (*domain.WeeklySummary, error)
}

// ProviderClient is the outbound surface of the aggregation provider needed
// by the orchestrators; satisfied by terra.Client
type ProviderClient interface {
	GenerateWidgetSession(ctx context.Context, referenceID string, providers []string) (*terra.WidgetSession, error)
	DeauthenticateUser(ctx context.Context, externalUserID string) error
}

// SummaryCache caches computed summary views per user and drops them when new
// data lands
type SummaryCache interface {
	// Get loads a cached view into dest, reporting whether it was present
	Get(ctx context.Context, userID, view string, dest any) (bool, error)
	Set(ctx context.Context, userID, view string, value any) error
	Invalidate(ctx context.Context, userID string) error
}
