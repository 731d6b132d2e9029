package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vitalbite/wearable-sync/internal/domain"
	"github.com/vitalbite/wearable-sync/internal/repository"
	"github.com/vitalbite/wearable-sync/pkg/observability"
	"go.uber.org/zap"
)

const (
	outcomeProcessed      = "processed"
	outcomeSkipped        = "skipped"
	outcomeUnattributable = "unattributable"
	outcomeUnknownType    = "unknown_type"
	outcomeMalformed      = "malformed"
	outcomeFailed         = "failed"
)

// webhookService implements WebhookService: verify, classify, normalize,
// persist, then update the connection lifecycle.
type webhookService struct {
	verifier    *SignatureVerifier
	normalizer  *Normalizer
	connections repository.ConnectionRepository
	entries     repository.EntryRepository
	cache       SummaryCache
	metrics     *observability.PipelineMetrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewWebhookService creates the ingestion pipeline service
func NewWebhookService(
	verifier *SignatureVerifier,
	normalizer *Normalizer,
	connections repository.ConnectionRepository,
	entries repository.EntryRepository,
	cache SummaryCache,
	metrics *observability.PipelineMetrics,
	logger *zap.Logger,
) WebhookService {
	return &webhookService{
		verifier:    verifier,
		normalizer:  normalizer,
		connections: connections,
		entries:     entries,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Process handles one inbound webhook. A returned error means the sender must
// retry: either the signature failed (handler responds 401) or persistence
// failed mid-batch (handler responds 500; entries already merged stay
// committed and converge on redelivery).
func (s *webhookService) Process(ctx context.Context, body []byte, signature string) (*WebhookOutcome, error) {
	if err := s.verifier.Verify(body, signature); err != nil {
		return nil, err
	}

	var envelope domain.WebhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		s.metrics.RecordEvent(ctx, "invalid", outcomeMalformed)
		s.logger.Warn("Discarding malformed webhook body", zap.Error(err))
		return &WebhookOutcome{Received: true, Reason: "malformed payload"}, nil
	}

	eventType := domain.Classify(envelope.Type)
	if eventType == domain.EventTypeUnknown {
		// providers add event types over time; acknowledge so the sender
		// does not retry forever
		s.metrics.RecordEvent(ctx, envelope.Type, outcomeUnknownType)
		s.logger.Info("Ignoring unrecognized webhook type", zap.String("type", envelope.Type))
		return &WebhookOutcome{Received: true, Reason: "unknown event type"}, nil
	}

	if !envelope.Attributable() {
		// no local user reference: not an error, just unprocessable
		s.metrics.RecordEvent(ctx, envelope.Type, outcomeUnattributable)
		s.logger.Info("Ignoring unattributable webhook", zap.String("type", envelope.Type))
		return &WebhookOutcome{Received: true, Reason: "unattributable"}, nil
	}

	switch eventType {
	case domain.EventTypeAuth:
		return s.handleAuth(ctx, &envelope)
	case domain.EventTypeDeauth:
		return s.handleDeauth(ctx, &envelope)
	default:
		return s.handleData(ctx, &envelope, eventType)
	}
}

func (s *webhookService) handleAuth(ctx context.Context, envelope *domain.WebhookEnvelope) (*WebhookOutcome, error) {
	err := s.connections.Connect(ctx, envelope.User.ReferenceID, envelope.User.Provider, envelope.User.UserID, s.now())
	if err != nil {
		s.metrics.RecordEvent(ctx, envelope.Type, outcomeFailed)
		return nil, fmt.Errorf("failed to establish connection: %w", err)
	}

	s.metrics.RecordEvent(ctx, envelope.Type, outcomeProcessed)
	s.logger.Info("Provider connection established",
		zap.String("user_id", envelope.User.ReferenceID),
		zap.String("provider", envelope.User.Provider),
	)
	return &WebhookOutcome{Received: true, Updated: true}, nil
}

func (s *webhookService) handleDeauth(ctx context.Context, envelope *domain.WebhookEnvelope) (*WebhookOutcome, error) {
	err := s.connections.MarkDisconnected(ctx, envelope.User.ReferenceID, envelope.User.Provider, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// revocation for a connection this system never saw; acknowledge
			s.metrics.RecordEvent(ctx, envelope.Type, outcomeSkipped)
			return &WebhookOutcome{Received: true, Reason: "unknown connection"}, nil
		}
		s.metrics.RecordEvent(ctx, envelope.Type, outcomeFailed)
		return nil, fmt.Errorf("failed to revoke connection: %w", err)
	}

	s.metrics.RecordEvent(ctx, envelope.Type, outcomeProcessed)
	s.logger.Info("Provider connection revoked",
		zap.String("user_id", envelope.User.ReferenceID),
		zap.String("provider", envelope.User.Provider),
	)
	return &WebhookOutcome{Received: true, Updated: true}, nil
}

// handleData normalizes and persists each item of a data event. The batch is
// not atomic: a persistence failure aborts the remaining items and surfaces as
// an error, leaving already-merged entries committed. Redelivery is safe
// because every merge is idempotent.
func (s *webhookService) handleData(ctx context.Context, envelope *domain.WebhookEnvelope, eventType domain.EventType) (*WebhookOutcome, error) {
	var merged int
	var skipped int

	for _, raw := range envelope.Data {
		draft, err := s.normalizer.Normalize(eventType, envelope.User.ReferenceID, envelope.User.Provider, raw)
		if err != nil {
			skipped++
			s.logger.Warn("Skipping malformed data item",
				zap.String("type", envelope.Type),
				zap.String("user_id", envelope.User.ReferenceID),
				zap.Error(err),
			)
			continue
		}
		if draft == nil {
			skipped++
			continue
		}

		if err := s.entries.Merge(ctx, draft); err != nil {
			s.metrics.RecordEvent(ctx, envelope.Type, outcomeFailed)
			return nil, fmt.Errorf("failed to persist %s entry for %s: %w", draft.DataType, draft.Date.Format("2006-01-02"), err)
		}
		merged++
		s.metrics.RecordEntries(ctx, string(draft.DataType), 1)
	}

	if merged == 0 {
		s.metrics.RecordEvent(ctx, envelope.Type, outcomeSkipped)
		return &WebhookOutcome{Received: true, Reason: "no usable items"}, nil
	}

	// the data stream implies an established connection, so the lifecycle
	// record is created here when the auth event was never seen
	if err := s.connections.TouchSync(ctx, envelope.User.ReferenceID, envelope.User.Provider, envelope.User.UserID, s.now()); err != nil {
		s.metrics.RecordEvent(ctx, envelope.Type, outcomeFailed)
		return nil, fmt.Errorf("failed to record sync: %w", err)
	}

	if err := s.cache.Invalidate(ctx, envelope.User.ReferenceID); err != nil {
		// stale summary for one TTL window; not worth failing the webhook
		s.logger.Warn("Failed to invalidate summary cache",
			zap.String("user_id", envelope.User.ReferenceID),
			zap.Error(err),
		)
	}

	s.metrics.RecordEvent(ctx, envelope.Type, outcomeProcessed)
	s.logger.Info("Webhook processed",
		zap.String("type", envelope.Type),
		zap.String("user_id", envelope.User.ReferenceID),
		zap.String("provider", envelope.User.Provider),
		zap.Int("merged", merged),
		zap.Int("skipped", skipped),
	)

	return &WebhookOutcome{Received: true, Updated: true, Items: merged}, nil
}
