package customization

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/printmarket/backend/internal/domain/customization"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/infrastructure/logger"
	"github.com/printmarket/backend/internal/infrastructure/telemetry"
)

const defaultRetryAttempts = 3

// requestUpdater loads, mutates and saves a request under the optimistic
// lock, reloading on conflict so fn always sees committed state
type requestUpdater struct {
	repo     customization.RequestRepository
	attempts int
	metrics  *telemetry.Metrics
	logger   *zap.Logger
}

func (u requestUpdater) load(ctx context.Context, id uuid.UUID) (*customization.CustomizationRequest, error) {
	req, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load customization request %s: %w", id, err)
	}
	if req == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Customization request not found")
	}
	return req, nil
}

func (u requestUpdater) update(ctx context.Context, id uuid.UUID, fn func(*customization.CustomizationRequest) error) (*customization.CustomizationRequest, error) {
	var saved *customization.CustomizationRequest
	err := shared.RetryOnConflict(ctx, u.attempts, func(ctx context.Context) error {
		req, err := u.load(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(req); err != nil {
			return err
		}
		if err := u.repo.SaveWithLock(ctx, req); err != nil {
			return err
		}
		saved = req
		return nil
	}, func(attempt int) {
		u.metrics.RecordLockRetry(customization.AggregateTypeCustomizationRequest)
		logger.For(ctx, u.logger).Info("Customization request modified concurrently, retrying",
			zap.String("request_id", id.String()),
			zap.Int("attempt", attempt))
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func publishEvents(ctx context.Context, publisher shared.EventPublisher, log *zap.Logger, req *customization.CustomizationRequest) {
	events := req.GetDomainEvents()
	req.ClearDomainEvents()
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.For(ctx, log).Error("Failed to publish customization events",
			zap.String("request_id", req.ID.String()),
			zap.Error(err))
	}
}
