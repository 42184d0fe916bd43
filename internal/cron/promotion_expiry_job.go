package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/internal/promotions"
	"github.com/souqly/souqly-backend/pkg/enums"
	"github.com/souqly/souqly-backend/pkg/logger"
	"github.com/souqly/souqly-backend/pkg/outbox"
)

const promotionExpiryBatch = 200

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// PromotionExpiryJobParams configure the daily promotion sweep.
type PromotionExpiryJobParams struct {
	Logger *logger.Logger
	DB     txRunner
	Repo   promotions.Repository
	Outbox outboxPublisher
	Batch  int
}

// NewPromotionExpiryJob builds the job that deactivates expired promotions and
// emits a deactivation event per row.
func NewPromotionExpiryJob(params PromotionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("promotions repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	batch := params.Batch
	if batch <= 0 {
		batch = promotionExpiryBatch
	}
	return &promotionExpiryJob{
		logg:   params.Logger,
		db:     params.DB,
		repo:   params.Repo,
		outbox: params.Outbox,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type promotionExpiryJob struct {
	logg   *logger.Logger
	db     txRunner
	repo   promotions.Repository
	outbox outboxPublisher
	batch  int
	now    func() time.Time
}

func (j *promotionExpiryJob) Name() string { return "promotion-expiry" }

func (j *promotionExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	expired, err := j.repo.ListExpiredActive(ctx, now, j.batch)
	if err != nil {
		return fmt.Errorf("list expired promotions: %w", err)
	}
	if len(expired) == 0 {
		j.logg.Info(ctx, "no expired promotions")
		return nil
	}

	var errs []error
	deactivated := 0
	for _, promotion := range expired {
		promotion := promotion
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			if err := j.repo.WithTx(tx).Update(ctx, promotion.ID, map[string]any{"is_active": false}); err != nil {
				return err
			}
			event := outbox.DomainEvent{
				EventType:     enums.EventPromotionDeactivated,
				AggregateType: enums.AggregatePromotion,
				AggregateID:   promotion.ID,
				Version:       1,
				Data: map[string]any{
					"promotion_id": promotion.ID,
					"merchant_id":  promotion.MerchantID,
					"code":         promotion.Code,
				},
			}
			return j.outbox.Emit(ctx, tx, event)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("promotion %s: %w", promotion.ID, err))
			continue
		}
		deactivated++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"expired":     len(expired),
		"deactivated": deactivated,
		"failed":      len(errs),
	})
	j.logg.Info(logCtx, "promotion expiry sweep complete")
	return multierr.Combine(errs...)
}
