package promotions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a promotions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, promotion *models.Promotion) (*models.Promotion, error) {
	if err := r.db.WithContext(ctx).Create(promotion).Error; err != nil {
		return nil, err
	}
	return promotion, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	var promotion models.Promotion
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&promotion).Error
	if err != nil {
		return nil, err
	}
	return &promotion, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Promotion, error) {
	var promotion models.Promotion
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&promotion).Error
	if err != nil {
		return nil, err
	}
	return &promotion, nil
}

func (r *repository) ListByMerchant(ctx context.Context, merchantID uuid.UUID, params pagination.Params) (*PromotionList, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Promotion{}).Where("merchant_id = ?", merchantID)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Promotion
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &PromotionList{Promotions: rows}
	if len(rows) > normalized {
		next := rows[normalized]
		list.Promotions = rows[:normalized]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
	}
	return list, nil
}

// FindCandidates returns active, unexpired, under-limit promotions for the
// merchant, oldest first so tie-breaks favor the earliest creation.
func (r *repository) FindCandidates(ctx context.Context, merchantID uuid.UUID, now time.Time) ([]models.Promotion, error) {
	var rows []models.Promotion
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Where("is_active = ?", true).
		Where("used_count < usage_limit").
		Where("expires_at IS NULL OR expires_at >= ?", now).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// IncrementUsage consumes one use. The guard enforces the usage limit under
// concurrent redemptions; zero affected rows means the limit was hit.
func (r *repository) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE promotions
		SET used_count = used_count + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND is_active = ? AND used_count < usage_limit
	`, id, true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CreateRedemption(ctx context.Context, redemption *models.PromotionRedemption) error {
	if redemption.ID == uuid.Nil {
		redemption.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(redemption).Error
}

// ListExpiredActive returns active promotions whose expiry has passed, oldest
// first.
func (r *repository) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]models.Promotion, error) {
	var promotions []models.Promotion
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&promotions).Error
	if err != nil {
		return nil, err
	}
	return promotions, nil
}

func (r *repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("is_active = ?", true).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Update("is_active", false)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
