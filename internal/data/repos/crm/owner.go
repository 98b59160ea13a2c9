package crm

import (
	"context"
	"errors"
	"time"

	types "github.com/estlink/crmbridge-backend/internal/domain"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OwnerRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Owner) (int, error)
	GetByHubSpotID(ctx context.Context, tx *gorm.DB, hubspotID string) (*types.Owner, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Owner, error)
}

type ownerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOwnerRepo(db *gorm.DB, baseLog *logger.Logger) OwnerRepo {
	return &ownerRepo{db: db, log: baseLog.With("repo", "OwnerRepo")}
}

func (r *ownerRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Owner) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	for _, row := range rows {
		row.LastSyncedAt = &now
	}

	err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "hubspot_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"email",
				"first_name",
				"last_name",
				"user_id",
				"archived",
				"teams",
				"last_synced_at",
				"updated_at",
			}),
		}).
		Create(&rows).Error
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (r *ownerRepo) GetByHubSpotID(ctx context.Context, tx *gorm.DB, hubspotID string) (*types.Owner, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.Owner
	err := transaction.WithContext(ctx).
		Where("hubspot_id = ?", hubspotID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *ownerRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Owner, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*types.Owner
	if err := transaction.WithContext(ctx).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
