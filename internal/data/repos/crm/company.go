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

type CompanyRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Company) (int, error)
	GetByHubSpotID(ctx context.Context, tx *gorm.DB, hubspotID string) (*types.Company, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Company, error)
	CountByOwner(ctx context.Context, tx *gorm.DB, ownerID int64) (int64, error)
}

type companyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompanyRepo(db *gorm.DB, baseLog *logger.Logger) CompanyRepo {
	return &companyRepo{db: db, log: baseLog.With("repo", "CompanyRepo")}
}

func (r *companyRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Company) (int, error) {
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
				"name",
				"domain",
				"industry",
				"phone",
				"city",
				"state",
				"zip",
				"description",
				"lifecycle_stage",
				"num_employees",
				"annual_revenue",
				"services",
				"owner_id",
				"source_created_at",
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

func (r *companyRepo) GetByHubSpotID(ctx context.Context, tx *gorm.DB, hubspotID string) (*types.Company, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.Company
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

func (r *companyRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Company, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*types.Company
	if err := transaction.WithContext(ctx).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *companyRepo) CountByOwner(ctx context.Context, tx *gorm.DB, ownerID int64) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Company{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
