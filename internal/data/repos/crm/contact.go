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

type ContactRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Contact) (int, error)
	GetByHubSpotID(ctx context.Context, tx *gorm.DB, hubspotID string) (*types.Contact, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Contact, error)
	CountByOwner(ctx context.Context, tx *gorm.DB, ownerID int64) (int64, error)
}

type contactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContactRepo(db *gorm.DB, baseLog *logger.Logger) ContactRepo {
	return &contactRepo{db: db, log: baseLog.With("repo", "ContactRepo")}
}

func (r *contactRepo) Upsert(ctx context.Context, tx *gorm.DB, rows []*types.Contact) (int, error) {
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
				"phone",
				"job_title",
				"lifecycle_stage",
				"lead_status",
				"interests",
				"owner_id",
				"secondary_owner_id",
				"sales_outbound_owner_id",
				"associated_company_id",
				"source_created_at",
				"last_activity_date",
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

func (r *contactRepo) GetByHubSpotID(ctx context.Context, tx *gorm.DB, hubspotID string) (*types.Contact, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.Contact
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

func (r *contactRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Contact, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*types.Contact
	if err := transaction.WithContext(ctx).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *contactRepo) CountByOwner(ctx context.Context, tx *gorm.DB, ownerID int64) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Contact{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
