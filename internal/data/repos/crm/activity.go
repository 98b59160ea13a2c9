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

type ActivityRepo interface {
	// UpsertOne writes the activity row and returns its internal id, fetched
	// when the insert hit the conflict path.
	UpsertOne(ctx context.Context, tx *gorm.DB, row *types.Activity) (int64, error)
	ReplaceDetail(ctx context.Context, tx *gorm.DB, detail *types.ActivityDetail) error
	UpsertAssociations(ctx context.Context, tx *gorm.DB, rows []*types.ActivityAssociation) error
	GetByHubSpotID(ctx context.Context, tx *gorm.DB, hubspotID string) (*types.Activity, error)
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Activity, error)
	// ListAll returns every activity row. Projection must see the whole
	// table so the vector collection matches the database counts.
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Activity, error)
	GetDetail(ctx context.Context, tx *gorm.DB, activityID int64) (*types.ActivityDetail, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return &activityRepo{db: db, log: baseLog.With("repo", "ActivityRepo")}
}

func (r *activityRepo) UpsertOne(ctx context.Context, tx *gorm.DB, row *types.Activity) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return 0, nil
	}

	now := time.Now().UTC()
	row.LastSyncedAt = &now

	err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "hubspot_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"type",
				"owner_id",
				"active",
				"occurred_at",
				"last_synced_at",
				"updated_at",
			}),
		}).
		Create(row).Error
	if err != nil {
		return 0, err
	}

	if row.ID != 0 {
		return row.ID, nil
	}
	var existing types.Activity
	if err := transaction.WithContext(ctx).
		Where("hubspot_id = ?", row.HubSpotID).
		First(&existing).Error; err != nil {
		return 0, err
	}
	return existing.ID, nil
}

func (r *activityRepo) ReplaceDetail(ctx context.Context, tx *gorm.DB, detail *types.ActivityDetail) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if detail == nil || detail.ActivityID == 0 {
		return nil
	}
	detail.UpdatedAt = time.Now().UTC()

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "activity_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"subject",
				"body",
				"metadata",
				"updated_at",
			}),
		}).
		Create(detail).Error
}

func (r *activityRepo) UpsertAssociations(ctx context.Context, tx *gorm.DB, rows []*types.ActivityAssociation) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "activity_id"},
				{Name: "object_type"},
				{Name: "hubspot_object_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"object_id"}),
		}).
		Create(&rows).Error
}

func (r *activityRepo) GetByHubSpotID(ctx context.Context, tx *gorm.DB, hubspotID string) (*types.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.Activity
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

func (r *activityRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 500
	}

	var rows []*types.Activity
	if err := transaction.WithContext(ctx).
		Order("occurred_at DESC NULLS LAST").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *activityRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Activity, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*types.Activity
	if err := transaction.WithContext(ctx).
		Order("occurred_at DESC NULLS LAST").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *activityRepo) GetDetail(ctx context.Context, tx *gorm.DB, activityID int64) (*types.ActivityDetail, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.ActivityDetail
	err := transaction.WithContext(ctx).
		Where("activity_id = ?", activityID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
