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

type PipelineRepo interface {
	UpsertPipeline(ctx context.Context, tx *gorm.DB, row *types.Pipeline) (*types.Pipeline, error)
	UpsertStages(ctx context.Context, tx *gorm.DB, rows []*types.PipelineStage) (int, error)
	GetStageByHubSpotID(ctx context.Context, tx *gorm.DB, hubspotID string) (*types.PipelineStage, error)
	ListAllStages(ctx context.Context, tx *gorm.DB) ([]*types.PipelineStage, error)
}

type pipelineRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPipelineRepo(db *gorm.DB, baseLog *logger.Logger) PipelineRepo {
	return &pipelineRepo{db: db, log: baseLog.With("repo", "PipelineRepo")}
}

func (r *pipelineRepo) UpsertPipeline(ctx context.Context, tx *gorm.DB, row *types.Pipeline) (*types.Pipeline, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	row.LastSyncedAt = &now

	err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "hubspot_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"type",
				"label",
				"display_order",
				"last_synced_at",
				"updated_at",
			}),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}

	// On conflict the insert does not report the surviving row id; fetch it.
	if row.ID == 0 {
		var existing types.Pipeline
		if err := transaction.WithContext(ctx).
			Where("hubspot_id = ?", row.HubSpotID).
			First(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	return row, nil
}

func (r *pipelineRepo) UpsertStages(ctx context.Context, tx *gorm.DB, rows []*types.PipelineStage) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return 0, nil
	}

	err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "hubspot_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"pipeline_id",
				"label",
				"display_order",
				"probability",
				"updated_at",
			}),
		}).
		Create(&rows).Error
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (r *pipelineRepo) GetStageByHubSpotID(ctx context.Context, tx *gorm.DB, hubspotID string) (*types.PipelineStage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.PipelineStage
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

func (r *pipelineRepo) ListAllStages(ctx context.Context, tx *gorm.DB) ([]*types.PipelineStage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*types.PipelineStage
	if err := transaction.WithContext(ctx).
		Order("pipeline_id ASC, display_order ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
