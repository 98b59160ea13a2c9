// Package syncstate is the per-entity sync ledger. One row per entity type,
// updated idempotently around each sync run.
package syncstate

import (
	"context"
	"errors"
	"time"

	types "github.com/estlink/crmbridge-backend/internal/domain"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo interface {
	Get(ctx context.Context, tx *gorm.DB, entityType string) (*types.SyncStatus, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*types.SyncStatus, error)

	// MarkRunning stamps the run start without touching the last success.
	MarkRunning(ctx context.Context, tx *gorm.DB, entityType string) error

	// MarkSuccess records the outcome and advances last_successful_sync_at.
	MarkSuccess(ctx context.Context, tx *gorm.DB, entityType string, recordsSynced int) error

	// MarkError records the failure; last_successful_sync_at keeps its value.
	MarkError(ctx context.Context, tx *gorm.DB, entityType string, errMsg string) error
}

type repo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepo(db *gorm.DB, baseLog *logger.Logger) Repo {
	return &repo{db: db, log: baseLog.With("repo", "SyncStatusRepo")}
}

func (r *repo) Get(ctx context.Context, tx *gorm.DB, entityType string) (*types.SyncStatus, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.SyncStatus
	err := transaction.WithContext(ctx).
		Where("entity_type = ?", entityType).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.SyncStatus, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*types.SyncStatus
	if err := transaction.WithContext(ctx).
		Order("entity_type ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) MarkRunning(ctx context.Context, tx *gorm.DB, entityType string) error {
	now := time.Now().UTC()
	return r.upsert(ctx, tx, &types.SyncStatus{
		EntityType: entityType,
		Status:     types.SyncStatusRunning,
		LastSyncAt: &now,
	}, []string{"status", "last_sync_at", "updated_at"})
}

func (r *repo) MarkSuccess(ctx context.Context, tx *gorm.DB, entityType string, recordsSynced int) error {
	now := time.Now().UTC()
	return r.upsert(ctx, tx, &types.SyncStatus{
		EntityType:           entityType,
		Status:               types.SyncStatusSuccess,
		RecordsSynced:        recordsSynced,
		ErrorMessage:         "",
		LastSyncAt:           &now,
		LastSuccessfulSyncAt: &now,
	}, []string{
		"status",
		"records_synced",
		"error_message",
		"last_sync_at",
		"last_successful_sync_at",
		"updated_at",
	})
}

func (r *repo) MarkError(ctx context.Context, tx *gorm.DB, entityType string, errMsg string) error {
	now := time.Now().UTC()
	return r.upsert(ctx, tx, &types.SyncStatus{
		EntityType:   entityType,
		Status:       types.SyncStatusError,
		ErrorMessage: errMsg,
		LastSyncAt:   &now,
	}, []string{"status", "error_message", "last_sync_at", "updated_at"})
}

func (r *repo) upsert(ctx context.Context, tx *gorm.DB, row *types.SyncStatus, updateColumns []string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	row.UpdatedAt = time.Now().UTC()

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entity_type"}},
			DoUpdates: clause.AssignmentColumns(updateColumns),
		}).
		Create(row).Error
}
