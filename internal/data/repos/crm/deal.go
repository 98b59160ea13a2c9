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

// DealRepo covers both deal tables; the synchronizers decide which side a
// record belongs to before it gets here.
type DealRepo interface {
	UpsertPurchases(ctx context.Context, tx *gorm.DB, rows []*types.DealPurchase) (int, error)
	UpsertSales(ctx context.Context, tx *gorm.DB, rows []*types.DealSale) (int, error)
	GetPurchaseByHubSpotID(ctx context.Context, tx *gorm.DB, hubspotID string) (*types.DealPurchase, error)
	GetSaleByHubSpotID(ctx context.Context, tx *gorm.DB, hubspotID string) (*types.DealSale, error)
	ListAllPurchases(ctx context.Context, tx *gorm.DB) ([]*types.DealPurchase, error)
	ListAllSales(ctx context.Context, tx *gorm.DB) ([]*types.DealSale, error)
	CountPurchasesByOwner(ctx context.Context, tx *gorm.DB, ownerID int64) (int64, error)
	CountSalesByOwner(ctx context.Context, tx *gorm.DB, ownerID int64) (int64, error)
}

type dealRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDealRepo(db *gorm.DB, baseLog *logger.Logger) DealRepo {
	return &dealRepo{db: db, log: baseLog.With("repo", "DealRepo")}
}

var dealAssignmentColumns = []string{
	"deal_name",
	"amount",
	"closed_price",
	"deal_type",
	"stage_id",
	"owner_id",
	"lead_acquirer_id",
	"deal_creator_id",
	"close_date",
	"source_created_at",
	"last_synced_at",
	"updated_at",
}

func (r *dealRepo) UpsertPurchases(ctx context.Context, tx *gorm.DB, rows []*types.DealPurchase) (int, error) {
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
			Columns:   []clause.Column{{Name: "hubspot_id"}},
			DoUpdates: clause.AssignmentColumns(dealAssignmentColumns),
		}).
		Create(&rows).Error
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (r *dealRepo) UpsertSales(ctx context.Context, tx *gorm.DB, rows []*types.DealSale) (int, error) {
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
			Columns:   []clause.Column{{Name: "hubspot_id"}},
			DoUpdates: clause.AssignmentColumns(dealAssignmentColumns),
		}).
		Create(&rows).Error
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (r *dealRepo) GetPurchaseByHubSpotID(ctx context.Context, tx *gorm.DB, hubspotID string) (*types.DealPurchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.DealPurchase
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

func (r *dealRepo) GetSaleByHubSpotID(ctx context.Context, tx *gorm.DB, hubspotID string) (*types.DealSale, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.DealSale
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

func (r *dealRepo) ListAllPurchases(ctx context.Context, tx *gorm.DB) ([]*types.DealPurchase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*types.DealPurchase
	if err := transaction.WithContext(ctx).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *dealRepo) ListAllSales(ctx context.Context, tx *gorm.DB) ([]*types.DealSale, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var rows []*types.DealSale
	if err := transaction.WithContext(ctx).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *dealRepo) CountPurchasesByOwner(ctx context.Context, tx *gorm.DB, ownerID int64) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.DealPurchase{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *dealRepo) CountSalesByOwner(ctx context.Context, tx *gorm.DB, ownerID int64) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.DealSale{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
