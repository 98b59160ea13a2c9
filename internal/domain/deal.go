package domain

import (
	"time"

	"gorm.io/datatypes"
)

// DealPurchase and DealSale carry the same deal shape but live in separate
// tables, split by source pipeline. A deal row is written to exactly one of
// the two.

type DealPurchase struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	HubSpotID string `gorm:"uniqueIndex;not null;column:hubspot_id" json:"hubspot_id"`

	DealName    string         `gorm:"column:deal_name" json:"deal_name"`
	Amount      *float64       `gorm:"column:amount" json:"amount"`
	ClosedPrice *float64       `gorm:"column:closed_price" json:"closed_price"`
	DealType    datatypes.JSON `gorm:"type:jsonb;column:deal_type" json:"deal_type"`

	StageID *int64 `gorm:"column:stage_id" json:"stage_id"`

	// Three independently resolved owner roles.
	OwnerID        *int64 `gorm:"column:owner_id" json:"owner_id"`
	LeadAcquirerID *int64 `gorm:"column:lead_acquirer_id" json:"lead_acquirer_id"`
	DealCreatorID  *int64 `gorm:"column:deal_creator_id" json:"deal_creator_id"`

	CloseDate       *time.Time `gorm:"column:close_date" json:"close_date"`
	SourceCreatedAt *time.Time `gorm:"column:source_created_at" json:"source_created_at"`

	CreatedAt    time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;default:now()" json:"updated_at"`
	LastSyncedAt *time.Time `gorm:"column:last_synced_at" json:"last_synced_at"`
}

func (DealPurchase) TableName() string {
	return "deals_purchase"
}

type DealSale struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	HubSpotID string `gorm:"uniqueIndex;not null;column:hubspot_id" json:"hubspot_id"`

	DealName    string         `gorm:"column:deal_name" json:"deal_name"`
	Amount      *float64       `gorm:"column:amount" json:"amount"`
	ClosedPrice *float64       `gorm:"column:closed_price" json:"closed_price"`
	DealType    datatypes.JSON `gorm:"type:jsonb;column:deal_type" json:"deal_type"`

	StageID *int64 `gorm:"column:stage_id" json:"stage_id"`

	OwnerID        *int64 `gorm:"column:owner_id" json:"owner_id"`
	LeadAcquirerID *int64 `gorm:"column:lead_acquirer_id" json:"lead_acquirer_id"`
	DealCreatorID  *int64 `gorm:"column:deal_creator_id" json:"deal_creator_id"`

	CloseDate       *time.Time `gorm:"column:close_date" json:"close_date"`
	SourceCreatedAt *time.Time `gorm:"column:source_created_at" json:"source_created_at"`

	CreatedAt    time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;default:now()" json:"updated_at"`
	LastSyncedAt *time.Time `gorm:"column:last_synced_at" json:"last_synced_at"`
}

func (DealSale) TableName() string {
	return "deals_sale"
}
