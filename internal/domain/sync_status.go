package domain

import "time"

const (
	SyncStatusIdle    = "idle"
	SyncStatusRunning = "running"
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// Entity type keys used by the sync ledger, the runner, and the projector.
const (
	EntityOwners        = "owners"
	EntityCompanies     = "companies"
	EntityContacts      = "contacts"
	EntityProperties    = "properties"
	EntityPipelines     = "pipelines"
	EntityDealsPurchase = "deals_purchase"
	EntityDealsSale     = "deals_sale"
	EntityActivities    = "activities"
)

// SyncStatus is the per-entity sync ledger row. LastSuccessfulSyncAt only
// advances on success and survives later failures.
type SyncStatus struct {
	EntityType string `gorm:"primaryKey;column:entity_type" json:"entity_type"`

	Status        string `gorm:"not null;default:idle;column:status" json:"status"`
	RecordsSynced int    `gorm:"column:records_synced" json:"records_synced"`
	ErrorMessage  string `gorm:"column:error_message" json:"error_message"`

	LastSyncAt           *time.Time `gorm:"column:last_sync_at" json:"last_sync_at"`
	LastSuccessfulSyncAt *time.Time `gorm:"column:last_successful_sync_at" json:"last_successful_sync_at"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SyncStatus) TableName() string {
	return "sync_status"
}
