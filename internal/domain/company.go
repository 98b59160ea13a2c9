package domain

import (
	"time"

	"gorm.io/datatypes"
)

type Company struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	HubSpotID string `gorm:"uniqueIndex;not null;column:hubspot_id" json:"hubspot_id"`

	Name           string         `gorm:"column:name" json:"name"`
	Domain         string         `gorm:"column:domain" json:"domain"`
	Industry       string         `gorm:"column:industry" json:"industry"`
	Phone          string         `gorm:"column:phone" json:"phone"`
	City           string         `gorm:"column:city" json:"city"`
	State          string         `gorm:"column:state" json:"state"`
	Zip            string         `gorm:"column:zip" json:"zip"`
	Description    string         `gorm:"column:description" json:"description"`
	LifecycleStage string         `gorm:"column:lifecycle_stage" json:"lifecycle_stage"`
	NumEmployees   *int64         `gorm:"column:num_employees" json:"num_employees"`
	AnnualRevenue  *float64       `gorm:"column:annual_revenue" json:"annual_revenue"`
	Services       datatypes.JSON `gorm:"type:jsonb;column:services" json:"services"`

	// Internal owner reference, resolved from the source-side owner id.
	OwnerID *int64 `gorm:"column:owner_id" json:"owner_id"`

	SourceCreatedAt *time.Time `gorm:"column:source_created_at" json:"source_created_at"`

	CreatedAt    time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;default:now()" json:"updated_at"`
	LastSyncedAt *time.Time `gorm:"column:last_synced_at" json:"last_synced_at"`
}

func (Company) TableName() string {
	return "companies"
}
