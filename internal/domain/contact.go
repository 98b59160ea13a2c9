package domain

import (
	"time"

	"gorm.io/datatypes"
)

type Contact struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	HubSpotID string `gorm:"uniqueIndex;not null;column:hubspot_id" json:"hubspot_id"`

	Email          string         `gorm:"column:email" json:"email"`
	FirstName      string         `gorm:"column:first_name" json:"first_name"`
	LastName       string         `gorm:"column:last_name" json:"last_name"`
	Phone          string         `gorm:"column:phone" json:"phone"`
	JobTitle       string         `gorm:"column:job_title" json:"job_title"`
	LifecycleStage string         `gorm:"column:lifecycle_stage" json:"lifecycle_stage"`
	LeadStatus     string         `gorm:"column:lead_status" json:"lead_status"`
	Interests      datatypes.JSON `gorm:"type:jsonb;column:interests" json:"interests"`

	// A contact carries up to three independent owner roles, each resolved
	// separately. Absence of any of them is not an error.
	OwnerID              *int64 `gorm:"column:owner_id" json:"owner_id"`
	SecondaryOwnerID     *int64 `gorm:"column:secondary_owner_id" json:"secondary_owner_id"`
	SalesOutboundOwnerID *int64 `gorm:"column:sales_outbound_owner_id" json:"sales_outbound_owner_id"`

	AssociatedCompanyID *int64 `gorm:"column:associated_company_id" json:"associated_company_id"`

	SourceCreatedAt  *time.Time `gorm:"column:source_created_at" json:"source_created_at"`
	LastActivityDate *time.Time `gorm:"column:last_activity_date" json:"last_activity_date"`

	CreatedAt    time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;default:now()" json:"updated_at"`
	LastSyncedAt *time.Time `gorm:"column:last_synced_at" json:"last_synced_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

func (c Contact) FullName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	case c.LastName != "":
		return c.LastName
	default:
		return c.Email
	}
}
