package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Owner is a CRM user who can be assigned to companies, contacts, deals, and
// activities. HubSpotID is the external business key; internal rows reference
// owners only through ID.
type Owner struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	HubSpotID string         `gorm:"uniqueIndex;not null;column:hubspot_id" json:"hubspot_id"`
	Email     string         `gorm:"column:email" json:"email"`
	FirstName string         `gorm:"column:first_name" json:"first_name"`
	LastName  string         `gorm:"column:last_name" json:"last_name"`
	UserID    *int64         `gorm:"column:user_id" json:"user_id"`
	Archived  bool           `gorm:"column:archived" json:"archived"`
	Teams     datatypes.JSON `gorm:"type:jsonb;column:teams" json:"teams"`

	CreatedAt    time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;default:now()" json:"updated_at"`
	LastSyncedAt *time.Time `gorm:"column:last_synced_at" json:"last_synced_at"`
}

func (Owner) TableName() string {
	return "owners"
}

// FullName is the display name used in rendered documents and the owner
// directory.
func (o Owner) FullName() string {
	switch {
	case o.FirstName != "" && o.LastName != "":
		return o.FirstName + " " + o.LastName
	case o.FirstName != "":
		return o.FirstName
	case o.LastName != "":
		return o.LastName
	default:
		return o.Email
	}
}
