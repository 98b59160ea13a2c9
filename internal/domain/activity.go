package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ActivityTypeCall  = "CALL"
	ActivityTypeEmail = "EMAIL"
	ActivityTypeNote  = "NOTE"
)

// Activity is one retained engagement (call, email, or note). The typed
// payload of the engagement lives in ActivityDetail.
type Activity struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	HubSpotID string `gorm:"uniqueIndex;not null;column:hubspot_id" json:"hubspot_id"`

	Type    string `gorm:"not null;index;column:type" json:"type"`
	OwnerID *int64 `gorm:"column:owner_id" json:"owner_id"`
	Active  bool   `gorm:"column:active" json:"active"`

	OccurredAt *time.Time `gorm:"index;column:occurred_at" json:"occurred_at"`

	CreatedAt    time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;default:now()" json:"updated_at"`
	LastSyncedAt *time.Time `gorm:"column:last_synced_at" json:"last_synced_at"`
}

func (Activity) TableName() string {
	return "activities"
}

// ActivityDetail holds the engagement payload. Subject and Body are lifted
// out for rendering; the rest of the source metadata stays in Metadata.
type ActivityDetail struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ActivityID int64          `gorm:"uniqueIndex;not null;column:activity_id" json:"activity_id"`
	Subject    string         `gorm:"column:subject" json:"subject"`
	Body       string         `gorm:"column:body" json:"body"`
	Metadata   datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ActivityDetail) TableName() string {
	return "activity_details"
}

const (
	AssociationObjectContact = "contact"
	AssociationObjectCompany = "company"
	AssociationObjectDeal    = "deal"
)

// ActivityAssociation links an activity to a CRM object. ObjectID is the
// internal id when the object has already been synced, nil otherwise;
// HubSpotObjectID is always kept so later runs can re-resolve.
type ActivityAssociation struct {
	ID              int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ActivityID      int64  `gorm:"not null;index;uniqueIndex:idx_activity_assoc,priority:1;column:activity_id" json:"activity_id"`
	ObjectType      string `gorm:"not null;uniqueIndex:idx_activity_assoc,priority:2;column:object_type" json:"object_type"`
	HubSpotObjectID string `gorm:"not null;uniqueIndex:idx_activity_assoc,priority:3;column:hubspot_object_id" json:"hubspot_object_id"`
	ObjectID        *int64 `gorm:"column:object_id" json:"object_id"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ActivityAssociation) TableName() string {
	return "activity_associations"
}
