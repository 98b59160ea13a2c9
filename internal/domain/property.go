package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Property is the custom real-estate object tracked alongside the standard
// CRM objects.
type Property struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	HubSpotID string `gorm:"uniqueIndex;not null;column:hubspot_id" json:"hubspot_id"`

	Name         string         `gorm:"column:name" json:"name"`
	Address      string         `gorm:"column:address" json:"address"`
	City         string         `gorm:"column:city" json:"city"`
	State        string         `gorm:"column:state" json:"state"`
	Zip          string         `gorm:"column:zip" json:"zip"`
	Status       string         `gorm:"column:status" json:"status"`
	PropertyType datatypes.JSON `gorm:"type:jsonb;column:property_type" json:"property_type"`
	Bedrooms     *int64         `gorm:"column:bedrooms" json:"bedrooms"`
	Bathrooms    *float64       `gorm:"column:bathrooms" json:"bathrooms"`
	SquareFeet   *float64       `gorm:"column:square_feet" json:"square_feet"`
	ListPrice    *float64       `gorm:"column:list_price" json:"list_price"`

	OwnerID *int64 `gorm:"column:owner_id" json:"owner_id"`

	SourceCreatedAt *time.Time `gorm:"column:source_created_at" json:"source_created_at"`

	CreatedAt    time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;default:now()" json:"updated_at"`
	LastSyncedAt *time.Time `gorm:"column:last_synced_at" json:"last_synced_at"`
}

func (Property) TableName() string {
	return "properties"
}
