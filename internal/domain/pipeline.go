package domain

import "time"

const (
	PipelineTypePurchase = "purchase"
	PipelineTypeSales    = "sales"
)

type Pipeline struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	HubSpotID string `gorm:"uniqueIndex;not null;column:hubspot_id" json:"hubspot_id"`

	Type         string `gorm:"not null;column:type" json:"type"`
	Label        string `gorm:"column:label" json:"label"`
	DisplayOrder int    `gorm:"column:display_order" json:"display_order"`

	CreatedAt    time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;default:now()" json:"updated_at"`
	LastSyncedAt *time.Time `gorm:"column:last_synced_at" json:"last_synced_at"`
}

func (Pipeline) TableName() string {
	return "pipelines"
}

type PipelineStage struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	PipelineID int64  `gorm:"not null;index;column:pipeline_id" json:"pipeline_id"`
	HubSpotID  string `gorm:"uniqueIndex;not null;column:hubspot_id" json:"hubspot_id"`

	Label        string   `gorm:"column:label" json:"label"`
	DisplayOrder int      `gorm:"column:display_order" json:"display_order"`
	Probability  *float64 `gorm:"column:probability" json:"probability"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (PipelineStage) TableName() string {
	return "pipeline_stages"
}
