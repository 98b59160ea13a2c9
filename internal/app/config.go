package app

import (
	"time"

	"github.com/estlink/crmbridge-backend/internal/platform/envutil"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
)

// Pipeline ids are stable per portal; the defaults are this portal's.
const (
	defaultPurchasePipelineID = "675713658"
	defaultSalesPipelineID    = "682910274"
)

type Config struct {
	PurchasePipelineID string
	SalesPipelineID    string

	// HubSpot custom object type for real-estate listings.
	PropertyObjectType string

	BusinessCollection string
	SchemaCollection   string
	HistoryCollection  string

	ProjectionInterval time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		PurchasePipelineID: envutil.Get("HUBSPOT_PURCHASE_PIPELINE_ID", defaultPurchasePipelineID, log),
		SalesPipelineID:    envutil.Get("HUBSPOT_SALES_PIPELINE_ID", defaultSalesPipelineID, log),
		PropertyObjectType: envutil.Get("HUBSPOT_PROPERTY_OBJECT_TYPE", "properties", log),
		BusinessCollection: envutil.Get("VECTOR_BUSINESS_COLLECTION", "business_data", log),
		SchemaCollection:   envutil.Get("VECTOR_SCHEMA_COLLECTION", "database_info", log),
		HistoryCollection:  envutil.Get("VECTOR_HISTORY_COLLECTION", "chat_messages", log),
		ProjectionInterval: envutil.Duration("PROJECTION_INTERVAL", time.Hour, log),
	}
}
