package sync

import (
	"context"
	"fmt"

	"github.com/estlink/crmbridge-backend/internal/data/repos/crm"
	"github.com/estlink/crmbridge-backend/internal/data/repos/syncstate"
	types "github.com/estlink/crmbridge-backend/internal/domain"
	"github.com/estlink/crmbridge-backend/internal/hubspot"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
)

var propertyProperties = []string{
	"property_name",
	"address",
	"city",
	"state",
	"zip",
	"property_status",
	"property_type",
	"bedrooms",
	"bathrooms",
	"square_feet",
	"list_price",
	"hubspot_owner_id",
	"createdate",
}

// PropertySynchronizer syncs the portal's custom "properties" object.
// The object type name is portal-specific, so it comes from config.
type PropertySynchronizer struct {
	client     hubspot.Client
	objectType string
	properties crm.PropertyRepo
	resolver   *Resolver
	ledger     syncstate.Repo
	log        *logger.Logger
}

func NewPropertySynchronizer(
	client hubspot.Client,
	objectType string,
	properties crm.PropertyRepo,
	resolver *Resolver,
	ledger syncstate.Repo,
	baseLog *logger.Logger,
) *PropertySynchronizer {
	if objectType == "" {
		objectType = "properties"
	}
	return &PropertySynchronizer{
		client:     client,
		objectType: objectType,
		properties: properties,
		resolver:   resolver,
		ledger:     ledger,
		log:        baseLog.With("sync", types.EntityProperties),
	}
}

func (s *PropertySynchronizer) EntityType() string { return types.EntityProperties }

func (s *PropertySynchronizer) Sync(ctx context.Context) (int, error) {
	return runWithLedger(ctx, s.ledger, s.log, s.EntityType(), s.sync)
}

func (s *PropertySynchronizer) sync(ctx context.Context) (int, error) {
	total := 0
	after := ""
	for {
		page, err := s.client.ListObjects(ctx, s.objectType, propertyProperties, after)
		if err != nil {
			return total, fmt.Errorf("fetch %s: %w", s.objectType, err)
		}

		rows := make([]*types.Property, 0, len(page.Results))
		for _, obj := range page.Results {
			row, err := s.transform(ctx, obj)
			if err != nil {
				s.log.Warn("property transform failed, skipping record", "hubspot_id", obj.ID, "error", err)
				continue
			}
			rows = append(rows, row)
		}

		n, err := s.properties.Upsert(ctx, nil, rows)
		if err != nil {
			return total, fmt.Errorf("save properties: %w", err)
		}
		total += n

		if page.NextAfter == "" {
			return total, nil
		}
		after = page.NextAfter
	}
}

func (s *PropertySynchronizer) transform(ctx context.Context, obj hubspot.Object) (*types.Property, error) {
	p := obj.Properties
	row := &types.Property{
		HubSpotID:       obj.ID,
		Name:            p["property_name"],
		Address:         p["address"],
		City:            p["city"],
		State:           p["state"],
		Zip:             p["zip"],
		Status:          p["property_status"],
		PropertyType:    NormalizeChoice(p["property_type"]),
		Bedrooms:        ParseIntPtr(p["bedrooms"]),
		Bathrooms:       ParseFloatPtr(p["bathrooms"]),
		SquareFeet:      ParseFloatPtr(p["square_feet"]),
		ListPrice:       ParseFloatPtr(p["list_price"]),
		SourceCreatedAt: ParseSourceTime(p["createdate"]),
	}

	ownerID, err := s.resolver.ResolveOwner(ctx, p["hubspot_owner_id"])
	if err != nil {
		return nil, err
	}
	row.OwnerID = ownerID

	return row, nil
}
