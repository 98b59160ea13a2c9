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

var companyProperties = []string{
	"name",
	"domain",
	"industry",
	"phone",
	"city",
	"state",
	"zip",
	"description",
	"lifecyclestage",
	"numberofemployees",
	"annualrevenue",
	"services",
	"hubspot_owner_id",
	"createdate",
}

type CompanySynchronizer struct {
	client    hubspot.Client
	companies crm.CompanyRepo
	resolver  *Resolver
	ledger    syncstate.Repo
	log       *logger.Logger
}

func NewCompanySynchronizer(
	client hubspot.Client,
	companies crm.CompanyRepo,
	resolver *Resolver,
	ledger syncstate.Repo,
	baseLog *logger.Logger,
) *CompanySynchronizer {
	return &CompanySynchronizer{
		client:    client,
		companies: companies,
		resolver:  resolver,
		ledger:    ledger,
		log:       baseLog.With("sync", types.EntityCompanies),
	}
}

func (s *CompanySynchronizer) EntityType() string { return types.EntityCompanies }

func (s *CompanySynchronizer) Sync(ctx context.Context) (int, error) {
	return runWithLedger(ctx, s.ledger, s.log, s.EntityType(), s.sync)
}

func (s *CompanySynchronizer) sync(ctx context.Context) (int, error) {
	total := 0
	after := ""
	for {
		page, err := s.client.ListObjects(ctx, "companies", companyProperties, after)
		if err != nil {
			return total, fmt.Errorf("fetch companies: %w", err)
		}

		rows := make([]*types.Company, 0, len(page.Results))
		for _, obj := range page.Results {
			row, err := s.transform(ctx, obj)
			if err != nil {
				s.log.Warn("company transform failed, skipping record", "hubspot_id", obj.ID, "error", err)
				continue
			}
			rows = append(rows, row)
		}

		n, err := s.companies.Upsert(ctx, nil, rows)
		if err != nil {
			return total, fmt.Errorf("save companies: %w", err)
		}
		total += n

		if page.NextAfter == "" {
			return total, nil
		}
		after = page.NextAfter
	}
}

func (s *CompanySynchronizer) transform(ctx context.Context, obj hubspot.Object) (*types.Company, error) {
	p := obj.Properties
	row := &types.Company{
		HubSpotID:       obj.ID,
		Name:            p["name"],
		Domain:          p["domain"],
		Industry:        p["industry"],
		Phone:           p["phone"],
		City:            p["city"],
		State:           p["state"],
		Zip:             p["zip"],
		Description:     p["description"],
		LifecycleStage:  p["lifecyclestage"],
		NumEmployees:    ParseIntPtr(p["numberofemployees"]),
		AnnualRevenue:   ParseFloatPtr(p["annualrevenue"]),
		Services:        NormalizeChoice(p["services"]),
		SourceCreatedAt: ParseSourceTime(p["createdate"]),
	}

	ownerID, err := s.resolver.ResolveOwner(ctx, p["hubspot_owner_id"])
	if err != nil {
		return nil, err
	}
	row.OwnerID = ownerID
	return row, nil
}
