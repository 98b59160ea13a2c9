package sync

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/estlink/crmbridge-backend/internal/data/repos/crm"
	"github.com/estlink/crmbridge-backend/internal/data/repos/syncstate"
	types "github.com/estlink/crmbridge-backend/internal/domain"
	"github.com/estlink/crmbridge-backend/internal/hubspot"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
)

var dealProperties = []string{
	"dealname",
	"amount",
	"closed_price",
	"deal_type",
	"dealstage",
	"pipeline",
	"hubspot_owner_id",
	"lead_acquirer",
	"deal_creator",
	"closedate",
	"createdate",
}

// DealSynchronizer syncs one deal pipeline into its own table. Two
// instances run, one per pipeline.
type DealSynchronizer struct {
	client       hubspot.Client
	pipelineID   string
	pipelineType string
	deals        crm.DealRepo
	resolver     *Resolver
	ledger       syncstate.Repo
	log          *logger.Logger
}

func NewDealSynchronizer(
	client hubspot.Client,
	pipelineID, pipelineType string,
	deals crm.DealRepo,
	resolver *Resolver,
	ledger syncstate.Repo,
	baseLog *logger.Logger,
) *DealSynchronizer {
	return &DealSynchronizer{
		client:       client,
		pipelineID:   pipelineID,
		pipelineType: pipelineType,
		deals:        deals,
		resolver:     resolver,
		ledger:       ledger,
		log:          baseLog.With("sync", entityForPipeline(pipelineType), "pipeline", pipelineID),
	}
}

func entityForPipeline(pipelineType string) string {
	if pipelineType == types.PipelineTypeSales {
		return types.EntityDealsSale
	}
	return types.EntityDealsPurchase
}

func (s *DealSynchronizer) EntityType() string { return entityForPipeline(s.pipelineType) }

func (s *DealSynchronizer) Sync(ctx context.Context) (int, error) {
	return runWithLedger(ctx, s.ledger, s.log, s.EntityType(), s.sync)
}

func (s *DealSynchronizer) sync(ctx context.Context) (int, error) {
	total := 0
	after := ""
	for {
		page, err := s.client.SearchDeals(ctx, s.pipelineID, dealProperties, after)
		if err != nil {
			return total, fmt.Errorf("search deals in pipeline %s: %w", s.pipelineID, err)
		}

		fields := make([]dealFields, 0, len(page.Results))
		for _, obj := range page.Results {
			// The search endpoint filters server-side, but a record that
			// moved pipelines between request and response would corrupt
			// the split tables.
			if got := obj.Properties["pipeline"]; got != "" && got != s.pipelineID {
				s.log.Warn("deal outside target pipeline, dropping", "hubspot_id", obj.ID, "pipeline", got)
				continue
			}
			f, err := s.transform(ctx, obj)
			if err != nil {
				s.log.Warn("deal transform failed, skipping record", "hubspot_id", obj.ID, "error", err)
				continue
			}
			fields = append(fields, f)
		}

		n, err := s.save(ctx, fields)
		if err != nil {
			return total, err
		}
		total += n

		if page.NextAfter == "" {
			return total, nil
		}
		after = page.NextAfter
	}
}

// dealFields holds the transformed columns shared by both deal tables.
type dealFields struct {
	hubspotID       string
	dealName        string
	amount          *float64
	closedPrice     *float64
	dealType        datatypes.JSON
	stageID         *int64
	ownerID         *int64
	leadAcquirerID  *int64
	dealCreatorID   *int64
	closeDate       *time.Time
	sourceCreatedAt *time.Time
}

func (s *DealSynchronizer) transform(ctx context.Context, obj hubspot.Object) (dealFields, error) {
	p := obj.Properties
	f := dealFields{
		hubspotID:       obj.ID,
		dealName:        p["dealname"],
		amount:          ParseFloatPtr(p["amount"]),
		closedPrice:     ParseFloatPtr(p["closed_price"]),
		dealType:        NormalizeChoice(p["deal_type"]),
		closeDate:       ParseSourceTime(p["closedate"]),
		sourceCreatedAt: ParseSourceTime(p["createdate"]),
	}

	stageID, err := s.resolver.ResolveStage(ctx, p["dealstage"])
	if err != nil {
		return f, err
	}
	f.stageID = stageID

	ownerID, err := s.resolver.ResolveOwner(ctx, p["hubspot_owner_id"])
	if err != nil {
		return f, err
	}
	f.ownerID = ownerID

	acquirerID, err := s.resolver.ResolveOwner(ctx, p["lead_acquirer"])
	if err != nil {
		return f, err
	}
	f.leadAcquirerID = acquirerID

	creatorID, err := s.resolver.ResolveOwner(ctx, p["deal_creator"])
	if err != nil {
		return f, err
	}
	f.dealCreatorID = creatorID

	return f, nil
}

func (s *DealSynchronizer) save(ctx context.Context, fields []dealFields) (int, error) {
	if s.pipelineType == types.PipelineTypeSales {
		rows := make([]*types.DealSale, 0, len(fields))
		for _, f := range fields {
			rows = append(rows, &types.DealSale{
				HubSpotID:       f.hubspotID,
				DealName:        f.dealName,
				Amount:          f.amount,
				ClosedPrice:     f.closedPrice,
				DealType:        f.dealType,
				StageID:         f.stageID,
				OwnerID:         f.ownerID,
				LeadAcquirerID:  f.leadAcquirerID,
				DealCreatorID:   f.dealCreatorID,
				CloseDate:       f.closeDate,
				SourceCreatedAt: f.sourceCreatedAt,
			})
		}
		n, err := s.deals.UpsertSales(ctx, nil, rows)
		if err != nil {
			return 0, fmt.Errorf("save sales deals: %w", err)
		}
		return n, nil
	}

	rows := make([]*types.DealPurchase, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, &types.DealPurchase{
			HubSpotID:       f.hubspotID,
			DealName:        f.dealName,
			Amount:          f.amount,
			ClosedPrice:     f.closedPrice,
			DealType:        f.dealType,
			StageID:         f.stageID,
			OwnerID:         f.ownerID,
			LeadAcquirerID:  f.leadAcquirerID,
			DealCreatorID:   f.dealCreatorID,
			CloseDate:       f.closeDate,
			SourceCreatedAt: f.sourceCreatedAt,
		})
	}
	n, err := s.deals.UpsertPurchases(ctx, nil, rows)
	if err != nil {
		return 0, fmt.Errorf("save purchase deals: %w", err)
	}
	return n, nil
}
