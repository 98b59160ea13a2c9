package sync

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/estlink/crmbridge-backend/internal/data/repos/crm"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
)

// Resolver maps external (HubSpot) ids onto internal row ids. An id that has
// no local row resolves to nil: cross-entity references are stored as null
// rather than failing the record. Lookups are memoized, including misses, for
// the lifetime of one sync run. Synchronizers in the same runner stage share
// one resolver across goroutines, so memo access is locked; a duplicate
// lookup under contention is harmless.
type Resolver struct {
	owners    crm.OwnerRepo
	pipelines crm.PipelineRepo
	contacts  crm.ContactRepo
	companies crm.CompanyRepo
	deals     crm.DealRepo
	log       *logger.Logger

	mu          sync.RWMutex
	ownerMemo   map[string]*int64
	stageMemo   map[string]*int64
	contactMemo map[string]*int64
	companyMemo map[string]*int64
}

func (r *Resolver) memoGet(memo map[string]*int64, key string) (*int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := memo[key]
	return v, ok
}

func (r *Resolver) memoSet(memo map[string]*int64, key string, v *int64) {
	r.mu.Lock()
	memo[key] = v
	r.mu.Unlock()
}

func NewResolver(
	owners crm.OwnerRepo,
	pipelines crm.PipelineRepo,
	contacts crm.ContactRepo,
	companies crm.CompanyRepo,
	deals crm.DealRepo,
	baseLog *logger.Logger,
) *Resolver {
	return &Resolver{
		owners:      owners,
		pipelines:   pipelines,
		contacts:    contacts,
		companies:   companies,
		deals:       deals,
		log:         baseLog.With("service", "Resolver"),
		ownerMemo:   map[string]*int64{},
		stageMemo:   map[string]*int64{},
		contactMemo: map[string]*int64{},
		companyMemo: map[string]*int64{},
	}
}

func (r *Resolver) ResolveOwner(ctx context.Context, externalID string) (*int64, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" || externalID == "0" {
		return nil, nil
	}
	if cached, ok := r.memoGet(r.ownerMemo, externalID); ok {
		return cached, nil
	}

	row, err := r.owners.GetByHubSpotID(ctx, nil, externalID)
	if err != nil {
		return nil, fmt.Errorf("resolve owner %s: %w", externalID, err)
	}
	var id *int64
	if row != nil {
		id = &row.ID
	} else {
		r.log.Debug("owner reference not found locally, storing null", "hubspot_owner_id", externalID)
	}
	r.memoSet(r.ownerMemo, externalID, id)
	return id, nil
}

func (r *Resolver) ResolveStage(ctx context.Context, externalID string) (*int64, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil
	}
	if cached, ok := r.memoGet(r.stageMemo, externalID); ok {
		return cached, nil
	}

	row, err := r.pipelines.GetStageByHubSpotID(ctx, nil, externalID)
	if err != nil {
		return nil, fmt.Errorf("resolve stage %s: %w", externalID, err)
	}
	var id *int64
	if row != nil {
		id = &row.ID
	} else {
		r.log.Debug("stage reference not found locally, storing null", "hubspot_stage_id", externalID)
	}
	r.memoSet(r.stageMemo, externalID, id)
	return id, nil
}

func (r *Resolver) ResolveContact(ctx context.Context, externalID string) (*int64, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil
	}
	if cached, ok := r.memoGet(r.contactMemo, externalID); ok {
		return cached, nil
	}

	row, err := r.contacts.GetByHubSpotID(ctx, nil, externalID)
	if err != nil {
		return nil, fmt.Errorf("resolve contact %s: %w", externalID, err)
	}
	var id *int64
	if row != nil {
		id = &row.ID
	}
	r.memoSet(r.contactMemo, externalID, id)
	return id, nil
}

func (r *Resolver) ResolveCompany(ctx context.Context, externalID string) (*int64, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil
	}
	if cached, ok := r.memoGet(r.companyMemo, externalID); ok {
		return cached, nil
	}

	row, err := r.companies.GetByHubSpotID(ctx, nil, externalID)
	if err != nil {
		return nil, fmt.Errorf("resolve company %s: %w", externalID, err)
	}
	var id *int64
	if row != nil {
		id = &row.ID
	}
	r.memoSet(r.companyMemo, externalID, id)
	return id, nil
}

// OwnerOfContact returns the owner of the contact with the given external id,
// nil when either link is missing.
func (r *Resolver) OwnerOfContact(ctx context.Context, externalID string) (*int64, error) {
	row, err := r.contacts.GetByHubSpotID(ctx, nil, strings.TrimSpace(externalID))
	if err != nil || row == nil {
		return nil, err
	}
	return row.OwnerID, nil
}

// OwnerOfCompany returns the owner of the company with the given external id.
func (r *Resolver) OwnerOfCompany(ctx context.Context, externalID string) (*int64, error) {
	row, err := r.companies.GetByHubSpotID(ctx, nil, strings.TrimSpace(externalID))
	if err != nil || row == nil {
		return nil, err
	}
	return row.OwnerID, nil
}

// ResolveDealAny returns the internal id of the deal with the given external
// id regardless of which pipeline table it landed in.
func (r *Resolver) ResolveDealAny(ctx context.Context, externalID string) (*int64, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil
	}
	purchase, err := r.deals.GetPurchaseByHubSpotID(ctx, nil, externalID)
	if err != nil {
		return nil, err
	}
	if purchase != nil {
		return &purchase.ID, nil
	}
	sale, err := r.deals.GetSaleByHubSpotID(ctx, nil, externalID)
	if err != nil || sale == nil {
		return nil, err
	}
	return &sale.ID, nil
}

// OwnerOfDeal returns the owner of the deal with the given external id,
// checking the purchase table first, then sales.
func (r *Resolver) OwnerOfDeal(ctx context.Context, externalID string) (*int64, error) {
	externalID = strings.TrimSpace(externalID)
	purchase, err := r.deals.GetPurchaseByHubSpotID(ctx, nil, externalID)
	if err != nil {
		return nil, err
	}
	if purchase != nil {
		return purchase.OwnerID, nil
	}
	sale, err := r.deals.GetSaleByHubSpotID(ctx, nil, externalID)
	if err != nil || sale == nil {
		return nil, err
	}
	return sale.OwnerID, nil
}
