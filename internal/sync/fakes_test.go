package sync

import (
	"context"
	"strconv"
	"sync"

	types "github.com/estlink/crmbridge-backend/internal/domain"
	"github.com/estlink/crmbridge-backend/internal/hubspot"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
	"gorm.io/gorm"
)

func testLogger() *logger.Logger {
	log, err := logger.New("dev")
	if err != nil {
		panic(err)
	}
	return log
}

// fakeHubSpot serves canned pages without a network.
type fakeHubSpot struct {
	objects     map[string][]hubspot.Object
	deals       map[string][]hubspot.Object
	owners      []hubspot.Owner
	pipelines   map[string]hubspot.Pipeline
	engagements []hubspot.Engagement
	pageSize    int
}

func (f *fakeHubSpot) page(all []hubspot.Object, after string) (hubspot.Page, error) {
	size := f.pageSize
	if size <= 0 {
		size = 2
	}
	start := 0
	if after != "" {
		start, _ = strconv.Atoi(after)
	}
	end := start + size
	next := ""
	if end >= len(all) {
		end = len(all)
	} else {
		next = strconv.Itoa(end)
	}
	return hubspot.Page{Results: all[start:end], NextAfter: next}, nil
}

func (f *fakeHubSpot) ListObjects(_ context.Context, objectType string, _ []string, after string) (hubspot.Page, error) {
	return f.page(f.objects[objectType], after)
}

func (f *fakeHubSpot) SearchDeals(_ context.Context, pipelineID string, _ []string, after string) (hubspot.Page, error) {
	return f.page(f.deals[pipelineID], after)
}

func (f *fakeHubSpot) ListOwners(_ context.Context) ([]hubspot.Owner, error) {
	return f.owners, nil
}

func (f *fakeHubSpot) GetPipeline(_ context.Context, pipelineID string) (hubspot.Pipeline, error) {
	return f.pipelines[pipelineID], nil
}

func (f *fakeHubSpot) ListEngagements(_ context.Context, offset int64) (hubspot.EngagementPage, error) {
	if offset >= int64(len(f.engagements)) {
		return hubspot.EngagementPage{}, nil
	}
	end := offset + 2
	if end > int64(len(f.engagements)) {
		end = int64(len(f.engagements))
	}
	return hubspot.EngagementPage{
		Results: f.engagements[offset:end],
		HasMore: end < int64(len(f.engagements)),
		Offset:  end,
	}, nil
}

// fakeLedger records ledger transitions in call order.
type fakeLedger struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeLedger) record(s string) {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.mu.Unlock()
}

func (f *fakeLedger) Get(context.Context, *gorm.DB, string) (*types.SyncStatus, error) {
	return nil, nil
}

func (f *fakeLedger) ListAll(context.Context, *gorm.DB) ([]*types.SyncStatus, error) {
	return nil, nil
}

func (f *fakeLedger) MarkRunning(_ context.Context, _ *gorm.DB, entityType string) error {
	f.record("running:" + entityType)
	return nil
}

func (f *fakeLedger) MarkSuccess(_ context.Context, _ *gorm.DB, entityType string, _ int) error {
	f.record("success:" + entityType)
	return nil
}

func (f *fakeLedger) MarkError(_ context.Context, _ *gorm.DB, entityType, _ string) error {
	f.record("error:" + entityType)
	return nil
}

// In-memory repos, keyed on hubspot_id, enough for resolver and
// synchronizer tests.

type fakeOwnerRepo struct {
	mu     sync.Mutex
	rows   map[string]*types.Owner
	nextID int64
	gets   int
}

func newFakeOwnerRepo() *fakeOwnerRepo {
	return &fakeOwnerRepo{rows: map[string]*types.Owner{}}
}

func (f *fakeOwnerRepo) Upsert(_ context.Context, _ *gorm.DB, rows []*types.Owner) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		if existing, ok := f.rows[row.HubSpotID]; ok {
			row.ID = existing.ID
		} else {
			f.nextID++
			row.ID = f.nextID
		}
		f.rows[row.HubSpotID] = row
	}
	return len(rows), nil
}

func (f *fakeOwnerRepo) GetByHubSpotID(_ context.Context, _ *gorm.DB, hubspotID string) (*types.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	return f.rows[hubspotID], nil
}

func (f *fakeOwnerRepo) ListAll(context.Context, *gorm.DB) ([]*types.Owner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*types.Owner, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, row)
	}
	return out, nil
}

type fakeCompanyRepo struct {
	mu     sync.Mutex
	rows   map[string]*types.Company
	nextID int64
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{rows: map[string]*types.Company{}}
}

func (f *fakeCompanyRepo) Upsert(_ context.Context, _ *gorm.DB, rows []*types.Company) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		if existing, ok := f.rows[row.HubSpotID]; ok {
			row.ID = existing.ID
		} else {
			f.nextID++
			row.ID = f.nextID
		}
		f.rows[row.HubSpotID] = row
	}
	return len(rows), nil
}

func (f *fakeCompanyRepo) GetByHubSpotID(_ context.Context, _ *gorm.DB, hubspotID string) (*types.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[hubspotID], nil
}

func (f *fakeCompanyRepo) ListAll(context.Context, *gorm.DB) ([]*types.Company, error) {
	return nil, nil
}

func (f *fakeCompanyRepo) CountByOwner(context.Context, *gorm.DB, int64) (int64, error) {
	return 0, nil
}

type fakeContactRepo struct {
	mu     sync.Mutex
	rows   map[string]*types.Contact
	nextID int64
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{rows: map[string]*types.Contact{}}
}

func (f *fakeContactRepo) Upsert(_ context.Context, _ *gorm.DB, rows []*types.Contact) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		if existing, ok := f.rows[row.HubSpotID]; ok {
			row.ID = existing.ID
		} else {
			f.nextID++
			row.ID = f.nextID
		}
		f.rows[row.HubSpotID] = row
	}
	return len(rows), nil
}

func (f *fakeContactRepo) GetByHubSpotID(_ context.Context, _ *gorm.DB, hubspotID string) (*types.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[hubspotID], nil
}

func (f *fakeContactRepo) ListAll(context.Context, *gorm.DB) ([]*types.Contact, error) {
	return nil, nil
}

func (f *fakeContactRepo) CountByOwner(context.Context, *gorm.DB, int64) (int64, error) {
	return 0, nil
}

type fakePropertyRepo struct {
	mu   sync.Mutex
	rows map[string]*types.Property
}

func newFakePropertyRepo() *fakePropertyRepo {
	return &fakePropertyRepo{rows: map[string]*types.Property{}}
}

func (f *fakePropertyRepo) Upsert(_ context.Context, _ *gorm.DB, rows []*types.Property) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		f.rows[row.HubSpotID] = row
	}
	return len(rows), nil
}

func (f *fakePropertyRepo) GetByHubSpotID(_ context.Context, _ *gorm.DB, hubspotID string) (*types.Property, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[hubspotID], nil
}

func (f *fakePropertyRepo) ListAll(context.Context, *gorm.DB) ([]*types.Property, error) {
	return nil, nil
}

func (f *fakePropertyRepo) CountByOwner(context.Context, *gorm.DB, int64) (int64, error) {
	return 0, nil
}

type fakePipelineRepo struct {
	mu        sync.Mutex
	pipelines map[string]*types.Pipeline
	stages    map[string]*types.PipelineStage
	nextID    int64
}

func newFakePipelineRepo() *fakePipelineRepo {
	return &fakePipelineRepo{
		pipelines: map[string]*types.Pipeline{},
		stages:    map[string]*types.PipelineStage{},
	}
}

func (f *fakePipelineRepo) UpsertPipeline(_ context.Context, _ *gorm.DB, row *types.Pipeline) (*types.Pipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.pipelines[row.HubSpotID]; ok {
		row.ID = existing.ID
	} else {
		f.nextID++
		row.ID = f.nextID
	}
	f.pipelines[row.HubSpotID] = row
	return row, nil
}

func (f *fakePipelineRepo) UpsertStages(_ context.Context, _ *gorm.DB, rows []*types.PipelineStage) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		if existing, ok := f.stages[row.HubSpotID]; ok {
			row.ID = existing.ID
		} else {
			f.nextID++
			row.ID = f.nextID
		}
		f.stages[row.HubSpotID] = row
	}
	return len(rows), nil
}

func (f *fakePipelineRepo) GetStageByHubSpotID(_ context.Context, _ *gorm.DB, hubspotID string) (*types.PipelineStage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stages[hubspotID], nil
}

func (f *fakePipelineRepo) ListAllStages(context.Context, *gorm.DB) ([]*types.PipelineStage, error) {
	return nil, nil
}

type fakeDealRepo struct {
	mu        sync.Mutex
	purchases map[string]*types.DealPurchase
	sales     map[string]*types.DealSale
	nextID    int64
}

func newFakeDealRepo() *fakeDealRepo {
	return &fakeDealRepo{
		purchases: map[string]*types.DealPurchase{},
		sales:     map[string]*types.DealSale{},
	}
}

func (f *fakeDealRepo) UpsertPurchases(_ context.Context, _ *gorm.DB, rows []*types.DealPurchase) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		if existing, ok := f.purchases[row.HubSpotID]; ok {
			row.ID = existing.ID
		} else {
			f.nextID++
			row.ID = f.nextID
		}
		f.purchases[row.HubSpotID] = row
	}
	return len(rows), nil
}

func (f *fakeDealRepo) UpsertSales(_ context.Context, _ *gorm.DB, rows []*types.DealSale) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range rows {
		if existing, ok := f.sales[row.HubSpotID]; ok {
			row.ID = existing.ID
		} else {
			f.nextID++
			row.ID = f.nextID
		}
		f.sales[row.HubSpotID] = row
	}
	return len(rows), nil
}

func (f *fakeDealRepo) GetPurchaseByHubSpotID(_ context.Context, _ *gorm.DB, hubspotID string) (*types.DealPurchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.purchases[hubspotID], nil
}

func (f *fakeDealRepo) GetSaleByHubSpotID(_ context.Context, _ *gorm.DB, hubspotID string) (*types.DealSale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sales[hubspotID], nil
}

func (f *fakeDealRepo) ListAllPurchases(context.Context, *gorm.DB) ([]*types.DealPurchase, error) {
	return nil, nil
}

func (f *fakeDealRepo) ListAllSales(context.Context, *gorm.DB) ([]*types.DealSale, error) {
	return nil, nil
}

func (f *fakeDealRepo) CountPurchasesByOwner(context.Context, *gorm.DB, int64) (int64, error) {
	return 0, nil
}

func (f *fakeDealRepo) CountSalesByOwner(context.Context, *gorm.DB, int64) (int64, error) {
	return 0, nil
}

type fakeActivityRepo struct {
	mu      sync.Mutex
	rows    map[string]*types.Activity
	details map[int64]*types.ActivityDetail
	assocs  []*types.ActivityAssociation
	nextID  int64
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{
		rows:    map[string]*types.Activity{},
		details: map[int64]*types.ActivityDetail{},
	}
}

func (f *fakeActivityRepo) UpsertOne(_ context.Context, _ *gorm.DB, row *types.Activity) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.rows[row.HubSpotID]; ok {
		row.ID = existing.ID
	} else {
		f.nextID++
		row.ID = f.nextID
	}
	f.rows[row.HubSpotID] = row
	return row.ID, nil
}

func (f *fakeActivityRepo) ReplaceDetail(_ context.Context, _ *gorm.DB, detail *types.ActivityDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details[detail.ActivityID] = detail
	return nil
}

func (f *fakeActivityRepo) UpsertAssociations(_ context.Context, _ *gorm.DB, rows []*types.ActivityAssociation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assocs = append(f.assocs, rows...)
	return nil
}

func (f *fakeActivityRepo) GetByHubSpotID(_ context.Context, _ *gorm.DB, hubspotID string) (*types.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[hubspotID], nil
}

func (f *fakeActivityRepo) ListRecent(context.Context, *gorm.DB, int) ([]*types.Activity, error) {
	return nil, nil
}

func (f *fakeActivityRepo) ListAll(context.Context, *gorm.DB) ([]*types.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*types.Activity, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeActivityRepo) GetDetail(_ context.Context, _ *gorm.DB, activityID int64) (*types.ActivityDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.details[activityID], nil
}
