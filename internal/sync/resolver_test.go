package sync

import (
	"context"
	"fmt"
	"sync"
	"testing"

	types "github.com/estlink/crmbridge-backend/internal/domain"
)

func newTestResolver(owners *fakeOwnerRepo, deals *fakeDealRepo) *Resolver {
	return NewResolver(owners, newFakePipelineRepo(), newFakeContactRepo(), newFakeCompanyRepo(), deals, testLogger())
}

func TestResolveOwnerBlankAndZero(t *testing.T) {
	r := newTestResolver(newFakeOwnerRepo(), newFakeDealRepo())

	for _, raw := range []string{"", "  ", "0"} {
		id, err := r.ResolveOwner(context.Background(), raw)
		if err != nil {
			t.Fatalf("ResolveOwner(%q): %v", raw, err)
		}
		if id != nil {
			t.Fatalf("ResolveOwner(%q) = %d, want nil", raw, *id)
		}
	}
}

func TestResolveOwnerMemoizesMisses(t *testing.T) {
	owners := newFakeOwnerRepo()
	r := newTestResolver(owners, newFakeDealRepo())

	for i := 0; i < 3; i++ {
		id, err := r.ResolveOwner(context.Background(), "999")
		if err != nil {
			t.Fatalf("ResolveOwner: %v", err)
		}
		if id != nil {
			t.Fatalf("expected nil for unknown owner, got %d", *id)
		}
	}
	if owners.gets != 1 {
		t.Fatalf("expected 1 repo lookup, got %d", owners.gets)
	}
}

func TestResolveOwnerHit(t *testing.T) {
	owners := newFakeOwnerRepo()
	if _, err := owners.Upsert(context.Background(), nil, []*types.Owner{{HubSpotID: "42"}}); err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	r := newTestResolver(owners, newFakeDealRepo())

	id, err := r.ResolveOwner(context.Background(), "42")
	if err != nil {
		t.Fatalf("ResolveOwner: %v", err)
	}
	if id == nil || *id != 1 {
		t.Fatalf("ResolveOwner = %v, want 1", id)
	}
}

// One resolver is shared by every synchronizer in a runner stage, so
// concurrent lookups against the same memo must be safe under -race.
func TestResolveOwnerConcurrent(t *testing.T) {
	owners := newFakeOwnerRepo()
	ctx := context.Background()
	if _, err := owners.Upsert(ctx, nil, []*types.Owner{{HubSpotID: "42"}}); err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	r := newTestResolver(owners, newFakeDealRepo())

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id, err := r.ResolveOwner(ctx, "42")
				if err != nil {
					errs <- err
					return
				}
				if id == nil || *id != 1 {
					errs <- fmt.Errorf("ResolveOwner = %v, want 1", id)
					return
				}
				if _, err := r.ResolveOwner(ctx, fmt.Sprintf("miss-%d", i)); err != nil {
					errs <- err
					return
				}
				if _, err := r.ResolveCompany(ctx, fmt.Sprintf("co-%d", i)); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent resolve: %v", err)
	}
}

func TestResolveDealAnyChecksBothTables(t *testing.T) {
	deals := newFakeDealRepo()
	ctx := context.Background()
	if _, err := deals.UpsertPurchases(ctx, nil, []*types.DealPurchase{{HubSpotID: "p1"}}); err != nil {
		t.Fatalf("seed purchase: %v", err)
	}
	if _, err := deals.UpsertSales(ctx, nil, []*types.DealSale{{HubSpotID: "s1"}}); err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	r := newTestResolver(newFakeOwnerRepo(), deals)

	id, err := r.ResolveDealAny(ctx, "p1")
	if err != nil || id == nil {
		t.Fatalf("ResolveDealAny(p1) = %v, %v", id, err)
	}
	id, err = r.ResolveDealAny(ctx, "s1")
	if err != nil || id == nil {
		t.Fatalf("ResolveDealAny(s1) = %v, %v", id, err)
	}
	id, err = r.ResolveDealAny(ctx, "missing")
	if err != nil {
		t.Fatalf("ResolveDealAny(missing): %v", err)
	}
	if id != nil {
		t.Fatalf("expected nil for unknown deal, got %d", *id)
	}
}
