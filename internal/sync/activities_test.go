package sync

import (
	"context"
	"testing"

	types "github.com/estlink/crmbridge-backend/internal/domain"
	"github.com/estlink/crmbridge-backend/internal/hubspot"
)

// stuckFeed always reports more data at the same offset.
type stuckFeed struct {
	fakeHubSpot
	calls int
}

func (s *stuckFeed) ListEngagements(_ context.Context, offset int64) (hubspot.EngagementPage, error) {
	s.calls++
	return hubspot.EngagementPage{
		Results: []hubspot.Engagement{
			{Engagement: hubspot.EngagementCore{ID: 1, Type: "CALL"}},
		},
		HasMore: true,
		Offset:  offset,
	}, nil
}

func TestActivitySyncStopsOnStuckOffset(t *testing.T) {
	feed := &stuckFeed{}
	ledger := &fakeLedger{}
	log := testLogger()
	resolver := NewResolver(newFakeOwnerRepo(), newFakePipelineRepo(), newFakeContactRepo(), newFakeCompanyRepo(), newFakeDealRepo(), log)
	s := NewActivitySynchronizer(feed, newFakeActivityRepo(), resolver, ledger, log)

	if _, err := s.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if feed.calls != 1 {
		t.Fatalf("expected 1 page fetch before bailing, got %d", feed.calls)
	}
}

func TestEmailOwnerInferredFromContact(t *testing.T) {
	ctx := context.Background()
	log := testLogger()

	owners := newFakeOwnerRepo()
	if _, err := owners.Upsert(ctx, nil, []*types.Owner{{HubSpotID: "77"}}); err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	ownerID := int64(1)

	contacts := newFakeContactRepo()
	if _, err := contacts.Upsert(ctx, nil, []*types.Contact{{HubSpotID: "501", OwnerID: &ownerID}}); err != nil {
		t.Fatalf("seed contact: %v", err)
	}

	client := &fakeHubSpot{
		engagements: []hubspot.Engagement{
			{
				Engagement:   hubspot.EngagementCore{ID: 300, Type: "EMAIL", Timestamp: 1700000000000},
				Associations: hubspot.EngagementAssociations{ContactIDs: []int64{501}},
				Metadata:     map[string]any{"subject": "Re: offer", "text": "See attached"},
			},
		},
	}
	activities := newFakeActivityRepo()
	resolver := NewResolver(owners, newFakePipelineRepo(), contacts, newFakeCompanyRepo(), newFakeDealRepo(), log)
	s := NewActivitySynchronizer(client, activities, resolver, &fakeLedger{}, log)

	n, err := s.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if n != 1 {
		t.Fatalf("synced %d activities, want 1", n)
	}

	row, err := activities.GetByHubSpotID(ctx, nil, "300")
	if err != nil || row == nil {
		t.Fatalf("activity missing: %v", err)
	}
	if row.OwnerID == nil || *row.OwnerID != ownerID {
		t.Fatalf("owner not inferred from contact: %v", row.OwnerID)
	}

	detail, err := activities.GetDetail(ctx, nil, row.ID)
	if err != nil || detail == nil {
		t.Fatalf("detail missing: %v", err)
	}
	if detail.Subject != "Re: offer" || detail.Body != "See attached" {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	if len(activities.assocs) != 1 || activities.assocs[0].ObjectType != types.AssociationObjectContact {
		t.Fatalf("unexpected associations: %+v", activities.assocs)
	}
	if activities.assocs[0].ObjectID == nil {
		t.Fatal("association not resolved to internal contact id")
	}
}
