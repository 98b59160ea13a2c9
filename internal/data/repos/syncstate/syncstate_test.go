package syncstate

import (
	"context"
	"testing"

	"github.com/estlink/crmbridge-backend/internal/data/repos/testutil"
	types "github.com/estlink/crmbridge-backend/internal/domain"
)

func TestSyncStatusLedger(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewRepo(db, testutil.Logger(t))
	ctx := context.Background()

	if err := repo.MarkRunning(ctx, tx, types.EntityContacts); err != nil {
		t.Fatalf("MarkRunning: %v", err)
	}
	row, err := repo.Get(ctx, tx, types.EntityContacts)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if row == nil || row.Status != types.SyncStatusRunning {
		t.Fatalf("expected running, got %+v", row)
	}
	if row.LastSuccessfulSyncAt != nil {
		t.Fatalf("running must not touch last_successful_sync_at")
	}

	if err := repo.MarkSuccess(ctx, tx, types.EntityContacts, 42); err != nil {
		t.Fatalf("MarkSuccess: %v", err)
	}
	row, err = repo.Get(ctx, tx, types.EntityContacts)
	if err != nil {
		t.Fatalf("Get after success: %v", err)
	}
	if row.Status != types.SyncStatusSuccess || row.RecordsSynced != 42 {
		t.Fatalf("unexpected success row: %+v", row)
	}
	if row.LastSuccessfulSyncAt == nil {
		t.Fatalf("success must advance last_successful_sync_at")
	}
	successAt := *row.LastSuccessfulSyncAt

	// A later failure keeps the success watermark.
	if err := repo.MarkError(ctx, tx, types.EntityContacts, "fetch failed"); err != nil {
		t.Fatalf("MarkError: %v", err)
	}
	row, err = repo.Get(ctx, tx, types.EntityContacts)
	if err != nil {
		t.Fatalf("Get after error: %v", err)
	}
	if row.Status != types.SyncStatusError || row.ErrorMessage != "fetch failed" {
		t.Fatalf("unexpected error row: %+v", row)
	}
	if row.LastSuccessfulSyncAt == nil || !row.LastSuccessfulSyncAt.Equal(successAt) {
		t.Fatalf("error must not regress last_successful_sync_at: %+v", row.LastSuccessfulSyncAt)
	}
}

func TestSyncStatusGetMissing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewRepo(db, testutil.Logger(t))

	row, err := repo.Get(context.Background(), tx, "never-synced")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if row != nil {
		t.Fatalf("expected nil for unknown entity, got %+v", row)
	}
}
