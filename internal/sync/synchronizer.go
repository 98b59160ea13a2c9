// Package sync pulls the CRM object graph into the relational store. Each
// entity type has its own synchronizer; the Runner sequences them so that
// every row a record references is already present when the record lands.
package sync

import (
	"context"

	"github.com/estlink/crmbridge-backend/internal/data/repos/syncstate"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
)

// Synchronizer is one full fetch-and-save pass over a single entity type.
type Synchronizer interface {
	EntityType() string
	Sync(ctx context.Context) (int, error)
}

// runWithLedger wraps one sync pass with ledger bookkeeping: running before,
// success with the record count or error with the message after. Ledger write
// failures are logged, never fatal; the sync result is what matters.
func runWithLedger(
	ctx context.Context,
	ledger syncstate.Repo,
	log *logger.Logger,
	entityType string,
	body func(ctx context.Context) (int, error),
) (int, error) {
	if err := ledger.MarkRunning(ctx, nil, entityType); err != nil {
		log.Warn("sync ledger mark running failed", "entity_type", entityType, "error", err)
	}

	count, err := body(ctx)
	if err != nil {
		log.Error("sync failed", "entity_type", entityType, "error", err)
		if lerr := ledger.MarkError(ctx, nil, entityType, err.Error()); lerr != nil {
			log.Warn("sync ledger mark error failed", "entity_type", entityType, "error", lerr)
		}
		return 0, err
	}

	if lerr := ledger.MarkSuccess(ctx, nil, entityType, count); lerr != nil {
		log.Warn("sync ledger mark success failed", "entity_type", entityType, "error", lerr)
	}
	log.Info("sync completed", "entity_type", entityType, "records", count)
	return count, nil
}
