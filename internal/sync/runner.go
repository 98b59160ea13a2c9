package sync

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/estlink/crmbridge-backend/internal/platform/logger"
)

// Runner executes synchronizers in dependency order. Entities whose rows are
// referenced by a later entity must land first, so the run proceeds in
// stages; synchronizers within a stage are independent and run concurrently.
//
//	owners
//	companies, properties
//	contacts            (company references)
//	pipelines           (stage definitions before deals)
//	deals (both pipelines)
//	activities          (references everything)
type Runner struct {
	stages [][]Synchronizer
	log    *logger.Logger
}

func NewRunner(
	owners *OwnerSynchronizer,
	companies *CompanySynchronizer,
	properties *PropertySynchronizer,
	contacts *ContactSynchronizer,
	pipelines *PipelineSynchronizer,
	purchaseDeals *DealSynchronizer,
	salesDeals *DealSynchronizer,
	activities *ActivitySynchronizer,
	baseLog *logger.Logger,
) *Runner {
	return &Runner{
		stages: [][]Synchronizer{
			{owners},
			{companies, properties},
			{contacts},
			{pipelines},
			{purchaseDeals, salesDeals},
			{activities},
		},
		log: baseLog.With("service", "SyncRunner"),
	}
}

// RunAll runs every stage in order and returns per-entity record counts.
// A failed synchronizer fails its stage and stops the run; entities already
// synced keep their results.
func (r *Runner) RunAll(ctx context.Context) (map[string]int, error) {
	return r.run(ctx, nil)
}

// RunEntities runs only the named entities, still in stage order. Callers
// are expected to know the dependencies of what they ask for.
func (r *Runner) RunEntities(ctx context.Context, entities []string) (map[string]int, error) {
	if len(entities) == 0 {
		return r.run(ctx, nil)
	}
	selected := make(map[string]bool, len(entities))
	for _, e := range entities {
		selected[e] = true
	}
	for _, stage := range r.stages {
		for _, s := range stage {
			delete(selected, s.EntityType())
		}
	}
	if len(selected) > 0 {
		for e := range selected {
			return nil, fmt.Errorf("unknown entity type %q", e)
		}
	}

	want := make(map[string]bool, len(entities))
	for _, e := range entities {
		want[e] = true
	}
	return r.run(ctx, want)
}

func (r *Runner) run(ctx context.Context, want map[string]bool) (map[string]int, error) {
	counts := make(map[string]int)
	var mu sync.Mutex

	for _, stage := range r.stages {
		g, gctx := errgroup.WithContext(ctx)
		for _, s := range stage {
			if want != nil && !want[s.EntityType()] {
				continue
			}
			s := s
			g.Go(func() error {
				n, err := s.Sync(gctx)
				if err != nil {
					return fmt.Errorf("sync %s: %w", s.EntityType(), err)
				}
				mu.Lock()
				counts[s.EntityType()] = n
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return counts, err
		}
	}

	r.log.Info("sync run complete", "entities", len(counts), "records", totalRecords(counts))
	return counts, nil
}

func totalRecords(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

// AllEntityTypes lists every entity the runner knows, in stage order.
func (r *Runner) AllEntityTypes() []string {
	var out []string
	for _, stage := range r.stages {
		for _, s := range stage {
			out = append(out, s.EntityType())
		}
	}
	return out
}
