package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/estlink/crmbridge-backend/internal/data/repos/crm"
	"github.com/estlink/crmbridge-backend/internal/data/repos/syncstate"
	types "github.com/estlink/crmbridge-backend/internal/domain"
	"github.com/estlink/crmbridge-backend/internal/hubspot"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
)

type OwnerSynchronizer struct {
	client hubspot.Client
	owners crm.OwnerRepo
	ledger syncstate.Repo
	log    *logger.Logger
}

func NewOwnerSynchronizer(client hubspot.Client, owners crm.OwnerRepo, ledger syncstate.Repo, baseLog *logger.Logger) *OwnerSynchronizer {
	return &OwnerSynchronizer{
		client: client,
		owners: owners,
		ledger: ledger,
		log:    baseLog.With("sync", types.EntityOwners),
	}
}

func (s *OwnerSynchronizer) EntityType() string { return types.EntityOwners }

func (s *OwnerSynchronizer) Sync(ctx context.Context) (int, error) {
	return runWithLedger(ctx, s.ledger, s.log, s.EntityType(), s.sync)
}

func (s *OwnerSynchronizer) sync(ctx context.Context) (int, error) {
	fetched, err := s.client.ListOwners(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch owners: %w", err)
	}

	rows := make([]*types.Owner, 0, len(fetched))
	for _, o := range fetched {
		row := &types.Owner{
			HubSpotID: o.ID,
			Email:     o.Email,
			FirstName: o.FirstName,
			LastName:  o.LastName,
			Archived:  o.Archived,
		}
		if o.UserID != 0 {
			userID := o.UserID
			row.UserID = &userID
		}
		if len(o.Teams) > 0 {
			if b, err := json.Marshal(o.Teams); err == nil {
				row.Teams = b
			} else {
				s.log.Warn("owner teams encode failed, skipping field", "hubspot_id", o.ID, "error", err)
			}
		}
		rows = append(rows, row)
	}

	return s.owners.Upsert(ctx, nil, rows)
}
