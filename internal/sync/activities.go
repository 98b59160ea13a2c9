package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"gorm.io/datatypes"

	"github.com/estlink/crmbridge-backend/internal/data/repos/crm"
	"github.com/estlink/crmbridge-backend/internal/data/repos/syncstate"
	types "github.com/estlink/crmbridge-backend/internal/domain"
	"github.com/estlink/crmbridge-backend/internal/hubspot"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
)

var retainedActivityTypes = map[string]bool{
	types.ActivityTypeCall:  true,
	types.ActivityTypeEmail: true,
	types.ActivityTypeNote:  true,
}

// ActivitySynchronizer walks the v1 engagements feed and retains calls,
// emails, and notes. It runs last so association resolution sees every
// other entity already synced.
type ActivitySynchronizer struct {
	client     hubspot.Client
	activities crm.ActivityRepo
	resolver   *Resolver
	ledger     syncstate.Repo
	log        *logger.Logger
}

func NewActivitySynchronizer(
	client hubspot.Client,
	activities crm.ActivityRepo,
	resolver *Resolver,
	ledger syncstate.Repo,
	baseLog *logger.Logger,
) *ActivitySynchronizer {
	return &ActivitySynchronizer{
		client:     client,
		activities: activities,
		resolver:   resolver,
		ledger:     ledger,
		log:        baseLog.With("sync", types.EntityActivities),
	}
}

func (s *ActivitySynchronizer) EntityType() string { return types.EntityActivities }

func (s *ActivitySynchronizer) Sync(ctx context.Context) (int, error) {
	return runWithLedger(ctx, s.ledger, s.log, s.EntityType(), s.sync)
}

func (s *ActivitySynchronizer) sync(ctx context.Context) (int, error) {
	total := 0
	var offset int64
	for {
		page, err := s.client.ListEngagements(ctx, offset)
		if err != nil {
			return total, fmt.Errorf("fetch engagements: %w", err)
		}

		for _, eng := range page.Results {
			if !retainedActivityTypes[eng.Engagement.Type] {
				continue
			}
			if err := s.saveOne(ctx, eng); err != nil {
				s.log.Warn("engagement save failed, skipping record",
					"engagement_id", eng.Engagement.ID, "error", err)
				continue
			}
			total++
		}

		if !page.HasMore {
			return total, nil
		}
		if page.Offset == offset {
			// Some portals repeat the final offset forever.
			s.log.Warn("engagement paging stuck, stopping", "offset", offset)
			return total, nil
		}
		offset = page.Offset
	}
}

func (s *ActivitySynchronizer) saveOne(ctx context.Context, eng hubspot.Engagement) error {
	ownerID, err := s.resolveOwner(ctx, eng)
	if err != nil {
		return err
	}

	row := &types.Activity{
		HubSpotID:  strconv.FormatInt(eng.Engagement.ID, 10),
		Type:       eng.Engagement.Type,
		OwnerID:    ownerID,
		Active:     eng.Engagement.Active,
		OccurredAt: MillisToTime(eng.Engagement.Timestamp),
	}
	activityID, err := s.activities.UpsertOne(ctx, nil, row)
	if err != nil {
		return fmt.Errorf("save activity: %w", err)
	}

	detail := &types.ActivityDetail{
		ActivityID: activityID,
		Subject:    metadataString(eng.Metadata, "subject"),
		Body:       engagementBody(eng),
	}
	if len(eng.Metadata) > 0 {
		raw, err := json.Marshal(eng.Metadata)
		if err != nil {
			s.log.Warn("engagement metadata not encodable, storing without it",
				"engagement_id", eng.Engagement.ID, "error", err)
		} else {
			detail.Metadata = datatypes.JSON(raw)
		}
	}
	if err := s.activities.ReplaceDetail(ctx, nil, detail); err != nil {
		return fmt.Errorf("save activity detail: %w", err)
	}

	assocs, err := s.buildAssociations(ctx, activityID, eng.Associations)
	if err != nil {
		return err
	}
	if err := s.activities.UpsertAssociations(ctx, nil, assocs); err != nil {
		return fmt.Errorf("save activity associations: %w", err)
	}
	return nil
}

// resolveOwner maps the engagement owner, and for ownerless emails infers
// one from the first associated object that carries an owner. Logged
// emails frequently arrive without an owner even though the related
// contact makes the accountable rep obvious.
func (s *ActivitySynchronizer) resolveOwner(ctx context.Context, eng hubspot.Engagement) (*int64, error) {
	if eng.Engagement.OwnerID != 0 {
		return s.resolver.ResolveOwner(ctx, strconv.FormatInt(eng.Engagement.OwnerID, 10))
	}
	if eng.Engagement.Type != types.ActivityTypeEmail {
		return nil, nil
	}

	for _, id := range eng.Associations.ContactIDs {
		ownerID, err := s.resolver.OwnerOfContact(ctx, strconv.FormatInt(id, 10))
		if err != nil {
			return nil, err
		}
		if ownerID != nil {
			return ownerID, nil
		}
	}
	for _, id := range eng.Associations.CompanyIDs {
		ownerID, err := s.resolver.OwnerOfCompany(ctx, strconv.FormatInt(id, 10))
		if err != nil {
			return nil, err
		}
		if ownerID != nil {
			return ownerID, nil
		}
	}
	for _, id := range eng.Associations.DealIDs {
		ownerID, err := s.resolver.OwnerOfDeal(ctx, strconv.FormatInt(id, 10))
		if err != nil {
			return nil, err
		}
		if ownerID != nil {
			return ownerID, nil
		}
	}
	return nil, nil
}

func (s *ActivitySynchronizer) buildAssociations(ctx context.Context, activityID int64, assoc hubspot.EngagementAssociations) ([]*types.ActivityAssociation, error) {
	var rows []*types.ActivityAssociation

	for _, id := range assoc.ContactIDs {
		external := strconv.FormatInt(id, 10)
		internal, err := s.resolver.ResolveContact(ctx, external)
		if err != nil {
			return nil, err
		}
		rows = append(rows, &types.ActivityAssociation{
			ActivityID:      activityID,
			ObjectType:      types.AssociationObjectContact,
			HubSpotObjectID: external,
			ObjectID:        internal,
		})
	}
	for _, id := range assoc.CompanyIDs {
		external := strconv.FormatInt(id, 10)
		internal, err := s.resolver.ResolveCompany(ctx, external)
		if err != nil {
			return nil, err
		}
		rows = append(rows, &types.ActivityAssociation{
			ActivityID:      activityID,
			ObjectType:      types.AssociationObjectCompany,
			HubSpotObjectID: external,
			ObjectID:        internal,
		})
	}
	for _, id := range assoc.DealIDs {
		external := strconv.FormatInt(id, 10)
		internal, err := s.resolver.ResolveDealAny(ctx, external)
		if err != nil {
			return nil, err
		}
		rows = append(rows, &types.ActivityAssociation{
			ActivityID:      activityID,
			ObjectType:      types.AssociationObjectDeal,
			HubSpotObjectID: external,
			ObjectID:        internal,
		})
	}
	return rows, nil
}

func metadataString(md map[string]any, key string) string {
	if v, ok := md[key].(string); ok {
		return v
	}
	return ""
}

// engagementBody picks the best text field for the activity type. Emails
// carry text, notes and calls carry body.
func engagementBody(eng hubspot.Engagement) string {
	if eng.Engagement.Type == types.ActivityTypeEmail {
		if text := metadataString(eng.Metadata, "text"); text != "" {
			return text
		}
	}
	return metadataString(eng.Metadata, "body")
}
