package sync

import (
	"context"
	"fmt"

	"github.com/estlink/crmbridge-backend/internal/data/repos/crm"
	"github.com/estlink/crmbridge-backend/internal/data/repos/syncstate"
	types "github.com/estlink/crmbridge-backend/internal/domain"
	"github.com/estlink/crmbridge-backend/internal/hubspot"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
)

var contactProperties = []string{
	"email",
	"firstname",
	"lastname",
	"phone",
	"jobtitle",
	"lifecyclestage",
	"hs_lead_status",
	"interests",
	"hubspot_owner_id",
	"secondary_owner",
	"sales_outbound_owner",
	"associatedcompanyid",
	"createdate",
	"notes_last_updated",
}

type ContactSynchronizer struct {
	client   hubspot.Client
	contacts crm.ContactRepo
	resolver *Resolver
	ledger   syncstate.Repo
	log      *logger.Logger
}

func NewContactSynchronizer(
	client hubspot.Client,
	contacts crm.ContactRepo,
	resolver *Resolver,
	ledger syncstate.Repo,
	baseLog *logger.Logger,
) *ContactSynchronizer {
	return &ContactSynchronizer{
		client:   client,
		contacts: contacts,
		resolver: resolver,
		ledger:   ledger,
		log:      baseLog.With("sync", types.EntityContacts),
	}
}

func (s *ContactSynchronizer) EntityType() string { return types.EntityContacts }

func (s *ContactSynchronizer) Sync(ctx context.Context) (int, error) {
	return runWithLedger(ctx, s.ledger, s.log, s.EntityType(), s.sync)
}

func (s *ContactSynchronizer) sync(ctx context.Context) (int, error) {
	total := 0
	after := ""
	for {
		page, err := s.client.ListObjects(ctx, "contacts", contactProperties, after)
		if err != nil {
			return total, fmt.Errorf("fetch contacts: %w", err)
		}

		rows := make([]*types.Contact, 0, len(page.Results))
		for _, obj := range page.Results {
			row, err := s.transform(ctx, obj)
			if err != nil {
				s.log.Warn("contact transform failed, skipping record", "hubspot_id", obj.ID, "error", err)
				continue
			}
			rows = append(rows, row)
		}

		n, err := s.contacts.Upsert(ctx, nil, rows)
		if err != nil {
			return total, fmt.Errorf("save contacts: %w", err)
		}
		total += n

		if page.NextAfter == "" {
			return total, nil
		}
		after = page.NextAfter
	}
}

func (s *ContactSynchronizer) transform(ctx context.Context, obj hubspot.Object) (*types.Contact, error) {
	p := obj.Properties
	row := &types.Contact{
		HubSpotID:        obj.ID,
		Email:            p["email"],
		FirstName:        p["firstname"],
		LastName:         p["lastname"],
		Phone:            p["phone"],
		JobTitle:         p["jobtitle"],
		LifecycleStage:   p["lifecyclestage"],
		LeadStatus:       p["hs_lead_status"],
		Interests:        NormalizeChoice(p["interests"]),
		SourceCreatedAt:  ParseSourceTime(p["createdate"]),
		LastActivityDate: ParseSourceTime(p["notes_last_updated"]),
	}

	// Each of the three owner roles resolves independently; any of them may
	// be absent.
	ownerID, err := s.resolver.ResolveOwner(ctx, p["hubspot_owner_id"])
	if err != nil {
		return nil, err
	}
	row.OwnerID = ownerID

	secondaryID, err := s.resolver.ResolveOwner(ctx, p["secondary_owner"])
	if err != nil {
		return nil, err
	}
	row.SecondaryOwnerID = secondaryID

	outboundID, err := s.resolver.ResolveOwner(ctx, p["sales_outbound_owner"])
	if err != nil {
		return nil, err
	}
	row.SalesOutboundOwnerID = outboundID

	companyID, err := s.resolver.ResolveCompany(ctx, p["associatedcompanyid"])
	if err != nil {
		return nil, err
	}
	row.AssociatedCompanyID = companyID

	return row, nil
}
