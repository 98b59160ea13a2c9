package vectorsync

import (
	"context"
	"fmt"
	"strconv"

	"github.com/estlink/crmbridge-backend/internal/data/repos/crm"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
	"github.com/estlink/crmbridge-backend/internal/platform/openai"
	"github.com/estlink/crmbridge-backend/internal/platform/vector"
)

// Document type discriminators, stored in metadata and prefixed onto ids.
const (
	DocTypeOwner        = "owner"
	DocTypeCompany      = "company"
	DocTypeContact      = "contact"
	DocTypeProperty     = "property"
	DocTypeDealPurchase = "deal_purchase"
	DocTypeDealSale     = "deal_sale"
	DocTypeActivity     = "activity"
)

const defaultEmbedBatch = 64

// Projector renders CRM rows into English documents and pushes them into
// the vector store. Re-projection replaces each document wholesale, so a
// row that shrank (a cleared field, say) never leaves stale text behind.
type Projector struct {
	owners     crm.OwnerRepo
	companies  crm.CompanyRepo
	contacts   crm.ContactRepo
	properties crm.PropertyRepo
	pipelines  crm.PipelineRepo
	deals      crm.DealRepo
	activities crm.ActivityRepo

	embedder   openai.Client
	store      vector.Store
	collection string
	batchSize  int
	log        *logger.Logger
}

func NewProjector(
	owners crm.OwnerRepo,
	companies crm.CompanyRepo,
	contacts crm.ContactRepo,
	properties crm.PropertyRepo,
	pipelines crm.PipelineRepo,
	deals crm.DealRepo,
	activities crm.ActivityRepo,
	embedder openai.Client,
	store vector.Store,
	collection string,
	baseLog *logger.Logger,
) *Projector {
	if collection == "" {
		collection = "business_data"
	}
	return &Projector{
		owners:     owners,
		companies:  companies,
		contacts:   contacts,
		properties: properties,
		pipelines:  pipelines,
		deals:      deals,
		activities: activities,
		embedder:   embedder,
		store:      store,
		collection: collection,
		batchSize:  defaultEmbedBatch,
		log:        baseLog.With("service", "Projector"),
	}
}

// docSource is a rendered document awaiting an embedding.
type docSource struct {
	id       string
	text     string
	metadata map[string]any
}

func docID(docType string, internalID int64) string {
	return docType + "_" + strconv.FormatInt(internalID, 10)
}

// ProjectAll re-projects every entity type and returns the number of
// documents written.
func (p *Projector) ProjectAll(ctx context.Context) (int, error) {
	lk, companyNames, err := p.buildLookups(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, fn := range []func(context.Context, lookups, map[int64]string) ([]docSource, error){
		p.ownerDocs,
		p.companyDocs,
		p.contactDocs,
		p.propertyDocs,
		p.purchaseDealDocs,
		p.saleDealDocs,
		p.activityDocs,
	} {
		docs, err := fn(ctx, lk, companyNames)
		if err != nil {
			return total, err
		}
		n, err := p.write(ctx, docs)
		if err != nil {
			return total, err
		}
		total += n
	}

	p.log.Info("projection complete", "collection", p.collection, "documents", total)
	return total, nil
}

func (p *Projector) buildLookups(ctx context.Context) (lookups, map[int64]string, error) {
	lk := lookups{
		ownerNames:  map[int64]string{},
		stageLabels: map[int64]string{},
	}

	owners, err := p.owners.ListAll(ctx, nil)
	if err != nil {
		return lk, nil, fmt.Errorf("load owners for projection: %w", err)
	}
	for _, o := range owners {
		lk.ownerNames[o.ID] = o.FullName()
	}

	stages, err := p.pipelines.ListAllStages(ctx, nil)
	if err != nil {
		return lk, nil, fmt.Errorf("load stages for projection: %w", err)
	}
	for _, s := range stages {
		lk.stageLabels[s.ID] = s.Label
	}

	companies, err := p.companies.ListAll(ctx, nil)
	if err != nil {
		return lk, nil, fmt.Errorf("load companies for projection: %w", err)
	}
	companyNames := make(map[int64]string, len(companies))
	for _, c := range companies {
		companyNames[c.ID] = c.Name
	}

	return lk, companyNames, nil
}

func (p *Projector) ownerDocs(ctx context.Context, _ lookups, _ map[int64]string) ([]docSource, error) {
	rows, err := p.owners.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load owners: %w", err)
	}
	docs := make([]docSource, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, docSource{
			id:   docID(DocTypeOwner, row.ID),
			text: renderOwner(row),
			metadata: sanitizeMetadata(map[string]any{
				"type":       DocTypeOwner,
				"id":         row.ID,
				"hubspot_id": row.HubSpotID,
				"owner_id":   row.ID,
				"owner_name": row.FullName(),
				"email":      row.Email,
			}),
		})
	}
	return docs, nil
}

func (p *Projector) companyDocs(ctx context.Context, lk lookups, _ map[int64]string) ([]docSource, error) {
	rows, err := p.companies.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load companies: %w", err)
	}
	docs := make([]docSource, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, docSource{
			id:   docID(DocTypeCompany, row.ID),
			text: renderCompany(row, lk),
			metadata: sanitizeMetadata(map[string]any{
				"type":       DocTypeCompany,
				"id":         row.ID,
				"hubspot_id": row.HubSpotID,
				"name":       row.Name,
				"owner_id":   row.OwnerID,
				"owner_name": lk.ownerName(row.OwnerID),
				"created_at": row.SourceCreatedAt,
			}),
		})
	}
	return docs, nil
}

func (p *Projector) contactDocs(ctx context.Context, lk lookups, companyNames map[int64]string) ([]docSource, error) {
	rows, err := p.contacts.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	docs := make([]docSource, 0, len(rows))
	for _, row := range rows {
		companyName := ""
		if row.AssociatedCompanyID != nil {
			companyName = companyNames[*row.AssociatedCompanyID]
		}
		docs = append(docs, docSource{
			id:   docID(DocTypeContact, row.ID),
			text: renderContact(row, lk, companyName),
			metadata: sanitizeMetadata(map[string]any{
				"type":       DocTypeContact,
				"id":         row.ID,
				"hubspot_id": row.HubSpotID,
				"name":       row.FullName(),
				"email":      row.Email,
				"owner_id":   row.OwnerID,
				"owner_name": lk.ownerName(row.OwnerID),
				"company_id": row.AssociatedCompanyID,
				"created_at": row.SourceCreatedAt,
			}),
		})
	}
	return docs, nil
}

func (p *Projector) propertyDocs(ctx context.Context, lk lookups, _ map[int64]string) ([]docSource, error) {
	rows, err := p.properties.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load properties: %w", err)
	}
	docs := make([]docSource, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, docSource{
			id:   docID(DocTypeProperty, row.ID),
			text: renderProperty(row, lk),
			metadata: sanitizeMetadata(map[string]any{
				"type":       DocTypeProperty,
				"id":         row.ID,
				"hubspot_id": row.HubSpotID,
				"name":       row.Name,
				"status":     row.Status,
				"list_price": row.ListPrice,
				"owner_id":   row.OwnerID,
				"owner_name": lk.ownerName(row.OwnerID),
			}),
		})
	}
	return docs, nil
}

func (p *Projector) purchaseDealDocs(ctx context.Context, lk lookups, _ map[int64]string) ([]docSource, error) {
	rows, err := p.deals.ListAllPurchases(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load purchase deals: %w", err)
	}
	docs := make([]docSource, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, docSource{
			id:   docID(DocTypeDealPurchase, row.ID),
			text: renderPurchaseDeal(row, lk),
			metadata: sanitizeMetadata(map[string]any{
				"type":       DocTypeDealPurchase,
				"id":         row.ID,
				"hubspot_id": row.HubSpotID,
				"name":       row.DealName,
				"amount":     row.Amount,
				"stage":      lk.stageLabel(row.StageID),
				"closed":     row.CloseDate != nil,
				"owner_id":   row.OwnerID,
				"owner_name": lk.ownerName(row.OwnerID),
				"close_date": row.CloseDate,
			}),
		})
	}
	return docs, nil
}

func (p *Projector) saleDealDocs(ctx context.Context, lk lookups, _ map[int64]string) ([]docSource, error) {
	rows, err := p.deals.ListAllSales(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load sales deals: %w", err)
	}
	docs := make([]docSource, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, docSource{
			id:   docID(DocTypeDealSale, row.ID),
			text: renderSaleDeal(row, lk),
			metadata: sanitizeMetadata(map[string]any{
				"type":       DocTypeDealSale,
				"id":         row.ID,
				"hubspot_id": row.HubSpotID,
				"name":       row.DealName,
				"amount":     row.Amount,
				"stage":      lk.stageLabel(row.StageID),
				"closed":     row.CloseDate != nil,
				"owner_id":   row.OwnerID,
				"owner_name": lk.ownerName(row.OwnerID),
				"close_date": row.CloseDate,
			}),
		})
	}
	return docs, nil
}

func (p *Projector) activityDocs(ctx context.Context, lk lookups, _ map[int64]string) ([]docSource, error) {
	rows, err := p.activities.ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}
	docs := make([]docSource, 0, len(rows))
	for _, row := range rows {
		detail, err := p.activities.GetDetail(ctx, nil, row.ID)
		if err != nil {
			return nil, fmt.Errorf("load activity detail %d: %w", row.ID, err)
		}
		docs = append(docs, docSource{
			id:   docID(DocTypeActivity, row.ID),
			text: renderActivity(row, detail, lk),
			metadata: sanitizeMetadata(map[string]any{
				"type":          DocTypeActivity,
				"id":            row.ID,
				"hubspot_id":    row.HubSpotID,
				"activity_type": row.Type,
				"owner_id":      row.OwnerID,
				"owner_name":    lk.ownerName(row.OwnerID),
				"occurred_at":   row.OccurredAt,
			}),
		})
	}
	return docs, nil
}

// write embeds the documents batch by batch and replaces them in the
// store. A batch that will not embed is retried document by document so a
// single poisoned text costs one document, not the batch.
func (p *Projector) write(ctx context.Context, docs []docSource) (int, error) {
	written := 0
	for start := 0; start < len(docs); start += p.batchSize {
		end := start + p.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, d := range batch {
			texts[i] = d.text
		}

		embeddings, err := p.embedder.Embed(ctx, texts)
		if err != nil || len(embeddings) != len(batch) {
			p.log.Warn("batch embedding failed, retrying per document",
				"batch_size", len(batch), "error", err)
			n, werr := p.writeOneByOne(ctx, batch)
			if werr != nil {
				return written, werr
			}
			written += n
			continue
		}

		out := make([]vector.Document, len(batch))
		ids := make([]string, len(batch))
		for i, d := range batch {
			ids[i] = d.id
			out[i] = vector.Document{
				ID:        d.id,
				Embedding: embeddings[i],
				Text:      d.text,
				Metadata:  d.metadata,
			}
		}

		if err := p.replace(ctx, ids, out); err != nil {
			return written, err
		}
		written += len(out)
	}
	return written, nil
}

func (p *Projector) writeOneByOne(ctx context.Context, batch []docSource) (int, error) {
	written := 0
	for _, d := range batch {
		embeddings, err := p.embedder.Embed(ctx, []string{d.text})
		if err != nil || len(embeddings) != 1 {
			p.log.Warn("document embedding failed, skipping", "doc_id", d.id, "error", err)
			continue
		}
		doc := vector.Document{ID: d.id, Embedding: embeddings[0], Text: d.text, Metadata: d.metadata}
		if err := p.replace(ctx, []string{d.id}, []vector.Document{doc}); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// replace deletes then inserts. The store's add is append-only for an
// existing id, so the delete is what makes re-projection idempotent.
func (p *Projector) replace(ctx context.Context, ids []string, docs []vector.Document) error {
	if err := p.store.Delete(ctx, p.collection, ids); err != nil {
		return fmt.Errorf("delete stale documents: %w", err)
	}
	if err := p.store.Upsert(ctx, p.collection, docs); err != nil {
		return fmt.Errorf("insert documents: %w", err)
	}
	return nil
}
