package vectorsync

import (
	"context"
	"fmt"

	"github.com/estlink/crmbridge-backend/internal/platform/logger"
	"github.com/estlink/crmbridge-backend/internal/platform/openai"
	"github.com/estlink/crmbridge-backend/internal/platform/vector"
)

// schemaDoc describes one table for the retrieval planner's schema
// collection. The planner surfaces these when a question is about what
// data exists rather than about specific records.
type schemaDoc struct {
	id   string
	text string
}

var schemaDocs = []schemaDoc{
	{"schema_owners", "Table owners: the sales team. Columns: full name, email, HubSpot user id, team membership. Every other record links back to an owner."},
	{"schema_companies", "Table companies: client businesses. Columns: name, domain, industry, location, lifecycle stage, employee count, annual revenue, services offered, assigned owner."},
	{"schema_contacts", "Table contacts: individual people. Columns: name, email, phone, job title, lifecycle stage, lead status, interests, associated company, primary owner, secondary owner, sales outbound owner."},
	{"schema_properties", "Table properties: real-estate listings. Columns: name, address, status, property type, bedrooms, bathrooms, square feet, list price, assigned owner."},
	{"schema_deals_purchase", "Table deals_purchase: deals in the purchase pipeline. Columns: deal name, amount, closed price, deal type, stage, close date, owner, lead acquirer, deal creator."},
	{"schema_deals_sale", "Table deals_sale: deals in the sales pipeline. Columns: deal name, amount, closed price, deal type, stage, close date, owner, lead acquirer, deal creator."},
	{"schema_activities", "Table activities: calls, emails, and notes from the CRM timeline. Columns: type, occurrence time, owner, subject, body, linked contacts, companies, and deals."},
}

// SchemaProjector writes the fixed table descriptions into their own
// collection. It runs once at startup; the content only changes with a
// deploy.
type SchemaProjector struct {
	embedder   openai.Client
	store      vector.Store
	collection string
	log        *logger.Logger
}

func NewSchemaProjector(embedder openai.Client, store vector.Store, collection string, baseLog *logger.Logger) *SchemaProjector {
	if collection == "" {
		collection = "database_info"
	}
	return &SchemaProjector{
		embedder:   embedder,
		store:      store,
		collection: collection,
		log:        baseLog.With("service", "SchemaProjector"),
	}
}

func (p *SchemaProjector) Project(ctx context.Context) error {
	texts := make([]string, len(schemaDocs))
	ids := make([]string, len(schemaDocs))
	for i, d := range schemaDocs {
		texts[i] = d.text
		ids[i] = d.id
	}

	embeddings, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed schema documents: %w", err)
	}
	if len(embeddings) != len(schemaDocs) {
		return fmt.Errorf("embed schema documents: got %d embeddings for %d texts", len(embeddings), len(schemaDocs))
	}

	docs := make([]vector.Document, len(schemaDocs))
	for i, d := range schemaDocs {
		docs[i] = vector.Document{
			ID:        d.id,
			Embedding: embeddings[i],
			Text:      d.text,
			Metadata:  map[string]any{"type": "schema", "table": d.id},
		}
	}

	if err := p.store.Delete(ctx, p.collection, ids); err != nil {
		return fmt.Errorf("delete stale schema documents: %w", err)
	}
	if err := p.store.Upsert(ctx, p.collection, docs); err != nil {
		return fmt.Errorf("insert schema documents: %w", err)
	}
	p.log.Info("schema projection complete", "collection", p.collection, "documents", len(docs))
	return nil
}
