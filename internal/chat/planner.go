package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/estlink/crmbridge-backend/internal/platform/logger"
	"github.com/estlink/crmbridge-backend/internal/platform/openai"
	"github.com/estlink/crmbridge-backend/internal/platform/vector"
	"github.com/estlink/crmbridge-backend/internal/vectorsync"
	"github.com/google/uuid"
)

const (
	retrievalTimeout = 10 * time.Second

	businessTopK = 8
	schemaTopK   = 3
	historyTopK  = 5
)

// Collections names the three vector collections the planner searches.
type Collections struct {
	Business string
	Schema   string
	History  string
}

func DefaultCollections() Collections {
	return Collections{
		Business: "business_data",
		Schema:   "database_info",
		History:  "chat_messages",
	}
}

// Planner assembles the retrieval context for a question: authoritative
// metadata counts when the question asks for numbers, similarity hits
// otherwise, always labeled so the model knows which figures to trust.
type Planner struct {
	store       vector.Store
	embedder    openai.Client
	owners      *OwnerDirectory
	collections Collections
	log         *logger.Logger
}

func NewPlanner(store vector.Store, embedder openai.Client, owners *OwnerDirectory, collections Collections, baseLog *logger.Logger) *Planner {
	return &Planner{
		store:       store,
		embedder:    embedder,
		owners:      owners,
		collections: collections,
		log:         baseLog.With("service", "RetrievalPlanner"),
	}
}

// BuildContext returns the context block for the question, empty when the
// question is not about CRM data.
func (p *Planner) BuildContext(ctx context.Context, sessionID uuid.UUID, question string) (string, error) {
	intent := ParseIntent(question)
	if !intent.DataQuery {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, retrievalTimeout)
	defer cancel()

	var sections []string

	if intent.Count && len(intent.DocTypes) > 0 {
		counts, err := p.countSection(ctx, intent, question)
		if err != nil {
			p.log.Warn("count retrieval failed", "error", err)
		} else if counts != "" {
			sections = append(sections, counts)
		}
	}

	similar, err := p.similaritySections(ctx, sessionID, question)
	if err != nil {
		// Counts do not depend on the question embedding; keep whatever
		// was assembled and let the answer go out without similarity hits.
		p.log.Warn("similarity retrieval failed, continuing without it", "error", err)
	}
	sections = append(sections, similar...)

	return strings.Join(sections, "\n\n"), nil
}

// countSection answers "how many" with exact metadata-filtered counts.
func (p *Planner) countSection(ctx context.Context, intent Intent, question string) (string, error) {
	owner, err := p.owners.Match(ctx, question)
	if err != nil {
		p.log.Warn("owner match failed, counting without owner filter", "error", err)
		owner = nil
	}

	var lines []string
	for _, docType := range intent.DocTypes {
		where := map[string]any{"type": docType}
		if owner != nil {
			where["owner_id"] = owner.ID
		}
		if intent.Closed && (docType == vectorsync.DocTypeDealPurchase || docType == vectorsync.DocTypeDealSale) {
			where["closed"] = true
		}

		n, err := p.store.Count(ctx, p.collections.Business, where)
		if err != nil {
			return "", fmt.Errorf("count %s: %w", docType, err)
		}
		lines = append(lines, countLine(docType, n, owner, intent.Closed))
	}

	if len(lines) == 0 {
		return "", nil
	}
	return "AUTHORITATIVE COUNTS (exact, from the database):\n" + strings.Join(lines, "\n"), nil
}

func countLine(docType string, n int, owner *ownerEntry, closed bool) string {
	label := map[string]string{
		vectorsync.DocTypeOwner:        "sales reps",
		vectorsync.DocTypeCompany:      "companies",
		vectorsync.DocTypeContact:      "contacts",
		vectorsync.DocTypeProperty:     "properties",
		vectorsync.DocTypeDealPurchase: "purchase deals",
		vectorsync.DocTypeDealSale:     "sales deals",
		vectorsync.DocTypeActivity:     "activities",
	}[docType]
	if label == "" {
		label = docType
	}

	line := fmt.Sprintf("- %d %s", n, label)
	if closed && (docType == vectorsync.DocTypeDealPurchase || docType == vectorsync.DocTypeDealSale) {
		line += " (closed)"
	}
	if owner != nil {
		line += " owned by " + owner.Name
	}
	return line
}

// similaritySections runs the three searches concurrently. A failed arm
// contributes nothing; the others still count.
func (p *Planner) similaritySections(ctx context.Context, sessionID uuid.UUID, question string) ([]string, error) {
	embeddings, err := p.embedder.Embed(ctx, []string{question})
	if err != nil || len(embeddings) != 1 {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	embedding := embeddings[0]

	var business, schema, history []vector.Match
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		matches, err := p.store.Query(gctx, p.collections.Business, embedding, businessTopK, nil)
		if err != nil {
			p.log.Warn("business search failed", "error", err)
			return nil
		}
		business = matches
		return nil
	})
	g.Go(func() error {
		matches, err := p.store.Query(gctx, p.collections.Schema, embedding, schemaTopK, nil)
		if err != nil {
			p.log.Warn("schema search failed", "error", err)
			return nil
		}
		schema = matches
		return nil
	})
	g.Go(func() error {
		var where map[string]any
		if sessionID != uuid.Nil {
			where = map[string]any{"session_id": sessionID.String()}
		}
		matches, err := p.store.Query(gctx, p.collections.History, embedding, historyTopK, where)
		if err != nil {
			p.log.Warn("history search failed", "error", err)
			return nil
		}
		history = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var sections []string
	if s := matchSection("RELATED RECORDS (samples, not exhaustive; never count these)", business); s != "" {
		sections = append(sections, s)
	}
	if s := matchSection("DATA AVAILABLE", schema); s != "" {
		sections = append(sections, s)
	}
	if s := matchSection("EARLIER IN THIS CONVERSATION", history); s != "" {
		sections = append(sections, s)
	}
	return sections, nil
}

func matchSection(header string, matches []vector.Match) string {
	var lines []string
	for _, m := range matches {
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		lines = append(lines, text)
	}
	if len(lines) == 0 {
		return ""
	}
	return header + ":\n" + strings.Join(lines, "\n---\n")
}
