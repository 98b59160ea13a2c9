package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/estlink/crmbridge-backend/internal/platform/logger"
	"github.com/estlink/crmbridge-backend/internal/platform/vector"
	"github.com/estlink/crmbridge-backend/internal/vectorsync"
)

const ownerDirectoryTTL = time.Hour

type ownerEntry struct {
	ID   int64
	Name string
}

// OwnerDirectory caches the owner partition of the vector store so the
// planner can match names in questions without a round trip per query.
// The set of reps changes rarely; an hour of staleness is acceptable.
type OwnerDirectory struct {
	store      vector.Store
	collection string
	log        *logger.Logger

	mu        sync.RWMutex
	entries   []ownerEntry
	fetchedAt time.Time
}

func NewOwnerDirectory(store vector.Store, collection string, baseLog *logger.Logger) *OwnerDirectory {
	return &OwnerDirectory{
		store:      store,
		collection: collection,
		log:        baseLog.With("service", "OwnerDirectory"),
	}
}

// Match scans the question for an owner's full name, first name, or last
// name, longest match first. Returns nil when no owner is mentioned.
func (d *OwnerDirectory) Match(ctx context.Context, question string) (*ownerEntry, error) {
	entries, err := d.load(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(question)
	var best *ownerEntry
	bestLen := 0
	for i, e := range entries {
		for _, candidate := range nameForms(e.Name) {
			if len(candidate) > bestLen && strings.Contains(q, candidate) {
				best = &entries[i]
				bestLen = len(candidate)
			}
		}
	}
	return best, nil
}

func (d *OwnerDirectory) load(ctx context.Context) ([]ownerEntry, error) {
	d.mu.RLock()
	if time.Since(d.fetchedAt) < ownerDirectoryTTL && d.entries != nil {
		entries := d.entries
		d.mu.RUnlock()
		return entries, nil
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	if time.Since(d.fetchedAt) < ownerDirectoryTTL && d.entries != nil {
		return d.entries, nil
	}

	docs, err := d.store.Get(ctx, d.collection, map[string]any{"type": vectorsync.DocTypeOwner}, 1000)
	if err != nil {
		return nil, err
	}

	entries := make([]ownerEntry, 0, len(docs))
	for _, doc := range docs {
		name, _ := doc.Metadata["owner_name"].(string)
		if strings.TrimSpace(name) == "" {
			continue
		}
		id := metadataInt64(doc.Metadata["owner_id"])
		if id == 0 {
			continue
		}
		entries = append(entries, ownerEntry{ID: id, Name: name})
	}

	d.entries = entries
	d.fetchedAt = time.Now()
	d.log.Debug("owner directory refreshed", "owners", len(entries))
	return entries, nil
}

// nameForms returns lowercase match candidates for a full name. Single
// first names are included; one-letter fragments are not worth matching.
func nameForms(full string) []string {
	full = strings.ToLower(strings.TrimSpace(full))
	if full == "" {
		return nil
	}
	forms := []string{full}
	for _, part := range strings.Fields(full) {
		if len(part) > 1 {
			forms = append(forms, part)
		}
	}
	return forms
}

// metadataInt64 copes with JSON numbers arriving as float64.
func metadataInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	}
	return 0
}
