package chat

import (
	"strings"

	"github.com/estlink/crmbridge-backend/internal/vectorsync"
)

// dataKeywords gates retrieval. A question with none of these gets a plain
// completion with no context fetch.
var dataKeywords = []string{
	"deal", "deals",
	"contact", "contacts",
	"company", "companies", "client", "clients",
	"property", "properties", "listing", "listings",
	"owner", "owners", "rep", "reps", "agent", "agents",
	"sale", "sales", "sold", "purchase", "purchases", "bought",
	"activity", "activities", "call", "calls", "email", "emails", "note", "notes",
	"pipeline", "stage", "revenue", "amount", "price",
	"how many", "count", "number of",
	"crm", "hubspot", "database", "data",
}

var countMarkers = []string{"how many", "count of", "count the", "number of", "total number"}

var closedMarkers = []string{"closed", "won", "sold", "completed"}

// Queries shorter than this never trigger retrieval; greetings and
// one-word fragments are not data questions.
const minQueryLength = 8

// Intent is what the planner extracted from a question.
type Intent struct {
	DataQuery bool
	Count     bool
	// DocTypes narrows a count to specific document types; empty means the
	// question named no entity the planner recognizes.
	DocTypes []string
	Closed   bool
}

func ParseIntent(question string) Intent {
	q := strings.ToLower(strings.TrimSpace(question))
	if len(q) < minQueryLength {
		return Intent{}
	}

	intent := Intent{DataQuery: containsAny(q, dataKeywords)}
	if !intent.DataQuery {
		return intent
	}

	intent.Count = containsAny(q, countMarkers)
	intent.Closed = containsAny(q, closedMarkers)
	intent.DocTypes = docTypesFor(q)
	return intent
}

func docTypesFor(q string) []string {
	var out []string
	add := func(t string) {
		for _, existing := range out {
			if existing == t {
				return
			}
		}
		out = append(out, t)
	}

	if containsAny(q, []string{"contact"}) {
		add(vectorsync.DocTypeContact)
	}
	if containsAny(q, []string{"company", "companies", "client"}) {
		add(vectorsync.DocTypeCompany)
	}
	if containsAny(q, []string{"property", "properties", "listing"}) {
		add(vectorsync.DocTypeProperty)
	}
	if containsAny(q, []string{"owner", "rep", "agent"}) {
		add(vectorsync.DocTypeOwner)
	}
	if containsAny(q, []string{"activity", "activities", "call", "email", "note"}) {
		add(vectorsync.DocTypeActivity)
	}

	// "deal" alone spans both pipelines; a pipeline word narrows it.
	mentionsDeal := strings.Contains(q, "deal")
	mentionsPurchase := containsAny(q, []string{"purchase", "buy", "bought", "acquisition"})
	mentionsSale := containsAny(q, []string{"sale", "sales", "sell", "sold"})
	switch {
	case mentionsPurchase && !mentionsSale:
		add(vectorsync.DocTypeDealPurchase)
	case mentionsSale && !mentionsPurchase:
		add(vectorsync.DocTypeDealSale)
	case mentionsDeal || (mentionsPurchase && mentionsSale):
		add(vectorsync.DocTypeDealPurchase)
		add(vectorsync.DocTypeDealSale)
	}

	return out
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
