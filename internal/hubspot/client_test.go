package hubspot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/estlink/crmbridge-backend/internal/platform/logger"
)

func newEnvClient(t *testing.T, baseURL string) Client {
	t.Helper()
	t.Setenv("HUBSPOT_ACCESS_TOKEN", "test-token")
	t.Setenv("HUBSPOT_BASE_URL", baseURL)
	t.Setenv("HUBSPOT_MAX_RETRIES", "1")

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	c, err := NewClient(log)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestListObjectsPaging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crm/v3/objects/contacts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("authorization: %q", got)
		}
		if got := r.URL.Query().Get("properties"); got != "email,firstname" {
			t.Errorf("properties: %q", got)
		}

		if r.URL.Query().Get("after") == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{{"id": "1", "properties": map[string]string{"email": "a@x.com"}}},
				"paging":  map[string]any{"next": map[string]any{"after": "cursor-2"}},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"id": "2", "properties": map[string]string{"email": "b@x.com"}}},
		})
	}))
	defer srv.Close()

	c := newEnvClient(t, srv.URL)
	ctx := context.Background()

	page, err := c.ListObjects(ctx, "contacts", []string{"email", "firstname"}, "")
	if err != nil {
		t.Fatalf("ListObjects: %v", err)
	}
	if len(page.Results) != 1 || page.Results[0].ID != "1" {
		t.Fatalf("unexpected first page: %+v", page)
	}
	if page.NextAfter != "cursor-2" {
		t.Fatalf("expected next cursor, got %q", page.NextAfter)
	}

	page, err = c.ListObjects(ctx, "contacts", []string{"email", "firstname"}, page.NextAfter)
	if err != nil {
		t.Fatalf("ListObjects page 2: %v", err)
	}
	if page.NextAfter != "" {
		t.Fatalf("expected empty cursor on last page, got %q", page.NextAfter)
	}
}

func TestSearchDealsFilter(t *testing.T) {
	var got searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crm/v3/objects/deals/search" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"id": "77", "properties": map[string]string{"pipeline": "675713658"}}},
		})
	}))
	defer srv.Close()

	c := newEnvClient(t, srv.URL)
	page, err := c.SearchDeals(context.Background(), "675713658", []string{"dealname", "pipeline"}, "")
	if err != nil {
		t.Fatalf("SearchDeals: %v", err)
	}
	if len(page.Results) != 1 || page.Results[0].ID != "77" {
		t.Fatalf("unexpected page: %+v", page)
	}

	if len(got.FilterGroups) != 1 || len(got.FilterGroups[0].Filters) != 1 {
		t.Fatalf("unexpected filter groups: %+v", got.FilterGroups)
	}
	f := got.FilterGroups[0].Filters[0]
	if f.PropertyName != "pipeline" || f.Operator != "EQ" || f.Value != "675713658" {
		t.Fatalf("unexpected filter: %+v", f)
	}
}

func TestListOwnersFollowsPaging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("after") == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"results": []map[string]any{{"id": "10", "email": "o1@x.com", "firstName": "One"}},
				"paging":  map[string]any{"next": map[string]any{"after": "p2"}},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{"id": "11", "email": "o2@x.com", "firstName": "Two"}},
		})
	}))
	defer srv.Close()

	c := newEnvClient(t, srv.URL)
	owners, err := c.ListOwners(context.Background())
	if err != nil {
		t.Fatalf("ListOwners: %v", err)
	}
	if len(owners) != 2 || owners[0].ID != "10" || owners[1].ID != "11" {
		t.Fatalf("unexpected owners: %+v", owners)
	}
}

func TestListEngagements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/engagements/v1/engagements/paged" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{
					"engagement":   map[string]any{"id": 501, "type": "CALL", "timestamp": 1700000000000, "ownerId": 9},
					"associations": map[string]any{"contactIds": []int64{3}},
					"metadata":     map[string]any{"body": "called about renewal"},
				},
			},
			"hasMore": true,
			"offset":  501,
		})
	}))
	defer srv.Close()

	c := newEnvClient(t, srv.URL)
	page, err := c.ListEngagements(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListEngagements: %v", err)
	}
	if !page.HasMore || page.Offset != 501 {
		t.Fatalf("unexpected paging state: %+v", page)
	}
	if len(page.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(page.Results))
	}
	e := page.Results[0]
	if e.Engagement.Type != "CALL" || e.Engagement.ID != 501 {
		t.Fatalf("unexpected engagement: %+v", e.Engagement)
	}
	if len(e.Associations.ContactIDs) != 1 || e.Associations.ContactIDs[0] != 3 {
		t.Fatalf("unexpected associations: %+v", e.Associations)
	}
}

func TestRetryOn429WithRetryAfter(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{}})
	}))
	defer srv.Close()

	c := newEnvClient(t, srv.URL)
	if _, err := c.ListObjects(context.Background(), "companies", nil, ""); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}
