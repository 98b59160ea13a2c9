// Package hubspot is the read-only HubSpot API client the sync engine pulls
// from. It covers the v3 objects and search endpoints, owners, deal pipelines,
// and the legacy v1 engagements feed.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/estlink/crmbridge-backend/internal/platform/ctxutil"
	"github.com/estlink/crmbridge-backend/internal/platform/httpx"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
)

const (
	defaultBaseURL    = "https://api.hubapi.com"
	objectPageLimit   = 100
	engagementLimit   = 250
)

type Client interface {
	// ListObjects fetches one page of a CRM object type. after is the cursor
	// from the previous page, empty for the first.
	ListObjects(ctx context.Context, objectType string, properties []string, after string) (Page, error)

	// SearchDeals fetches one page of deals filtered server-side to a single
	// pipeline.
	SearchDeals(ctx context.Context, pipelineID string, properties []string, after string) (Page, error)

	ListOwners(ctx context.Context) ([]Owner, error)

	GetPipeline(ctx context.Context, pipelineID string) (Pipeline, error)

	// ListEngagements fetches one page of the v1 engagements feed.
	ListEngagements(ctx context.Context, offset int64) (EngagementPage, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	token := strings.TrimSpace(os.Getenv("HUBSPOT_ACCESS_TOKEN"))
	if token == "" {
		return nil, fmt.Errorf("missing HUBSPOT_ACCESS_TOKEN")
	}

	baseURL := strings.TrimSpace(os.Getenv("HUBSPOT_BASE_URL"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeoutSec := 30
	if v := strings.TrimSpace(os.Getenv("HUBSPOT_TIMEOUT_SECONDS")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 4
	if v := strings.TrimSpace(os.Getenv("HUBSPOT_MAX_RETRIES")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:        log.With("service", "HubSpotClient"),
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type hubspotHTTPError struct {
	StatusCode int
	Body       string
}

func (e *hubspotHTTPError) Error() string {
	return fmt.Sprintf("hubspot http %d: %s", e.StatusCode, e.Body)
}

func (e *hubspotHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type objectListResponse struct {
	Results []Object `json:"results"`
	Paging  struct {
		Next struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

func (c *client) ListObjects(ctx context.Context, objectType string, properties []string, after string) (Page, error) {
	objectType = strings.TrimSpace(objectType)
	if objectType == "" {
		return Page{}, fmt.Errorf("object type required")
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(objectPageLimit))
	q.Set("archived", "false")
	if len(properties) > 0 {
		q.Set("properties", strings.Join(properties, ","))
	}
	if strings.TrimSpace(after) != "" {
		q.Set("after", after)
	}

	var resp objectListResponse
	path := "/crm/v3/objects/" + objectType + "?" + q.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return Page{}, fmt.Errorf("list %s: %w", objectType, err)
	}
	return Page{Results: resp.Results, NextAfter: resp.Paging.Next.After}, nil
}

type searchRequest struct {
	FilterGroups []searchFilterGroup `json:"filterGroups"`
	Properties   []string            `json:"properties,omitempty"`
	Limit        int                 `json:"limit"`
	After        string              `json:"after,omitempty"`
}

type searchFilterGroup struct {
	Filters []searchFilter `json:"filters"`
}

type searchFilter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

func (c *client) SearchDeals(ctx context.Context, pipelineID string, properties []string, after string) (Page, error) {
	pipelineID = strings.TrimSpace(pipelineID)
	if pipelineID == "" {
		return Page{}, fmt.Errorf("pipeline id required")
	}

	req := searchRequest{
		FilterGroups: []searchFilterGroup{
			{Filters: []searchFilter{{PropertyName: "pipeline", Operator: "EQ", Value: pipelineID}}},
		},
		Properties: properties,
		Limit:      objectPageLimit,
		After:      strings.TrimSpace(after),
	}

	var resp objectListResponse
	if err := c.do(ctx, http.MethodPost, "/crm/v3/objects/deals/search", req, &resp); err != nil {
		return Page{}, fmt.Errorf("search deals pipeline=%s: %w", pipelineID, err)
	}
	return Page{Results: resp.Results, NextAfter: resp.Paging.Next.After}, nil
}

type ownersResponse struct {
	Results []Owner `json:"results"`
	Paging  struct {
		Next struct {
			After string `json:"after"`
		} `json:"next"`
	} `json:"paging"`
}

func (c *client) ListOwners(ctx context.Context) ([]Owner, error) {
	var out []Owner
	after := ""
	for {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(objectPageLimit))
		if after != "" {
			q.Set("after", after)
		}

		var resp ownersResponse
		if err := c.do(ctx, http.MethodGet, "/crm/v3/owners/?"+q.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("list owners: %w", err)
		}
		out = append(out, resp.Results...)

		after = strings.TrimSpace(resp.Paging.Next.After)
		if after == "" {
			return out, nil
		}
	}
}

func (c *client) GetPipeline(ctx context.Context, pipelineID string) (Pipeline, error) {
	pipelineID = strings.TrimSpace(pipelineID)
	if pipelineID == "" {
		return Pipeline{}, fmt.Errorf("pipeline id required")
	}

	var resp Pipeline
	if err := c.do(ctx, http.MethodGet, "/crm/v3/pipelines/deals/"+pipelineID, nil, &resp); err != nil {
		return Pipeline{}, fmt.Errorf("get pipeline %s: %w", pipelineID, err)
	}
	return resp, nil
}

func (c *client) ListEngagements(ctx context.Context, offset int64) (EngagementPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(engagementLimit))
	if offset > 0 {
		q.Set("offset", strconv.FormatInt(offset, 10))
	}

	var resp EngagementPage
	if err := c.do(ctx, http.MethodGet, "/engagements/v1/engagements/paged?"+q.Encode(), nil, &resp); err != nil {
		return EngagementPage{}, fmt.Errorf("list engagements: %w", err)
	}
	return resp, nil
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &hubspotHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

// do runs one API call with retry/backoff. 429 responses honor Retry-After.
func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("hubspot decode error: %w", uErr)
			}
			return nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 15*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("HubSpot request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}
