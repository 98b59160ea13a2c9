// Package chroma implements vector.Store against the Chroma HTTP API.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/estlink/crmbridge-backend/internal/platform/ctxutil"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
	"github.com/estlink/crmbridge-backend/internal/platform/vector"
)

const maxErrorBodyBytes = 1024

type store struct {
	log     *logger.Logger
	cfg     Config
	baseURL string
	http    *http.Client

	mu          sync.Mutex
	collections map[string]string // name -> collection uuid
}

func NewStore(log *logger.Logger, cfg Config) (vector.Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	s := &store{
		log:     log.With("service", "ChromaStore"),
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		collections: map[string]string{},
	}

	if err := s.verifyReady(context.Background()); err != nil {
		return nil, err
	}

	log.Info("Chroma vector store selected", "provider", "chroma", "url", s.baseURL)
	return s, nil
}

type addRequest struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Metadatas  []map[string]any `json:"metadatas"`
	Documents  []string         `json:"documents"`
}

type getRequest struct {
	IDs     []string       `json:"ids,omitempty"`
	Where   map[string]any `json:"where,omitempty"`
	Limit   int            `json:"limit,omitempty"`
	Include []string       `json:"include"`
}

type getResponse struct {
	IDs       []string         `json:"ids"`
	Documents []*string        `json:"documents"`
	Metadatas []map[string]any `json:"metadatas"`
}

type queryRequest struct {
	QueryEmbeddings [][]float32    `json:"query_embeddings"`
	NResults        int            `json:"n_results"`
	Where           map[string]any `json:"where,omitempty"`
	Include         []string       `json:"include"`
}

type queryResponse struct {
	IDs       [][]string         `json:"ids"`
	Documents [][]*string        `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Distances [][]float64        `json:"distances"`
}

func (s *store) Upsert(ctx context.Context, collection string, docs []vector.Document) error {
	const op = "upsert"
	if len(docs) == 0 {
		return nil
	}

	req := addRequest{
		IDs:        make([]string, 0, len(docs)),
		Embeddings: make([][]float32, 0, len(docs)),
		Metadatas:  make([]map[string]any, 0, len(docs)),
		Documents:  make([]string, 0, len(docs)),
	}
	for _, d := range docs {
		id := strings.TrimSpace(d.ID)
		if id == "" {
			return opErr(op, vector.OperationErrorValidation, "document id is required", nil)
		}
		if len(d.Embedding) == 0 {
			return opErr(op, vector.OperationErrorValidation, fmt.Sprintf("document %q has empty embedding", id), nil)
		}
		req.IDs = append(req.IDs, id)
		req.Embeddings = append(req.Embeddings, d.Embedding)
		req.Metadatas = append(req.Metadatas, cloneMetadata(d.Metadata))
		req.Documents = append(req.Documents, d.Text)
	}

	colID, err := s.collectionID(ctx, collection)
	if err != nil {
		return err
	}
	return s.doJSON(ctx, op, http.MethodPost, s.collectionPath(colID, "/add"), req, nil)
}

func (s *store) Delete(ctx context.Context, collection string, ids []string) error {
	const op = "delete"
	clean := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		clean = append(clean, id)
	}
	if len(clean) == 0 {
		return nil
	}

	colID, err := s.collectionID(ctx, collection)
	if err != nil {
		return err
	}
	req := map[string]any{"ids": clean}
	return s.doJSON(ctx, op, http.MethodPost, s.collectionPath(colID, "/delete"), req, nil)
}

func (s *store) Get(ctx context.Context, collection string, where map[string]any, limit int) ([]vector.Document, error) {
	const op = "get"
	colID, err := s.collectionID(ctx, collection)
	if err != nil {
		return nil, err
	}

	req := getRequest{
		Where:   composeWhere(where),
		Include: []string{"documents", "metadatas"},
	}
	if limit > 0 {
		req.Limit = limit
	}

	var resp getResponse
	if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath(colID, "/get"), req, &resp); err != nil {
		return nil, err
	}

	out := make([]vector.Document, 0, len(resp.IDs))
	for i, id := range resp.IDs {
		doc := vector.Document{ID: id}
		if i < len(resp.Documents) && resp.Documents[i] != nil {
			doc.Text = *resp.Documents[i]
		}
		if i < len(resp.Metadatas) {
			doc.Metadata = resp.Metadatas[i]
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *store) Query(ctx context.Context, collection string, embedding []float32, topK int, where map[string]any) ([]vector.Match, error) {
	const op = "query"
	if len(embedding) == 0 {
		return nil, opErr(op, vector.OperationErrorValidation, "query embedding required", nil)
	}
	if topK <= 0 {
		topK = 5
	}

	colID, err := s.collectionID(ctx, collection)
	if err != nil {
		return nil, err
	}

	req := queryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        topK,
		Where:           composeWhere(where),
		Include:         []string{"documents", "metadatas", "distances"},
	}

	var resp queryResponse
	if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath(colID, "/query"), req, &resp); err != nil {
		return nil, err
	}
	if len(resp.IDs) == 0 {
		return []vector.Match{}, nil
	}

	ids := resp.IDs[0]
	out := make([]vector.Match, 0, len(ids))
	for i, id := range ids {
		m := vector.Match{ID: id}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) && resp.Documents[0][i] != nil {
			m.Text = *resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			m.Metadata = resp.Metadatas[0][i]
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			m.Score = distanceToScore(resp.Distances[0][i])
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *store) Count(ctx context.Context, collection string, where map[string]any) (int, error) {
	const op = "count"
	colID, err := s.collectionID(ctx, collection)
	if err != nil {
		return 0, err
	}

	// The bare count endpoint ignores filters, so filtered counts walk the
	// metadata index through /get with ids only.
	if len(where) == 0 {
		var total int
		if err := s.doJSON(ctx, op, http.MethodGet, s.collectionPath(colID, "/count"), nil, &total); err != nil {
			return 0, err
		}
		return total, nil
	}

	req := getRequest{
		Where:   composeWhere(where),
		Include: []string{},
	}
	var resp getResponse
	if err := s.doJSON(ctx, op, http.MethodPost, s.collectionPath(colID, "/get"), req, &resp); err != nil {
		return 0, err
	}
	return len(resp.IDs), nil
}

func (s *store) verifyReady(ctx context.Context) error {
	const op = "bootstrap_verify"

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), http.MethodGet, s.baseURL+"/api/v1/heartbeat", nil)
	if err != nil {
		return opErr(op, vector.OperationErrorTransportFailed, "build heartbeat request failed", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "chroma heartbeat failed", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &vector.OperationError{
			Code:       vector.OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("chroma heartbeat returned status=%d", resp.StatusCode),
		}
	}
	return nil
}

// collectionID resolves a collection name to its server-side id, creating the
// collection on first use. Resolved ids are cached for the store's lifetime.
func (s *store) collectionID(ctx context.Context, name string) (string, error) {
	const op = "resolve_collection"
	name = strings.TrimSpace(name)
	if name == "" {
		return "", opErr(op, vector.OperationErrorValidation, "collection name is required", nil)
	}

	s.mu.Lock()
	cached, ok := s.collections[name]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	req := map[string]any{
		"name":          name,
		"get_or_create": true,
	}
	var resp struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := s.doJSON(ctx, op, http.MethodPost, "/api/v1/collections", req, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.ID) == "" {
		return "", opErr(op, vector.OperationErrorDecodeFailed, fmt.Sprintf("collection %q resolved to empty id", name), nil)
	}

	s.mu.Lock()
	s.collections[name] = resp.ID
	s.mu.Unlock()
	return resp.ID, nil
}

func (s *store) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return opErr(op, vector.OperationErrorEncodeFailed, "encode request failed", err)
		}
		body = &buf
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, s.baseURL+path, body)
	if err != nil {
		return opErr(op, vector.OperationErrorTransportFailed, "build request failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Tenant != "" {
		req.Header.Set("X-Chroma-Tenant", s.cfg.Tenant)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return classifyHTTPCallError(op, "chroma request failed", err)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if readErr != nil {
		return opErr(op, vector.OperationErrorDecodeFailed, "read response failed", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &vector.OperationError{
			Code:       vector.OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("chroma http status=%d body=%q", resp.StatusCode, truncateBody(raw)),
		}
	}

	if out == nil {
		return nil
	}
	if len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return opErr(op, vector.OperationErrorDecodeFailed, "decode chroma response failed", err)
	}
	return nil
}

func (s *store) collectionPath(colID, suffix string) string {
	return "/api/v1/collections/" + colID + suffix
}

// composeWhere builds the filter document: single condition maps pass through,
// multiple conditions are wrapped in $and.
func composeWhere(where map[string]any) map[string]any {
	if len(where) == 0 {
		return nil
	}
	if len(where) == 1 {
		out := make(map[string]any, 1)
		for k, v := range where {
			out[k] = v
		}
		return out
	}
	conds := make([]any, 0, len(where))
	for k, v := range where {
		conds = append(conds, map[string]any{k: v})
	}
	return map[string]any{"$and": conds}
}

func distanceToScore(d float64) float64 {
	if d < 0 {
		d = -d
	}
	return 1.0 / (1.0 + d)
}

func cloneMetadata(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func truncateBody(raw []byte) string {
	if len(raw) <= maxErrorBodyBytes {
		return string(raw)
	}
	return string(raw[:maxErrorBodyBytes]) + "..."
}

func classifyHTTPCallError(op, message string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return opErr(op, vector.OperationErrorTimeout, message, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return opErr(op, vector.OperationErrorTimeout, message, err)
	}
	return opErr(op, vector.OperationErrorTransportFailed, message, err)
}

func opErr(op string, code vector.OperationErrorCode, msg string, cause error) error {
	return &vector.OperationError{
		Code:      code,
		Operation: op,
		Message:   msg,
		Cause:     cause,
	}
}
