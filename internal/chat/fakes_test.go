package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/estlink/crmbridge-backend/internal/domain"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
	"github.com/estlink/crmbridge-backend/internal/platform/vector"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

// fakeStore serves canned documents and records queries.
type fakeStore struct {
	mu         sync.Mutex
	docs       map[string][]vector.Document // collection -> docs
	counts     map[string]int               // doc type -> count
	getCalls   int
	countWhere []map[string]any
	queryErr   error
	upserted   map[string][]vector.Document
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:     map[string][]vector.Document{},
		counts:   map[string]int{},
		upserted: map[string][]vector.Document{},
	}
}

func (f *fakeStore) Upsert(_ context.Context, collection string, docs []vector.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted[collection] = append(f.upserted[collection], docs...)
	return nil
}

func (f *fakeStore) Delete(context.Context, string, []string) error { return nil }

func (f *fakeStore) Get(_ context.Context, collection string, where map[string]any, _ int) ([]vector.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	var out []vector.Document
	for _, d := range f.docs[collection] {
		if matchesWhere(d.Metadata, where) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) Query(_ context.Context, collection string, _ []float32, topK int, where map[string]any) ([]vector.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []vector.Match
	for _, d := range f.docs[collection] {
		if !matchesWhere(d.Metadata, where) {
			continue
		}
		out = append(out, vector.Match{ID: d.ID, Score: 0.9, Text: d.Text, Metadata: d.Metadata})
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) Count(_ context.Context, _ string, where map[string]any) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countWhere = append(f.countWhere, where)
	docType, _ := where["type"].(string)
	return f.counts[docType], nil
}

func matchesWhere(md, where map[string]any) bool {
	for k, v := range where {
		if md[k] != v {
			return false
		}
	}
	return true
}

// fakeLLM echoes a canned answer and records the prompt it saw.
type fakeLLM struct {
	mu       sync.Mutex
	answer   string
	err      error
	embedErr error
	prompt   string
}

func (f *fakeLLM) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

func (f *fakeLLM) GenerateText(_ context.Context, _ string, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompt = user
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeLLM) StreamText(ctx context.Context, system string, user string, onDelta func(string)) (string, error) {
	answer, err := f.GenerateText(ctx, system, user)
	if err != nil {
		return "", err
	}
	if onDelta != nil {
		onDelta(answer)
	}
	return answer, nil
}

// fakeSessions is an in-memory chat repo.
type fakeSessions struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*types.ChatSession
	messages []*types.ChatMessage
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[uuid.UUID]*types.ChatSession{}}
}

func (f *fakeSessions) CreateSession(_ context.Context, _ *gorm.DB, session *types.ChatSession) (*types.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeSessions) GetSession(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[id], nil
}

func (f *fakeSessions) AppendMessage(_ context.Context, _ *gorm.DB, msg *types.ChatMessage) (*types.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeSessions) ListMessages(_ context.Context, _ *gorm.DB, sessionID uuid.UUID) ([]*types.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.ChatMessage
	for _, m := range f.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

var errBoom = errors.New("boom")
