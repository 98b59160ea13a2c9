package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	chatrepo "github.com/estlink/crmbridge-backend/internal/data/repos/chat"
	types "github.com/estlink/crmbridge-backend/internal/domain"
	"github.com/estlink/crmbridge-backend/internal/platform/logger"
	"github.com/estlink/crmbridge-backend/internal/platform/openai"
	"github.com/estlink/crmbridge-backend/internal/platform/vector"
)

// Service runs one question through retrieval and completion, persisting
// both sides of the exchange.
type Service struct {
	sessions    chatrepo.Repo
	planner     *Planner
	llm         openai.Client
	store       vector.Store
	collections Collections
	log         *logger.Logger
}

func NewService(
	sessions chatrepo.Repo,
	planner *Planner,
	llm openai.Client,
	store vector.Store,
	collections Collections,
	baseLog *logger.Logger,
) *Service {
	return &Service{
		sessions:    sessions,
		planner:     planner,
		llm:         llm,
		store:       store,
		collections: collections,
		log:         baseLog.With("service", "ChatService"),
	}
}

// Reply is the outcome of one SendMessage call.
type Reply struct {
	SessionID uuid.UUID
	Answer    string
}

// SendMessage answers the question in the given session, creating the
// session when the id is nil. onDelta, when non-nil, receives streamed
// answer fragments as they arrive.
func (s *Service) SendMessage(ctx context.Context, sessionID uuid.UUID, userID, question string, onDelta func(string)) (*Reply, error) {
	session, err := s.ensureSession(ctx, sessionID, userID, question)
	if err != nil {
		return nil, err
	}

	userMsg, err := s.sessions.AppendMessage(ctx, nil, &types.ChatMessage{
		SessionID: session.ID,
		Role:      types.ChatRoleUser,
		Content:   question,
	})
	if err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	contextBlock, err := s.planner.BuildContext(ctx, session.ID, question)
	if err != nil {
		s.log.Warn("context retrieval failed, answering without it",
			"session_id", session.ID, "error", err)
		contextBlock = ""
	}

	answer := s.complete(ctx, contextBlock, question, onDelta)

	assistantMsg, err := s.sessions.AppendMessage(ctx, nil, &types.ChatMessage{
		SessionID: session.ID,
		Role:      types.ChatRoleAssistant,
		Content:   answer,
	})
	if err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	s.indexMessages(ctx, session.ID, userMsg, assistantMsg)

	return &Reply{SessionID: session.ID, Answer: answer}, nil
}

func (s *Service) ensureSession(ctx context.Context, sessionID uuid.UUID, userID, question string) (*types.ChatSession, error) {
	if sessionID != uuid.Nil {
		session, err := s.sessions.GetSession(ctx, nil, sessionID)
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		if session != nil {
			return session, nil
		}
		s.log.Warn("session not found, starting a new one", "session_id", sessionID)
	}

	session, err := s.sessions.CreateSession(ctx, nil, &types.ChatSession{
		UserID: userID,
		Title:  sessionTitle(question),
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *Service) complete(ctx context.Context, contextBlock, question string, onDelta func(string)) string {
	prompt := buildUserPrompt(contextBlock, question)

	var answer string
	var err error
	if onDelta != nil {
		answer, err = s.llm.StreamText(ctx, systemPrompt, prompt, onDelta)
	} else {
		answer, err = s.llm.GenerateText(ctx, systemPrompt, prompt)
	}
	if err != nil {
		s.log.Error("completion failed", "error", err)
		return unavailableAnswer
	}
	return answer
}

// indexMessages pushes both turns into the history collection so later
// questions can retrieve them. Best effort; a failure never fails the
// exchange.
func (s *Service) indexMessages(ctx context.Context, sessionID uuid.UUID, msgs ...*types.ChatMessage) {
	texts := make([]string, 0, len(msgs))
	kept := make([]*types.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m == nil || m.Content == "" {
			continue
		}
		texts = append(texts, m.Content)
		kept = append(kept, m)
	}
	if len(kept) == 0 {
		return
	}

	embeddings, err := s.planner.embedder.Embed(ctx, texts)
	if err != nil || len(embeddings) != len(kept) {
		s.log.Warn("message indexing embed failed", "session_id", sessionID, "error", err)
		return
	}

	docs := make([]vector.Document, len(kept))
	for i, m := range kept {
		docs[i] = vector.Document{
			ID:        "chatmsg_" + m.ID.String(),
			Embedding: embeddings[i],
			Text:      m.Content,
			Metadata: map[string]any{
				"type":       "chat_message",
				"session_id": sessionID.String(),
				"role":       m.Role,
			},
		}
	}
	if err := s.store.Upsert(ctx, s.collections.History, docs); err != nil {
		s.log.Warn("message indexing failed", "session_id", sessionID, "error", err)
	}
}
