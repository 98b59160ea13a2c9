package chat

import (
	"context"
	"testing"

	"github.com/estlink/crmbridge-backend/internal/data/repos/testutil"
	types "github.com/estlink/crmbridge-backend/internal/domain"
	"github.com/google/uuid"
)

func TestChatRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewRepo(db, testutil.Logger(t))
	ctx := context.Background()

	session, err := repo.CreateSession(ctx, tx, &types.ChatSession{
		UserID: "user-1",
		Title:  "How many contacts does Sarah have",
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.ID == uuid.Nil {
		t.Fatalf("expected session id")
	}

	got, err := repo.GetSession(ctx, tx, session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got == nil || got.Title != session.Title {
		t.Fatalf("unexpected session: %+v", got)
	}

	for _, m := range []*types.ChatMessage{
		{SessionID: session.ID, Role: types.ChatRoleUser, Content: "how many contacts does Sarah have?"},
		{SessionID: session.ID, Role: types.ChatRoleAssistant, Content: "Sarah Smith owns 57 contacts."},
	} {
		if _, err := repo.AppendMessage(ctx, tx, m); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	msgs, err := repo.ListMessages(ctx, tx, session.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != types.ChatRoleUser || msgs[1].Role != types.ChatRoleAssistant {
		t.Fatalf("messages out of order: %+v", msgs)
	}

	missing, err := repo.GetSession(ctx, tx, uuid.New())
	if err != nil {
		t.Fatalf("GetSession missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown session")
	}
}
