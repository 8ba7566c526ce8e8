package db

import (
	"context"
	"path/filepath"
	"testing"

	"prism/internal/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logging.Disable()
	t.Cleanup(logging.Enable)

	store, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestConversationLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c, err := store.CreateConversation(ctx, "u1", "New Conversation", "gemini")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if c.ID == "" {
		t.Fatal("conversation id is empty")
	}

	got, err := store.GetConversation(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if got.Title != "New Conversation" || got.UserID != "u1" {
		t.Errorf("unexpected conversation: %+v", got)
	}

	if err := store.UpdateConversationTitle(ctx, c.ID, "Trip planning"); err != nil {
		t.Fatalf("UpdateConversationTitle: %v", err)
	}
	if err := store.SetConversationStarred(ctx, c.ID, true); err != nil {
		t.Fatalf("SetConversationStarred: %v", err)
	}

	got, _ = store.GetConversation(ctx, c.ID)
	if got.Title != "Trip planning" || !got.Starred {
		t.Errorf("updates not applied: %+v", got)
	}

	list, err := store.ListConversations(ctx, "u1")
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(list))
	}

	if err := store.DeleteConversation(ctx, c.ID); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if _, err := store.GetConversation(ctx, c.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetConversationNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetConversation(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendMessageOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c, err := store.CreateConversation(ctx, "u1", "New Conversation", "gemini")
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}

	// Same-second inserts must still come back in append order.
	contents := []string{"first", "second", "third", "fourth"}
	for i, text := range contents {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		if _, err := store.AppendMessage(ctx, c.ID, role, text); err != nil {
			t.Fatalf("AppendMessage %d: %v", i, err)
		}
	}

	msgs, err := store.ListMessages(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != len(contents) {
		t.Fatalf("expected %d messages, got %d", len(contents), len(msgs))
	}
	for i, m := range msgs {
		if m.Content != contents[i] {
			t.Errorf("message %d: expected %q, got %q", i, contents[i], m.Content)
		}
		if m.Seq != int64(i+1) {
			t.Errorf("message %d: expected seq %d, got %d", i, i+1, m.Seq)
		}
	}
}

func TestAppendMessageSelfHeals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Appending to an unknown conversation id creates the row.
	if _, err := store.AppendMessage(ctx, "dangling-id", "user", "hello"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	c, err := store.GetConversation(ctx, "dangling-id")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if c.Title != "New Conversation" {
		t.Errorf("expected default title, got %q", c.Title)
	}
}

func TestCountMessagesSinceSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c, _ := store.CreateConversation(ctx, "u1", "New Conversation", "gemini")
	for i := 0; i < 3; i++ {
		if _, err := store.AppendMessage(ctx, c.ID, "user", "turn"); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	// No summary yet: every turn counts.
	n, err := store.CountMessagesSinceSummary(ctx, c.ID, "[SUMMARY] ")
	if err != nil {
		t.Fatalf("CountMessagesSinceSummary: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 turns before any summary, got %d", n)
	}

	if _, err := store.AppendMessage(ctx, c.ID, "system", "[SUMMARY] earlier discussion about turns"); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	store.AppendMessage(ctx, c.ID, "user", "after")
	store.AppendMessage(ctx, c.ID, "assistant", "reply")

	n, err = store.CountMessagesSinceSummary(ctx, c.ID, "[SUMMARY] ")
	if err != nil {
		t.Fatalf("CountMessagesSinceSummary: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 turns since summary, got %d", n)
	}

	// Plain system turns do not reset the count.
	store.AppendMessage(ctx, c.ID, "system", "unrelated note")
	n, _ = store.CountMessagesSinceSummary(ctx, c.ID, "[SUMMARY] ")
	if n != 3 {
		t.Errorf("expected 3 turns since summary, got %d", n)
	}
}

func TestGeneratedVideos(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	v, err := store.SaveGeneratedVideo(ctx, "u1", "a cat surfing", "/uploads/video_abc.mp4")
	if err != nil {
		t.Fatalf("SaveGeneratedVideo: %v", err)
	}
	if v.ID == "" {
		t.Fatal("video id is empty")
	}

	vids, err := store.ListGeneratedVideos(ctx, "u1")
	if err != nil {
		t.Fatalf("ListGeneratedVideos: %v", err)
	}
	if len(vids) != 1 || vids[0].Prompt != "a cat surfing" {
		t.Errorf("unexpected videos: %+v", vids)
	}

	other, _ := store.ListGeneratedVideos(ctx, "u2")
	if len(other) != 0 {
		t.Errorf("expected no videos for other user, got %d", len(other))
	}
}
