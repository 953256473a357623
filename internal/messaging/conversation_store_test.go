package messaging

import (
	"context"
	"testing"

	"github.com/nakliyo/messenger/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gormDB.AutoMigrate(&models.Conversation{}, &models.Participant{}, &models.Message{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gormDB
}

func newTestConversationStore(t *testing.T) *ConversationStore {
	t.Helper()
	cs, err := NewConversationStore(ConversationStoreOpts{DB: openTestDB(t)})
	if err != nil {
		t.Fatalf("NewConversationStore: %v", err)
	}
	return cs
}

// ---------------------------------------------------------------------------
// Constructor tests
// ---------------------------------------------------------------------------

func TestNewConversationStore_NilDB(t *testing.T) {
	_, err := NewConversationStore(ConversationStoreOpts{})
	if err == nil {
		t.Fatal("expected error for nil DB")
	}
}

// ---------------------------------------------------------------------------
// FindOrCreate tests
// ---------------------------------------------------------------------------

func TestFindOrCreate_CreatesConversationWithParticipants(t *testing.T) {
	cs := newTestConversationStore(t)
	ctx := context.Background()

	conv, created, err := cs.FindOrCreate(ctx, "u1", "u2", "Listing #42", "u1", "42")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	if !created {
		t.Error("expected created = true on first call")
	}
	if conv.ID == "" {
		t.Error("conversation ID should be assigned")
	}
	if conv.Title != "Listing #42" {
		t.Errorf("Title = %q, want %q", conv.Title, "Listing #42")
	}
	if conv.CreatorID != "u1" {
		t.Errorf("CreatorID = %q, want %q", conv.CreatorID, "u1")
	}
	if conv.ListingRef != "42" {
		t.Errorf("ListingRef = %q, want %q", conv.ListingRef, "42")
	}
	if len(conv.Participants) != 2 {
		t.Fatalf("len(Participants) = %d, want 2", len(conv.Participants))
	}
	for _, p := range conv.Participants {
		if !p.IsActive {
			t.Errorf("participant %s should be active", p.UserID)
		}
	}
}

func TestFindOrCreate_Idempotent(t *testing.T) {
	cs := newTestConversationStore(t)
	ctx := context.Background()

	first, created, err := cs.FindOrCreate(ctx, "u1", "u2", "Listing #42", "u1", "42")
	if err != nil {
		t.Fatalf("first FindOrCreate: %v", err)
	}
	if !created {
		t.Error("first call should create")
	}

	second, created, err := cs.FindOrCreate(ctx, "u1", "u2", "Listing #99", "u1", "99")
	if err != nil {
		t.Fatalf("second FindOrCreate: %v", err)
	}
	if created {
		t.Error("second call should not create")
	}
	if second.ID != first.ID {
		t.Errorf("second call returned conversation %s, want %s", second.ID, first.ID)
	}
	if second.Title != "Listing #42" {
		t.Errorf("existing conversation title = %q, want original %q", second.Title, "Listing #42")
	}
}

func TestFindOrCreate_Symmetric(t *testing.T) {
	cs := newTestConversationStore(t)
	ctx := context.Background()

	ab, _, err := cs.FindOrCreate(ctx, "u1", "u2", "t", "u1", "")
	if err != nil {
		t.Fatalf("FindOrCreate(u1, u2): %v", err)
	}
	ba, created, err := cs.FindOrCreate(ctx, "u2", "u1", "t", "u2", "")
	if err != nil {
		t.Fatalf("FindOrCreate(u2, u1): %v", err)
	}
	if created {
		t.Error("reversed order should find the existing conversation")
	}
	if ab.ID != ba.ID {
		t.Errorf("symmetric calls returned %s and %s, want same", ab.ID, ba.ID)
	}
}

func TestFindOrCreate_DistinctPairsGetDistinctConversations(t *testing.T) {
	cs := newTestConversationStore(t)
	ctx := context.Background()

	c12, _, _ := cs.FindOrCreate(ctx, "u1", "u2", "t", "u1", "")
	c13, _, _ := cs.FindOrCreate(ctx, "u1", "u3", "t", "u1", "")
	if c12.ID == c13.ID {
		t.Error("different pairs must get different conversations")
	}
}

func TestFindOrCreate_MissingUser(t *testing.T) {
	cs := newTestConversationStore(t)
	_, _, err := cs.FindOrCreate(context.Background(), "u1", "", "t", "u1", "")
	if err == nil {
		t.Fatal("expected error for missing user ID")
	}
}

// ---------------------------------------------------------------------------
// FindBetween tests
// ---------------------------------------------------------------------------

func TestFindBetween_NoConversation(t *testing.T) {
	cs := newTestConversationStore(t)
	conv, err := cs.FindBetween(context.Background(), "u1", "u2")
	if err != nil {
		t.Fatalf("FindBetween: %v", err)
	}
	if conv != nil {
		t.Errorf("expected nil for pair that never talked, got %v", conv.ID)
	}
}

func TestFindBetween_Existing(t *testing.T) {
	cs := newTestConversationStore(t)
	ctx := context.Background()

	created, _, err := cs.FindOrCreate(ctx, "u1", "u2", "t", "u1", "")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}

	found, err := cs.FindBetween(ctx, "u2", "u1")
	if err != nil {
		t.Fatalf("FindBetween: %v", err)
	}
	if found == nil || found.ID != created.ID {
		t.Errorf("FindBetween should return the existing conversation")
	}
	if len(found.Participants) != 2 {
		t.Errorf("len(Participants) = %d, want 2", len(found.Participants))
	}
}

// ---------------------------------------------------------------------------
// Participant tests
// ---------------------------------------------------------------------------

func TestAddParticipant_ReaddKeepsSingleRow(t *testing.T) {
	cs := newTestConversationStore(t)
	ctx := context.Background()

	conv, _, err := cs.FindOrCreate(ctx, "u1", "u2", "t", "u1", "")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}

	if _, err := cs.AddParticipant(ctx, conv.ID, "u1"); err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}

	var count int64
	cs.db.Model(&models.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conv.ID, "u1").Count(&count)
	if count != 1 {
		t.Errorf("participant rows for u1 = %d, want 1", count)
	}
}

func TestDeactivateParticipant_ThenReactivate(t *testing.T) {
	cs := newTestConversationStore(t)
	ctx := context.Background()

	conv, _, err := cs.FindOrCreate(ctx, "u1", "u2", "t", "u1", "")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}

	if err := cs.DeactivateParticipant(ctx, conv.ID, "u2"); err != nil {
		t.Fatalf("DeactivateParticipant: %v", err)
	}

	reloaded, err := cs.Get(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	for _, p := range reloaded.Participants {
		if p.UserID == "u2" && p.IsActive {
			t.Error("u2 should be inactive after deactivation")
		}
	}

	p, err := cs.AddParticipant(ctx, conv.ID, "u2")
	if err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}
	if !p.IsActive {
		t.Error("re-adding should reactivate the participant")
	}
}

func TestDeactivateParticipant_TwiceIsNoOp(t *testing.T) {
	cs := newTestConversationStore(t)
	ctx := context.Background()

	conv, _, err := cs.FindOrCreate(ctx, "u1", "u2", "t", "u1", "")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}

	if err := cs.DeactivateParticipant(ctx, conv.ID, "u2"); err != nil {
		t.Fatalf("DeactivateParticipant: %v", err)
	}
	// The row still matches even though is_active does not change again.
	if err := cs.DeactivateParticipant(ctx, conv.ID, "u2"); err != nil {
		t.Errorf("second DeactivateParticipant: %v, want no-op success", err)
	}
}

func TestDeactivateParticipant_NotFound(t *testing.T) {
	cs := newTestConversationStore(t)
	err := cs.DeactivateParticipant(context.Background(), "missing", "u1")
	if err == nil {
		t.Fatal("expected error for unknown participant")
	}
}

// ---------------------------------------------------------------------------
// ListForUser tests
// ---------------------------------------------------------------------------

func TestListForUser_OrderedByActivity(t *testing.T) {
	gormDB := openTestDB(t)
	cs, err := NewConversationStore(ConversationStoreOpts{DB: gormDB})
	if err != nil {
		t.Fatalf("NewConversationStore: %v", err)
	}
	ms, err := NewMessageStore(MessageStoreOpts{DB: gormDB})
	if err != nil {
		t.Fatalf("NewMessageStore: %v", err)
	}
	ctx := context.Background()

	older, _, err := cs.FindOrCreate(ctx, "u1", "u2", "t", "u1", "")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	newer, _, err := cs.FindOrCreate(ctx, "u1", "u3", "t", "u1", "")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}

	// A message in the older conversation makes it the most recent.
	if _, err := ms.Append(ctx, AppendOpts{ConversationID: older.ID, SenderID: "u2", Content: "selam"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	convs, err := cs.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("len(convs) = %d, want 2", len(convs))
	}
	if convs[0].ID != older.ID {
		t.Errorf("convs[0] = %s, want the recently messaged conversation %s", convs[0].ID, older.ID)
	}
	if convs[1].ID != newer.ID {
		t.Errorf("convs[1] = %s, want %s", convs[1].ID, newer.ID)
	}
}

func TestListForUser_ExcludesDeactivated(t *testing.T) {
	cs := newTestConversationStore(t)
	ctx := context.Background()

	conv, _, err := cs.FindOrCreate(ctx, "u1", "u2", "t", "u1", "")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	if err := cs.DeactivateParticipant(ctx, conv.ID, "u2"); err != nil {
		t.Fatalf("DeactivateParticipant: %v", err)
	}

	convs, err := cs.ListForUser(ctx, "u2")
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(convs) != 0 {
		t.Errorf("deactivated participant should see no conversations, got %d", len(convs))
	}

	convs, err = cs.ListForUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(convs) != 1 {
		t.Errorf("remaining participant should still see the conversation, got %d", len(convs))
	}
}

func TestListForUser_MissingUserID(t *testing.T) {
	cs := newTestConversationStore(t)
	_, err := cs.ListForUser(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for missing user ID")
	}
}
