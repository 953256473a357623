package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nakliyo/messenger/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConversationStore handles persistence of conversations and their
// participant rosters. Conversation identity and pair uniqueness live here;
// message contents live in MessageStore.
type ConversationStore struct {
	db *gorm.DB
}

// ConversationStoreOpts holds parameters for creating a ConversationStore.
type ConversationStoreOpts struct {
	DB *gorm.DB
}

// NewConversationStore creates a ConversationStore.
func NewConversationStore(opts ConversationStoreOpts) (*ConversationStore, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("messaging: conversation store: db is required")
	}
	return &ConversationStore{db: opts.DB}, nil
}

// FindOrCreate returns the single conversation between userA and userB,
// creating it together with both participant rows when none exists. Creation
// is an idempotent upsert keyed on the canonical pair key: of two concurrent
// calls for the same pair, one inserts and the other reads the winner's row.
// The second return value reports whether this call created the row.
func (s *ConversationStore) FindOrCreate(ctx context.Context, userA, userB, title, creatorID, listingRef string) (*models.Conversation, bool, error) {
	if userA == "" || userB == "" {
		return nil, false, fmt.Errorf("%w: both user IDs are required", ErrValidation)
	}

	conv := models.Conversation{
		ID:            uuid.New().String(),
		Title:         title,
		CreatorID:     creatorID,
		ListingRef:    listingRef,
		PairKey:       PairKey(userA, userB),
		LastMessageAt: time.Now(),
	}

	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).Create(&conv)
		if result.Error != nil {
			return fmt.Errorf("%w: create conversation: %v", ErrPersistence, result.Error)
		}

		if result.RowsAffected == 0 {
			// Lost the race or the pair already talked; adopt the
			// existing row.
			var existing models.Conversation
			if err := tx.Where("pair_key = ?", conv.PairKey).First(&existing).Error; err != nil {
				return fmt.Errorf("%w: fetch existing conversation: %v", ErrPersistence, err)
			}
			conv = existing
			return nil
		}

		created = true
		for _, userID := range []string{userA, userB} {
			if err := addParticipant(tx, conv.ID, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if err := s.db.WithContext(ctx).Preload("Participants").First(&conv, "id = ?", conv.ID).Error; err != nil {
		return nil, false, fmt.Errorf("%w: reload conversation: %v", ErrPersistence, err)
	}
	return &conv, created, nil
}

// FindBetween returns the conversation between two users, or nil when the
// pair has never talked. The pair-key lookup is authoritative: the unique
// index guarantees at most one match.
func (s *ConversationStore) FindBetween(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	if userA == "" || userB == "" {
		return nil, fmt.Errorf("%w: both user IDs are required", ErrValidation)
	}

	var conv models.Conversation
	err := s.db.WithContext(ctx).Preload("Participants").
		Where("pair_key = ?", PairKey(userA, userB)).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find conversation: %v", ErrPersistence, err)
	}
	return &conv, nil
}

// Get returns a conversation by ID with its participants.
func (s *ConversationStore) Get(ctx context.Context, conversationID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.WithContext(ctx).Preload("Participants").
		First(&conv, "id = ?", conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get conversation %s: %v", ErrPersistence, conversationID, err)
	}
	return &conv, nil
}

// AddParticipant inserts an active participant row, or reactivates a
// previously deactivated one. Re-adding an already active participant is a
// no-op upsert, so the active (conversation, user) pair stays unique.
func (s *ConversationStore) AddParticipant(ctx context.Context, conversationID, userID string) (*models.Participant, error) {
	if conversationID == "" || userID == "" {
		return nil, fmt.Errorf("%w: conversation ID and user ID are required", ErrValidation)
	}
	if err := addParticipant(s.db.WithContext(ctx), conversationID, userID); err != nil {
		return nil, err
	}

	var p models.Participant
	err := s.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&p).Error
	if err != nil {
		return nil, fmt.Errorf("%w: reload participant: %v", ErrPersistence, err)
	}
	return &p, nil
}

// addParticipant upserts one participant row on its composite primary key.
func addParticipant(tx *gorm.DB, conversationID, userID string) error {
	p := models.Participant{
		ConversationID: conversationID,
		UserID:         userID,
		IsActive:       true,
	}
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"is_active": true}),
	}).Create(&p)
	if result.Error != nil {
		return fmt.Errorf("%w: add participant %s: %v", ErrPersistence, userID, result.Error)
	}
	return nil
}

// DeactivateParticipant soft-removes a user from a conversation. History is
// kept; the user simply stops being an active member.
func (s *ConversationStore) DeactivateParticipant(ctx context.Context, conversationID, userID string) error {
	result := s.db.WithContext(ctx).Model(&models.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("%w: deactivate participant: %v", ErrPersistence, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: participant %s in conversation %s", ErrNotFound, userID, conversationID)
	}
	return nil
}

// ListForUser returns the conversations the user actively participates in,
// most recently active first, each with its participant roster. A fresh
// call re-reads current state; nothing is cached.
func (s *ConversationStore) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrValidation)
	}

	var convs []models.Conversation
	err := s.db.WithContext(ctx).
		Joins("JOIN participants ON participants.conversation_id = conversations.id").
		Where("participants.user_id = ? AND participants.is_active = ?", userID, true).
		Order("conversations.last_message_at DESC").
		Preload("Participants").
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list conversations for %s: %v", ErrPersistence, userID, err)
	}
	return convs, nil
}
