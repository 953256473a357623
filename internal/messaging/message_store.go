package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nakliyo/messenger/internal/models"
	"gorm.io/gorm"
)

// DefaultListLimit caps message listings when the caller does not say how
// many it wants.
const DefaultListLimit = 50

// MessageStore handles ordered, append-only persistence of messages and the
// read-state queries built on them.
type MessageStore struct {
	db *gorm.DB
}

// MessageStoreOpts holds parameters for creating a MessageStore.
type MessageStoreOpts struct {
	DB *gorm.DB
}

// NewMessageStore creates a MessageStore.
func NewMessageStore(opts MessageStoreOpts) (*MessageStore, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("messaging: message store: db is required")
	}
	return &MessageStore{db: opts.DB}, nil
}

// AppendOpts holds the data for one new message. Attachment URLs come from
// the external upload service; only the URLs are stored here, never bytes.
type AppendOpts struct {
	ConversationID string
	SenderID       string
	Content        string
	ImageURLs      []string
	DocumentURLs   []string
	Metadata       map[string]interface{}
}

// Append persists one message and advances the owning conversation's
// last_message_at in the same transaction, so the conversation sort key
// never lags its newest message. Content may be empty only when at least
// one attachment URL is present.
func (s *MessageStore) Append(ctx context.Context, opts AppendOpts) (*models.Message, error) {
	if opts.ConversationID == "" || opts.SenderID == "" {
		return nil, fmt.Errorf("%w: conversation ID and sender ID are required", ErrValidation)
	}
	if opts.Content == "" && len(opts.ImageURLs) == 0 && len(opts.DocumentURLs) == 0 {
		return nil, ErrInvalidMessage
	}

	imagesJSON, err := encodeStringList(opts.ImageURLs)
	if err != nil {
		return nil, fmt.Errorf("%w: encode image URLs: %v", ErrValidation, err)
	}
	documentsJSON, err := encodeStringList(opts.DocumentURLs)
	if err != nil {
		return nil, fmt.Errorf("%w: encode document URLs: %v", ErrValidation, err)
	}
	metadataJSON, err := encodeMetadata(opts.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: encode metadata: %v", ErrValidation, err)
	}

	msg := models.Message{
		ConversationID: opts.ConversationID,
		SenderID:       opts.SenderID,
		Content:        opts.Content,
		MessageType:    "text",
		ImageURLs:      imagesJSON,
		DocumentURLs:   documentsJSON,
		Metadata:       metadataJSON,
		CreatedAt:      time.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("%w: append message: %v", ErrPersistence, err)
		}

		result := tx.Model(&models.Conversation{}).
			Where("id = ?", opts.ConversationID).
			Update("last_message_at", msg.CreatedAt)
		if result.Error != nil {
			return fmt.Errorf("%w: touch conversation: %v", ErrPersistence, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: conversation %s", ErrNotFound, opts.ConversationID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// List returns up to limit messages of a conversation in creation order,
// oldest first. Callers re-fetch to see newer messages; this is a bounded
// read, not a stream.
func (s *MessageStore) List(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("%w: conversation ID is required", ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list messages: %v", ErrPersistence, err)
	}
	return msgs, nil
}

// MarkRead flips a message to read on behalf of readerID and advances the
// reader's participant last_read_at, both in one transaction. A sender
// "reading" their own message is a no-op returning (nil, nil); only another
// active participant can mark a message read.
func (s *MessageStore) MarkRead(ctx context.Context, messageID uint, readerID string) (*models.Message, error) {
	if readerID == "" {
		return nil, fmt.Errorf("%w: reader ID is required", ErrValidation)
	}

	var msg models.Message
	selfRead := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&msg, messageID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: message %d", ErrNotFound, messageID)
		}
		if err != nil {
			return fmt.Errorf("%w: get message %d: %v", ErrPersistence, messageID, err)
		}

		if msg.SenderID == readerID {
			selfRead = true
			return nil
		}

		result := tx.Model(&models.Participant{}).
			Where("conversation_id = ? AND user_id = ? AND is_active = ?", msg.ConversationID, readerID, true).
			Update("last_read_at", time.Now())
		if result.Error != nil {
			return fmt.Errorf("%w: advance read marker: %v", ErrPersistence, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %s is not an active participant", ErrValidation, readerID)
		}

		if err := tx.Model(&msg).Update("is_read", true).Error; err != nil {
			return fmt.Errorf("%w: mark read: %v", ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if selfRead {
		return nil, nil
	}

	msg.IsRead = true
	return &msg, nil
}

// UnreadCount returns how many messages in the conversation were authored
// by someone other than userID and are still unread. Recomputed per call;
// there is no cached counter to drift.
func (s *MessageStore) UnreadCount(ctx context.Context, conversationID, userID string) (int, error) {
	if conversationID == "" || userID == "" {
		return 0, fmt.Errorf("%w: conversation ID and user ID are required", ErrValidation)
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND is_read = ? AND sender_id != ?", conversationID, false, userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("%w: unread count: %v", ErrPersistence, err)
	}
	return int(count), nil
}

// encodeStringList marshals a URL list to JSON text, empty list included so
// the column always holds valid JSON.
func encodeStringList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// encodeMetadata marshals the open metadata bag, defaulting to an empty
// object. The store never interprets these values.
func encodeMetadata(meta map[string]interface{}) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeStringList is the inverse of the stored URL-list encoding. Unknown
// or empty column contents decode to an empty list.
func DecodeStringList(s string) []string {
	if s == "" {
		return []string{}
	}
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return []string{}
	}
	return items
}
