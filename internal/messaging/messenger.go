// Package messaging implements peer-to-peer conversation and message
// coordination for the marketplace: find-or-create of the single
// conversation per user pair, append-only ordered messages, and
// per-participant read state. All state lives in the database; nothing is
// shared in process between calls.
package messaging

import (
	"context"
	"fmt"

	"github.com/nakliyo/messenger/internal/models"
	"gorm.io/gorm"
)

// Messenger is the single entry point consumers call. It orchestrates the
// resolver and the two stores and is stateless between calls.
type Messenger struct {
	conversations *ConversationStore
	messages      *MessageStore
	resolver      *Resolver
}

// MessengerOpts holds parameters for creating a Messenger.
type MessengerOpts struct {
	DB *gorm.DB
}

// NewMessenger wires a Messenger and its stores over one database handle.
func NewMessenger(opts MessengerOpts) (*Messenger, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("messaging: messenger: db is required")
	}

	conversations, err := NewConversationStore(ConversationStoreOpts{DB: opts.DB})
	if err != nil {
		return nil, err
	}
	messages, err := NewMessageStore(MessageStoreOpts{DB: opts.DB})
	if err != nil {
		return nil, err
	}
	resolver, err := NewResolver(ResolverOpts{Conversations: conversations})
	if err != nil {
		return nil, err
	}

	return &Messenger{
		conversations: conversations,
		messages:      messages,
		resolver:      resolver,
	}, nil
}

// SendOpts holds the input for one send-or-start operation. SenderID is the
// authenticated caller identity supplied by the upstream identity provider;
// it is trusted as-is here.
type SendOpts struct {
	SenderID     string
	RecipientID  string
	Content      string
	ListingRef   string
	ImageURLs    []string
	DocumentURLs []string
	Metadata     map[string]interface{}
}

// SendResult pairs the resolved conversation with the appended message.
type SendResult struct {
	Conversation *models.Conversation
	Message      *models.Message
}

// SendOrStart sends a message to a recipient, first resolving the single
// conversation between the two users and creating it if needed. Input is
// validated before any row is written, so a rejected send never leaves a
// fresh empty conversation behind. Sending to a recipient who has left the
// conversation is rejected.
func (m *Messenger) SendOrStart(ctx context.Context, opts SendOpts) (*SendResult, error) {
	if opts.SenderID == "" {
		return nil, fmt.Errorf("%w: sender identity is missing", ErrAuthentication)
	}
	if opts.RecipientID == "" {
		return nil, fmt.Errorf("%w: recipient ID is required", ErrValidation)
	}
	if opts.RecipientID == opts.SenderID {
		return nil, fmt.Errorf("%w: cannot message yourself", ErrValidation)
	}
	if opts.Content == "" && len(opts.ImageURLs) == 0 && len(opts.DocumentURLs) == 0 {
		return nil, ErrInvalidMessage
	}

	conv, err := m.resolver.FindOrCreate(ctx, opts.SenderID, opts.RecipientID, opts.ListingRef)
	if err != nil {
		return nil, err
	}

	for _, p := range conv.Participants {
		if p.UserID == opts.RecipientID && !p.IsActive {
			return nil, fmt.Errorf("%w: recipient has left this conversation", ErrValidation)
		}
	}

	msg, err := m.messages.Append(ctx, AppendOpts{
		ConversationID: conv.ID,
		SenderID:       opts.SenderID,
		Content:        opts.Content,
		ImageURLs:      opts.ImageURLs,
		DocumentURLs:   opts.DocumentURLs,
		Metadata:       opts.Metadata,
	})
	if err != nil {
		return nil, err
	}

	conv.LastMessageAt = msg.CreatedAt
	return &SendResult{Conversation: conv, Message: msg}, nil
}

// FindOrCreateConversation resolves the single conversation between two
// users without sending anything.
func (m *Messenger) FindOrCreateConversation(ctx context.Context, userA, userB, listingRef string) (*models.Conversation, error) {
	return m.resolver.FindOrCreate(ctx, userA, userB, listingRef)
}

// ListConversations returns the user's conversations, most recently active
// first, with participant rosters.
func (m *Messenger) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	return m.conversations.ListForUser(ctx, userID)
}

// GetConversation returns one conversation with its participants.
func (m *Messenger) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	return m.conversations.Get(ctx, conversationID)
}

// ListMessages returns up to limit messages of a conversation, oldest
// first.
func (m *Messenger) ListMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	return m.messages.List(ctx, conversationID, limit)
}

// MarkRead marks a message read on behalf of readerID. Self-reads return
// (nil, nil).
func (m *Messenger) MarkRead(ctx context.Context, messageID uint, readerID string) (*models.Message, error) {
	return m.messages.MarkRead(ctx, messageID, readerID)
}

// UnreadCount returns the number of unread messages in a conversation for
// one participant.
func (m *Messenger) UnreadCount(ctx context.Context, conversationID, userID string) (int, error) {
	return m.messages.UnreadCount(ctx, conversationID, userID)
}

// LeaveConversation soft-removes a participant; history stays readable for
// the other side.
func (m *Messenger) LeaveConversation(ctx context.Context, conversationID, userID string) error {
	return m.conversations.DeactivateParticipant(ctx, conversationID, userID)
}
