package httpapi

import (
	"encoding/json"
	"time"

	"github.com/nakliyo/messenger/internal/messaging"
	"github.com/nakliyo/messenger/internal/models"
)

// conversationView is the wire shape of a conversation.
type conversationView struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	CreatorID     string            `json:"creator_id"`
	ListingRef    string            `json:"listing_ref,omitempty"`
	LastMessageAt time.Time         `json:"last_message_at"`
	CreatedAt     time.Time         `json:"created_at"`
	Participants  []participantView `json:"participants"`
}

type participantView struct {
	UserID     string     `json:"user_id"`
	IsActive   bool       `json:"is_active"`
	LastReadAt *time.Time `json:"last_read_at,omitempty"`
	JoinedAt   time.Time  `json:"joined_at"`
}

// messageView is the wire shape of a message, with the stored JSON columns
// decoded back into lists and a map.
type messageView struct {
	ID             uint                   `json:"id"`
	ConversationID string                 `json:"conversation_id"`
	SenderID       string                 `json:"sender_id"`
	Content        string                 `json:"content"`
	MessageType    string                 `json:"message_type"`
	ImageURLs      []string               `json:"image_urls"`
	DocumentURLs   []string               `json:"document_urls"`
	Metadata       map[string]interface{} `json:"metadata"`
	IsRead         bool                   `json:"is_read"`
	CreatedAt      time.Time              `json:"created_at"`
}

func toConversationView(conv *models.Conversation) conversationView {
	participants := make([]participantView, len(conv.Participants))
	for i, p := range conv.Participants {
		participants[i] = participantView{
			UserID:     p.UserID,
			IsActive:   p.IsActive,
			LastReadAt: p.LastReadAt,
			JoinedAt:   p.JoinedAt,
		}
	}
	return conversationView{
		ID:            conv.ID,
		Title:         conv.Title,
		CreatorID:     conv.CreatorID,
		ListingRef:    conv.ListingRef,
		LastMessageAt: conv.LastMessageAt,
		CreatedAt:     conv.CreatedAt,
		Participants:  participants,
	}
}

func toMessageView(msg *models.Message) messageView {
	// Lenient like messaging.DecodeStringList: an unparseable metadata
	// column renders as an empty object instead of failing the response.
	metadata := map[string]interface{}{}
	if msg.Metadata != "" {
		if err := json.Unmarshal([]byte(msg.Metadata), &metadata); err != nil {
			metadata = map[string]interface{}{}
		}
	}
	return messageView{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		MessageType:    msg.MessageType,
		ImageURLs:      messaging.DecodeStringList(msg.ImageURLs),
		DocumentURLs:   messaging.DecodeStringList(msg.DocumentURLs),
		Metadata:       metadata,
		IsRead:         msg.IsRead,
		CreatedAt:      msg.CreatedAt,
	}
}
