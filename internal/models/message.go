package models

import "time"

// Message is a single append-only entry in a conversation. Attachment URL
// lists and the metadata bag are stored as JSON text; the service never
// interprets metadata, only stores and returns it.
type Message struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	ConversationID string `gorm:"size:36;not null;index"`
	SenderID       string `gorm:"size:64;not null"`
	Content        string `gorm:"type:text"`
	MessageType    string `gorm:"size:16;default:text"`
	ImageURLs      string `gorm:"type:json"`
	DocumentURLs   string `gorm:"type:json"`
	Metadata       string `gorm:"type:json"`
	IsRead         bool   `gorm:"default:false;index"`
	CreatedAt      time.Time
}
