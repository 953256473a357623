package models

import "time"

// Participant is a user's membership record in a conversation, carrying
// per-user read state. Primary key: (ConversationID, UserID).
type Participant struct {
	ConversationID string `gorm:"primaryKey;size:36"`
	UserID         string `gorm:"primaryKey;size:64;index"`
	IsActive       bool   `gorm:"default:true"`
	LastReadAt     *time.Time
	JoinedAt       time.Time `gorm:"autoCreateTime"`
}
