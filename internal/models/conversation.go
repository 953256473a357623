package models

import "time"

// Conversation is a persistent two-party message thread.
type Conversation struct {
	ID         string `gorm:"primaryKey;size:36"`
	Title      string `gorm:"size:256"`
	CreatorID  string `gorm:"size:64;not null"`
	ListingRef string `gorm:"size:64;index"`
	// PairKey is the two participant IDs sorted and joined, so the same
	// pair always maps to the same row regardless of who initiates.
	PairKey       string `gorm:"size:130;uniqueIndex"`
	LastMessageAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Participants []Participant `gorm:"foreignKey:ConversationID"`
}
