package httpapi

import (
	"testing"
	"time"

	"github.com/nakliyo/messenger/internal/models"
)

func TestToMessageView_DecodesColumns(t *testing.T) {
	msg := &models.Message{
		ID:             7,
		ConversationID: "c1",
		SenderID:       "u1",
		Content:        "Merhaba",
		MessageType:    "text",
		ImageURLs:      `["http://cdn.nakliyo.com/truck.png"]`,
		DocumentURLs:   "[]",
		Metadata:       `{"client":"web"}`,
		CreatedAt:      time.Now(),
	}

	view := toMessageView(msg)
	if len(view.ImageURLs) != 1 {
		t.Errorf("ImageURLs = %v, want 1 entry", view.ImageURLs)
	}
	if len(view.DocumentURLs) != 0 {
		t.Errorf("DocumentURLs = %v, want empty", view.DocumentURLs)
	}
	if view.Metadata["client"] != "web" {
		t.Errorf("Metadata = %v, want client=web", view.Metadata)
	}
}

func TestToMessageView_LenientOnBadColumns(t *testing.T) {
	msg := &models.Message{
		ID:        8,
		SenderID:  "u1",
		ImageURLs: "not json",
		Metadata:  "{broken",
	}

	view := toMessageView(msg)
	if view.ImageURLs == nil || len(view.ImageURLs) != 0 {
		t.Errorf("ImageURLs = %v, want empty list", view.ImageURLs)
	}
	if view.Metadata == nil || len(view.Metadata) != 0 {
		t.Errorf("Metadata = %v, want empty object", view.Metadata)
	}
}
