package messaging

import (
	"context"
	"fmt"

	"github.com/nakliyo/messenger/internal/models"
)

// DefaultConversationTitle labels conversations that were started without a
// listing reference.
const DefaultConversationTitle = "Direct message"

// Resolver enforces "one conversation per user pair" at the point of
// initiation. It is symmetric: FindOrCreate(a, b) and FindOrCreate(b, a)
// resolve to the same conversation.
type Resolver struct {
	conversations *ConversationStore
}

// ResolverOpts holds parameters for creating a Resolver.
type ResolverOpts struct {
	Conversations *ConversationStore
}

// NewResolver creates a Resolver.
func NewResolver(opts ResolverOpts) (*Resolver, error) {
	if opts.Conversations == nil {
		return nil, fmt.Errorf("messaging: resolver: conversation store is required")
	}
	return &Resolver{conversations: opts.Conversations}, nil
}

// FindOrCreate returns the single conversation between initiatorID and
// otherID, creating it with both participants when the pair has never
// talked. The title is derived from the listing reference when one is
// attached. Duplicate suppression rides on the store's pair-key upsert, so
// concurrent initiations converge on one row without any lock here.
func (r *Resolver) FindOrCreate(ctx context.Context, initiatorID, otherID, listingRef string) (*models.Conversation, error) {
	if initiatorID == "" || otherID == "" {
		return nil, fmt.Errorf("%w: both user IDs are required", ErrValidation)
	}
	if initiatorID == otherID {
		return nil, fmt.Errorf("%w: cannot start a conversation with yourself", ErrValidation)
	}

	title := DefaultConversationTitle
	if listingRef != "" {
		title = fmt.Sprintf("Listing #%s", listingRef)
	}

	conv, _, err := r.conversations.FindOrCreate(ctx, initiatorID, otherID, title, initiatorID, listingRef)
	if err != nil {
		return nil, err
	}
	return conv, nil
}
