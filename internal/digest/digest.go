// Package digest runs a scheduled sweep over unread messages and nudges
// users through a configurable notification command. It reads the same
// tables the messenger writes; it never modifies read state itself.
package digest

import (
	"context"
	"fmt"
	"log"

	"github.com/nakliyo/messenger/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Summary is one user's unread backlog at sweep time.
type Summary struct {
	UserID        string
	Unread        int
	Conversations int
}

// Digester periodically computes unread summaries and hands them to a
// notifier.
type Digester struct {
	db       *gorm.DB
	schedule string
	notify   NotifyFunc
	cron     *cron.Cron
}

// NotifyFunc delivers one user's summary. Delivery is best-effort; the
// sweep continues past individual failures.
type NotifyFunc func(Summary)

// DigesterOpts holds parameters for creating a Digester.
type DigesterOpts struct {
	DB       *gorm.DB
	Schedule string // cron spec, e.g. "@every 15m" or "0 9 * * *"
	Notify   NotifyFunc
}

// NewDigester creates a Digester. The schedule must parse as a standard
// cron expression (descriptors like @every are accepted).
func NewDigester(opts DigesterOpts) (*Digester, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("digest: db is required")
	}
	if opts.Notify == nil {
		return nil, fmt.Errorf("digest: notify func is required")
	}
	if _, err := cron.ParseStandard(opts.Schedule); err != nil {
		return nil, fmt.Errorf("digest: parse schedule %q: %w", opts.Schedule, err)
	}
	return &Digester{
		db:       opts.DB,
		schedule: opts.Schedule,
		notify:   opts.Notify,
	}, nil
}

// Start schedules the sweep and returns. The digester runs until ctx is
// cancelled.
func (d *Digester) Start(ctx context.Context) error {
	d.cron = cron.New()
	_, err := d.cron.AddFunc(d.schedule, func() {
		if err := d.Sweep(ctx); err != nil {
			log.Printf("digest: sweep failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("digest: schedule sweep: %w", err)
	}
	d.cron.Start()

	go func() {
		<-ctx.Done()
		d.cron.Stop()
	}()
	return nil
}

// Sweep computes unread summaries for every user with a backlog and
// notifies each one. Users with nothing unread are skipped.
func (d *Digester) Sweep(ctx context.Context) error {
	summaries, err := d.Summaries(ctx)
	if err != nil {
		return err
	}
	for _, s := range summaries {
		d.notify(s)
	}
	return nil
}

// Summaries returns the current unread backlog per user, counting only
// messages addressed to an active participant other than the sender.
func (d *Digester) Summaries(ctx context.Context) ([]Summary, error) {
	var rows []Summary
	err := d.db.WithContext(ctx).Model(&models.Message{}).
		Select("participants.user_id AS user_id, COUNT(*) AS unread, COUNT(DISTINCT messages.conversation_id) AS conversations").
		Joins("JOIN participants ON participants.conversation_id = messages.conversation_id").
		Where("messages.is_read = ? AND participants.is_active = ? AND participants.user_id != messages.sender_id", false, true).
		Group("participants.user_id").
		Order("participants.user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("digest: unread summaries: %w", err)
	}
	return rows, nil
}
