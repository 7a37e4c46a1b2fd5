// Package conversations polls the chat list and filters it for search.
package conversations

import (
	"context"
	"strings"
	"time"

	"fitnest/client/internal/config"
	"fitnest/client/internal/logging"
	"fitnest/client/internal/models"

	"go.uber.org/zap"
)

// Lister fetches the conversation previews.
type Lister interface {
	Conversations(ctx context.Context) ([]models.ConversationPreview, error)
}

// Snapshot is one poll result. On failure Err is set and Conversations
// holds the last good list.
type Snapshot struct {
	Conversations []models.ConversationPreview
	Err           error
	FetchedAt     time.Time
}

// Poller refreshes the conversation list on a fixed interval.
type Poller struct {
	lister   Lister
	interval time.Duration
	logger   *zap.Logger
}

func NewPoller(lister Lister, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = config.ConversationPollInterval
	}
	logger = logging.OrNop(logger)
	return &Poller{lister: lister, interval: interval, logger: logger}
}

// Run fetches immediately and then every interval, handing each snapshot to
// handle, until ctx is done. Errors do not stop the loop.
func (p *Poller) Run(ctx context.Context, handle func(Snapshot)) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var last []models.ConversationPreview
	for {
		list, err := p.lister.Conversations(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			p.logger.Warn("fetching conversations failed", zap.Error(err))
		} else {
			last = list
		}
		handle(Snapshot{Conversations: last, Err: err, FetchedAt: time.Now()})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Filter keeps conversations whose partner name contains query, ignoring
// case. An empty query keeps everything.
func Filter(list []models.ConversationPreview, query string) []models.ConversationPreview {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	var out []models.ConversationPreview
	for _, c := range list {
		if strings.Contains(strings.ToLower(c.PartnerName), q) {
			out = append(out, c)
		}
	}
	return out
}
