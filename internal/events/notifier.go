package events

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"listing-intake-bot/internal/models"
	"listing-intake-bot/internal/observability/metrics"
	"listing-intake-bot/internal/sheet"
)

// SheetNotifier implements sheet.Observer: it publishes sheet lifecycle
// events and keeps the sheet metrics current.
type SheetNotifier struct {
	publisher *Publisher
	metrics   *metrics.Metrics
	timeout   time.Duration

	// Active reports the number of tracked sheets; nil leaves the gauge untouched.
	Active func() int
}

var _ sheet.Observer = (*SheetNotifier)(nil)

// NewSheetNotifier creates a notifier publishing through p.
func NewSheetNotifier(p *Publisher, m *metrics.Metrics) *SheetNotifier {
	return &SheetNotifier{
		publisher: p,
		metrics:   m,
		timeout:   10 * time.Second,
	}
}

// OnCreate handles a sheet created on first contact.
func (n *SheetNotifier) OnCreate(userID int64, s sheet.Sheet) {
	n.metrics.RecordSheetCreated(n.active())
	n.publish(userID, models.EventSheetCreated, s)
}

// OnReset handles a sheet reset.
func (n *SheetNotifier) OnReset(userID int64, s sheet.Sheet) {
	n.metrics.RecordSheetReset(n.active())
	n.publish(userID, models.EventSheetReset, s)
}

func (n *SheetNotifier) active() int {
	if n.Active == nil {
		return 0
	}
	return n.Active()
}

func (n *SheetNotifier) publish(userID int64, eventType string, s sheet.Sheet) {
	ev := models.SheetEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		UserID:    userID,
		Filled:    s.Filled(),
		Total:     s.Total(),
		Timestamp: time.Now().UnixMilli(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	if err := n.publisher.PublishSheet(ctx, strconv.FormatInt(userID, 10), eventType, ev); err != nil {
		log.Warn().Err(err).Int64("userId", userID).Str("eventType", eventType).Msg("Failed to publish sheet event")
	}
}
