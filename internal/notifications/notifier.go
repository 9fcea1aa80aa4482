package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bookhavenhq/bookhaven-backend/pkg/logger"
)

// Event is one domain occurrence worth telling a member about. Delivery is a
// collaborator concern; the engine only emits.
type Event struct {
	Type       string    `json:"type"`
	UserID     uuid.UUID `json:"user_id"`
	BookID     uuid.UUID `json:"book_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

const (
	// EventReservationFulfilled fires when a hold reaches the front of the
	// queue and the book is ready for pickup.
	EventReservationFulfilled = "reservation.fulfilled"
)

// Notifier delivers events to members.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

type logNotifier struct {
	log *logger.Logger
}

// NewLogNotifier returns a notifier that records events in the structured
// log. It stands in for a real delivery channel.
func NewLogNotifier(log *logger.Logger) (Notifier, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &logNotifier{log: log}, nil
}

func (n *logNotifier) Notify(ctx context.Context, event Event) error {
	ctx = n.log.WithFields(ctx, map[string]any{
		"event":       event.Type,
		"user_id":     event.UserID.String(),
		"book_id":     event.BookID.String(),
		"occurred_at": event.OccurredAt,
	})
	n.log.Info(ctx, "notification emitted")
	return nil
}
