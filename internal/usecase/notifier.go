package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/cueclub/league-night/internal/domain/match"
)

type EventKind string

const (
	EventMatchStarted   EventKind = "match_started"
	EventRoundCompleted EventKind = "round_completed"
	EventRoundLocked    EventKind = "round_locked"
	EventRoundAdvanced  EventKind = "round_advanced"
	EventMatchCompleted EventKind = "match_completed"
	EventMatchReset     EventKind = "match_reset"
)

// Event is the progress notification pushed to scoreboard consumers after a
// state change commits. It carries derived values only; the record stays the
// single source of truth.
type Event struct {
	Kind       EventKind
	MatchID    string
	Round      int
	Phase      match.Phase
	HomeFrames int
	AwayFrames int
	At         time.Time
}

// EventSink delivers one event to the outside world.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

const notifierPublishTimeout = 5 * time.Second

// EventNotifier fans events out to the sink on a bounded worker pool so a
// slow scoreboard endpoint never stalls a captain's request. Delivery is
// best effort: failures are logged, not surfaced.
type EventNotifier struct {
	sink   EventSink
	pool   *ants.Pool
	logger *slog.Logger
}

func NewEventNotifier(sink EventSink, workers int, logger *slog.Logger) (*EventNotifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	return &EventNotifier{sink: sink, pool: pool, logger: logger}, nil
}

// Notify schedules delivery and returns immediately. A nil notifier or a
// notifier without a sink is a no-op so wiring stays optional.
func (n *EventNotifier) Notify(event Event) {
	if n == nil || n.sink == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	err := n.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifierPublishTimeout)
		defer cancel()

		if err := n.sink.Publish(ctx, event); err != nil {
			n.logger.Warn("publish match event failed",
				"kind", string(event.Kind),
				"match_id", event.MatchID,
				"error", err,
			)
		}
	})
	if err != nil {
		n.logger.Warn("submit match event failed",
			"kind", string(event.Kind),
			"match_id", event.MatchID,
			"error", err,
		)
	}
}

func (n *EventNotifier) Close() {
	if n == nil || n.pool == nil {
		return
	}
	n.pool.Release()
}

func eventFrom(m *match.Match, kind EventKind, round int, at time.Time) Event {
	home, away := m.FrameTotals()
	return Event{
		Kind:       kind,
		MatchID:    m.ID,
		Round:      round,
		Phase:      m.Phase(),
		HomeFrames: home,
		AwayFrames: away,
		At:         at,
	}
}
