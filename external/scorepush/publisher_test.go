package scorepush

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/cueclub/league-night/internal/domain/match"
	"github.com/cueclub/league-night/internal/platform/resilience"
	"github.com/cueclub/league-night/internal/usecase"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleEvent() usecase.Event {
	return usecase.Event{
		Kind:       usecase.EventRoundLocked,
		MatchID:    "night-7",
		Round:      0,
		Phase:      match.PhaseSubstitution,
		HomeFrames: 3,
		AwayFrames: 1,
		At:         time.Date(2026, 3, 5, 21, 15, 0, 0, time.UTC),
	}
}

func TestPublish_DeliversScoreboardPayload(t *testing.T) {
	t.Parallel()

	type captured struct {
		auth        string
		contentType string
		payload     map[string]any
	}
	got := make(chan captured, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode push body: %v", err)
		}
		got <- captured{
			auth:        r.Header.Get("Authorization"),
			contentType: r.Header.Get("Content-Type"),
			payload:     payload,
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	publisher := NewPublisher(PublisherConfig{
		WebhookURL:     srv.URL + "/hooks/board",
		Token:          "board-secret",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, quietLogger())

	if err := publisher.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	received := <-got
	if received.auth != "Bearer board-secret" {
		t.Fatalf("unexpected Authorization header: %s", received.auth)
	}
	if received.contentType != "application/json" {
		t.Fatalf("unexpected Content-Type: %s", received.contentType)
	}
	if received.payload["event"] != "round_locked" {
		t.Fatalf("unexpected event kind: %v", received.payload["event"])
	}
	if received.payload["matchId"] != "night-7" {
		t.Fatalf("unexpected match id: %v", received.payload["matchId"])
	}
	if received.payload["phase"] != "SUBSTITUTION_PHASE" {
		t.Fatalf("unexpected phase: %v", received.payload["phase"])
	}
	if received.payload["homeFrames"] != float64(3) || received.payload["awayFrames"] != float64(1) {
		t.Fatalf("unexpected frame totals: %v / %v", received.payload["homeFrames"], received.payload["awayFrames"])
	}
}

func TestPublish_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	publisher := NewPublisher(PublisherConfig{
		WebhookURL:     srv.URL,
		Retries:        2,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, quietLogger())

	if err := publisher.Publish(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected three attempts, got %d", calls.Load())
	}
}

func TestPublish_ClientErrorDoesNotRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"unknown board"}`))
	}))
	defer srv.Close()

	publisher := NewPublisher(PublisherConfig{
		WebhookURL:     srv.URL,
		Retries:        3,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, quietLogger())

	err := publisher.Publish(context.Background(), sampleEvent())
	if err == nil {
		t.Fatalf("expected an error for a rejected push")
	}
	if !strings.Contains(err.Error(), "status=400") {
		t.Fatalf("expected the board status in the error, got %v", err)
	}
	if isScorePushCircuitFailure(err) {
		t.Fatalf("a definitive rejection must not count as a transient failure")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestPublish_CircuitBreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	publisher := NewPublisher(PublisherConfig{
		WebhookURL: srv.URL,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, quietLogger())

	for i := 0; i < 2; i++ {
		if err := publisher.Publish(context.Background(), sampleEvent()); err == nil {
			t.Fatalf("expected failure on publish %d", i+1)
		}
	}

	err := publisher.Publish(context.Background(), sampleEvent())
	if err == nil {
		t.Fatalf("expected the open circuit to reject the publish")
	}
	if !strings.Contains(err.Error(), "temporarily unavailable") {
		t.Fatalf("expected a circuit rejection, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected the open circuit to skip the webhook, got %d calls", calls.Load())
	}
}

func TestPublish_InvalidWebhookURL(t *testing.T) {
	t.Parallel()

	publisher := NewPublisher(PublisherConfig{
		WebhookURL:     "ftp://board.local/push",
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, quietLogger())

	err := publisher.Publish(context.Background(), sampleEvent())
	if err == nil {
		t.Fatalf("expected an error for an unsupported scheme")
	}
	if !strings.Contains(err.Error(), "unsupported scheme") {
		t.Fatalf("expected a scheme validation error, got %v", err)
	}
}
