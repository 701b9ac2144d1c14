package scorepush

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/cueclub/league-night/internal/platform/resilience"
	"github.com/cueclub/league-night/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

const (
	publisherName  = "league-night-scorepush"
	defaultTimeout = 10 * time.Second
	retryBackoff   = 200 * time.Millisecond
)

var errScorePushTransient = crerr.New("scorepush transient failure")

type PublisherConfig struct {
	WebhookURL     string
	Token          string
	Retries        int
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Publisher pushes match progress events to the clubhouse scoreboard
// webhook. Delivery runs on the notifier's worker pool, so a slow board
// never blocks a captain's request; the publisher's own job is to get one
// event across quickly or fail fast.
type Publisher struct {
	client         *fasthttp.Client
	webhookURL     string
	token          string
	retries        int
	timeout        time.Duration
	logger         *slog.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewPublisher(cfg PublisherConfig, logger *slog.Logger) *Publisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Publisher{
		client: &fasthttp.Client{
			Name:                publisherName,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		webhookURL:     strings.TrimSpace(cfg.WebhookURL),
		token:          strings.TrimSpace(cfg.Token),
		retries:        maxInt(cfg.Retries, 0),
		timeout:        timeout,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// scoreboardPayload is the wire shape the board consumes. Field casing
// matches the public API so board integrations share one vocabulary.
type scoreboardPayload struct {
	Event      string    `json:"event"`
	MatchID    string    `json:"matchId"`
	Round      int       `json:"round"`
	Phase      string    `json:"phase"`
	HomeFrames int       `json:"homeFrames"`
	AwayFrames int       `json:"awayFrames"`
	At         time.Time `json:"at"`
}

func payloadFrom(event usecase.Event) scoreboardPayload {
	return scoreboardPayload{
		Event:      string(event.Kind),
		MatchID:    event.MatchID,
		Round:      event.Round,
		Phase:      string(event.Phase),
		HomeFrames: event.HomeFrames,
		AwayFrames: event.AwayFrames,
		At:         event.At.UTC(),
	}
}

func (p *Publisher) Publish(ctx context.Context, event usecase.Event) error {
	if p.circuitEnabled {
		if err := p.breaker.Allow(); err != nil {
			p.logger.WarnContext(ctx, "scorepush circuit breaker rejected publish", "state", p.breaker.State())
			return fmt.Errorf("scoreboard webhook is temporarily unavailable: %w", err)
		}
	}

	webhookURL, err := validateWebhookURL(p.webhookURL)
	if err != nil {
		return crerr.Wrap(err, "invalid SCOREPUSH_WEBHOOK_URL")
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(payloadFrom(event)); err != nil {
		return crerr.Wrap(err, "marshal scoreboard payload")
	}

	callErr := p.send(ctx, webhookURL, buf.Bytes())
	p.recordCircuitResult(callErr)
	if callErr != nil {
		return callErr
	}

	p.logger.InfoContext(ctx, "scoreboard push delivered",
		"event", string(event.Kind),
		"match_id", event.MatchID,
		"round", event.Round,
	)
	return nil
}

func (p *Publisher) send(ctx context.Context, webhookURL string, body []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(webhookURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	req.SetBody(body)

	deadline := time.Now().Add(p.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp.Reset()
		err := p.client.DoDeadline(req, resp, deadline)
		if err != nil {
			lastErr = fmt.Errorf("%w: send scoreboard push: %v", errScorePushTransient, err)
		} else {
			status := resp.StatusCode()
			if status/100 == 2 {
				return nil
			}
			detail := truncateForLog(strings.TrimSpace(string(resp.Body())), 512)
			if !isRetryableStatus(status) {
				return fmt.Errorf("scoreboard push status=%d body=%s", status, detail)
			}
			lastErr = fmt.Errorf("%w: scoreboard push status=%d body=%s", errScorePushTransient, status, detail)
		}

		if attempt == p.retries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("scoreboard push failed")
	}
	return lastErr
}

func (p *Publisher) recordCircuitResult(err error) {
	if !p.circuitEnabled || p.breaker == nil {
		return
	}
	if err == nil {
		p.breaker.RecordSuccess()
		return
	}
	if isScorePushCircuitFailure(err) {
		p.breaker.RecordFailure()
		return
	}
	p.breaker.RecordSuccess()
}

func isScorePushCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errScorePushTransient)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == fasthttp.StatusRequestTimeout ||
		statusCode == fasthttp.StatusTooManyRequests ||
		statusCode >= fasthttp.StatusInternalServerError
}

func validateWebhookURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return candidate, nil
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
