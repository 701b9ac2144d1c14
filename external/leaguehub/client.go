package leaguehub

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/cueclub/league-night/internal/domain/roster"
	"github.com/cueclub/league-night/internal/domain/user"
	"github.com/cueclub/league-night/internal/platform/cache"
	"github.com/cueclub/league-night/internal/platform/logging"
	"github.com/cueclub/league-night/internal/platform/resilience"
	"github.com/cueclub/league-night/internal/usecase"
	"github.com/sourcegraph/conc/pool"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	introspectPath    = "/v1/auth/introspect"
	serviceKeyHeader  = "x-league-key"
	defaultTimeout    = 10 * time.Second
	defaultVerdictTTL = 30 * time.Second
	defaultRosterTTL  = 5 * time.Minute
)

var errLeagueHubTransient = crerr.New("league hub transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	ServiceKey     string
	Timeout        time.Duration
	MaxRetries     int
	VerdictTTL     time.Duration
	RosterTTL      time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the league hub, the central registry that owns teams,
// captain accounts and frozen match-night rosters. It serves as both the
// API's token verifier and the engine's roster source.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	serviceKey     string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	verdicts       *cache.Store
	rosters        *cache.Store
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	verdictTTL := cfg.VerdictTTL
	if verdictTTL <= 0 {
		verdictTTL = defaultVerdictTTL
	}
	rosterTTL := cfg.RosterTTL
	if rosterTTL <= 0 {
		rosterTTL = defaultRosterTTL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		serviceKey:     strings.TrimSpace(cfg.ServiceKey),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		verdicts:       cache.NewStore(verdictTTL),
		rosters:        cache.NewStore(rosterTTL),
	}
}

// VerifyAccessToken resolves a captain's bearer token through hub
// introspection. Inactive or malformed verdicts map to ErrUnauthorized; hub
// outages map to ErrDependencyUnavailable so auth rejections stay
// distinguishable from infrastructure failures.
func (c *Client) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	verdict, err := c.IntrospectToken(ctx, token)
	if err != nil {
		if IsTransient(err) {
			return user.Principal{}, fmt.Errorf("%w: league hub introspection failed: %v", usecase.ErrDependencyUnavailable, err)
		}
		return user.Principal{}, fmt.Errorf("introspect token: %w", err)
	}
	if !verdict.Active {
		return user.Principal{}, fmt.Errorf("%w: inactive token", usecase.ErrUnauthorized)
	}
	if strings.TrimSpace(verdict.UserID) == "" {
		return user.Principal{}, fmt.Errorf("invalid introspection verdict: user_id is empty")
	}

	return user.Principal{
		UserID: verdict.UserID,
		Email:  verdict.Email,
	}, nil
}

// IntrospectToken asks the hub whether a token is live. Active verdicts are
// cached by token hash until the configured TTL or the verdict's own expiry,
// whichever comes first; concurrent lookups for one token collapse into a
// single round trip.
func (c *Client) IntrospectToken(ctx context.Context, token string) (Introspection, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Introspection{}, crerr.New("token is required")
	}

	key := "verdict:" + hashToken(token)
	if cached, ok := c.verdicts.Get(ctx, key); ok {
		if verdict, ok := cached.(Introspection); ok && !verdict.expired(time.Now()) {
			return verdict, nil
		}
		c.verdicts.Delete(ctx, key)
	}

	out, err, _ := c.flight.Do(key, func() (any, error) {
		var verdict Introspection
		if err := c.doJSON(ctx, http.MethodPost, introspectPath, introspectRequest{Token: token}, &verdict); err != nil {
			return Introspection{}, err
		}
		if verdict.Active && strings.TrimSpace(verdict.UserID) != "" {
			c.verdicts.Set(ctx, key, verdict)
		}
		return verdict, nil
	})
	if err != nil {
		return Introspection{}, err
	}

	verdict, ok := out.(Introspection)
	if !ok {
		return Introspection{}, crerr.Newf("unexpected introspection payload type %T", out)
	}
	return verdict, nil
}

// MatchSheet resolves the frozen player pools for a pairing of teams into
// the sheet the engine stamps onto the match record at start time.
func (c *Client) MatchSheet(ctx context.Context, homeTeamID, awayTeamID string) (roster.Sheet, error) {
	home, away, err := c.MatchSheetRosters(ctx, homeTeamID, awayTeamID)
	if err != nil {
		return roster.Sheet{}, err
	}

	sheet := roster.Sheet{
		Home: home.PlayerIDs(),
		Away: away.PlayerIDs(),
	}
	if len(sheet.Home) == 0 || len(sheet.Away) == 0 {
		return roster.Sheet{}, fmt.Errorf("league hub returned an empty roster for pairing %s vs %s", homeTeamID, awayTeamID)
	}
	return sheet, nil
}

// MatchSheetRosters fetches both sides of a pairing concurrently. The first
// failure cancels the other fetch.
func (c *Client) MatchSheetRosters(ctx context.Context, homeTeamID, awayTeamID string) (TeamRoster, TeamRoster, error) {
	var home, away TeamRoster

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		fetched, err := c.Roster(ctx, homeTeamID)
		if err != nil {
			return fmt.Errorf("home side: %w", err)
		}
		home = fetched
		return nil
	})
	p.Go(func(ctx context.Context) error {
		fetched, err := c.Roster(ctx, awayTeamID)
		if err != nil {
			return fmt.Errorf("away side: %w", err)
		}
		away = fetched
		return nil
	})
	if err := p.Wait(); err != nil {
		return TeamRoster{}, TeamRoster{}, err
	}

	return home, away, nil
}

// Roster fetches one team's registered players. Results are cached per team
// for the configured TTL; concurrent fetches for one team share a single
// request.
func (c *Client) Roster(ctx context.Context, teamID string) (TeamRoster, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return TeamRoster{}, crerr.New("team id is required")
	}

	value, err := c.rosters.GetOrLoad(ctx, "roster:"+teamID, func(ctx context.Context) (any, error) {
		path := "/v1/teams/" + url.PathEscape(teamID) + "/roster"
		var envelope rosterEnvelope
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &envelope); err != nil {
			return nil, fmt.Errorf("fetch roster team_id=%s: %w", teamID, err)
		}

		fetched := envelope.Data
		if strings.TrimSpace(fetched.TeamID) == "" {
			fetched.TeamID = teamID
		}
		return fetched, nil
	})
	if err != nil {
		return TeamRoster{}, err
	}

	fetched, ok := value.(TeamRoster)
	if !ok {
		return TeamRoster{}, crerr.Newf("unexpected roster payload type %T", value)
	}
	return fetched, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "league hub circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: league hub is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	var encoded []byte
	if body != nil {
		var err error
		encoded, err = sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal league hub request: %w", err)
		}
	}

	fullURL := c.baseURL + path
	preview := buildRequestPreview(method, fullURL, len(encoded), c.serviceKey != "")
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("leaguehub.path", path),
			attribute.String("leaguehub.request_preview", preview),
		)
	}
	c.logger.DebugContext(ctx, "league hub request", "preview", preview)

	raw, err := c.executeRequest(ctx, method, fullURL, encoded)
	if c.circuitEnabled {
		if err != nil && IsTransient(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return err
	}

	if target == nil {
		return nil
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode league hub payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, method, fullURL string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var reader io.Reader
		if len(body) > 0 {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if len(body) > 0 {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.serviceKey != "" {
			req.Header.Set(serviceKeyHeader, c.serviceKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errLeagueHubTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errLeagueHubTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				// The hub rejected our service key, not the captain's token.
				return nil, fmt.Errorf("%w: league hub rejected the service key: status=%d", usecase.ErrDependencyUnavailable, resp.StatusCode)
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: league hub status=%d body=%s", errLeagueHubTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("league hub status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("league hub request failed")
	}
	c.logger.WarnContext(ctx, "league hub request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func buildRequestPreview(method, fullURL string, bodyLen int, withKey bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(method)
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(fullURL)
	if withKey {
		_, _ = buf.WriteString(" " + serviceKeyHeader + ": ***")
	}
	if bodyLen > 0 {
		_, _ = buf.WriteString(" body_bytes=")
		_, _ = buf.WriteString(strconv.Itoa(bodyLen))
	}
	return buf.String()
}
