package apisports

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/ratelimit"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/retry"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/goalstats"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/models"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/singleflight"
)

const (
	BaseURL = "https://v3.football.api-sports.io"

	// APIKeyHeader carries the static credential on every request
	APIKeyHeader = "x-apisports-key"

	// MinQueryLength is the shortest team search the API accepts
	MinQueryLength = 3

	maxBodyBytes = 4 << 20
)

// Config configures the API-Football client
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Limiter    *ratelimit.Limiter
	Retry      *retry.Policy
	Logger     *slog.Logger
}

// Client handles API-Football requests
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	retry      *retry.Policy
	logger     *slog.Logger
	userAgent  string
	flight     singleflight.Group

	// flightTimeout bounds a shared request, which runs detached from its callers
	flightTimeout time.Duration
}

// New creates a new API-Football client
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	perAttempt := httpClient.Timeout
	if perAttempt <= 0 {
		perAttempt = 15 * time.Second
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = BaseURL
	}

	policy := cfg.Retry
	if policy == nil {
		policy = retry.NewPolicy(1, 0)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		limiter:    cfg.Limiter,
		retry:      policy,
		logger:     logger.With(slog.String("component", "apisports")),
		userAgent:  "Mozilla/5.0 (compatible; FortunaGoalAnalysis/1.0)",

		flightTimeout: policy.Budget(perAttempt),
	}
}

// SearchTeams returns the teams whose name matches query
// GET /teams?search={query}
func (c *Client) SearchTeams(ctx context.Context, query string) ([]models.TeamRef, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return nil, &models.ValidationError{
			Field:  "query",
			Reason: fmt.Sprintf("must be at least %d characters", MinQueryLength),
		}
	}

	var env envelope[teamItem]
	if err := c.get(ctx, "/teams", url.Values{"search": {query}}, &env); err != nil {
		return nil, err
	}

	teams := make([]models.TeamRef, 0, len(env.Response))
	for _, item := range env.Response {
		teams = append(teams, models.TeamRef{
			ID:      item.Team.ID,
			Name:    item.Team.Name,
			Country: item.Team.Country,
			Logo:    item.Team.Logo,
		})
	}
	return teams, nil
}

// LastFixtures returns the team's last n played matches, seen from the team's side
// GET /fixtures?team={id}&last={n}
func (c *Client) LastFixtures(ctx context.Context, teamID, last int) ([]goalstats.MatchResult, error) {
	if teamID <= 0 {
		return nil, &models.ValidationError{Field: "team_id", Reason: "must be positive"}
	}
	if last <= 0 {
		return nil, &models.ValidationError{Field: "last", Reason: "must be positive"}
	}

	params := url.Values{
		"team": {strconv.Itoa(teamID)},
		"last": {strconv.Itoa(last)},
	}

	var env envelope[fixtureItem]
	if err := c.get(ctx, "/fixtures", params, &env); err != nil {
		return nil, err
	}

	matches := make([]goalstats.MatchResult, 0, len(env.Response))
	for _, item := range env.Response {
		m, ok := toMatchResult(teamID, item)
		if !ok {
			c.logger.Debug("skipping fixture without a final score",
				slog.Int("fixture_id", item.Fixture.ID), slog.Int("team_id", teamID))
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// toMatchResult orients a fixture's score to teamID.
// Explicit for/against goals win; otherwise home/away goals are mapped by team id.
func toMatchResult(teamID int, item fixtureItem) (goalstats.MatchResult, bool) {
	g := item.Goals
	if g.For != nil && g.Against != nil {
		return goalstats.MatchResult{GoalsFor: *g.For, GoalsAgainst: *g.Against}, true
	}
	if g.Home == nil || g.Away == nil {
		return goalstats.MatchResult{}, false
	}

	switch teamID {
	case item.Teams.Home.ID:
		return goalstats.MatchResult{GoalsFor: *g.Home, GoalsAgainst: *g.Away}, true
	case item.Teams.Away.ID:
		return goalstats.MatchResult{GoalsFor: *g.Away, GoalsAgainst: *g.Home}, true
	default:
		return goalstats.MatchResult{}, false
	}
}

// get performs a GET with limiter, retry and request collapsing, decoding into target
func (c *Client) get(ctx context.Context, path string, params url.Values, target any) error {
	fullURL := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	// The shared request runs detached from its callers, bounded by flightTimeout.
	// Each caller stops waiting when its own ctx is done.
	ch := c.flight.DoChan(fullURL, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout)
		defer cancel()

		var body []byte
		err := c.retry.Execute(fctx, func() error {
			var fetchErr error
			body, fetchErr = c.fetch(fctx, path, fullURL)
			return fetchErr
		})
		return body, err
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return &models.TransportError{Endpoint: path, Err: ctx.Err()}
	case res = <-ch:
	}
	if res.Err != nil {
		return res.Err
	}
	if res.Shared {
		c.logger.Debug("shared in-flight request", slog.String("path", path))
	}
	out := res.Val

	body, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := jsoniter.Unmarshal(body, target); err != nil {
		return &models.TransportError{Endpoint: path, Message: "decoding response", Err: err}
	}

	if env, ok := target.(interface{ providerError() string }); ok {
		if msg := env.providerError(); msg != "" {
			return &models.TransportError{Endpoint: path, StatusCode: http.StatusOK, Message: msg}
		}
	}
	return nil
}

func (e *envelope[T]) providerError() string {
	return providerErrors(e.Errors)
}

// fetch makes one HTTP GET request and returns the raw body.
// 4xx answers are permanent; network failures, 429 and 5xx may be retried.
func (c *Client) fetch(ctx context.Context, path, fullURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, retry.Permanent(&models.TransportError{Endpoint: path, Err: err})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set(APIKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("provider request failed", slog.String("path", path), slog.Any("error", err))
		terr := &models.TransportError{Endpoint: path, Err: err}
		if ctx.Err() != nil {
			return nil, retry.Permanent(terr)
		}
		return nil, terr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &models.TransportError{Endpoint: path, StatusCode: resp.StatusCode, Message: "reading response", Err: err}
	}

	c.logger.Debug("provider response",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		terr := &models.TransportError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Message:    abbreviate(body),
		}
		if isRetryableStatus(resp.StatusCode) {
			return nil, terr
		}
		return nil, retry.Permanent(terr)
	}

	return body, nil
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func abbreviate(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	if s == "" {
		return "empty response body"
	}
	return s
}
