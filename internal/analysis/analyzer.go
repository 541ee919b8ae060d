package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/cache"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/history"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/resolver"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/goalstats"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrHistoryDisabled is returned by Recent when no analysis log is configured
var ErrHistoryDisabled = errors.New("analysis history is not configured")

const recordTimeout = 5 * time.Second

// Provider is the data source the analyzer needs: team search and fixture history
type Provider interface {
	resolver.TeamSearcher
	LastFixtures(ctx context.Context, teamID, last int) ([]goalstats.MatchResult, error)
}

// Publisher announces finished analyses to downstream consumers
type Publisher interface {
	PublishAnalysis(ctx context.Context, result *models.AnalysisResult) error
}

// Options configures an Analyzer. Cache, History and Publisher are optional.
type Options struct {
	Window      int
	TeamTimeout time.Duration
	Cache       cache.FixtureCache
	History     history.Recorder
	Publisher   Publisher
	Logger      *slog.Logger
}

// Analyzer runs analyses: two team pipelines in parallel, joined before returning
type Analyzer struct {
	provider    Provider
	resolvers   *resolver.Registry
	cache       cache.FixtureCache
	history     history.Recorder
	publisher   Publisher
	window      int
	teamTimeout time.Duration
	logger      *slog.Logger
}

// New creates a new Analyzer
func New(provider Provider, resolvers *resolver.Registry, opts Options) *Analyzer {
	if opts.Window <= 0 {
		opts.Window = goalstats.DefaultWindow
	}
	if opts.Cache == nil {
		opts.Cache = cache.NopCache{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Analyzer{
		provider:    provider,
		resolvers:   resolvers,
		cache:       opts.Cache,
		history:     opts.History,
		publisher:   opts.Publisher,
		window:      opts.Window,
		teamTimeout: opts.TeamTimeout,
		logger:      opts.Logger.With(slog.String("component", "analyzer")),
	}
}

// Analyze resolves both teams, fetches their recent fixtures and computes statistics.
//
// NotFound, transport and validation failures abort the whole run and no partial
// result is returned. A team without match history gets the insufficient_data status.
func (a *Analyzer) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	res, err := a.resolvers.Get(req.Strategy)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req, res.Strategy()); err != nil {
		return nil, err
	}

	result := &models.AnalysisResult{
		ID:        uuid.NewString(),
		Strategy:  res.Strategy(),
		Window:    a.window,
		Capital:   req.Capital,
		StartedAt: time.Now().UTC(),
	}
	log := a.logger.With(slog.String("run_id", result.ID), slog.String("strategy", result.Strategy))

	sides := [2]models.TeamSelection{req.Home, req.Away}
	g, gctx := errgroup.WithContext(ctx)
	for i, sel := range sides {
		g.Go(func() error {
			outcome, err := a.analyzeTeam(gctx, res, sel)
			if err != nil {
				return fmt.Errorf("%s team: %w", sideName(i), err)
			}
			result.Teams[i] = outcome
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Warn("analysis failed", slog.Any("error", err))
		return nil, err
	}
	result.FinishedAt = time.Now().UTC()

	log.Info("analysis complete",
		slog.String("home", result.Teams[0].Team.Name),
		slog.String("home_status", result.Teams[0].Status),
		slog.String("away", result.Teams[1].Team.Name),
		slog.String("away_status", result.Teams[1].Status),
		slog.Duration("took", result.FinishedAt.Sub(result.StartedAt)))

	a.record(ctx, result)
	return result, nil
}

// analyzeTeam is one team pipeline: resolve, fetch (cache-through), compute
func (a *Analyzer) analyzeTeam(ctx context.Context, res resolver.Resolver, sel models.TeamSelection) (models.TeamOutcome, error) {
	if a.teamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.teamTimeout)
		defer cancel()
	}

	team, err := res.Resolve(ctx, sel)
	if err != nil {
		return models.TeamOutcome{}, err
	}

	matches, err := a.fixtures(ctx, team.ID)
	if err != nil {
		return models.TeamOutcome{}, fmt.Errorf("fixtures for %s (%d): %w", team.Name, team.ID, err)
	}

	stats, err := goalstats.Compute(team.Name, matches)
	switch {
	case errors.Is(err, goalstats.ErrInsufficientData):
		return models.TeamOutcome{Team: team, Status: models.OutcomeInsufficientData}, nil
	case err != nil:
		return models.TeamOutcome{}, fmt.Errorf("statistics for %s: %w", team.Name, err)
	}

	return models.TeamOutcome{Team: team, Status: models.OutcomeOK, Stats: &stats}, nil
}

// fixtures reads through the cache. Cache failures are logged and treated as a miss.
func (a *Analyzer) fixtures(ctx context.Context, teamID int) ([]goalstats.MatchResult, error) {
	cached, ok, err := a.cache.Get(ctx, teamID, a.window)
	if err != nil {
		a.logger.Warn("fixture cache read failed", slog.Int("team_id", teamID), slog.Any("error", err))
	} else if ok {
		return cached, nil
	}

	matches, err := a.provider.LastFixtures(ctx, teamID, a.window)
	if err != nil {
		return nil, err
	}

	if err := a.cache.Set(ctx, teamID, a.window, matches); err != nil {
		a.logger.Warn("fixture cache write failed", slog.Int("team_id", teamID), slog.Any("error", err))
	}
	return matches, nil
}

// record writes the run to the analysis log and the stream. Failures never fail the analysis.
func (a *Analyzer) record(ctx context.Context, result *models.AnalysisResult) {
	if a.history == nil && a.publisher == nil {
		return
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if a.history != nil {
		if err := a.history.Record(rctx, result); err != nil {
			a.logger.Error("failed to record analysis", slog.String("run_id", result.ID), slog.Any("error", err))
		}
	}
	if a.publisher != nil {
		if err := a.publisher.PublishAnalysis(rctx, result); err != nil {
			a.logger.Warn("failed to publish analysis", slog.String("run_id", result.ID), slog.Any("error", err))
		}
	}
}

// Suggest returns team candidates for a partial name
func (a *Analyzer) Suggest(ctx context.Context, query string) ([]models.TeamRef, error) {
	return a.provider.SearchTeams(ctx, query)
}

// Recent returns recorded runs, newest first
func (a *Analyzer) Recent(ctx context.Context, limit int) ([]models.AnalysisResult, error) {
	if a.history == nil {
		return nil, ErrHistoryDisabled
	}
	return a.history.Recent(ctx, limit)
}

// DefaultStrategy returns the configured resolution strategy
func (a *Analyzer) DefaultStrategy() string { return a.resolvers.Default() }

func validateRequest(req models.AnalysisRequest, strategy string) error {
	for i, sel := range [2]models.TeamSelection{req.Home, req.Away} {
		field := sideName(i)
		if strategy == models.StrategySuggestions {
			if sel.TeamID <= 0 {
				return &models.ValidationError{Field: field, Reason: "select a team from the suggestions"}
			}
			continue
		}
		if strings.TrimSpace(sel.Query) == "" {
			return &models.ValidationError{Field: field, Reason: "team name is required"}
		}
	}
	return nil
}

func sideName(i int) string {
	if i == 0 {
		return "home"
	}
	return "away"
}
