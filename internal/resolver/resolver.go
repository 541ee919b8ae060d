package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/models"
)

// TeamSearcher looks up candidate teams by free-text name
type TeamSearcher interface {
	SearchTeams(ctx context.Context, query string) ([]models.TeamRef, error)
}

// Resolver turns a team selection into a provider team identity
type Resolver interface {
	Strategy() string
	Resolve(ctx context.Context, sel models.TeamSelection) (models.TeamRef, error)
}

// New returns the resolver for a strategy name
func New(strategy string, searcher TeamSearcher) (Resolver, error) {
	switch strategy {
	case models.StrategyDirect:
		return &DirectName{searcher: searcher}, nil
	case models.StrategySuggestions:
		return &FromSuggestions{}, nil
	case models.StrategyFirst:
		return &FirstMatch{searcher: searcher}, nil
	default:
		return nil, &models.ValidationError{Field: "strategy", Reason: fmt.Sprintf("unknown strategy %q", strategy)}
	}
}

// Registry holds one resolver per strategy so requests can pick one
type Registry struct {
	resolvers map[string]Resolver
	fallback  string
}

// NewRegistry builds every strategy over one searcher; fallback names the default
func NewRegistry(searcher TeamSearcher, fallback string) (*Registry, error) {
	r := &Registry{resolvers: make(map[string]Resolver), fallback: fallback}
	for _, name := range []string{models.StrategyDirect, models.StrategySuggestions, models.StrategyFirst} {
		res, err := New(name, searcher)
		if err != nil {
			return nil, err
		}
		r.resolvers[name] = res
	}
	if _, ok := r.resolvers[fallback]; !ok {
		return nil, &models.ValidationError{Field: "strategy", Reason: fmt.Sprintf("unknown strategy %q", fallback)}
	}
	return r, nil
}

// Get returns the resolver for name, or the default when name is empty
func (r *Registry) Get(name string) (Resolver, error) {
	if name == "" {
		name = r.fallback
	}
	res, ok := r.resolvers[strings.ToLower(name)]
	if !ok {
		return nil, &models.ValidationError{Field: "strategy", Reason: fmt.Sprintf("unknown strategy %q", name)}
	}
	return res, nil
}

// Default returns the configured strategy name
func (r *Registry) Default() string { return r.fallback }

// DirectName resolves free text, preferring a case-insensitive exact name match
type DirectName struct {
	searcher TeamSearcher
}

func (d *DirectName) Strategy() string { return models.StrategyDirect }

func (d *DirectName) Resolve(ctx context.Context, sel models.TeamSelection) (models.TeamRef, error) {
	candidates, err := search(ctx, d.searcher, sel.Query)
	if err != nil {
		return models.TeamRef{}, err
	}

	query := strings.TrimSpace(sel.Query)
	for _, c := range candidates {
		if strings.EqualFold(c.Name, query) {
			return c, nil
		}
	}
	return candidates[0], nil
}

// FirstMatch takes the first candidate the provider returns
type FirstMatch struct {
	searcher TeamSearcher
}

func (f *FirstMatch) Strategy() string { return models.StrategyFirst }

func (f *FirstMatch) Resolve(ctx context.Context, sel models.TeamSelection) (models.TeamRef, error) {
	candidates, err := search(ctx, f.searcher, sel.Query)
	if err != nil {
		return models.TeamRef{}, err
	}
	return candidates[0], nil
}

// FromSuggestions trusts a team id the user picked from a suggestion list.
// No provider call is made.
type FromSuggestions struct{}

func (s *FromSuggestions) Strategy() string { return models.StrategySuggestions }

func (s *FromSuggestions) Resolve(_ context.Context, sel models.TeamSelection) (models.TeamRef, error) {
	if sel.TeamID <= 0 {
		return models.TeamRef{}, &models.ValidationError{
			Field:  "team_id",
			Reason: "select a team from the suggestions",
		}
	}

	name := strings.TrimSpace(sel.Query)
	if name == "" {
		name = fmt.Sprintf("team %d", sel.TeamID)
	}
	return models.TeamRef{ID: sel.TeamID, Name: name}, nil
}

func search(ctx context.Context, searcher TeamSearcher, query string) ([]models.TeamRef, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &models.ValidationError{Field: "query", Reason: "team name is required"}
	}

	candidates, err := searcher.SearchTeams(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	if len(candidates) == 0 {
		return nil, &models.NotFoundError{Query: query}
	}
	return candidates, nil
}
