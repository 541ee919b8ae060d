package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/analysis"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/config"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/display"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/providers/apisports"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/ratelimit"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/resolver"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/retry"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/internal/telemetry"
	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/models"
	"github.com/fatih/color"
)

var (
	title   = color.New(color.FgCyan, color.Bold)
	label   = color.New(color.FgWhite)
	value   = color.New(color.FgGreen, color.Bold)
	warning = color.New(color.FgYellow)
	failure = color.New(color.FgRed, color.Bold)
)

func main() {
	home := flag.String("home", "", "home team name")
	away := flag.String("away", "", "away team name")
	homeID := flag.Int("home-id", 0, "home team id (suggestions strategy)")
	awayID := flag.Int("away-id", 0, "away team id (suggestions strategy)")
	capital := flag.String("capital", "", "available capital (echoed only)")
	strategy := flag.String("strategy", "", "team lookup: first, direct or suggestions")
	suggest := flag.String("suggest", "", "list teams matching a name and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := telemetry.New(cfg.Log.Env, cfg.Log.Level)
	client := apisports.New(apisports.Config{
		BaseURL: cfg.APISports.BaseURL,
		APIKey:  cfg.APISports.Key,
		Timeout: cfg.APISports.Timeout,
		Limiter: ratelimit.NewPerMinute(cfg.APISports.RatePerMin),
		Retry:   retry.NewPolicy(cfg.APISports.MaxAttempts, 500*time.Millisecond),
		Logger:  logger,
	})

	if *suggest != "" {
		teams, err := client.SearchTeams(ctx, *suggest)
		if err != nil {
			fail(err)
		}
		for _, t := range teams {
			label.Printf("%8d  ", t.ID)
			value.Printf("%s", t.Name)
			label.Printf("  %s\n", t.Country)
		}
		return
	}

	req := models.AnalysisRequest{
		Home:     models.TeamSelection{Query: *home, TeamID: *homeID},
		Away:     models.TeamSelection{Query: *away, TeamID: *awayID},
		Strategy: *strategy,
	}
	if *capital != "" {
		c, err := strconv.ParseFloat(*capital, 64)
		if err != nil {
			fail(&models.ValidationError{Field: "capital", Reason: "must be a number"})
		}
		req.Capital = &c
	}

	registry, err := resolver.NewRegistry(client, cfg.Analysis.Strategy)
	if err != nil {
		fail(err)
	}

	analyzer := analysis.New(client, registry, analysis.Options{
		Window:      cfg.Analysis.Window,
		TeamTimeout: cfg.Analysis.TeamTimeout,
		Logger:      logger,
	})

	result, err := analyzer.Analyze(ctx, req)
	if err != nil {
		fail(err)
	}

	for _, card := range display.Cards(result) {
		printCard(card)
	}
	label.Print("Capital: ")
	value.Println(display.Capital(result.Capital))
}

func printCard(card display.Card) {
	title.Println(card.Title)
	for _, l := range card.Lines {
		label.Printf("  %-24s ", l.Label+":")
		if l.Value == display.NoData {
			warning.Println(l.Value)
			continue
		}
		value.Println(l.Value)
	}
	fmt.Println()
}

func fail(err error) {
	msg := err.Error()
	var nf *models.NotFoundError
	if errors.As(err, &nf) {
		msg = fmt.Sprintf("team not found: %q", nf.Query)
	}
	failure.Fprintf(os.Stderr, "❌ %s (%s)\n", msg, models.ErrorCode(err))
	os.Exit(1)
}
