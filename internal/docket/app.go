package docket

import (
	"context"
	"fmt"

	"github.com/hay-kot/docket/internal/core/action"
	"github.com/hay-kot/docket/internal/core/config"
	"github.com/hay-kot/docket/internal/core/extract"
	"github.com/hay-kot/docket/internal/core/match"
	"github.com/hay-kot/docket/internal/data/db"
	"github.com/hay-kot/docket/internal/data/stores"
	"github.com/rs/zerolog"
)

// App is the central entry point for all docket operations. Commands
// consume App instead of cherry-picking raw dependencies.
type App struct {
	Tracker    *Tracker
	Reconciler *Reconciler
	Admin      *Admin
	History    *HistoryService

	Actions action.Store
	Config  *config.Config
	DB      *db.DB
}

// NewApp wires the stores and services from a config and an open
// database. All services are plain constructed objects; there is no
// package-level state anywhere in the pipeline.
func NewApp(cfg *config.Config, database *db.DB, log zerolog.Logger) *App {
	actions := stores.NewActionStore(database)
	audit := stores.NewHistoryStore(database)
	messages := stores.NewMessageStore(database)

	extractor := extract.New(cfg.Parties.Requester, cfg.Parties.Receiver)
	scorer := match.NewScorer()

	reconciler := NewReconciler(actions, audit, scorer,
		cfg.Matcher.HighConfidence, cfg.Matcher.Tentative, log)

	return &App{
		Tracker:    NewTracker(messages, extractor, reconciler, log),
		Reconciler: reconciler,
		Admin:      NewAdmin(actions, audit, log),
		History:    NewHistoryService(actions, audit),
		Actions:    actions,
		Config:     cfg,
		DB:         database,
	}
}

// Stats aggregates action counts per status for reporting.
type Stats struct {
	Total     int `json:"total"`
	Open      int `json:"open"`
	Closed    int `json:"closed"`
	Tentative int `json:"tentative"`
}

// Stats computes dashboard counters over stored actions.
func (a *App) Stats(ctx context.Context) (Stats, error) {
	all, err := a.Actions.List(ctx, action.ListFilter{Limit: 10000})
	if err != nil {
		return Stats{}, fmt.Errorf("list actions: %w", err)
	}

	stats := Stats{Total: len(all)}
	for _, item := range all {
		switch item.Status {
		case action.StatusOpen:
			stats.Open++
		case action.StatusClosed:
			stats.Closed++
		case action.StatusTentative:
			stats.Tentative++
		}
	}
	return stats, nil
}
