// Package source provides the dashboard fetchers used by the carousel:
// a remote pongstats API, the local event store, and compressed snapshot
// files.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/pable/go-pong-stats/internal/aggregator"
	"github.com/pable/go-pong-stats/internal/model"
	"github.com/pable/go-pong-stats/internal/storage"
)

// ErrNotFound is returned when the tournament does not exist at the source.
var ErrNotFound = errors.New("tournament not found")

// Local computes dashboards from the SQLite event store.
type Local struct {
	db *storage.DB
}

func NewLocal(db *storage.DB) *Local {
	return &Local{db: db}
}

// FetchDashboard loads the raw events and aggregates them.
func (l *Local) FetchDashboard(ctx context.Context, tournamentID int64) (*model.Dashboard, error) {
	raw, err := l.db.LoadTournament(ctx, tournamentID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("tournament %d: %w", tournamentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load tournament %d: %w", tournamentID, err)
	}
	return aggregator.BuildDashboard(raw)
}
