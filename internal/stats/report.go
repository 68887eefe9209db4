package stats

import (
	"context"
	"io"

	"github.com/verte-zerg/minipair/internal/model"
	"github.com/verte-zerg/minipair/internal/store"
)

// MissedLimit caps the most-missed list.
const MissedLimit = 10

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions   []model.SessionAggregate
	Categories []model.CategoryAggregate
	Missed     []string
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}

	ids := sessionIDs(sessions)
	categories, err := st.ListCategoryAggregates(ctx, ids)
	if err != nil {
		return Report{}, err
	}
	missed, err := st.ListMissedRecords(ctx, ids, MissedLimit)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Sessions:   sessions,
		Categories: categories,
		Missed:     missed,
	}, nil
}

// Render writes the full report.
func (r Report) Render(w io.Writer, window int, useColor bool) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if len(r.Sessions) == 0 {
		return nil
	}
	if err := RenderCategoryTable(w, r.Categories, useColor); err != nil {
		return err
	}
	if err := RenderCurve(w, r.Sessions, window, 0, 0, useColor); err != nil {
		return err
	}
	return RenderMissed(w, r.Missed)
}

func sessionIDs(sessions []model.SessionAggregate) []string {
	ids := make([]string, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}
