package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/minipair/internal/model"
	"github.com/verte-zerg/minipair/internal/store"
)

func TestBuildReport(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "minipair.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute)
		end := start.Add(30 * time.Second)
		id := store.NewSessionID()
		answers := []model.Answer{
			{RecordID: "ame.json", Category: model.Atamadaka, Correct: i > 0, AnsweredAt: end},
			{RecordID: "hashi.json", Category: model.Heiban, Correct: true, AnsweredAt: end},
		}
		stats := model.SessionStats{
			ID:        id,
			StartedAt: start,
			EndedAt:   end,
			Source:    "dir",
			Attempted: 2,
			Correct:   1,
		}
		if i > 0 {
			stats.Correct = 2
		}
		require.NoError(t, st.InsertSession(ctx, stats, answers))
		ids = append(ids, id)
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{Last: 2})
	require.NoError(t, err)
	require.Len(t, report.Sessions, 2)
	assert.Equal(t, ids[1], report.Sessions[0].SessionID)
	assert.Equal(t, ids[2], report.Sessions[1].SessionID)
	assert.Empty(t, report.Missed, "the only miss is outside the window")

	report, err = BuildReport(ctx, st, model.StatsConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ame.json"}, report.Missed)

	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, 2, false))
	out := buf.String()
	assert.Contains(t, out, "Sessions: 3")
	assert.Contains(t, out, "Correct: 5 (83%)")
	assert.Contains(t, out, "Per-Category")
	assert.Contains(t, out, "Most Missed")
	assert.True(t, strings.Contains(out, "atamadaka") && strings.Contains(out, "nakadaka"))
}

func TestRenderEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Report{}.Render(&buf, 5, false))
	assert.Equal(t, "No sessions found.\n", buf.String())
}

func TestRenderCategoryTableFillsMissingCategories(t *testing.T) {
	var buf bytes.Buffer
	err := RenderCategoryTable(&buf, []model.CategoryAggregate{
		{Category: model.Heiban, Attempted: 4, Correct: 3},
	}, false)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[2], "all"))
	assert.Contains(t, lines[2], "75%")
	assert.True(t, strings.HasPrefix(lines[5], "nakadaka"))
	assert.Contains(t, lines[5], "0%")
}
