package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/minipair/internal/model"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "minipair.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func insert(t *testing.T, st *Store, ended time.Time, answers []model.Answer) string {
	t.Helper()
	id := NewSessionID()
	stats := model.SessionStats{
		ID:        id,
		StartedAt: ended.Add(-time.Minute),
		EndedAt:   ended,
		Source:    "dir",
		Filters:   model.Filters{Strict: true},
	}
	for _, a := range answers {
		stats.Attempted++
		if a.Correct {
			stats.Correct++
		}
	}
	require.NoError(t, st.InsertSession(context.Background(), stats, answers))
	return id
}

func TestInsertAndAggregate(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	base := time.Unix(0, 0).UTC()

	first := insert(t, st, base.Add(time.Hour), []model.Answer{
		{RecordID: "a", Category: model.Heiban, Correct: true, AnsweredAt: base},
		{RecordID: "b", Category: model.Heiban, Correct: false, Selected: 1, AnsweredAt: base},
		{RecordID: "c", Category: model.Nakadaka, Correct: false, AnsweredAt: base},
	})
	second := insert(t, st, base.Add(2*time.Hour), []model.Answer{
		{RecordID: "b", Category: model.Heiban, Correct: false, AnsweredAt: base},
		{RecordID: "d", Category: model.Atamadaka, Correct: true, AnsweredAt: base},
	})
	insert(t, st, base.Add(3*time.Hour), nil)

	sessions, err := st.ListSessions(ctx, model.StatsConfig{})
	require.NoError(t, err)
	require.Len(t, sessions, 2, "empty sessions are skipped")
	assert.Equal(t, first, sessions[0].SessionID)
	assert.Equal(t, second, sessions[1].SessionID)
	assert.Equal(t, 3, sessions[0].Attempted)
	assert.Equal(t, 1, sessions[0].Correct)

	since := base.Add(90 * time.Minute)
	sessions, err = st.ListSessions(ctx, model.StatsConfig{Since: &since})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, second, sessions[0].SessionID)

	aggs, err := st.ListCategoryAggregates(ctx, []string{first, second})
	require.NoError(t, err)
	byCat := map[model.Category]model.CategoryAggregate{}
	for _, a := range aggs {
		byCat[a.Category] = a
	}
	assert.Equal(t, 3, byCat[model.Heiban].Attempted)
	assert.Equal(t, 1, byCat[model.Heiban].Correct)
	assert.Equal(t, 1, byCat[model.Atamadaka].Correct)
	assert.Equal(t, 0, byCat[model.Nakadaka].Correct)

	missed, err := st.ListMissedRecords(ctx, []string{first, second}, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, missed)
}

func TestInsertRequiresID(t *testing.T) {
	st := openStore(t)
	require.Error(t, st.InsertSession(context.Background(), model.SessionStats{}, nil))
}

func TestDuplicateSessionRollsBack(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	now := time.Now()
	stats := model.SessionStats{ID: "dup", StartedAt: now, EndedAt: now, Attempted: 1}
	answers := []model.Answer{{RecordID: "a", Category: model.Heiban, AnsweredAt: now}}
	require.NoError(t, st.InsertSession(ctx, stats, answers))
	require.Error(t, st.InsertSession(ctx, stats, answers))

	aggs, err := st.ListCategoryAggregates(ctx, []string{"dup"})
	require.NoError(t, err)
	require.Len(t, aggs, 1)
	assert.Equal(t, 1, aggs[0].Attempted)
}

func TestEmptyInputs(t *testing.T) {
	st := openStore(t)
	aggs, err := st.ListCategoryAggregates(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, aggs)
	missed, err := st.ListMissedRecords(context.Background(), []string{"x"}, 0)
	require.NoError(t, err)
	assert.Nil(t, missed)
}
