package pairs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/minipair/internal/model"
)

func testIndex() *Index {
	return NewIndex(map[string][]string{
		"pitch0":    {"a", "b", "c"},
		"pitch1":    {"a", "d"},
		"pitch2":    {"e"},
		"pitch3":    {"f", "b"},
		"pitch4":    {},
		DevoicedKey: {"b", "d", "e"},
	})
}

func filters(pitches ...int) model.Filters {
	var f model.Filters
	for _, p := range pitches {
		f.Pitches[p] = true
	}
	return f
}

func TestParseIndex(t *testing.T) {
	idx, err := ParseIndex([]byte(`{"pitch0":["x","y"],"devoiced":["y"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, idx.IDs("pitch0"))
	assert.True(t, idx.Contains(DevoicedKey, "y"))
	assert.False(t, idx.Contains(DevoicedKey, "x"))
	assert.Empty(t, idx.IDs("pitch3"))

	_, err = ParseIndex([]byte(`{"pitch0": 3}`))
	require.Error(t, err)
}

func TestIndexAllIsSortedAndDistinct(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, testIndex().All())
}

func TestCandidatesNonStrictUnion(t *testing.T) {
	got := testIndex().Candidates(filters(0, 1))
	assert.Equal(t, []string{"a", "b", "c", "a", "d"}, got)
}

func TestCandidatesNonStrictDevoiced(t *testing.T) {
	f := filters(0, 1)
	f.Devoiced = true
	assert.Equal(t, []string{"b", "d"}, testIndex().Candidates(f))
}

func TestCandidatesStrictExcludesUnchecked(t *testing.T) {
	f := filters(0, 1)
	f.Strict = true
	// b is also pitch3, which is unchecked.
	assert.Equal(t, []string{"a", "c", "a", "d"}, testIndex().Candidates(f))
}

func TestCandidatesStrictDevoiced(t *testing.T) {
	f := filters(0, 1, 2)
	f.Strict = true
	f.Devoiced = true
	assert.Equal(t, []string{"d", "e"}, testIndex().Candidates(f))
}

func TestCandidatesNothingChecked(t *testing.T) {
	assert.Empty(t, testIndex().Candidates(model.Filters{}))
	f := model.Filters{Strict: true}
	assert.Empty(t, testIndex().Candidates(f))
}

func TestSelectNeverLeavesCheckedUnion(t *testing.T) {
	idx := testIndex()
	picker := NewPickerWithSeed(7)
	for mask := 0; mask < 1<<model.NumPitches; mask++ {
		for _, strict := range []bool{false, true} {
			for _, devoiced := range []bool{false, true} {
				var f model.Filters
				for p := 0; p < model.NumPitches; p++ {
					f.Pitches[p] = mask&(1<<p) != 0
				}
				f.Strict = strict
				f.Devoiced = devoiced
				for i := 0; i < 20; i++ {
					id, ok := picker.Select(idx, f)
					if !ok {
						assert.Empty(t, idx.Candidates(f))
						break
					}
					inChecked := false
					for p := 0; p < model.NumPitches; p++ {
						if f.Pitches[p] && idx.Contains(PitchKey(p), id) {
							inChecked = true
						}
						if strict && !f.Pitches[p] {
							assert.False(t, idx.Contains(PitchKey(p), id), "strict pick %s is in unchecked pitch%d", id, p)
						}
					}
					assert.True(t, inChecked, "pick %s outside checked buckets", id)
					if devoiced {
						assert.True(t, idx.Contains(DevoicedKey, id))
					}
				}
			}
		}
	}
}
