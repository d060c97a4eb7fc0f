// TCMINE: Traditional Chinese Medicine Pattern Mining
// Copyright (c) 2022 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/ptra/blob/master/LICENSE.txt>.

package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastrand"
)

func testVocabulary(t *testing.T) *Vocabulary {
	t.Helper()
	v, err := NewVocabulary([]Item{"a", "b", "c", "d"}, []Item{"w", "x", "y", "z"})
	require.NoError(t, err)
	return v
}

func rec(support int, items ...Item) PatternRecord {
	return PatternRecord{Itemset: NewItemset(items...), Support: support}
}

func keysOf(records []PatternRecord) []string {
	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = r.Itemset.String()
	}
	return keys
}

func TestExtractMaximal(t *testing.T) {
	v := testVocabulary(t)
	tests := []struct {
		name    string
		records []PatternRecord
		want    []PatternRecord
	}{
		{
			name:    "subset_is_evicted",
			records: []PatternRecord{rec(3, "a", "x"), rec(2, "a", "b", "x")},
			want:    []PatternRecord{rec(2, "a", "b", "x")},
		},
		{
			name:    "disjoint_sets_are_both_kept",
			records: []PatternRecord{rec(5, "a", "x"), rec(5, "b", "y")},
			want:    []PatternRecord{rec(5, "a", "x"), rec(5, "b", "y")},
		},
		{
			name:    "herbs_only_is_ineligible",
			records: []PatternRecord{rec(10, "a", "b")},
			want:    []PatternRecord{},
		},
		{
			name:    "empty_stream",
			records: nil,
			want:    []PatternRecord{},
		},
		{
			name:    "chain_keeps_largest_even_with_lower_support",
			records: []PatternRecord{rec(1, "a", "x"), rec(4, "a", "x", "y"), rec(2, "a", "x", "y", "z")},
			want:    []PatternRecord{rec(2, "a", "x", "y", "z")},
		},
		{
			name:    "subset_after_superset_is_not_added",
			records: []PatternRecord{rec(2, "a", "b", "x"), rec(3, "a", "x")},
			want:    []PatternRecord{rec(2, "a", "b", "x")},
		},
		{
			name: "one_superset_evicts_several_members",
			records: []PatternRecord{
				rec(9, "a", "x"), rec(8, "b", "y"), rec(7, "c", "z"), rec(1, "a", "b", "x", "y"),
			},
			want: []PatternRecord{rec(7, "c", "z"), rec(1, "a", "b", "x", "y")},
		},
		{
			name:    "sorted_by_descending_support",
			records: []PatternRecord{rec(1, "a", "x"), rec(3, "b", "y"), rec(2, "c", "z")},
			want:    []PatternRecord{rec(3, "b", "y"), rec(2, "c", "z"), rec(1, "a", "x")},
		},
		{
			name:    "ineligible_superset_does_not_evict",
			records: []PatternRecord{rec(4, "a", "x"), rec(2, "a", "b")},
			want:    []PatternRecord{rec(4, "a", "x")},
		},
		{
			name:    "degenerate_itemsets",
			records: []PatternRecord{rec(4), rec(3, "a"), rec(2, "x")},
			want:    []PatternRecord{},
		},
		{
			name:    "duplicate_keeps_last_support",
			records: []PatternRecord{rec(4, "a", "x"), rec(6, "x", "a")},
			want:    []PatternRecord{rec(6, "a", "x")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractMaximal(tt.records, v)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.True(t, tt.want[i].Itemset.Equal(got[i].Itemset), "want %v, got %v",
					tt.want[i].Itemset, got[i].Itemset)
				assert.Equal(t, tt.want[i].Support, got[i].Support)
			}
		})
	}
}

func TestExtractMaximalUnknownItem(t *testing.T) {
	v := testVocabulary(t)
	_, err := ExtractMaximal([]PatternRecord{rec(1, "a", "x"), rec(2, "a", "q")}, v)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownItem)
	assert.Contains(t, err.Error(), `"q"`)
}

func TestExtractorAddErrorLeavesStateUnchanged(t *testing.T) {
	e := NewExtractor(testVocabulary(t))
	require.NoError(t, e.Add(rec(2, "a", "x")))
	before := e.Stats()
	assert.ErrorIs(t, e.Add(rec(5, "a", "x", "q")), ErrUnknownItem)
	assert.Equal(t, before, e.Stats())
	assert.Equal(t, []PatternRecord{rec(2, "a", "x")}, e.Result())
}

func TestExtractorStats(t *testing.T) {
	e := NewExtractor(testVocabulary(t))
	for _, r := range []PatternRecord{
		rec(1, "a", "x"), rec(2, "a", "b"), rec(3, "a", "x", "y"), rec(1, "x", "y"), rec(2, "a", "x"), rec(5, "a", "x", "y"),
	} {
		require.NoError(t, e.Add(r))
	}
	stats := e.Stats()
	assert.Equal(t, 6, stats.Records)
	assert.Equal(t, 2, stats.Ineligible)
	assert.Equal(t, 1, stats.Subsumed)
	assert.Equal(t, 1, stats.Evicted)
	assert.Equal(t, 2, stats.Duplicates)
	result := e.Result()
	require.Len(t, result, 1)
	assert.Equal(t, 5, result[0].Support)
}

func TestMaximalSetInsert(t *testing.T) {
	m := NewMaximalSet()
	ok, evicted := m.Insert(NewItemset("a", "x"))
	assert.True(t, ok)
	assert.Zero(t, evicted)
	ok, _ = m.Insert(NewItemset("a", "x"))
	assert.True(t, ok)
	assert.Equal(t, 1, m.Len())
	ok, _ = m.Insert(NewItemset("a"))
	assert.False(t, ok)
	ok, evicted = m.Insert(NewItemset("a", "b", "x"))
	assert.True(t, ok)
	assert.Equal(t, 1, evicted)
	assert.True(t, m.Contains(NewItemset("x", "b", "a")))
	assert.False(t, m.Contains(NewItemset("a", "x")))
	assert.Equal(t, []string{"{a,b,x}"}, keysOf([]PatternRecord{{Itemset: m.Members()[0]}}))
}

// randomRecords generates a stream of records over the test vocabulary, including duplicates and ineligible sets.
func randomRecords(n int) []PatternRecord {
	universe := []Item{"a", "b", "c", "d", "w", "x", "y", "z"}
	records := make([]PatternRecord, n)
	for i := range records {
		size := int(fastrand.Uint32n(uint32(len(universe)))) + 1
		items := []Item{}
		for j := 0; j < size; j++ {
			items = append(items, universe[fastrand.Uint32n(uint32(len(universe)))])
		}
		records[i] = PatternRecord{Itemset: NewItemset(items...), Support: int(fastrand.Uint32n(100))}
	}
	return records
}

func TestExtractMaximalProperties(t *testing.T) {
	v := testVocabulary(t)
	for round := 0; round < 200; round++ {
		records := randomRecords(int(fastrand.Uint32n(40)))
		got, err := ExtractMaximal(records, v)
		require.NoError(t, err)
		// antichain
		for i := range got {
			for j := range got {
				if i != j {
					require.False(t, got[i].Itemset.SubsetOf(got[j].Itemset), "%v within %v",
						got[i].Itemset, got[j].Itemset)
				}
			}
		}
		// mixed, soundness and sort order
		inInput := map[string]bool{}
		lastSupport := map[string]int{}
		eligible := []Itemset{}
		for _, r := range records {
			mixed, err := IsMixed(r.Itemset, v)
			require.NoError(t, err)
			if !mixed {
				continue
			}
			if !inInput[r.Itemset.Key()] {
				eligible = append(eligible, r.Itemset)
			}
			inInput[r.Itemset.Key()] = true
			lastSupport[r.Itemset.Key()] = r.Support
		}
		for i, r := range got {
			mixed, err := IsMixed(r.Itemset, v)
			require.NoError(t, err)
			require.True(t, mixed)
			require.True(t, inInput[r.Itemset.Key()])
			require.Equal(t, lastSupport[r.Itemset.Key()], r.Support)
			if i > 0 {
				require.GreaterOrEqual(t, got[i-1].Support, r.Support)
			}
		}
		// completeness
		gotKeys := map[string]bool{}
		for _, r := range got {
			gotKeys[r.Itemset.Key()] = true
		}
		for _, s := range eligible {
			maximal := true
			for _, other := range eligible {
				if s.ProperSubsetOf(other) {
					maximal = false
					break
				}
			}
			require.Equal(t, maximal, gotKeys[s.Key()], "itemset %v", s)
		}
	}
}

func TestExtractMaximalItemNamesWithSeparators(t *testing.T) {
	v, err := NewVocabulary([]Item{"a", "a\x1fx", "a,x"}, []Item{"x", "y"})
	require.NoError(t, err)
	got, err := ExtractMaximal([]PatternRecord{
		rec(3, "a", "x"),
		rec(2, "a\x1fx", "y"),
		rec(4, "a,x", "y"),
		rec(1, "a", "x", "y"),
	}, v)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 4, got[0].Support)
	assert.True(t, got[0].Itemset.Equal(NewItemset("a,x", "y")))
	assert.Equal(t, 2, got[1].Support)
	assert.True(t, got[1].Itemset.Equal(NewItemset("a\x1fx", "y")))
	assert.Equal(t, 1, got[2].Support)
	assert.True(t, got[2].Itemset.Equal(NewItemset("a", "x", "y")))
}
