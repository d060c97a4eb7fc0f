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

package app_test

import (
	"strings"
	"tcmine/app"
	"tcmine/pattern"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIndex = items("a", "b", "x", "y")

func TestParsePatternFormat(t *testing.T) {
	for _, name := range []string{"list", "comma", "fpgrowth"} {
		f, err := app.ParsePatternFormat(name)
		require.NoError(t, err)
		assert.Equal(t, app.PatternFormat(name), f)
	}
	_, err := app.ParsePatternFormat("spmf")
	assert.ErrorIs(t, err, app.ErrUnknownFormat)
	assert.True(t, app.ListFormat.NeedsIndex())
	assert.True(t, app.FPGrowthFormat.NeedsIndex())
	assert.False(t, app.CommaFormat.NeedsIndex())
}

func TestParsePatternLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		format  app.PatternFormat
		want    pattern.PatternRecord
		wantErr string
	}{
		{name: "list", line: "[0, 2]15", format: app.ListFormat,
			want: pattern.PatternRecord{Itemset: pattern.NewItemset("a", "x"), Support: 15}},
		{name: "list_quoted", line: "['3', \"1\"] 2", format: app.ListFormat,
			want: pattern.PatternRecord{Itemset: pattern.NewItemset("b", "y"), Support: 2}},
		{name: "list_empty", line: "[]3", format: app.ListFormat,
			want: pattern.PatternRecord{Itemset: pattern.NewItemset(), Support: 3}},
		{name: "list_no_brackets", line: "0, 2]15", format: app.ListFormat, wantErr: "brackets"},
		{name: "list_out_of_range", line: "[9]1", format: app.ListFormat, wantErr: "out of range"},
		{name: "list_bad_index", line: "[a]1", format: app.ListFormat, wantErr: "invalid item index"},
		{name: "list_bad_support", line: "[0]x", format: app.ListFormat, wantErr: "invalid support"},
		{name: "comma", line: "a, x, 15", format: app.CommaFormat,
			want: pattern.PatternRecord{Itemset: pattern.NewItemset("a", "x"), Support: 15}},
		{name: "comma_support_only", line: "15", format: app.CommaFormat,
			want: pattern.PatternRecord{Itemset: pattern.NewItemset(), Support: 15}},
		{name: "comma_negative", line: "a, x, -1", format: app.CommaFormat, wantErr: "negative support"},
		{name: "fpgrowth", line: "0 2 (7)", format: app.FPGrowthFormat,
			want: pattern.PatternRecord{Itemset: pattern.NewItemset("a", "x"), Support: 7}},
		{name: "fpgrowth_support_only", line: "(4)", format: app.FPGrowthFormat,
			want: pattern.PatternRecord{Itemset: pattern.NewItemset(), Support: 4}},
		{name: "fpgrowth_no_parentheses", line: "0 2 7", format: app.FPGrowthFormat, wantErr: "parentheses"},
		{name: "blank", line: "  ", format: app.CommaFormat, wantErr: "empty pattern"},
		{name: "unknown_format", line: "a, 1", format: "spmf", wantErr: "unknown pattern format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := app.ParsePatternLine(tt.line, tt.format, testIndex)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Itemset.Equal(got.Itemset), "got %v", got.Itemset)
			assert.Equal(t, tt.want.Support, got.Support)
		})
	}
}

func TestParsePatterns(t *testing.T) {
	input := "\n[0]1\n\n[0, 3]2\n[1, 2]5\n"
	records, err := app.ParsePatternsFrom(strings.NewReader(input), app.ListFormat, testIndex)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "{a}", records[0].Itemset.String())
	assert.Equal(t, "{a,y}", records[1].Itemset.String())
	assert.Equal(t, 5, records[2].Support)

	_, err = app.ParsePatternsFrom(strings.NewReader("[0]1\n\n[7]2\n"), app.ListFormat, testIndex)
	assert.ErrorContains(t, err, "line 3")

	_, err = app.ParsePatternsFrom(strings.NewReader("[0]1\n"), app.ListFormat, nil)
	assert.ErrorContains(t, err, "requires an item index")

	records, err = app.ParsePatternsFrom(strings.NewReader("a, x, 3\n"), app.CommaFormat, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)

	records, err = app.ParsePatternsFrom(strings.NewReader(""), app.FPGrowthFormat, testIndex)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = app.ParsePatternsFrom(strings.NewReader("a, 1\n"), "spmf", nil)
	assert.ErrorIs(t, err, app.ErrUnknownFormat)
}

func TestParsePatternsManyLines(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 5000; i++ {
		sb.WriteString("[0, 2]")
		sb.WriteString(strings.Repeat("1", 1+i%3))
		sb.WriteString("\n")
	}
	records, err := app.ParsePatternsFrom(strings.NewReader(sb.String()), app.ListFormat, testIndex)
	require.NoError(t, err)
	require.Len(t, records, 5000)
	for i, r := range records {
		assert.Equal(t, []int{1, 11, 111}[i%3], r.Support)
	}
}

func FuzzParsePatternLine(f *testing.F) {
	f.Add("[0, 2]15")
	f.Add("a, x, 15")
	f.Add("0 2 (7)")
	f.Add("()")
	f.Add("[")
	formats := []app.PatternFormat{app.ListFormat, app.CommaFormat, app.FPGrowthFormat}
	f.Fuzz(func(t *testing.T, line string) {
		for _, format := range formats {
			record, err := app.ParsePatternLine(line, format, testIndex)
			if err == nil {
				assert.GreaterOrEqual(t, record.Support, 0)
			}
		}
	})
}

func TestDictionaryIndex(t *testing.T) {
	v, err := pattern.NewVocabulary(items("麻黄", "桂枝"), items("头痛", "发热"))
	require.NoError(t, err)
	index := app.DictionaryIndex(v)
	assert.Equal(t, items("麻黄", "桂枝", "头痛", "发热"), index)

	record, err := app.ParsePatternLine("1 2 (3)", app.FPGrowthFormat, index)
	require.NoError(t, err)
	assert.True(t, record.Itemset.Equal(pattern.NewItemset("桂枝", "头痛")))
}
