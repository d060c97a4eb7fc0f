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
	"sort"
	"tcmine/utils"
)

// Collecting metrics for sets of patterns

// ItemCount pairs an item with the number of patterns it occurs in.
type ItemCount struct {
	Item  Item
	Count int
}

// Summary describes a list of pattern records.
type Summary struct {
	NofPatterns  int
	SizeCounts   map[int]int // nr of patterns per itemset size
	MeanHerbs    float64     // mean nr of herbs per pattern
	MeanSymptoms float64     // mean nr of symptoms per pattern
	MaxSupport   int
	MinSupport   int
	TopHerbs     []ItemCount // herbs sorted by the nr of patterns they occur in, at most top entries
	TopSymptoms  []ItemCount // symptoms sorted by the nr of patterns they occur in, at most top entries
}

// topItems sorts item counts descending by count, ties by item, and keeps at most n of them.
func topItems(counts map[Item]int, n int) []ItemCount {
	result := make([]ItemCount, 0, len(counts))
	for item, count := range counts {
		result = append(result, ItemCount{Item: item, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Item < result[j].Item
	})
	return result[:utils.MinInt(utils.MaxInt(n, 0), len(result))]
}

// Summarize computes a summary for a list of pattern records:
// * the nr of patterns per itemset size
// * the mean nr of herbs and symptoms per pattern
// * the highest and lowest support
// * the top herbs and symptoms in terms of the nr of patterns they occur in
func Summarize(records []PatternRecord, categorizer Categorizer, top int) (Summary, error) {
	summary := Summary{NofPatterns: len(records), SizeCounts: map[int]int{}}
	if len(records) == 0 {
		return summary, nil
	}
	herbCounts := map[Item]int{}
	symptomCounts := map[Item]int{}
	herbTotal, symptomTotal := 0, 0
	summary.MinSupport = records[0].Support
	for _, record := range records {
		summary.SizeCounts[record.Itemset.Len()]++
		herbs, symptoms, err := SplitByCategory(record.Itemset, categorizer)
		if err != nil {
			return Summary{}, err
		}
		for _, h := range herbs {
			herbCounts[h]++
		}
		for _, s := range symptoms {
			symptomCounts[s]++
		}
		herbTotal += len(herbs)
		symptomTotal += len(symptoms)
		if record.Support > summary.MaxSupport {
			summary.MaxSupport = record.Support
		}
		if record.Support < summary.MinSupport {
			summary.MinSupport = record.Support
		}
	}
	summary.MeanHerbs = float64(herbTotal) / float64(len(records))
	summary.MeanSymptoms = float64(symptomTotal) / float64(len(records))
	summary.TopHerbs = topItems(herbCounts, top)
	summary.TopSymptoms = topItems(symptomCounts, top)
	return summary, nil
}
