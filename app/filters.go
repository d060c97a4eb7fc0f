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

package app

import (
	"tcmine/pattern"
)

// ElementFilter prescribes a function type for filters on the elements (herbs and symptoms) of a transaction set. A
// filter returns true for elements to keep.
type ElementFilter func(item pattern.Item) bool

// ApplyElementFilter removes from a transaction set all elements that do not pass the filter: from every transaction,
// from the element counts, from the element order, and from the herb and ambiguous element lists. Transactions that
// end up empty are dropped. It returns the removed elements in order of first appearance.
func ApplyElementFilter(filter ElementFilter, ts *TransactionSet) []pattern.Item {
	removed := []pattern.Item{}
	bad := map[pattern.Item]bool{}
	order := []pattern.Item{}
	for _, item := range ts.Order {
		if filter(item) {
			order = append(order, item)
			continue
		}
		bad[item] = true
		removed = append(removed, item)
	}
	if len(removed) == 0 {
		return removed
	}
	keep := func(items []pattern.Item) []pattern.Item {
		newItems := []pattern.Item{}
		for _, item := range items {
			if !bad[item] {
				newItems = append(newItems, item)
			}
		}
		return newItems
	}
	transactions := []*Transaction{}
	for _, t := range ts.Transactions {
		t.Symptoms = keep(t.Symptoms)
		t.Herbs = keep(t.Herbs)
		if len(t.Symptoms)+len(t.Herbs) > 0 {
			transactions = append(transactions, t)
		}
	}
	ts.Transactions = transactions
	for item := range bad {
		delete(ts.Counts, item)
		delete(ts.Herbs, item)
	}
	ts.Order = order
	ts.Ambiguous = keep(ts.Ambiguous)
	return removed
}

// VocabularyFilter keeps only the elements that the given categorizer can classify.
func VocabularyFilter(categorizer pattern.Categorizer) ElementFilter {
	return func(item pattern.Item) bool {
		_, err := categorizer.Category(item)
		return err == nil
	}
}

// GetRecordFilters creates the pattern record filters for a minimum support, and a minimum and maximum itemset size.
// Parameters <= 0 disable the corresponding filter.
func GetRecordFilters(minSupport, minSize, maxSize int) []pattern.RecordFilter {
	filters := []pattern.RecordFilter{}
	if minSupport > 0 {
		filters = append(filters, pattern.MinSupportFilter(minSupport))
	}
	if minSize > 0 {
		filters = append(filters, pattern.MinSizeFilter(minSize))
	}
	if maxSize > 0 {
		filters = append(filters, pattern.MaxSizeFilter(maxSize))
	}
	return filters
}
