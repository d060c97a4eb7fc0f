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

// RecordFilter prescribes a function type for filtering pattern records before maximal pattern extraction. A filter
// returns true for records that should be kept.
type RecordFilter func(record PatternRecord) bool

// ApplyRecordFilters returns the records that pass all given filters, in their original order.
func ApplyRecordFilters(filters []RecordFilter, records []PatternRecord) []PatternRecord {
	if len(filters) == 0 {
		return records
	}
	result := []PatternRecord{}
	for _, record := range records {
		keep := true
		for _, filter := range filters {
			if !filter(record) {
				keep = false
				break
			}
		}
		if keep {
			result = append(result, record)
		}
	}
	return result
}

// MinSupportFilter removes all records supported by fewer than n transactions.
func MinSupportFilter(n int) RecordFilter {
	return func(record PatternRecord) bool {
		return record.Support >= n
	}
}

// MinSizeFilter removes all records with fewer than n items.
func MinSizeFilter(n int) RecordFilter {
	return func(record PatternRecord) bool {
		return record.Itemset.Len() >= n
	}
}

// MaxSizeFilter removes all records with more than n items.
func MaxSizeFilter(n int) RecordFilter {
	return func(record PatternRecord) bool {
		return record.Itemset.Len() <= n
	}
}
