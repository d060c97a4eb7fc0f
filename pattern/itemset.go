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
	"strconv"
	"strings"
)

// Item identifies a herb or a symptom by its name.
type Item string

// Itemset represents a set of unique items. The items are kept sorted so that subset tests can walk both sets in a
// single pass. An Itemset is never modified after construction.
type Itemset struct {
	items []Item
	key   string
}

// NewItemset creates an itemset from a list of items. Duplicate items are collapsed.
func NewItemset(items ...Item) Itemset {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	unique := sorted[:0]
	for i, item := range sorted {
		if i > 0 && item == sorted[i-1] {
			continue
		}
		unique = append(unique, item)
	}
	return Itemset{items: unique, key: itemsetKey(unique)}
}

// itemsetKey prefixes every item with its length, so that item names may contain any character.
func itemsetKey(items []Item) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(strconv.Itoa(len(item)))
		sb.WriteByte(':')
		sb.WriteString(string(item))
	}
	return sb.String()
}

// Len returns the number of items in the itemset.
func (s Itemset) Len() int {
	return len(s.items)
}

// Items returns a copy of the items, in sorted order.
func (s Itemset) Items() []Item {
	items := make([]Item, len(s.items))
	copy(items, s.items)
	return items
}

// Key returns a string that identifies the itemset. Two itemsets have the same key iff they contain the same items.
func (s Itemset) Key() string {
	return s.key
}

// Contains checks if an item is a member of the itemset.
func (s Itemset) Contains(item Item) bool {
	i := sort.Search(len(s.items), func(i int) bool { return s.items[i] >= item })
	return i < len(s.items) && s.items[i] == item
}

// Equal checks if two itemsets contain the same items.
func (s Itemset) Equal(other Itemset) bool {
	return s.key == other.key && len(s.items) == len(other.items)
}

// SubsetOf checks if every item of s also occurs in other.
func (s Itemset) SubsetOf(other Itemset) bool {
	if len(s.items) > len(other.items) {
		return false
	}
	j := 0
	for _, item := range s.items {
		for j < len(other.items) && other.items[j] < item {
			j++
		}
		if j == len(other.items) || other.items[j] != item {
			return false
		}
		j++
	}
	return true
}

// ProperSubsetOf checks if s is a subset of other and other has at least one item that s does not have.
func (s Itemset) ProperSubsetOf(other Itemset) bool {
	return len(s.items) < len(other.items) && s.SubsetOf(other)
}

// String prints the itemset as a comma separated list between braces.
func (s Itemset) String() string {
	parts := make([]string, len(s.items))
	for i, item := range s.items {
		parts[i] = string(item)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// PatternRecord is a frequent itemset together with its support, the number of transactions that contain it.
type PatternRecord struct {
	Itemset Itemset
	Support int
}
