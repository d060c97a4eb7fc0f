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

import "sort"

// Maximal pattern extraction
// Frequent pattern miners output every frequent itemset, which means every subset of a frequent itemset is reported
// as well. For herb -> symptom associations, only the largest itemsets are of interest: an itemset is maximal if no
// other mined itemset contains it. Only itemsets that mix herbs and symptoms take part, since an itemset with only
// herbs or only symptoms does not describe an association between a prescription and its indications.

// MaximalSet is an antichain of itemsets: no member is a subset of another member. Members are kept in insertion
// order.
type MaximalSet struct {
	members []Itemset
	index   map[string]int // maps an itemset key to its position in members
}

// NewMaximalSet creates an empty maximal set.
func NewMaximalSet() *MaximalSet {
	return &MaximalSet{index: map[string]int{}}
}

// Len returns the number of members.
func (m *MaximalSet) Len() int {
	return len(m.members)
}

// Contains checks if the given itemset is a member.
func (m *MaximalSet) Contains(s Itemset) bool {
	_, ok := m.index[s.Key()]
	return ok
}

// Members returns the current members in insertion order.
func (m *MaximalSet) Members() []Itemset {
	members := make([]Itemset, len(m.members))
	copy(members, m.members)
	return members
}

// Insert offers an itemset to the maximal set. If the itemset is a proper subset of a member, the set is left
// unchanged and Insert returns false. Otherwise every member that is a proper subset of the itemset is removed, the
// itemset is added, and Insert returns true together with the number of removed members. Inserting an itemset that
// is already a member is a no-op that returns true.
func (m *MaximalSet) Insert(curr Itemset) (bool, int) {
	if m.Contains(curr) {
		return true, 0
	}
	// collect the dominated members first, remove them after the scan
	var dominated []int
	for i, member := range m.members {
		if curr.ProperSubsetOf(member) {
			return false, 0
		}
		if member.ProperSubsetOf(curr) {
			dominated = append(dominated, i)
		}
	}
	if len(dominated) > 0 {
		m.remove(dominated)
	}
	m.index[curr.Key()] = len(m.members)
	m.members = append(m.members, curr)
	return true, len(dominated)
}

// remove deletes the members at the given ascending positions and rebuilds the index.
func (m *MaximalSet) remove(positions []int) {
	kept := m.members[:0]
	next := 0
	for i, member := range m.members {
		if next < len(positions) && positions[next] == i {
			delete(m.index, member.Key())
			next++
			continue
		}
		kept = append(kept, member)
	}
	for i := len(kept); i < len(m.members); i++ {
		m.members[i] = Itemset{}
	}
	m.members = kept
	for i, member := range m.members {
		m.index[member.Key()] = i
	}
}

// ExtractorStats counts what happened to the records offered to an extractor.
type ExtractorStats struct {
	Records    int // records offered
	Ineligible int // records without both a herb and a symptom
	Subsumed   int // eligible records that were a proper subset of a maximal itemset when they arrived
	Evicted    int // maximal itemsets removed because a later record contained them
	Duplicates int // eligible records whose itemset was seen before
}

// Extractor computes maximal mixed itemsets from a stream of pattern records. The zero value is not usable, create
// one with NewExtractor.
type Extractor struct {
	categorizer Categorizer
	maximal     *MaximalSet
	support     map[string]int // support per itemset key, last write wins
	order       map[string]int // arrival position of the first occurrence of an itemset key
	stats       ExtractorStats
}

// NewExtractor creates an extractor that uses the given categorizer for the eligibility test.
func NewExtractor(categorizer Categorizer) *Extractor {
	return &Extractor{
		categorizer: categorizer,
		maximal:     NewMaximalSet(),
		support:     map[string]int{},
		order:       map[string]int{},
	}
}

// Add processes a single pattern record. Records that do not mix herbs and symptoms are skipped. An error is returned
// when the categorizer cannot classify one of the record's items; the extractor state is then unchanged.
func (e *Extractor) Add(record PatternRecord) error {
	mixed, err := IsMixed(record.Itemset, e.categorizer)
	if err != nil {
		return err
	}
	e.stats.Records++
	if !mixed {
		e.stats.Ineligible++
		return nil
	}
	key := record.Itemset.Key()
	if _, ok := e.support[key]; ok {
		e.stats.Duplicates++
	} else {
		e.order[key] = len(e.order)
	}
	e.support[key] = record.Support
	isMax, evicted := e.maximal.Insert(record.Itemset)
	if !isMax {
		e.stats.Subsumed++
	}
	e.stats.Evicted += evicted
	return nil
}

// Stats returns the counters collected so far.
func (e *Extractor) Stats() ExtractorStats {
	return e.stats
}

// Result returns the maximal itemsets with their support, sorted by descending support. Itemsets with equal support
// are kept in the order in which they first arrived.
func (e *Extractor) Result() []PatternRecord {
	result := make([]PatternRecord, 0, e.maximal.Len())
	for _, s := range e.maximal.members {
		result = append(result, PatternRecord{Itemset: s, Support: e.support[s.Key()]})
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Support != result[j].Support {
			return result[i].Support > result[j].Support
		}
		return e.order[result[i].Itemset.Key()] < e.order[result[j].Itemset.Key()]
	})
	return result
}

// ExtractMaximal returns the maximal itemsets among the records that mix herbs and symptoms, sorted by descending
// support.
func ExtractMaximal(records []PatternRecord, categorizer Categorizer) ([]PatternRecord, error) {
	e := NewExtractor(categorizer)
	for _, record := range records {
		if err := e.Add(record); err != nil {
			return nil, err
		}
	}
	return e.Result(), nil
}
