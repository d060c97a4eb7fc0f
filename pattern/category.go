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
	"errors"
	"fmt"
)

// Category partitions items into herbs and symptoms.
type Category int

const (
	Herb    Category = iota // category A
	Symptom                 // category B
)

func (c Category) String() string {
	switch c {
	case Herb:
		return "herb"
	case Symptom:
		return "symptom"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

var (
	// ErrUnknownItem is returned when an item occurs in neither the herb nor the symptom vocabulary.
	ErrUnknownItem = errors.New("item is neither a known herb nor a known symptom")
	// ErrAmbiguousItem is returned when an item occurs in both the herb and the symptom vocabulary.
	ErrAmbiguousItem = errors.New("item is both a herb and a symptom")
)

// Categorizer classifies items. It must return an error for items it cannot classify rather than guess a category.
type Categorizer interface {
	Category(item Item) (Category, error)
}

// Vocabulary is a Categorizer backed by the herb and symptom dictionaries.
type Vocabulary struct {
	categories map[Item]Category
	counts     map[Item]int // occurrence counts from the dictionaries, if known
	Herbs      []Item       // herbs in dictionary order
	Symptoms   []Item       // symptoms in dictionary order
}

// NewVocabulary creates a vocabulary from a list of herbs and a list of symptoms. The two lists must be disjoint.
func NewVocabulary(herbs, symptoms []Item) (*Vocabulary, error) {
	v := &Vocabulary{categories: map[Item]Category{}, counts: map[Item]int{}}
	for _, h := range herbs {
		if _, ok := v.categories[h]; ok {
			continue
		}
		v.categories[h] = Herb
		v.Herbs = append(v.Herbs, h)
	}
	for _, s := range symptoms {
		c, ok := v.categories[s]
		if ok && c == Herb {
			return nil, fmt.Errorf("vocabulary %q: %w", s, ErrAmbiguousItem)
		}
		if ok {
			continue
		}
		v.categories[s] = Symptom
		v.Symptoms = append(v.Symptoms, s)
	}
	return v, nil
}

// SetCount records how often an item occurred in the transactions the vocabulary was derived from.
func (v *Vocabulary) SetCount(item Item, count int) {
	v.counts[item] = count
}

// Count returns the recorded occurrence count of an item, or 0 if unknown.
func (v *Vocabulary) Count(item Item) int {
	return v.counts[item]
}

// Len returns the number of items in the vocabulary.
func (v *Vocabulary) Len() int {
	return len(v.categories)
}

// Category implements Categorizer.
func (v *Vocabulary) Category(item Item) (Category, error) {
	c, ok := v.categories[item]
	if !ok {
		return 0, fmt.Errorf("vocabulary %q: %w", item, ErrUnknownItem)
	}
	return c, nil
}

// IsMixed checks if an itemset contains at least one herb and at least one symptom. Every item is classified, so an
// unknown item anywhere in the itemset is reported even if the itemset would otherwise qualify.
func IsMixed(s Itemset, categorizer Categorizer) (bool, error) {
	herb, symptom := false, false
	for _, item := range s.items {
		c, err := categorizer.Category(item)
		if err != nil {
			return false, err
		}
		switch c {
		case Herb:
			herb = true
		case Symptom:
			symptom = true
		default:
			return false, fmt.Errorf("item %q has invalid %v", item, c)
		}
	}
	return herb && symptom, nil
}

// SplitByCategory divides the items of an itemset into herbs and symptoms, in itemset order.
func SplitByCategory(s Itemset, categorizer Categorizer) (herbs, symptoms []Item, err error) {
	for _, item := range s.items {
		c, err := categorizer.Category(item)
		if err != nil {
			return nil, nil, err
		}
		if c == Herb {
			herbs = append(herbs, item)
		} else {
			symptoms = append(symptoms, item)
		}
	}
	return herbs, symptoms, nil
}
