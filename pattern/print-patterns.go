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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Printing of maximal patterns

// Layout selects how a pattern record is printed as a line of text.
type Layout string

const (
	// SupportFirst prints: support tab herb,herb tab symptom,symptom
	SupportFirst Layout = "support-first"
	// SupportLast prints: herb,herb tab symptom,symptom tab support
	SupportLast Layout = "support-last"
	// Rule prints: herb, herb -> symptom, symptom:support
	Rule Layout = "rule"
)

// ErrUnknownLayout is returned for a layout name that is not supported.
var ErrUnknownLayout = errors.New("unknown output layout")

// ParseLayout converts a layout name into a Layout.
func ParseLayout(name string) (Layout, error) {
	switch l := Layout(name); l {
	case SupportFirst, SupportLast, Rule:
		return l, nil
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnknownLayout)
}

func joinItems(items []Item, sep string) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = string(item)
	}
	return strings.Join(parts, sep)
}

// FormatRecord prints a single pattern record in the given layout, without a trailing newline. The itemset is split
// into a herb part and a symptom part using the categorizer.
func FormatRecord(record PatternRecord, categorizer Categorizer, layout Layout) (string, error) {
	herbs, symptoms, err := SplitByCategory(record.Itemset, categorizer)
	if err != nil {
		return "", err
	}
	support := strconv.Itoa(record.Support)
	switch layout {
	case SupportFirst:
		return support + "\t" + joinItems(herbs, ",") + "\t" + joinItems(symptoms, ","), nil
	case SupportLast:
		return joinItems(herbs, ",") + "\t" + joinItems(symptoms, ",") + "\t" + support, nil
	case Rule:
		return joinItems(herbs, ", ") + " -> " + joinItems(symptoms, ", ") + ":" + support, nil
	default:
		return "", fmt.Errorf("%q: %w", string(layout), ErrUnknownLayout)
	}
}

// WriteRecords prints pattern records line per line to w in the given layout.
func WriteRecords(w io.Writer, records []PatternRecord, categorizer Categorizer, layout Layout) error {
	if _, err := ParseLayout(string(layout)); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, record := range records {
		line, err := FormatRecord(record, categorizer, layout)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}
