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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"tcmine/pattern"

	"github.com/exascience/pargo/parallel"
)

//Parsing frequent patterns
//Frequent pattern miners print one pattern per line, but the format depends on the miner that was used:
//list:     [3, 7, 12]15          a list of item indices followed by the support (fpgrowth, python bindings)
//comma:    name, name, 15        item names and the support, separated by ", " (pymining relim)
//fpgrowth: 3 7 12 (15)           item indices followed by the support between parentheses (fpgrowth, C version)
//Item indices refer to the item index written when the transactions were created.

// PatternFormat identifies the output format of a frequent pattern miner.
type PatternFormat string

const (
	ListFormat     PatternFormat = "list"
	CommaFormat    PatternFormat = "comma"
	FPGrowthFormat PatternFormat = "fpgrowth"
)

// ErrUnknownFormat is returned for a pattern format that is not supported.
var ErrUnknownFormat = errors.New("unknown pattern format")

// ParsePatternFormat converts a format name into a PatternFormat.
func ParsePatternFormat(name string) (PatternFormat, error) {
	switch f := PatternFormat(name); f {
	case ListFormat, CommaFormat, FPGrowthFormat:
		return f, nil
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnknownFormat)
}

// NeedsIndex checks if patterns in this format refer to items by index.
func (f PatternFormat) NeedsIndex() bool {
	return f == ListFormat || f == FPGrowthFormat
}

// DictionaryIndex numbers the herbs of a vocabulary followed by its symptoms, both in dictionary order. C fpgrowth
// runs on transactions numbered this way.
func DictionaryIndex(vocabulary *pattern.Vocabulary) []pattern.Item {
	index := make([]pattern.Item, 0, len(vocabulary.Herbs)+len(vocabulary.Symptoms))
	index = append(index, vocabulary.Herbs...)
	return append(index, vocabulary.Symptoms...)
}

// parseSupport parses a support count.
func parseSupport(s string) (int, error) {
	support, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid support %q", s)
	}
	if support < 0 {
		return 0, fmt.Errorf("negative support %d", support)
	}
	return support, nil
}

// resolveItem maps an item index onto an item name.
func resolveItem(s string, index []pattern.Item) (pattern.Item, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid item index %q", s)
	}
	if i < 0 || i >= len(index) {
		return "", fmt.Errorf("item index %d out of range [0, %d)", i, len(index))
	}
	return index[i], nil
}

// parseListPattern parses a pattern of the form: [3, 7, 12]15
func parseListPattern(line string, index []pattern.Item) (pattern.PatternRecord, error) {
	closeIndex := strings.Index(line, "]")
	if !strings.HasPrefix(line, "[") || closeIndex < 0 {
		return pattern.PatternRecord{}, errors.New("expected a list of item indices between brackets")
	}
	support, err := parseSupport(line[closeIndex+1:])
	if err != nil {
		return pattern.PatternRecord{}, err
	}
	items := []pattern.Item{}
	if inner := strings.TrimSpace(line[1:closeIndex]); inner != "" {
		for _, s := range strings.Split(inner, ",") {
			item, err := resolveItem(strings.Trim(strings.TrimSpace(s), "'\""), index)
			if err != nil {
				return pattern.PatternRecord{}, err
			}
			items = append(items, item)
		}
	}
	return pattern.PatternRecord{Itemset: pattern.NewItemset(items...), Support: support}, nil
}

// parseCommaPattern parses a pattern of the form: name, name, 15
func parseCommaPattern(line string) (pattern.PatternRecord, error) {
	fields := strings.Split(line, ", ")
	support, err := parseSupport(fields[len(fields)-1])
	if err != nil {
		return pattern.PatternRecord{}, err
	}
	items := []pattern.Item{}
	for _, name := range fields[:len(fields)-1] {
		if name = strings.TrimSpace(name); name != "" {
			items = append(items, pattern.Item(name))
		}
	}
	return pattern.PatternRecord{Itemset: pattern.NewItemset(items...), Support: support}, nil
}

// parseFPGrowthPattern parses a pattern of the form: 3 7 12 (15)
func parseFPGrowthPattern(line string, index []pattern.Item) (pattern.PatternRecord, error) {
	fields := strings.Fields(line)
	last := fields[len(fields)-1]
	if !strings.HasPrefix(last, "(") || !strings.HasSuffix(last, ")") {
		return pattern.PatternRecord{}, errors.New("expected the support between parentheses at the end of the line")
	}
	support, err := parseSupport(last[1 : len(last)-1])
	if err != nil {
		return pattern.PatternRecord{}, err
	}
	items := make([]pattern.Item, 0, len(fields)-1)
	for _, s := range fields[:len(fields)-1] {
		item, err := resolveItem(s, index)
		if err != nil {
			return pattern.PatternRecord{}, err
		}
		items = append(items, item)
	}
	return pattern.PatternRecord{Itemset: pattern.NewItemset(items...), Support: support}, nil
}

// parsePatternLine parses a single, non-blank line of miner output.
func parsePatternLine(line string, format PatternFormat, index []pattern.Item) (pattern.PatternRecord, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return pattern.PatternRecord{}, errors.New("empty pattern")
	}
	switch format {
	case ListFormat:
		return parseListPattern(line, index)
	case CommaFormat:
		return parseCommaPattern(line)
	case FPGrowthFormat:
		return parseFPGrowthPattern(line, index)
	default:
		return pattern.PatternRecord{}, fmt.Errorf("%q: %w", string(format), ErrUnknownFormat)
	}
}

// numberedLine is a line of input together with its line number.
type numberedLine struct {
	nr   int
	text string
}

// parsePatterns parses miner output into pattern records, in input order. Blank lines are skipped. Item indices are
// resolved with the given index, which may be nil for formats that use item names. Lines are converted in parallel.
func parsePatterns(r io.Reader, format PatternFormat, index []pattern.Item) ([]pattern.PatternRecord, error) {
	if _, err := ParsePatternFormat(string(format)); err != nil {
		return nil, err
	}
	if format.NeedsIndex() && index == nil {
		return nil, fmt.Errorf("pattern format %s requires an item index", format)
	}
	lines := []numberedLine{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	nr := 0
	for scanner.Scan() {
		nr++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, numberedLine{nr: nr, text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	records := make([]pattern.PatternRecord, len(lines))
	errs := make([]error, len(lines))
	if len(lines) > 0 {
		parallel.Range(0, len(lines), 0, func(low, high int) {
			for i := low; i < high; i++ {
				records[i], errs[i] = parsePatternLine(lines[i].text, format, index)
			}
		})
	}
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lines[i].nr, err)
		}
	}
	return records, nil
}

// ParsePatterns parses a file with frequent patterns in the given format.
func ParsePatterns(file string, format PatternFormat, index []pattern.Item) ([]pattern.PatternRecord, error) {
	r, closeFile, err := openInput(file, EncodingUTF8)
	if err != nil {
		return nil, err
	}
	defer closeFile()
	records, err := parsePatterns(r, format, index)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return records, nil
}
