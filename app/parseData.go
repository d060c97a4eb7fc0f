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
	"os"
	"strconv"
	"strings"
	"tcmine/pattern"
	"tcmine/utils"
	"unicode"
	"unicode/utf8"

	"github.com/exascience/pargo/parallel"
	"github.com/valyala/fastrand"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

//Package app implements the input and output steps of the TCM pattern mining pipeline.
//The pipeline has 2 steps:
//1. The cleaned HIS data (one visit per line: date, symptoms, herbs) is turned into transactions that are fed to an
//external frequent pattern miner. This step also produces the item index that maps the miner's integer item IDs
//back onto names, and the herb and symptom dictionaries.
//2. The frequent patterns found by the miner are parsed, and only the maximal patterns that mix herbs and symptoms
//are written out.

// Encodings supported for the HIS input files.
const (
	EncodingUTF8    = "utf-8"
	EncodingGB18030 = "gb18030"
)

// ErrUnknownEncoding is returned for an input encoding that is not supported.
var ErrUnknownEncoding = errors.New("unknown input encoding")

// Transaction represents the symptoms and herbs of a single visit.
type Transaction struct {
	Date     string         //date of the visit, as it occurs in the input
	Symptoms []pattern.Item //symptoms in input order, unique
	Herbs    []pattern.Item //herbs in input order without dosages, unique
}

// Items returns the elements of the transaction: first the symptoms then the herbs. An element that occurs both as a
// symptom and as a herb is only listed once.
func (t *Transaction) Items() []pattern.Item {
	items := make([]pattern.Item, 0, len(t.Symptoms)+len(t.Herbs))
	seen := map[pattern.Item]bool{}
	for _, item := range t.Symptoms {
		seen[item] = true
		items = append(items, item)
	}
	for _, item := range t.Herbs {
		if !seen[item] {
			items = append(items, item)
		}
	}
	return items
}

// TransactionSet contains all transactions parsed from the input together with element statistics.
type TransactionSet struct {
	Transactions []*Transaction
	Counts       map[pattern.Item]int  //nr of transactions each element occurs in
	Order        []pattern.Item        //elements in order of first appearance
	Herbs        map[pattern.Item]bool //elements that occurred in a herb column
	Ambiguous    []pattern.Item        //elements that occurred both in a herb and in a symptom column
}

// IsHerb checks if an element of the transaction set is a herb. Elements that occurred in a herb column at least once
// are herbs, all other elements are symptoms.
func (ts *TransactionSet) IsHerb(item pattern.Item) bool {
	return ts.Herbs[item]
}

// openInput opens a file for reading, decoding it to UTF-8 if needed.
func openInput(file, encoding string) (io.Reader, func() error, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	switch strings.ToLower(encoding) {
	case "", EncodingUTF8:
		return f, f.Close, nil
	case EncodingGB18030:
		return transform.NewReader(f, simplifiedchinese.GB18030.NewDecoder()), f.Close, nil
	default:
		f.Close()
		return nil, nil, fmt.Errorf("%q: %w", encoding, ErrUnknownEncoding)
	}
}

// cleanField normalises a field of the HIS data: full-width characters are folded to their narrow form, Chinese and
// western punctuation separating elements is turned into spaces, and noise tokens (e.g. 小) are removed.
func cleanField(field string, noise []string) string {
	field = width.Fold.String(field)
	field = strings.NewReplacer("，", " ", "。", " ", "、", " ", ",", " ").Replace(field)
	for _, token := range noise {
		if token != "" {
			field = strings.ReplaceAll(field, token, "")
		}
	}
	return field
}

// isDosage checks if an element in a herb column is a dosage, e.g. 10g, rather than a herb.
func isDosage(element string) bool {
	r, _ := utf8.DecodeRuneInString(element)
	return unicode.IsDigit(r)
}

// uniqueItems converts whitespace separated elements into items, dropping repeated elements.
func uniqueItems(elements []string) []pattern.Item {
	items := []pattern.Item{}
	seen := map[string]bool{}
	for _, element := range elements {
		if seen[element] {
			continue
		}
		seen[element] = true
		items = append(items, pattern.Item(element))
	}
	return items
}

// parseHISRecords parses cleaned HIS data into transactions. The input is a tab separated file with a header line and
// three columns: date, symptoms, herbs. Symptoms and herbs are separated by white space or punctuation. Herb columns
// may contain dosages, which are dropped. Lines are split on tabs only, quotes have no special meaning.
func parseHISRecords(r io.Reader, noise []string) ([]*Transaction, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	transactions := []*Transaction{}
	line := 0
	for scanner.Scan() {
		line++
		// skip header
		if line == 1 {
			continue
		}
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		record := strings.Split(text, "\t")
		if len(record) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 tab separated columns (date, symptoms, herbs), got %d",
				line, len(record))
		}
		herbs := []string{}
		for _, herb := range strings.Fields(cleanField(record[2], noise)) {
			if isDosage(herb) {
				continue
			}
			herbs = append(herbs, herb)
		}
		transactions = append(transactions, &Transaction{
			Date:     strings.TrimSpace(record[0]),
			Symptoms: uniqueItems(strings.Fields(cleanField(record[1], noise))),
			Herbs:    uniqueItems(herbs),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

// countElements counts for each element the nr of transactions it occurs in. Counting is split over the available
// cores.
func countElements(transactions []*Transaction) map[pattern.Item]int {
	if len(transactions) == 0 {
		return map[pattern.Item]int{}
	}
	result := parallel.RangeReduce(0, len(transactions), 0, func(low, high int) interface{} {
		counts := map[pattern.Item]int{}
		for _, t := range transactions[low:high] {
			for _, item := range t.Items() {
				counts[item]++
			}
		}
		return counts
	}, func(result1, result2 interface{}) interface{} {
		c1 := result1.(map[pattern.Item]int)
		for item, ctr := range result2.(map[pattern.Item]int) {
			c1[item] = c1[item] + ctr
		}
		return c1
	})
	return result.(map[pattern.Item]int)
}

// newTransactionSet collects element statistics for a list of transactions.
func newTransactionSet(transactions []*Transaction) *TransactionSet {
	ts := &TransactionSet{
		Transactions: transactions,
		Counts:       countElements(transactions),
		Herbs:        map[pattern.Item]bool{},
	}
	seen := map[pattern.Item]bool{}
	symptoms := map[pattern.Item]bool{}
	for _, t := range transactions {
		for _, item := range t.Items() {
			if !seen[item] {
				seen[item] = true
				ts.Order = append(ts.Order, item)
			}
		}
		for _, item := range t.Symptoms {
			symptoms[item] = true
		}
		for _, item := range t.Herbs {
			ts.Herbs[item] = true
		}
	}
	for _, item := range ts.Order {
		if ts.Herbs[item] && symptoms[item] {
			ts.Ambiguous = append(ts.Ambiguous, item)
		}
	}
	return ts
}

// ParseHISTransactions parses a HIS data file into a transaction set. The encoding is either utf-8 or gb18030.
func ParseHISTransactions(file, encoding string, noise []string) (*TransactionSet, error) {
	r, closeFile, err := openInput(file, encoding)
	if err != nil {
		return nil, err
	}
	defer closeFile()
	transactions, err := parseHISRecords(r, noise)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return newTransactionSet(transactions), nil
}

// frequencyFilter returns an element filter that keeps elements occurring in at least minCount transactions and in at
// most maxFraction of all transactions.
func frequencyFilter(ts *TransactionSet, minCount int, maxFraction float64) ElementFilter {
	maxCount := maxFraction * float64(len(ts.Transactions))
	return func(item pattern.Item) bool {
		count := ts.Counts[item]
		return count >= minCount && float64(count) <= maxCount
	}
}

// TrimElements removes from the transaction set all elements that occur too rarely or too often. It returns the
// elements that were removed.
func TrimElements(ts *TransactionSet, minCount int, maxFraction float64) []pattern.Item {
	return ApplyElementFilter(frequencyFilter(ts, minCount, maxFraction), ts)
}

// selectRandomTransactionsWithoutShuffle randomly selects n transactions, keeping their input order. It performs this
// random selection without shuffling the input transactions.
func selectRandomTransactionsWithoutShuffle(transactions []*Transaction, n int) []*Transaction {
	if n >= len(transactions) {
		return transactions
	}
	collected := []*Transaction{}
	maxRandSkips := utils.MaxInt(0, len(transactions)-n)
	for _, t := range transactions {
		if len(collected) == n {
			break
		}
		if maxRandSkips > 0 {
			if fastrand.Uint32n(2) > 0 {
				collected = append(collected, t)
			} else {
				maxRandSkips--
			}
		} else {
			collected = append(collected, t)
		}
	}
	return collected
}

// SampleTransactions replaces the transactions of a transaction set by a random selection of n transactions, and
// recomputes the element statistics. For n <= 0 the transaction set is returned unchanged.
func SampleTransactions(ts *TransactionSet, n int) *TransactionSet {
	if n <= 0 || n >= len(ts.Transactions) {
		return ts
	}
	return newTransactionSet(selectRandomTransactionsWithoutShuffle(ts.Transactions, n))
}

// createFile creates a file, runs the given print function on it, and closes it.
func createFile(name string, print func(w io.Writer) error) (err error) {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return print(file)
}

// writeTransactions prints one transaction per line, as a comma separated list of element names.
func writeTransactions(w io.Writer, ts *TransactionSet) error {
	for _, t := range ts.Transactions {
		items := t.Items()
		names := make([]string, len(items))
		for i, item := range items {
			names[i] = string(item)
		}
		if _, err := fmt.Fprintln(w, strings.Join(names, ",")); err != nil {
			return err
		}
	}
	return nil
}

// writeIndexedTransactions prints one transaction per line, as a space separated list of item indices. This is the
// input format of the frequent pattern miner.
func writeIndexedTransactions(w io.Writer, ts *TransactionSet) error {
	index := map[pattern.Item]int{}
	for i, item := range ts.Order {
		index[item] = i
	}
	for _, t := range ts.Transactions {
		items := t.Items()
		ids := make([]string, len(items))
		for i, item := range items {
			ids[i] = strconv.Itoa(index[item])
		}
		if _, err := fmt.Fprintln(w, strings.Join(ids, " ")); err != nil {
			return err
		}
	}
	return nil
}

// writeItemIndex prints the item index: the element with index i is printed on line i.
func writeItemIndex(w io.Writer, ts *TransactionSet) error {
	for _, item := range ts.Order {
		if _, err := fmt.Fprintln(w, string(item)); err != nil {
			return err
		}
	}
	return nil
}

// writeDictionary prints a dictionary line per line as: name tab count. Only the elements that satisfy the given
// predicate are printed.
func writeDictionary(w io.Writer, ts *TransactionSet, keep func(item pattern.Item) bool) error {
	for _, item := range ts.Order {
		if !keep(item) {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\t%d\n", item, ts.Counts[item]); err != nil {
			return err
		}
	}
	return nil
}

// parseDictionary parses a dictionary file with lines: name tab count. It returns the names in file order and the
// counts per name.
func parseDictionary(r io.Reader) ([]pattern.Item, map[pattern.Item]int, error) {
	scanner := bufio.NewScanner(r)
	items := []pattern.Item{}
	counts := map[pattern.Item]int{}
	line := 0
	for scanner.Scan() {
		line++
		record := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}
		count := 0
		if len(record) > 1 {
			var err error
			if count, err = strconv.Atoi(strings.TrimSpace(record[1])); err != nil {
				return nil, nil, fmt.Errorf("line %d: invalid count: %w", line, err)
			}
		}
		item := pattern.Item(name)
		if _, ok := counts[item]; !ok {
			items = append(items, item)
		}
		counts[item] = count
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return items, counts, nil
}

// ParseDictionary parses a herb or symptom dictionary file.
func ParseDictionary(file string) ([]pattern.Item, map[pattern.Item]int, error) {
	r, closeFile, err := openInput(file, EncodingUTF8)
	if err != nil {
		return nil, nil, err
	}
	defer closeFile()
	items, counts, err := parseDictionary(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", file, err)
	}
	return items, counts, nil
}

// parseItemIndex parses an item index: the name on line i is the element with index i. Empty lines are kept as
// empty names so that the line numbering is not disturbed.
func parseItemIndex(r io.Reader) ([]pattern.Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.TrimRight(string(data), "\r\n")
	if text == "" {
		return []pattern.Item{}, nil
	}
	lines := strings.Split(text, "\n")
	index := make([]pattern.Item, len(lines))
	for i, line := range lines {
		index[i] = pattern.Item(strings.TrimSpace(line))
	}
	return index, nil
}

// ParseItemIndex parses an item index file.
func ParseItemIndex(file string) ([]pattern.Item, error) {
	r, closeFile, err := openInput(file, EncodingUTF8)
	if err != nil {
		return nil, err
	}
	defer closeFile()
	return parseItemIndex(r)
}

// LoadVocabulary creates a vocabulary from a herb dictionary file and a symptom dictionary file.
func LoadVocabulary(herbFile, symptomFile string) (*pattern.Vocabulary, error) {
	herbs, herbCounts, err := ParseDictionary(herbFile)
	if err != nil {
		return nil, err
	}
	symptoms, symptomCounts, err := ParseDictionary(symptomFile)
	if err != nil {
		return nil, err
	}
	vocabulary, err := pattern.NewVocabulary(herbs, symptoms)
	if err != nil {
		return nil, err
	}
	for item, count := range herbCounts {
		vocabulary.SetCount(item, count)
	}
	for item, count := range symptomCounts {
		vocabulary.SetCount(item, count)
	}
	return vocabulary, nil
}
