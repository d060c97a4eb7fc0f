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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"tcmine/pattern"

	"go.uber.org/zap"
)

// Names of the files written by RunTransactions.
const (
	TransactionsFile        = "transactions.csv"
	IndexedTransactionsFile = "transactions.idx"
	ItemIndexFile           = "items.txt"
	HerbDictionaryFile      = "herb_dct.txt"
	SymptomDictionaryFile   = "sym_dct.txt"
)

// TransactionParams are the parameters for creating transactions from HIS data.
type TransactionParams struct {
	RecordsFile  string   // path to the cleaned HIS data
	OutputPath   string   // directory where the output files are written to
	Encoding     string   // encoding of the HIS data: utf-8 or gb18030
	MinCount     int      // elements occurring in fewer transactions are removed
	MaxFraction  float64  // elements occurring in a larger fraction of the transactions are removed
	Noise        []string // tokens removed from symptom and herb columns
	Sample       int      // nr of transactions to randomly select, 0 for all
	HerbsFile    string   // optional herb dictionary restricting the elements to known herbs and symptoms
	SymptomsFile string   // optional symptom dictionary, used together with HerbsFile
}

// MaximalParams are the parameters for extracting maximal patterns from frequent patterns.
type MaximalParams struct {
	PatternsFile string // path to the miner output
	OutputFile   string // path of the file the maximal patterns are written to
	HerbsFile    string // herb dictionary
	SymptomsFile string // symptom dictionary
	IndexFile    string // item index, required for the list format, optional for fpgrowth
	Format       string // list, comma, fpgrowth
	Layout       string // support-first, support-last, rule
	MinSupport   int
	MinSize      int
	MaxSize      int
	Top          int // nr of herbs and symptoms to list in the summary
}

// recoverError converts a panic into an error, to avoid crashing the app.
func recoverError(err *error, logger *zap.Logger) {
	if r := recover(); r != nil {
		logger.Error("Recovered from panic", zap.Any("panic", r))
		*err = fmt.Errorf("failed to run: %v", r)
	}
}

// RunTransactions creates the transactions for the frequent pattern miner from HIS data.
func RunTransactions(args *TransactionParams, logger *zap.Logger) (err error) {
	defer recoverError(&err, logger)
	if err = os.MkdirAll(args.OutputPath, 0700); err != nil {
		return err
	}
	// 1. Parse the HIS data into transactions
	ts, err := ParseHISTransactions(args.RecordsFile, args.Encoding, args.Noise)
	if err != nil {
		return err
	}
	logger.Info("Parsed HIS data",
		zap.String("file", args.RecordsFile),
		zap.Int("transactions", len(ts.Transactions)),
		zap.Int("elements", len(ts.Order)))
	if len(ts.Ambiguous) > 0 {
		logger.Warn("Elements occur both as herb and as symptom, treating them as herbs",
			zap.Int("count", len(ts.Ambiguous)), zap.Any("elements", ts.Ambiguous))
	}
	// 2. Restrict to a known vocabulary
	if args.HerbsFile != "" && args.SymptomsFile != "" {
		vocabulary, err := LoadVocabulary(args.HerbsFile, args.SymptomsFile)
		if err != nil {
			return err
		}
		removed := ApplyElementFilter(VocabularyFilter(vocabulary), ts)
		logger.Info("Removed elements not in the vocabulary", zap.Int("removed", len(removed)))
	}
	// 3. Remove elements that are too rare or too common
	removed := TrimElements(ts, args.MinCount, args.MaxFraction)
	logger.Info("Removed infrequent and overly frequent elements",
		zap.Int("minCount", args.MinCount),
		zap.Float64("maxFraction", args.MaxFraction),
		zap.Int("removed", len(removed)),
		zap.Int("kept", len(ts.Order)))
	// 4. Sample
	if args.Sample > 0 {
		ts = SampleTransactions(ts, args.Sample)
		logger.Info("Sampled transactions", zap.Int("transactions", len(ts.Transactions)))
	}
	// 5. Write the transactions, the item index and the dictionaries
	outputs := []struct {
		name  string
		print func(w io.Writer) error
	}{
		{TransactionsFile, func(w io.Writer) error { return writeTransactions(w, ts) }},
		{IndexedTransactionsFile, func(w io.Writer) error { return writeIndexedTransactions(w, ts) }},
		{ItemIndexFile, func(w io.Writer) error { return writeItemIndex(w, ts) }},
		{HerbDictionaryFile, func(w io.Writer) error { return writeDictionary(w, ts, ts.IsHerb) }},
		{SymptomDictionaryFile, func(w io.Writer) error {
			return writeDictionary(w, ts, func(item pattern.Item) bool { return !ts.IsHerb(item) })
		}},
	}
	for _, output := range outputs {
		name := filepath.Join(args.OutputPath, output.name)
		if err = createFile(name, output.print); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		logger.Debug("Wrote file", zap.String("file", name))
	}
	logger.Info("Wrote transactions", zap.String("path", args.OutputPath))
	return nil
}

// logSummary logs the summary of the maximal patterns.
func logSummary(summary pattern.Summary, logger *zap.Logger) {
	herbs := make([]string, len(summary.TopHerbs))
	for i, c := range summary.TopHerbs {
		herbs[i] = fmt.Sprintf("%s(%d)", c.Item, c.Count)
	}
	symptoms := make([]string, len(summary.TopSymptoms))
	for i, c := range summary.TopSymptoms {
		symptoms[i] = fmt.Sprintf("%s(%d)", c.Item, c.Count)
	}
	logger.Info("Maximal pattern summary",
		zap.Int("patterns", summary.NofPatterns),
		zap.Any("sizes", summary.SizeCounts),
		zap.Float64("meanHerbs", summary.MeanHerbs),
		zap.Float64("meanSymptoms", summary.MeanSymptoms),
		zap.Int("maxSupport", summary.MaxSupport),
		zap.Int("minSupport", summary.MinSupport),
		zap.Strings("topHerbs", herbs),
		zap.Strings("topSymptoms", symptoms))
}

// RunMaximal extracts the maximal patterns that mix herbs and symptoms from the output of a frequent pattern miner.
func RunMaximal(args *MaximalParams, logger *zap.Logger) (err error) {
	defer recoverError(&err, logger)
	format, err := ParsePatternFormat(args.Format)
	if err != nil {
		return err
	}
	layout, err := pattern.ParseLayout(args.Layout)
	if err != nil {
		return err
	}
	// 1. Load the vocabulary and the item index
	vocabulary, err := LoadVocabulary(args.HerbsFile, args.SymptomsFile)
	if err != nil {
		return err
	}
	logger.Info("Loaded vocabulary",
		zap.Int("herbs", len(vocabulary.Herbs)),
		zap.Int("symptoms", len(vocabulary.Symptoms)))
	var index []pattern.Item
	switch {
	case format.NeedsIndex() && args.IndexFile != "":
		if index, err = ParseItemIndex(args.IndexFile); err != nil {
			return err
		}
	case format == FPGrowthFormat:
		index = DictionaryIndex(vocabulary)
		logger.Info("No item index given, numbering herbs then symptoms in dictionary order",
			zap.Int("items", len(index)))
	case format.NeedsIndex():
		return fmt.Errorf("pattern format %s requires an item index file", format)
	}
	// 2. Parse and filter the frequent patterns
	records, err := ParsePatterns(args.PatternsFile, format, index)
	if err != nil {
		return err
	}
	filtered := pattern.ApplyRecordFilters(GetRecordFilters(args.MinSupport, args.MinSize, args.MaxSize), records)
	logger.Info("Parsed frequent patterns",
		zap.String("file", args.PatternsFile),
		zap.Int("patterns", len(records)),
		zap.Int("afterFilters", len(filtered)))
	// 3. Extract the maximal patterns
	extractor := pattern.NewExtractor(vocabulary)
	for _, record := range filtered {
		if err = extractor.Add(record); err != nil {
			return err
		}
	}
	maximal := extractor.Result()
	stats := extractor.Stats()
	logger.Info("Extracted maximal patterns",
		zap.Int("maximal", len(maximal)),
		zap.Int("ineligible", stats.Ineligible),
		zap.Int("subsumed", stats.Subsumed),
		zap.Int("evicted", stats.Evicted),
		zap.Int("duplicates", stats.Duplicates))
	// 4. Write the maximal patterns
	if err = os.MkdirAll(filepath.Dir(args.OutputFile), 0700); err != nil {
		return err
	}
	if err = createFile(args.OutputFile, func(w io.Writer) error {
		return pattern.WriteRecords(w, maximal, vocabulary, layout)
	}); err != nil {
		return fmt.Errorf("%s: %w", args.OutputFile, err)
	}
	summary, err := pattern.Summarize(maximal, vocabulary, args.Top)
	if err != nil {
		return err
	}
	logSummary(summary, logger)
	return nil
}
