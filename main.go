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

package main

import (
	"fmt"
	"os"
	"runtime"
	"tcmine/app"
	"tcmine/config"
	"tcmine/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

/*
Tcmine is a tool for mining herb -> symptom patterns from traditional Chinese medicine visit records.

Usage:
	tcmine transactions recordsFile outputPath [flags]
	tcmine maximal patternsFile outputFile --herbs herbDictionary --symptoms symptomDictionary [flags]

Example:
	tcmine transactions HIS_clean_data.txt ./HIS/ --min-count 5 --max-fraction 0.1
	fpgrowth ./HIS/transactions.idx > HIS_frequent_patterns.txt
	tcmine maximal HIS_frequent_patterns.txt ./results/HIS_max_patterns.txt --herbs ./HIS/herb_dct.txt
	--symptoms ./HIS/sym_dct.txt --index ./HIS/items.txt --format list

The transactions command reads cleaned HIS data: a tab separated file with a header and the columns date, symptoms,
herbs. It writes to outputPath:

transactions.csv
	One transaction per line, a comma separated list of symptoms followed by herbs.
transactions.idx
	The same transactions as space separated item indices, the input for a frequent pattern miner.
items.txt
	The item index: the element with index i is on line i.
herb_dct.txt, sym_dct.txt
	The herb and symptom dictionaries: name tab nr of transactions.

The transactions flags are:

--encoding utf-8 | gb18030
	The character encoding of the HIS data.
--min-count nr
	Elements (herbs or symptoms) occurring in fewer transactions are removed.
--max-fraction nr
	Elements occurring in a larger fraction of the transactions are removed. E.g. 0.1 for 10%.
--noise tokens
	A comma separated list of tokens removed from the symptom and herb columns. E.g. 小.
--sample nr
	Randomly select this nr of transactions.
--herbs file, --symptoms file
	Only keep elements listed in these dictionaries.

The maximal command reads the output of a frequent pattern miner and writes the maximal patterns that contain at
least one herb and one symptom, sorted by support. The maximal flags are:

--herbs file, --symptoms file
	The herb and symptom dictionaries. Every item of every pattern must be listed in exactly one of them.
--index file
	The item index, required for the list format. Without it, fpgrowth indices number the herbs and then the
	symptoms in dictionary order.
--format list | comma | fpgrowth
	The miner output format: "[3, 7, 12]15", "name, name, 15", or "3 7 12 (15)".
--min-support nr, --min-size nr, --max-size nr
	Ignore patterns with a lower support, fewer items, or more items.
--layout support-first | support-last | rule
	The output format: "support tab herbs tab symptoms", "herbs tab symptoms tab support", or
	"herb, herb -> symptom, symptom:support".

All settings can also be given in a YAML config file (--config) or as TCMINE_ environment variables, e.g.
TCMINE_RECORDS_MIN_COUNT=5. Flags take precedence over environment variables, which take precedence over the file.
*/

const (
	programVersion = "0.1"
	programName    = "tcmine"
)

func programMessage() string {
	return fmt.Sprint(programName, " version ", programVersion, " compiled with ", runtime.Version())
}

var (
	configFile string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   programName,
	Short: "Mine maximal herb -> symptom patterns from TCM visit records",
	Long: `tcmine turns cleaned HIS visit records into transactions for a frequent pattern miner, and reduces the
mined frequent patterns to the maximal patterns that combine herbs and symptoms.`,
	Version:       programVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if logger, err = logging.New(cfg.Log.Level, cfg.Log.Format); err != nil {
			return err
		}
		logger.Info(programMessage())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var transactionsCmd = &cobra.Command{
	Use:   "transactions recordsFile outputPath",
	Short: "Create frequent pattern miner input from cleaned HIS data",
	Args:  cobra.ExactArgs(2),
	RunE:  runTransactions,
}

var maximalCmd = &cobra.Command{
	Use:   "maximal patternsFile outputFile",
	Short: "Extract the maximal herb -> symptom patterns from frequent patterns",
	Args:  cobra.ExactArgs(2),
	RunE:  runMaximal,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	// skip config loading
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), programMessage())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "A YAML config file.")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "The log level: debug, info, warn, error.")

	flags := transactionsCmd.Flags()
	flags.String("encoding", "utf-8", "The encoding of the HIS data: utf-8 or gb18030.")
	flags.Int("min-count", 5, "The minimum nr of transactions an element must occur in.")
	flags.Float64("max-fraction", 0.1, "The maximum fraction of transactions an element may occur in.")
	flags.StringSlice("noise", []string{"小"}, "Tokens to remove from the symptom and herb columns.")
	flags.Int("sample", 0, "Randomly select this nr of transactions, 0 for all.")
	flags.String("herbs", "", "Only keep herbs and symptoms listed in this herb dictionary and the symptom dictionary.")
	flags.String("symptoms", "", "The symptom dictionary used together with --herbs.")

	flags = maximalCmd.Flags()
	flags.String("herbs", "", "The herb dictionary (name tab count).")
	flags.String("symptoms", "", "The symptom dictionary (name tab count).")
	flags.String("index", "", "The item index, required for the list format. fpgrowth defaults to herbs then symptoms.")
	flags.String("format", "list", "The miner output format: list, comma, fpgrowth.")
	flags.Int("min-support", 0, "Ignore patterns with a lower support.")
	flags.Int("min-size", 0, "Ignore patterns with fewer items.")
	flags.Int("max-size", 0, "Ignore patterns with more items, 0 for no limit.")
	flags.String("layout", "support-first", "The output layout: support-first, support-last, rule.")
	flags.Int("top", 10, "The nr of herbs and symptoms listed in the summary.")
	_ = maximalCmd.MarkFlagRequired("herbs")
	_ = maximalCmd.MarkFlagRequired("symptoms")

	rootCmd.AddCommand(transactionsCmd, maximalCmd, versionCmd)
}

// override sets target to the value of a flag, if that flag was passed on the command line.
func override[T any](cmd *cobra.Command, name string, target *T, get func(string) (T, error)) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := get(name)
	if err != nil {
		return err
	}
	*target = v
	return nil
}

func runTransactions(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	r := cfg.Records
	for _, err := range []error{
		override(cmd, "encoding", &r.Encoding, flags.GetString),
		override(cmd, "min-count", &r.MinCount, flags.GetInt),
		override(cmd, "max-fraction", &r.MaxFraction, flags.GetFloat64),
		override(cmd, "noise", &r.Noise, flags.GetStringSlice),
		override(cmd, "sample", &r.Sample, flags.GetInt),
	} {
		if err != nil {
			return err
		}
	}
	cfg.Records = r
	if err := cfg.Validate(); err != nil {
		return err
	}
	herbs, _ := flags.GetString("herbs")
	symptoms, _ := flags.GetString("symptoms")
	if (herbs == "") != (symptoms == "") {
		return fmt.Errorf("--herbs and --symptoms must be passed together")
	}
	params := &app.TransactionParams{
		RecordsFile:  args[0],
		OutputPath:   args[1],
		Encoding:     r.Encoding,
		MinCount:     r.MinCount,
		MaxFraction:  r.MaxFraction,
		Noise:        r.Noise,
		Sample:       r.Sample,
		HerbsFile:    herbs,
		SymptomsFile: symptoms,
	}
	logger.Info("Executing command", zap.Strings("args", os.Args))
	return app.RunTransactions(params, logger)
}

func runMaximal(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	p := cfg.Patterns
	o := cfg.Output
	for _, err := range []error{
		override(cmd, "format", &p.Format, flags.GetString),
		override(cmd, "min-support", &p.MinSupport, flags.GetInt),
		override(cmd, "min-size", &p.MinSize, flags.GetInt),
		override(cmd, "max-size", &p.MaxSize, flags.GetInt),
		override(cmd, "layout", &o.Layout, flags.GetString),
		override(cmd, "top", &o.Top, flags.GetInt),
	} {
		if err != nil {
			return err
		}
	}
	cfg.Patterns = p
	cfg.Output = o
	if err := cfg.Validate(); err != nil {
		return err
	}
	herbs, _ := flags.GetString("herbs")
	symptoms, _ := flags.GetString("symptoms")
	index, _ := flags.GetString("index")
	params := &app.MaximalParams{
		PatternsFile: args[0],
		OutputFile:   args[1],
		HerbsFile:    herbs,
		SymptomsFile: symptoms,
		IndexFile:    index,
		Format:       p.Format,
		Layout:       o.Layout,
		MinSupport:   p.MinSupport,
		MinSize:      p.MinSize,
		MaxSize:      p.MaxSize,
		Top:          o.Top,
	}
	logger.Info("Executing command", zap.Strings("args", os.Args))
	return app.RunMaximal(params, logger)
}
