package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leafbridge/wordvine/pkg/dictapi"
	"github.com/leafbridge/wordvine/pkg/mapping"
	"github.com/leafbridge/wordvine/pkg/store"
	"github.com/leafbridge/wordvine/pkg/vocab"
)

var generateCmd = &cobra.Command{
	Use:   "generate [words...]",
	Short: "Fetch dictionary documents and generate vocabulary entries",
	Long: "Fetches the dictionary API document for each word, applies the mapping " +
		"rule set and persists the generated entries. Words can be given as " +
		"arguments or one per line via --words-file.",
	RunE: runGenerate,
}

var (
	generateRulesFile string
	generateWordsFile string
	generateCategory  string
)

func init() {
	generateCmd.Flags().StringVarP(&generateRulesFile, "rules", "r", "", "Path to the mapping rule set JSON file (required)")
	generateCmd.Flags().StringVarP(&generateWordsFile, "words-file", "w", "", "Path to a file with one word per line")
	generateCmd.Flags().StringVar(&generateCategory, "category", string(vocab.CategoryWantToLearn), "Category assigned to generated entries")

	if err := generateCmd.MarkFlagRequired("rules"); err != nil {
		panic(fmt.Sprintf("failed to mark rules flag as required: %v", err))
	}

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(_ *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	words := append([]string(nil), args...)
	if generateWordsFile != "" {
		fromFile, err := readWordList(generateWordsFile)
		if err != nil {
			return err
		}
		words = append(words, fromFile...)
	}
	if len(words) == 0 {
		return fmt.Errorf("no words given; pass arguments or --words-file")
	}

	rs, err := readRuleSet(generateRulesFile)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	// Persist the rule set so later runs against the same source can reuse it.
	if err := st.SaveRuleSet(rs); err != nil {
		return fmt.Errorf("save rule set: %w", err)
	}

	gen := dictapi.NewGenerator(dictapi.NewClient())
	gen.Logger = log.New(os.Stderr, "", log.LstdFlags)
	gen.OnProgress = func(current, total int) {
		fmt.Printf("\rProcessed %d/%d words", current, total)
	}

	res, err := gen.GenerateAll(ctx, words, rs)
	fmt.Println()
	if err != nil {
		return err
	}

	cat := vocab.Category(generateCategory)
	for _, e := range res.Entries {
		if e.Category == "" {
			e.Category = cat
		}
	}
	if err := st.SaveEntries(res.Entries); err != nil {
		return fmt.Errorf("persist entries: %w", err)
	}

	fmt.Printf("Generated %d entries from %d words.\n", len(res.Entries), len(words)-len(res.Failed))
	if len(res.Failed) > 0 {
		fmt.Printf("Failed words: %s\n", strings.Join(res.Failed, ", "))
	}
	return nil
}

func readWordList(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	var words []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, nil
}

func readRuleSet(path string) (*mapping.RuleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}
	var rs mapping.RuleSet
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("decode rule set: %w", err)
	}
	if rs.SourceURLTemplate == "" {
		return nil, fmt.Errorf("rule set has no source_url_template")
	}
	if len(rs.Mappings) == 0 {
		return nil, fmt.Errorf("rule set has no mappings")
	}
	return &rs, nil
}
