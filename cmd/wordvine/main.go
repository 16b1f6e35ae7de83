// Package main provides the wordvine command line tool: batch vocabulary
// generation from dictionary APIs, page scanning with in-place word
// replacement, and configuration import/export.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wordvine",
	Short: "Vocabulary harvesting and page annotation",
	Long: "wordvine builds vocabulary entries from arbitrary dictionary APIs via " +
		"user-defined mapping rules, and annotates web pages by replacing known " +
		"words in place according to per-category styles.",
}

var dbPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "wordvine.db", "Path to the SQLite database")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
