package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leafbridge/wordvine/pkg/store"
	"github.com/leafbridge/wordvine/pkg/vocab"
)

var wordsCmd = &cobra.Command{
	Use:   "words",
	Short: "List stored vocabulary or reassign categories",
}

var wordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every stored entry",
	Args:  cobra.NoArgs,
	RunE:  runWordsList,
}

var wordsMoveCmd = &cobra.Command{
	Use:   "move <entry-id> <category>",
	Short: "Reassign one entry to another category",
	Args:  cobra.ExactArgs(2),
	RunE:  runWordsMove,
}

func init() {
	wordsCmd.AddCommand(wordsListCmd)
	wordsCmd.AddCommand(wordsMoveCmd)
	rootCmd.AddCommand(wordsCmd)
}

func runWordsList(_ *cobra.Command, _ []string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.ListEntries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%-36s  %-14s  %s", e.ID, e.Category, e.DisplayText())
		if e.Translation != "" {
			fmt.Printf("  %s", e.Translation)
		}
		fmt.Println()
	}
	fmt.Printf("%d entries.\n", len(entries))
	return nil
}

func runWordsMove(_ *cobra.Command, args []string) error {
	id, cat := args[0], vocab.Category(args[1])

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SetCategory(id, cat); err != nil {
		return err
	}
	fmt.Printf("Entry %s moved to %s.\n", id, cat)
	return nil
}
