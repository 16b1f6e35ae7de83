package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leafbridge/wordvine/pkg/config"
	"github.com/leafbridge/wordvine/pkg/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Export or import the configuration file",
}

var configExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the current configuration as a commented text file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigExport,
}

var configImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Validate and store a configuration file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigImport,
}

func init() {
	configCmd.AddCommand(configExportCmd)
	configCmd.AddCommand(configImportCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigExport(_ *cobra.Command, args []string) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	cfg, err := loadConfig(st)
	if err != nil {
		return err
	}
	out := config.Export(cfg)
	if len(args) == 0 {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(args[0], out, 0o644); err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", args[0])
	return nil
}

func runConfigImport(_ *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	// Reject before storing; a bad file must not clobber the current config.
	cfg, err := config.Import(raw)
	if err != nil {
		return err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Set(configKey, config.Export(cfg)); err != nil {
		return fmt.Errorf("store config: %w", err)
	}
	fmt.Printf("Configuration imported from %s\n", args[0])
	return nil
}
