// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/officebridge/internal/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversions and mail operations",
	Long: `History lists the newest entries of the operation journal. Use --json for
machine-readable output, or --export to write the entries to a YAML file.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 0, "number of entries to show (default from config, 0 in config means 20)")
	historyCmd.Flags().Bool("json", false, "output JSON")
	historyCmd.Flags().String("export", "", "write the entries as YAML to this file")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.Journal.HistoryLimit
	}

	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(commandContext(cmd), limit)
	if err != nil {
		return err
	}

	if exportPath, _ := cmd.Flags().GetString("export"); exportPath != "" {
		f, err := os.Create(exportPath)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		if err := journal.Export(f, entries); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d entries to %s\n", len(entries), exportPath)
		return nil
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistory(os.Stdout, entries, jsonOutput)
}

func formatHistory(w io.Writer, entries []journal.Entry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-18s  %-30s  %s\n", "Time", "Operation", "Source", "Status")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, e := range entries {
		source := e.Source
		if len(source) > 30 {
			source = source[:27] + "..."
		}
		fmt.Fprintf(w, "%-20s  %-18s  %-30s  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Operation, source, e.Status)
	}
	return nil
}
