package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"selfsight.app/journal/internal/export"
)

func inspectExportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "inspect-export",
		Short: "Read a text export back and print its title, date, content and analysis presence as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read export: %w", err)
			}
			parsed, err := export.ParseText(data)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Title       string `json:"title"`
				Date        string `json:"date"`
				Content     string `json:"content"`
				HasAnalysis bool   `json:"has_analysis"`
			}{parsed.Title, parsed.DateLine, parsed.Content, parsed.HasAnalysis})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path of a journal-YYYY-MM-DD.txt export")
	cmd.MarkFlagRequired("file")
	return cmd
}
