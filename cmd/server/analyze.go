package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"selfsight.app/journal/internal/analysis"
	"selfsight.app/journal/internal/config"
	"selfsight.app/journal/internal/logger"
)

func analyzeCmd() *cobra.Command {
	var (
		title   string
		file    string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a journal entry from a file (or stdin) and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			// JWT settings are irrelevant here, so validation errors are not fatal.
			_ = config.LoadConfig()
			if err := logger.Init(logger.Config{Level: config.AppConfig.LogLevel}); err != nil {
				return err
			}

			content, err := readContent(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			if title == "" && file != "" {
				title = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			}

			var res analysis.Result
			if offline {
				res = analysis.Heuristic(title, content)
			} else {
				gen, closeGen, err := newTextGenerator()
				if err != nil {
					return err
				}
				defer closeGen()
				res = analysis.NewAnalyzer(gen, config.AppConfig.AnalysisModel).Analyze(cmd.Context(), title, content)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "entry title (defaults to the file name)")
	cmd.Flags().StringVar(&file, "file", "", "file holding the entry content; stdin when empty")
	cmd.Flags().BoolVar(&offline, "offline", false, "use the keyword heuristic without calling Gemini")
	return cmd
}

func readContent(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read entry content: %w", err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", fmt.Errorf("entry content is empty")
	}
	return content, nil
}
