package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/pitchperfect/internal/prompt"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List proposal templates",
	Long:  "Prints a table of the built-in prompt templates and marks the configured default.",
	RunE:  runTemplates,
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}

func runTemplates(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath, logger)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	fmt.Printf("%-15s %s\n", "Template", "Description")
	fmt.Println(strings.Repeat("─", 80))

	for _, t := range prompt.Templates() {
		marker := ""
		if t.ID == cfg.Prompt.Template {
			marker = " (default)"
		}
		fmt.Printf("%-15s %s%s\n", t.ID, t.Description, marker)
	}
	return nil
}
