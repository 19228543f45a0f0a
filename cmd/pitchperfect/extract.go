package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Print the text of a job description file",
	Long:  "Extracts plain text from a PDF, DOCX or TXT file exactly as it would be fed into the prompt.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath, logger)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		logger.Error("failed to open file", "path", args[0], "error", err)
		return err
	}
	defer f.Close()

	text, err := newExtractor(cfg).ExtractFile(args[0], f)
	if err != nil {
		return fail(logger, err)
	}

	logger.Debug("extracted document", "path", args[0], "chars", len(text))
	fmt.Println(text)
	return nil
}
