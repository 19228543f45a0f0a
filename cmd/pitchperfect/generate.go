package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/pitchperfect/internal/config"
	"github.com/amishk599/pitchperfect/internal/export"
	"github.com/amishk599/pitchperfect/internal/model"
	"github.com/amishk599/pitchperfect/internal/pipeline"
	"github.com/amishk599/pitchperfect/internal/prompt"
	"github.com/amishk599/pitchperfect/internal/tui"
)

var genFlags struct {
	jobText      string
	name         string
	title        string
	skills       string
	experience   string
	achievements string
	tone         string
	availability string
	wordCount    int
	template     string
	urgency      string
	matchSkills  bool
	output       string
	dryRun       bool
	interactive  bool
}

var generateCmd = &cobra.Command{
	Use:   "generate [JOB_FILE]",
	Short: "Generate a proposal for a job post",
	Long: `Generate a freelance proposal from a job description.

The job description comes from JOB_FILE (.pdf, .docx or .txt) or --job-text.
When both are given and the file yields text, the file wins. Profile flags
override the profile in the config file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&genFlags.jobText, "job-text", "j", "", "job description text")
	f.StringVar(&genFlags.name, "name", "", "your name")
	f.StringVar(&genFlags.title, "title", "", "your professional title")
	f.StringVar(&genFlags.skills, "skills", "", "comma-separated skills")
	f.StringVar(&genFlags.experience, "experience", "", "short experience summary")
	f.StringVar(&genFlags.achievements, "achievements", "", "notable achievements")
	f.StringVar(&genFlags.tone, "tone", "", "tone: Professional, Friendly, Confident, Creative, Persuasive or Formal")
	f.StringVar(&genFlags.availability, "availability", "", "availability: immediately, within-a-week, part-time, full-time or flexible")
	f.IntVar(&genFlags.wordCount, "word-count", 0, "target proposal length in words")
	f.StringVarP(&genFlags.template, "template", "t", "", "prompt template (see 'pitchperfect templates')")
	f.StringVar(&genFlags.urgency, "urgency", "", "standard or urgent")
	f.BoolVar(&genFlags.matchSkills, "match-skills", false, "only mention skills the job post asks for")
	f.StringVarP(&genFlags.output, "output", "o", "", "also save the proposal to this file")
	f.BoolVar(&genFlags.dryRun, "dry-run", false, "print the prompt without calling the model")
	f.BoolVarP(&genFlags.interactive, "interactive", "i", false, "pick a template and preview the proposal in the terminal")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath, logger)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	in, err := generateInput(cmd, cfg, args)
	if err != nil {
		return fail(logger, err)
	}

	if genFlags.dryRun {
		text, _, err := newPipeline(cfg, logger).Prompt(in)
		if err != nil {
			return fail(logger, err)
		}
		fmt.Println(text)
		return nil
	}

	if err := cfg.Inference.RequireAPIKey(); err != nil {
		logger.Error("missing credential", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if genFlags.interactive {
		return runInteractive(ctx, cfg, in)
	}

	result, err := newPipeline(cfg, logger).Run(ctx, in)
	if err != nil {
		return fail(logger, err)
	}

	if len(result.MatchedSkills) > 0 {
		logger.Info("matched skills", "skills", strings.Join(result.MatchedSkills, ", "))
	}
	fmt.Println(result.Proposal)

	if genFlags.output != "" {
		path, err := export.Write(filepath.Dir(genFlags.output), filepath.Base(genFlags.output), result.Proposal)
		if err != nil {
			logger.Error("failed to save proposal", "error", err)
			return err
		}
		logger.Info("proposal saved", "path", path)
	}
	return nil
}

// runInteractive drives the picker, loader and preview. The pipeline logs
// are discarded while the terminal UI owns the screen.
func runInteractive(ctx context.Context, cfg *config.Config, in pipeline.Input) error {
	id, ok, err := tui.RunTemplatePicker(prompt.Templates(), in.Template)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	in.Template = id

	p := newPipeline(cfg, discardLogger())
	result, err := tui.RunLoader(ctx, "Writing your proposal", func(ctx context.Context) (*model.GenerationResult, error) {
		return p.Run(ctx, in)
	})
	if errors.Is(err, tui.ErrCancelled) {
		return nil
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, model.UserMessage(err))
		return err
	}

	dir, name := cfg.Output.Dir, cfg.Output.Filename
	if genFlags.output != "" {
		dir, name = filepath.Dir(genFlags.output), filepath.Base(genFlags.output)
	}
	saved, err := tui.RunPreview(result, func(proposal string) (string, error) {
		return export.Write(dir, name, proposal)
	})
	if err != nil {
		return err
	}
	if saved != "" {
		fmt.Printf("Proposal saved to %s\n", saved)
	}
	return nil
}

// generateInput merges the config with the flags the user actually set.
func generateInput(cmd *cobra.Command, cfg *config.Config, args []string) (pipeline.Input, error) {
	in := pipeline.Input{
		JobText:     genFlags.jobText,
		Profile:     cfg.Profile,
		Template:    cfg.Prompt.Template,
		Urgency:     cfg.Prompt.Urgency,
		MatchSkills: cfg.Prompt.MatchSkills,
	}

	if len(args) == 1 {
		doc, err := readJobFile(args[0])
		if err != nil {
			return pipeline.Input{}, err
		}
		in.Document = doc
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		in.Profile.Name = genFlags.name
	}
	if flags.Changed("title") {
		in.Profile.Title = genFlags.title
	}
	if flags.Changed("skills") {
		in.Profile.Skills = model.ParseSkills(genFlags.skills)
	}
	if flags.Changed("experience") {
		in.Profile.Experience = genFlags.experience
	}
	if flags.Changed("achievements") {
		in.Profile.Achievements = genFlags.achievements
	}
	if flags.Changed("tone") {
		in.Profile.Tone = model.Tone(genFlags.tone)
	}
	if flags.Changed("availability") {
		in.Profile.Availability = model.Availability(genFlags.availability)
	}
	if flags.Changed("word-count") {
		in.Profile.WordCount = genFlags.wordCount
	}
	if flags.Changed("template") {
		in.Template = model.TemplateID(genFlags.template)
	}
	if flags.Changed("urgency") {
		in.Urgency = model.Urgency(genFlags.urgency)
		if in.Urgency != model.UrgencyStandard && in.Urgency != model.UrgencyUrgent {
			return pipeline.Input{}, fmt.Errorf("%w: urgency must be standard or urgent", model.ErrInvalidInput)
		}
	}
	if flags.Changed("match-skills") {
		in.MatchSkills = genFlags.matchSkills
	}
	return in, nil
}

// readJobFile loads a job description file. A file with an unrecognized
// extension is ignored so --job-text can still be used.
func readJobFile(path string) (*model.SourceDocument, error) {
	format, ok := model.FormatFromFilename(path)
	if !ok {
		fmt.Fprintf(os.Stderr, "ignoring %s: only .pdf, .docx and .txt files are read\n", path)
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	return &model.SourceDocument{Name: filepath.Base(path), Format: format, Data: data}, nil
}
