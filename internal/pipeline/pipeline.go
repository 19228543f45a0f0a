package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/pitchperfect/internal/model"
	"github.com/amishk599/pitchperfect/internal/prompt"
	"github.com/amishk599/pitchperfect/internal/sanitize"
)

// Input is everything one generation needs. Document is optional; when it
// yields text, that text replaces JobText.
type Input struct {
	Document    *model.SourceDocument
	JobText     string
	Profile     model.FreelancerProfile
	Template    model.TemplateID
	Urgency     model.Urgency
	MatchSkills bool
}

// Pipeline owns the generation flow. It holds no per-request state, so one
// Pipeline serves concurrent requests.
type Pipeline struct {
	extractor model.Extractor
	generator model.Generator
	params    model.GenerationParams
	logger    *slog.Logger
}

// New creates a pipeline wired with its dependencies.
func New(extractor model.Extractor, generator model.Generator, params model.GenerationParams, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		generator: generator,
		params:    params,
		logger:    logger,
	}
}

// Prompt resolves the job text and renders the prompt without calling the
// generator. It returns the prompt and the skills that were substituted.
func (p *Pipeline) Prompt(in Input) (string, []string, error) {
	req, err := p.request(in)
	if err != nil {
		return "", nil, err
	}
	text, skills := prompt.BuildRequest(req)
	return text, skills, nil
}

// Run generates one sanitized proposal. Any failure aborts the run and no
// partial result is returned.
func (p *Pipeline) Run(ctx context.Context, in Input) (*model.GenerationResult, error) {
	runID := uuid.New()
	logger := p.logger.With("run_id", runID.String())
	start := time.Now()

	req, err := p.request(in)
	if err != nil {
		logger.Info("generation rejected", "kind", model.ErrorKind(err), "error", err)
		return nil, err
	}

	text, skills := prompt.BuildRequest(req)
	logger.Debug("prompt built",
		"template", req.Template,
		"prompt_chars", len(text),
		"skills", len(skills),
	)

	raw, err := p.generator.Generate(ctx, text, p.params)
	if err != nil {
		logger.Warn("generation failed", "kind", model.ErrorKind(err), "error", err)
		return nil, fmt.Errorf("generate proposal: %w", err)
	}

	proposal := sanitize.Sanitize(raw)
	if proposal == "" {
		err := &model.MalformedResponseError{Err: errors.New("no proposal text after sanitizing")}
		logger.Warn("generation failed", "kind", model.ErrorKind(err), "raw_chars", len(raw))
		return nil, err
	}

	result := &model.GenerationResult{
		ID:       runID,
		Proposal: proposal,
		Prompt:   text,
		Template: req.Template,
		Duration: time.Since(start),
	}
	if in.MatchSkills {
		result.MatchedSkills = skills
	}

	logger.Info("proposal generated",
		"template", req.Template,
		"raw_chars", len(raw),
		"proposal_chars", len(proposal),
		"duration", result.Duration,
	)
	return result, nil
}

// request validates in and resolves the job text into a GenerationRequest.
func (p *Pipeline) request(in Input) (model.GenerationRequest, error) {
	if err := in.Profile.Validate(); err != nil {
		return model.GenerationRequest{}, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	if in.MatchSkills && len(model.ParseSkills(strings.Join(in.Profile.Skills, ","))) == 0 {
		return model.GenerationRequest{}, fmt.Errorf("%w: skill matching needs at least one skill", model.ErrInvalidInput)
	}

	jobText, err := p.jobText(in)
	if err != nil {
		return model.GenerationRequest{}, err
	}

	tmpl := in.Template
	if !prompt.Known(tmpl) {
		tmpl = prompt.DefaultTemplate
	}

	return model.GenerationRequest{
		JobText:     jobText,
		Profile:     in.Profile,
		Template:    tmpl,
		Urgency:     in.Urgency,
		MatchSkills: in.MatchSkills,
	}, nil
}

func (p *Pipeline) jobText(in Input) (string, error) {
	jobText := strings.TrimSpace(in.JobText)

	if in.Document != nil {
		extracted, err := p.extractor.Extract(*in.Document)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", in.Document.Name, err)
		}
		if extracted = strings.TrimSpace(extracted); extracted != "" {
			jobText = extracted
		}
	}

	if jobText == "" {
		return "", model.ErrEmptyJobDescription
	}
	return jobText, nil
}
