package model

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Format identifies how a SourceDocument is encoded.
type Format string

const (
	FormatPDF       Format = "pdf"
	FormatDOCX      Format = "docx"
	FormatPlainText Format = "plain-text"
)

// FormatFromFilename maps a file extension to a Format. The second return
// value is false for extensions the extractor does not understand.
func FormatFromFilename(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF, true
	case ".docx":
		return FormatDOCX, true
	case ".txt":
		return FormatPlainText, true
	default:
		return "", false
	}
}

// SourceDocument is an uploaded job description as received.
type SourceDocument struct {
	Name   string // original filename, informational
	Format Format
	Data   []byte
}

// Tone is the voice the proposal is written in.
type Tone string

const (
	ToneProfessional Tone = "Professional"
	ToneFriendly     Tone = "Friendly"
	ToneConfident    Tone = "Confident"
	ToneCreative     Tone = "Creative"
	TonePersuasive   Tone = "Persuasive"
	ToneFormal       Tone = "Formal"
)

// Tones lists every supported tone in display order.
var Tones = []Tone{ToneProfessional, ToneFriendly, ToneConfident, ToneCreative, TonePersuasive, ToneFormal}

// Availability is when the freelancer can start.
type Availability string

const (
	AvailabilityImmediately Availability = "immediately"
	AvailabilityWithinAWeek Availability = "within-a-week"
	AvailabilityPartTime    Availability = "part-time"
	AvailabilityFullTime    Availability = "full-time"
	AvailabilityFlexible    Availability = "flexible"
)

// Describe renders the availability as a phrase for the prompt.
func (a Availability) Describe() string {
	switch a {
	case AvailabilityImmediately:
		return "available to start immediately"
	case AvailabilityWithinAWeek:
		return "available to start within a week"
	case AvailabilityPartTime:
		return "available part-time"
	case AvailabilityFullTime:
		return "available full-time"
	case AvailabilityFlexible:
		return "flexible on schedule"
	default:
		return ""
	}
}

// Urgency tells the model how time-sensitive the client's request is.
type Urgency string

const (
	UrgencyStandard Urgency = "standard"
	UrgencyUrgent   Urgency = "urgent"
)

// TemplateID names one of the embedded prompt templates.
type TemplateID string

// FreelancerProfile is everything the form collects about the freelancer.
type FreelancerProfile struct {
	Name         string       `yaml:"name"`
	Title        string       `yaml:"title"`
	Skills       []string     `yaml:"skills"`
	Experience   string       `yaml:"experience"`
	Achievements string       `yaml:"achievements"`
	Tone         Tone         `yaml:"tone" validate:"omitempty,oneof=Professional Friendly Confident Creative Persuasive Formal"`
	Availability Availability `yaml:"availability" validate:"omitempty,oneof=immediately within-a-week part-time full-time flexible"`
	WordCount    int          `yaml:"word_count" validate:"gte=0,lte=2000"`
}

// Validate checks the enum and range fields. Free-text fields are never
// rejected; empty values render as empty prompt segments.
func (p FreelancerProfile) Validate() error {
	return validator.New().Struct(p)
}

// ParseSkills splits a comma, semicolon or newline separated list into
// trimmed, non-empty skills. Duplicates are dropped case-insensitively and
// the first spelling wins.
func ParseSkills(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})
	seen := make(map[string]bool, len(fields))
	var skills []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		key := strings.ToLower(f)
		if seen[key] {
			continue
		}
		seen[key] = true
		skills = append(skills, f)
	}
	return skills
}

// GenerationParams are the sampling options forwarded to the inference
// endpoint. Nil pointers are omitted from the request so the service
// default applies.
type GenerationParams struct {
	MaxNewTokens      int      `json:"max_new_tokens,omitempty" validate:"omitempty,gte=1,lte=4096"`
	Temperature       *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=1"`
	TopP              *float64 `json:"top_p,omitempty" validate:"omitempty,gte=0,lte=1"`
	RepetitionPenalty *float64 `json:"repetition_penalty,omitempty" validate:"omitempty,gte=1"`
	StopSequences     []string `json:"stop,omitempty"`
	ReturnFullText    *bool    `json:"return_full_text,omitempty"`
}

// Validate checks every parameter is within the range the service accepts.
func (p GenerationParams) Validate() error {
	return validator.New().Struct(p)
}

// GenerationRequest is the immutable input the prompt is assembled from.
type GenerationRequest struct {
	JobText     string
	Profile     FreelancerProfile
	Template    TemplateID
	Urgency     Urgency
	MatchSkills bool
}

// GenerationResult is one sanitized proposal. It lives only for the
// current request and is never stored server-side.
type GenerationResult struct {
	ID            uuid.UUID     `json:"id"`
	Proposal      string        `json:"proposal"`
	Prompt        string        `json:"prompt,omitempty"`
	MatchedSkills []string      `json:"matched_skills,omitempty"`
	Template      TemplateID    `json:"template"`
	Duration      time.Duration `json:"duration_ns"`
}

// Extractor converts an uploaded document into plain text.
type Extractor interface {
	Extract(doc SourceDocument) (string, error)
}

// Generator sends a prompt to a text-generation service and returns the
// raw model output.
type Generator interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}
