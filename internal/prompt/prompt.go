package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/amishk599/pitchperfect/internal/model"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

const (
	TemplateClassic      model.TemplateID = "classic"
	TemplateStructured   model.TemplateID = "structured"
	TemplateConcise      model.TemplateID = "concise"
	TemplateConsultative model.TemplateID = "consultative"
	TemplateTechnical    model.TemplateID = "technical"
	TemplateStory        model.TemplateID = "story"
)

// DefaultTemplate is used when a request names no template or an unknown one.
const DefaultTemplate = TemplateClassic

// TemplateInfo describes one template for listings.
type TemplateInfo struct {
	ID          model.TemplateID `json:"id"`
	Description string           `json:"description"`
}

var catalog = []TemplateInfo{
	{TemplateClassic, "Job post plus freelancer details, persuasive and tone-aligned"},
	{TemplateStructured, "Introduction, approach, qualifications, timeline, call to action"},
	{TemplateConcise, "Short and direct, under 150 words unless a length is set"},
	{TemplateConsultative, "Restates the goal, asks clarifying questions, recommends an approach"},
	{TemplateTechnical, "Architecture, tooling and milestones for technical hiring managers"},
	{TemplateStory, "Opens with a relevant story from past work"},
}

var templates = mustParseTemplates()

// Templates lists every available template in display order.
func Templates() []TemplateInfo {
	out := make([]TemplateInfo, len(catalog))
	copy(out, catalog)
	return out
}

// Known reports whether id names an embedded template.
func Known(id model.TemplateID) bool {
	_, ok := templates[id]
	return ok
}

// Options selects the template and the request-level directives.
type Options struct {
	Template    model.TemplateID
	Urgency     model.Urgency
	MatchSkills bool
}

// templateData is the only value templates are executed against. Every
// field is a plain string, so each placeholder always renders, possibly empty.
type templateData struct {
	JobText      string
	Name         string
	Title        string
	Skills       string
	Experience   string
	Achievements string
	Tone         string
	Availability string
	Length       string
	Urgency      string
}

// Build renders the prompt for jobText and profile. It never fails: missing
// fields render as empty segments and an unknown template falls back to
// DefaultTemplate.
func Build(jobText string, profile model.FreelancerProfile, opts Options) string {
	p, _ := BuildRequest(model.GenerationRequest{
		JobText:     jobText,
		Profile:     profile,
		Template:    opts.Template,
		Urgency:     opts.Urgency,
		MatchSkills: opts.MatchSkills,
	})
	return p
}

// BuildRequest renders the prompt for req and also returns the skills that
// were substituted, which differ from the profile's when skill matching
// narrowed them.
func BuildRequest(req model.GenerationRequest) (string, []string) {
	tmpl, ok := templates[req.Template]
	if !ok {
		tmpl = templates[DefaultTemplate]
	}

	skills := req.Profile.Skills
	if req.MatchSkills {
		if matched := MatchSkills(req.JobText, skills); len(matched) > 0 {
			skills = matched
		}
	}

	data := templateData{
		JobText:      strings.TrimSpace(req.JobText),
		Name:         strings.TrimSpace(req.Profile.Name),
		Title:        strings.TrimSpace(req.Profile.Title),
		Skills:       strings.Join(skills, ", "),
		Experience:   strings.TrimSpace(req.Profile.Experience),
		Achievements: strings.TrimSpace(req.Profile.Achievements),
		Tone:         string(req.Profile.Tone),
		Availability: req.Profile.Availability.Describe(),
		Length:       lengthDirective(req.Profile.WordCount),
		Urgency:      urgencyDirective(req.Urgency),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		// Every template is executed against templateData at init.
		panic(fmt.Sprintf("render prompt %s: %v", tmpl.Name(), err))
	}
	return strings.TrimSpace(buf.String()) + "\n", skills
}

func lengthDirective(words int) string {
	if words <= 0 {
		return ""
	}
	return fmt.Sprintf("Keep the proposal around %d words.", words)
}

func urgencyDirective(u model.Urgency) string {
	if u == model.UrgencyUrgent {
		return "The client needs this urgently: emphasize a fast start and quick turnaround."
	}
	return ""
}

func mustParseTemplates() map[model.TemplateID]*template.Template {
	parsed := make(map[model.TemplateID]*template.Template, len(catalog))
	for _, info := range catalog {
		name := string(info.ID) + ".tmpl"
		tmpl := template.Must(template.New(name).Option("missingkey=error").ParseFS(templateFiles, "templates/"+name))
		if err := tmpl.Execute(&bytes.Buffer{}, templateData{}); err != nil {
			panic(fmt.Sprintf("prompt template %s: %v", name, err))
		}
		parsed[info.ID] = tmpl
	}
	return parsed
}
