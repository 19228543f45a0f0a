package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/pitchperfect/internal/export"
	"github.com/amishk599/pitchperfect/internal/model"
	"github.com/amishk599/pitchperfect/internal/prompt"
)

const (
	// EnvPath names the environment variable that points at a config file.
	EnvPath = "PITCHPERFECT_CONFIG"
	// DefaultPath is tried when neither a flag nor EnvPath names a file.
	DefaultPath = "config.yaml"
	// EnvAPIKey is read when inference.api_key is empty.
	EnvAPIKey = "HF_TOKEN"
)

// Config is the root configuration for PitchPerfect.
type Config struct {
	Inference InferenceConfig
	Profile   model.FreelancerProfile
	Prompt    PromptConfig
	Extract   ExtractConfig
	Server    ServerConfig
	Output    OutputConfig
}

// InferenceConfig controls the text-generation endpoint.
type InferenceConfig struct {
	Endpoint      string        `validate:"required,url"`
	APIKey        string        // expanded from env var by Load
	Timeout       time.Duration // per-request timeout
	MaxRetries    int           `validate:"gte=0,lte=1"`
	RetryDelay    time.Duration // minimum wait before retrying a loading model
	MaxRetryDelay time.Duration // cap on the service's estimated_time hint
	MinInterval   time.Duration // spacing between calls to the endpoint; 0 disables
	WaitForModel  bool
	UseCache      *bool
	Parameters    model.GenerationParams
}

// RequireAPIKey reports a missing credential. Commands that never call the
// endpoint skip this check.
func (c InferenceConfig) RequireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("inference.api_key is empty: set %s in the environment or .env", EnvAPIKey)
	}
	return nil
}

// PromptConfig holds the default prompt options.
type PromptConfig struct {
	Template    model.TemplateID
	MatchSkills bool
	Urgency     model.Urgency `validate:"omitempty,oneof=standard urgent"`
}

// ExtractConfig controls document extraction.
type ExtractConfig struct {
	SkipEmptyParagraphs bool
	MaxUploadBytes      int64 `validate:"gt=0"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string `validate:"required"`
	AllowedOrigins []string
}

// OutputConfig controls where generated proposals are saved.
type OutputConfig struct {
	Dir      string
	Filename string
}

const (
	defaultEndpoint       = "https://api-inference.huggingface.co/models/mistralai/Mistral-7B-Instruct-v0.1"
	defaultMaxNewTokens   = 300
	defaultTemperature    = 0.7
	defaultMaxUploadBytes = 10 << 20
	defaultExperience     = "I have 3+ years of experience delivering production-ready AI systems."
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Inference rawInferenceConfig `yaml:"inference"`
	Profile   rawProfileConfig   `yaml:"profile"`
	Prompt    rawPromptConfig    `yaml:"prompt"`
	Extract   rawExtractConfig   `yaml:"extract"`
	Server    rawServerConfig    `yaml:"server"`
	Output    rawOutputConfig    `yaml:"output"`
}

type rawInferenceConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	APIKey        string        `yaml:"api_key"`
	Timeout       string        `yaml:"timeout"`
	MaxRetries    *int          `yaml:"max_retries"`
	RetryDelay    string        `yaml:"retry_delay"`
	MaxRetryDelay string        `yaml:"max_retry_delay"`
	MinInterval   string        `yaml:"min_interval"`
	WaitForModel  bool          `yaml:"wait_for_model"`
	UseCache      *bool         `yaml:"use_cache"`
	Parameters    rawParameters `yaml:"parameters"`
}

type rawParameters struct {
	MaxNewTokens      *int     `yaml:"max_new_tokens"`
	Temperature       *float64 `yaml:"temperature"`
	TopP              *float64 `yaml:"top_p"`
	RepetitionPenalty *float64 `yaml:"repetition_penalty"`
	StopSequences     []string `yaml:"stop_sequences"`
	ReturnFullText    *bool    `yaml:"return_full_text"`
}

// rawProfileConfig uses pointers so an explicitly empty field is kept while
// an absent one gets the default.
type rawProfileConfig struct {
	Name         *string `yaml:"name"`
	Title        *string `yaml:"title"`
	Skills       *string `yaml:"skills"` // comma-separated
	Experience   *string `yaml:"experience"`
	Achievements string  `yaml:"achievements"`
	Tone         string  `yaml:"tone"`
	Availability string  `yaml:"availability"`
	WordCount    int     `yaml:"word_count"`
}

type rawPromptConfig struct {
	Template    string `yaml:"template"`
	MatchSkills bool   `yaml:"match_skills"`
	Urgency     string `yaml:"urgency"`
}

type rawExtractConfig struct {
	SkipEmptyParagraphs bool  `yaml:"skip_empty_paragraphs"`
	MaxUploadBytes      int64 `yaml:"max_upload_bytes"`
}

type rawServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type rawOutputConfig struct {
	Dir      string `yaml:"dir"`
	Filename string `yaml:"filename"`
}

// Path picks the config file: the flag value, then $PITCHPERFECT_CONFIG,
// then ./config.yaml. explicit is false only for the fallback.
func Path(flagValue string) (path string, explicit bool) {
	if flagValue != "" {
		return flagValue, true
	}
	if env := os.Getenv(EnvPath); env != "" {
		return env, true
	}
	return DefaultPath, false
}

// Resolve loads the file chosen by Path. A missing fallback file is not an
// error and yields the built-in defaults; a missing explicit file is.
func Resolve(flagValue string) (*Config, string, error) {
	path, explicit := Path(flagValue)
	cfg, err := Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		cfg, err = Parse(nil)
		return cfg, "", err
	}
	return cfg, path, err
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML. Empty input yields the defaults.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	timeout, err := parseDuration("inference.timeout", raw.Inference.Timeout, 60*time.Second)
	if err != nil {
		return nil, err
	}
	retryDelay, err := parseDuration("inference.retry_delay", raw.Inference.RetryDelay, 10*time.Second)
	if err != nil {
		return nil, err
	}
	maxRetryDelay, err := parseDuration("inference.max_retry_delay", raw.Inference.MaxRetryDelay, 30*time.Second)
	if err != nil {
		return nil, err
	}
	minInterval, err := parseDuration("inference.min_interval", raw.Inference.MinInterval, 0)
	if err != nil {
		return nil, err
	}

	endpoint := raw.Inference.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	apiKey := raw.Inference.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(EnvAPIKey)
	}
	maxRetries := 1 // one retry after the model-loading 503
	if raw.Inference.MaxRetries != nil {
		maxRetries = *raw.Inference.MaxRetries
	}

	params := model.GenerationParams{
		MaxNewTokens:      defaultMaxNewTokens,
		Temperature:       raw.Inference.Parameters.Temperature,
		TopP:              raw.Inference.Parameters.TopP,
		RepetitionPenalty: raw.Inference.Parameters.RepetitionPenalty,
		StopSequences:     raw.Inference.Parameters.StopSequences,
		ReturnFullText:    raw.Inference.Parameters.ReturnFullText,
	}
	if raw.Inference.Parameters.MaxNewTokens != nil {
		params.MaxNewTokens = *raw.Inference.Parameters.MaxNewTokens
	}
	if params.Temperature == nil {
		t := defaultTemperature
		params.Temperature = &t
	}

	template := model.TemplateID(raw.Prompt.Template)
	if template == "" {
		template = prompt.DefaultTemplate
	}
	urgency := model.Urgency(raw.Prompt.Urgency)
	if urgency == "" {
		urgency = model.UrgencyStandard
	}

	maxUpload := raw.Extract.MaxUploadBytes
	if maxUpload == 0 {
		maxUpload = defaultMaxUploadBytes
	}

	addr := raw.Server.Addr
	if addr == "" {
		addr = ":8080"
	}

	outDir := raw.Output.Dir
	if outDir == "" {
		outDir = "."
	}
	filename := raw.Output.Filename
	if filename == "" {
		filename = export.DefaultFilename
	}

	cfg := &Config{
		Inference: InferenceConfig{
			Endpoint:      endpoint,
			APIKey:        apiKey,
			Timeout:       timeout,
			MaxRetries:    maxRetries,
			RetryDelay:    retryDelay,
			MaxRetryDelay: maxRetryDelay,
			MinInterval:   minInterval,
			WaitForModel:  raw.Inference.WaitForModel,
			UseCache:      raw.Inference.UseCache,
			Parameters:    params,
		},
		Profile: profileFromRaw(raw.Profile),
		Prompt: PromptConfig{
			Template:    template,
			MatchSkills: raw.Prompt.MatchSkills,
			Urgency:     urgency,
		},
		Extract: ExtractConfig{
			SkipEmptyParagraphs: raw.Extract.SkipEmptyParagraphs,
			MaxUploadBytes:      maxUpload,
		},
		Server: ServerConfig{
			Addr:           addr,
			AllowedOrigins: raw.Server.AllowedOrigins,
		},
		Output: OutputConfig{
			Dir:      outDir,
			Filename: filename,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func profileFromRaw(raw rawProfileConfig) model.FreelancerProfile {
	profile := model.FreelancerProfile{
		Name:         valueOr(raw.Name, "Jane Doe"),
		Title:        valueOr(raw.Title, "AI/ML Engineer"),
		Skills:       model.ParseSkills(valueOr(raw.Skills, "Python, Deep Learning, NLP, Streamlit")),
		Experience:   valueOr(raw.Experience, defaultExperience),
		Achievements: raw.Achievements,
		Tone:         model.Tone(raw.Tone),
		Availability: model.Availability(raw.Availability),
		WordCount:    raw.WordCount,
	}
	if profile.Tone == "" {
		profile.Tone = model.ToneProfessional
	}
	return profile
}

func valueOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if cfg.Inference.Timeout <= 0 {
		return fmt.Errorf("inference.timeout must be positive, got %v", cfg.Inference.Timeout)
	}
	if cfg.Inference.RetryDelay < 0 {
		return fmt.Errorf("inference.retry_delay must not be negative, got %v", cfg.Inference.RetryDelay)
	}
	if cfg.Inference.MinInterval < 0 {
		return fmt.Errorf("inference.min_interval must not be negative, got %v", cfg.Inference.MinInterval)
	}
	if cfg.Inference.MaxRetryDelay < cfg.Inference.RetryDelay {
		return fmt.Errorf("inference.max_retry_delay (%v) must be at least inference.retry_delay (%v)",
			cfg.Inference.MaxRetryDelay, cfg.Inference.RetryDelay)
	}

	if !prompt.Known(cfg.Prompt.Template) {
		return fmt.Errorf("prompt.template %q is not a known template", cfg.Prompt.Template)
	}

	return nil
}
