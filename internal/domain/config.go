package domain

import (
	"fmt"
	"time"
)

// Environment variable names.
const (
	EnvSonarURL      = "SONAR_URL"
	EnvSonarToken    = "SONAR_TOKEN"
	EnvSonarProject  = "SONAR_PROJECT_KEY"
	EnvAgentProvider = "SONARFIX_AGENT"
	EnvAgentModel    = "SONARFIX_MODEL"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	EnvGeminiKey     = "GEMINI_API_KEY"
)

// AgentProvider selects the reasoning service backend.
type AgentProvider string

const (
	ProviderOpenAI AgentProvider = "openai"
	ProviderGemini AgentProvider = "gemini"
)

var ValidAgentProviders = []AgentProvider{ProviderOpenAI, ProviderGemini}

const (
	DefaultSonarTimeout = 30 * time.Second
	DefaultAgentTimeout = 180 * time.Second
	DefaultOpenAIModel  = "gpt-4o"
	DefaultGeminiModel  = "gemini-2.5-flash"
)

// AgentConfig configures the reasoning service.
type AgentConfig struct {
	Provider AgentProvider `yaml:"provider" json:"provider"`
	Model    string        `yaml:"model"    json:"model"`
	BaseURL  string        `yaml:"base_url" json:"base_url,omitempty"`
	Timeout  time.Duration `yaml:"timeout"  json:"timeout"`
	APIKey   string        `yaml:"-"        json:"-"`
}

// Validate checks that the selected provider has what it needs to run.
func (a AgentConfig) Validate() error {
	switch a.Provider {
	case ProviderOpenAI:
		// Local OpenAI-compatible servers accept unauthenticated requests.
		if a.APIKey == "" && a.BaseURL == "" {
			return &ConfigError{Missing: []string{EnvOpenAIKey}}
		}
	case ProviderGemini:
		if a.APIKey == "" {
			return &ConfigError{Missing: []string{EnvGeminiKey}}
		}
	default:
		return &ConfigError{Err: fmt.Errorf("unknown agent provider %q (valid: openai, gemini)", a.Provider)}
	}
	if a.Timeout <= 0 {
		return &ConfigError{Err: fmt.Errorf("agent timeout must be > 0 (got %s)", a.Timeout)}
	}
	return nil
}

// GitConfig sets the identity used for auto-commits. Empty values fall back to
// the repository's git config.
type GitConfig struct {
	AuthorName  string `yaml:"author_name"  json:"author_name,omitempty"`
	AuthorEmail string `yaml:"author_email" json:"author_email,omitempty"`
}

// Settings is loaded once at startup and passed to every component that needs it.
type Settings struct {
	SonarURL     string          `json:"sonar_url"`
	SonarToken   string          `json:"-"`
	ProjectKey   string          `json:"project_key"`
	SonarTimeout time.Duration   `json:"sonar_timeout"`
	Defaults     RetrievalFilter `json:"defaults"`
	Agent        AgentConfig     `json:"agent"`
	ExcludePaths []string        `json:"exclude_paths,omitempty"`
	Git          GitConfig       `json:"git"`
}

// Validate reports every missing required server variable at once.
func (s *Settings) Validate() error {
	var missing []string
	if s.SonarURL == "" {
		missing = append(missing, EnvSonarURL)
	}
	if s.SonarToken == "" {
		missing = append(missing, EnvSonarToken)
	}
	if s.ProjectKey == "" {
		missing = append(missing, EnvSonarProject)
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	if err := s.Defaults.Validate(); err != nil {
		return &ConfigError{Err: err}
	}
	return nil
}

// FileDefaults mirrors the defaults section of .sonarfix.yaml.
type FileDefaults struct {
	Severities       []string `yaml:"severities"`
	ImpactSeverities []string `yaml:"impact_severities"`
	Types            []string `yaml:"types"`
	Statuses         []string `yaml:"statuses"`
	MaxIssues        int      `yaml:"max_issues"`
}

// FileAgent mirrors the agent section of .sonarfix.yaml.
type FileAgent struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// ProjectConfig is the optional .sonarfix.yaml file in the repository root.
type ProjectConfig struct {
	Defaults     FileDefaults `yaml:"defaults"`
	Agent        FileAgent    `yaml:"agent"`
	ExcludePaths []string     `yaml:"exclude_paths"`
	Git          GitConfig    `yaml:"git"`
}

// Validate checks the config for invalid values and returns a descriptive error.
func (c ProjectConfig) Validate() error {
	for _, s := range c.Defaults.Severities {
		if _, err := ParseSeverity(s); err != nil {
			return fmt.Errorf("defaults.severities: %w", err)
		}
	}
	for _, s := range c.Defaults.ImpactSeverities {
		if _, err := ParseImpactSeverity(s); err != nil {
			return fmt.Errorf("defaults.impact_severities: %w", err)
		}
	}
	for _, t := range c.Defaults.Types {
		if _, err := ParseIssueType(t); err != nil {
			return fmt.Errorf("defaults.types: %w", err)
		}
	}
	for _, s := range c.Defaults.Statuses {
		if _, err := ParseStatus(s); err != nil {
			return fmt.Errorf("defaults.statuses: %w", err)
		}
	}
	if c.Defaults.MaxIssues < 0 || c.Defaults.MaxIssues > MaxIssuesLimit {
		return fmt.Errorf("defaults.max_issues must be between 1 and %d (got %d)", MaxIssuesLimit, c.Defaults.MaxIssues)
	}

	if c.Agent.Provider != "" && !isValidProvider(AgentProvider(c.Agent.Provider)) {
		return fmt.Errorf("unknown agent.provider %q (valid: openai, gemini)", c.Agent.Provider)
	}
	if c.Agent.Timeout != "" {
		d, err := time.ParseDuration(c.Agent.Timeout)
		if err != nil {
			return fmt.Errorf("agent.timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("agent.timeout must be > 0 (got %s)", d)
		}
	}

	for i, p := range c.ExcludePaths {
		if p == "" {
			return fmt.Errorf("exclude_paths[%d] must not be empty", i)
		}
	}
	return nil
}

func isValidProvider(p AgentProvider) bool {
	for _, v := range ValidAgentProviders {
		if v == p {
			return true
		}
	}
	return false
}

// DefaultSettings returns settings with every optional value filled in.
func DefaultSettings() Settings {
	return Settings{
		SonarTimeout: DefaultSonarTimeout,
		Defaults:     DefaultFilter(),
		Agent: AgentConfig{
			Provider: ProviderOpenAI,
			Model:    DefaultOpenAIModel,
			Timeout:  DefaultAgentTimeout,
		},
	}
}
