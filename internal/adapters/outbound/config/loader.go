// Package config builds domain.Settings from .sonarfix.yaml and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abdidvp/sonarfix/internal/domain"
)

const fileName = ".sonarfix.yaml"

// Loader reads the optional project file and overlays environment variables.
type Loader struct {
	getenv func(string) string
}

// New creates a Loader reading the process environment.
func New() *Loader { return &Loader{getenv: os.Getenv} }

// NewWithEnv creates a Loader with a custom environment lookup.
func NewWithEnv(getenv func(string) string) *Loader { return &Loader{getenv: getenv} }

// LoadProject reads .sonarfix.yaml from repoRoot.
// Returns an empty config if the file does not exist.
func (l *Loader) LoadProject(repoRoot string) (domain.ProjectConfig, error) {
	data, err := os.ReadFile(filepath.Join(repoRoot, fileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ProjectConfig{}, nil
		}
		return domain.ProjectConfig{}, err
	}

	var cfg domain.ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.ProjectConfig{}, fmt.Errorf("parsing %s: %w", fileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return domain.ProjectConfig{}, fmt.Errorf("invalid %s: %w", fileName, err)
	}
	return cfg, nil
}

// Load returns settings with precedence environment > project file > defaults.
// Required values are not checked here; call Settings.Validate.
func (l *Loader) Load(repoRoot string) (domain.Settings, error) {
	cfg, err := l.LoadProject(repoRoot)
	if err != nil {
		return domain.Settings{}, &domain.ConfigError{Err: err}
	}

	settings := domain.DefaultSettings()
	applyProject(&settings, cfg)
	l.applyEnv(&settings)
	return settings, nil
}

// applyProject overlays explicit file values. Validate has already run.
func applyProject(s *domain.Settings, cfg domain.ProjectConfig) {
	d := cfg.Defaults
	if len(d.Severities) > 0 {
		s.Defaults.Severities = nil
		for _, v := range d.Severities {
			sev, _ := domain.ParseSeverity(v)
			s.Defaults.Severities = append(s.Defaults.Severities, sev)
		}
	}
	if len(d.ImpactSeverities) > 0 {
		s.Defaults.ImpactSeverities = nil
		for _, v := range d.ImpactSeverities {
			imp, _ := domain.ParseImpactSeverity(v)
			s.Defaults.ImpactSeverities = append(s.Defaults.ImpactSeverities, imp)
		}
	}
	if len(d.Types) > 0 {
		s.Defaults.Types = nil
		for _, v := range d.Types {
			typ, _ := domain.ParseIssueType(v)
			s.Defaults.Types = append(s.Defaults.Types, typ)
		}
	}
	if len(d.Statuses) > 0 {
		s.Defaults.Statuses = nil
		for _, v := range d.Statuses {
			st, _ := domain.ParseStatus(v)
			s.Defaults.Statuses = append(s.Defaults.Statuses, st)
		}
	}
	if d.MaxIssues > 0 {
		s.Defaults.MaxIssues = d.MaxIssues
	}

	if cfg.Agent.Provider != "" {
		s.Agent.Provider = domain.AgentProvider(cfg.Agent.Provider)
		s.Agent.Model = defaultModel(s.Agent.Provider)
	}
	if cfg.Agent.Model != "" {
		s.Agent.Model = cfg.Agent.Model
	}
	if cfg.Agent.BaseURL != "" {
		s.Agent.BaseURL = cfg.Agent.BaseURL
	}
	if cfg.Agent.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Agent.Timeout); err == nil {
			s.Agent.Timeout = d
		}
	}

	s.ExcludePaths = cfg.ExcludePaths
	s.Git = cfg.Git
}

func (l *Loader) applyEnv(s *domain.Settings) {
	s.SonarURL = strings.TrimSpace(l.getenv(domain.EnvSonarURL))
	s.SonarToken = strings.TrimSpace(l.getenv(domain.EnvSonarToken))
	s.ProjectKey = strings.TrimSpace(l.getenv(domain.EnvSonarProject))

	if v := l.getenv(domain.EnvAgentProvider); v != "" {
		provider := domain.AgentProvider(strings.ToLower(strings.TrimSpace(v)))
		if provider != s.Agent.Provider {
			s.Agent.Provider = provider
			s.Agent.Model = defaultModel(provider)
		}
	}
	if v := l.getenv(domain.EnvAgentModel); v != "" {
		s.Agent.Model = v
	}

	switch s.Agent.Provider {
	case domain.ProviderGemini:
		s.Agent.APIKey = l.getenv(domain.EnvGeminiKey)
	default:
		s.Agent.APIKey = l.getenv(domain.EnvOpenAIKey)
		if v := l.getenv(domain.EnvOpenAIBaseURL); v != "" {
			s.Agent.BaseURL = v
		}
	}
}

func defaultModel(p domain.AgentProvider) string {
	if p == domain.ProviderGemini {
		return domain.DefaultGeminiModel
	}
	return domain.DefaultOpenAIModel
}
