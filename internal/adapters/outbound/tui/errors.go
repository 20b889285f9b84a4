package tui

import (
	"fmt"
	"strings"

	"github.com/abdidvp/sonarfix/internal/domain"
)

var envHelp = map[string]string{
	domain.EnvSonarURL:     "Your SonarQube server URL",
	domain.EnvSonarToken:   "Your SonarQube authentication token",
	domain.EnvSonarProject: "Your project key in SonarQube",
	domain.EnvOpenAIKey:    "API key for the OpenAI-compatible reasoning service",
	domain.EnvGeminiKey:    "API key for the Gemini reasoning service",
}

// RenderMissingConfig lists the environment variables that must be set.
func RenderMissingConfig(missing []string) string {
	var b strings.Builder
	b.WriteString("\n  " + failStyle.Bold(true).Render("Missing required configuration!") + "\n\n")
	b.WriteString("  " + warnStyle.Render("Please set the following environment variables:") + "\n")
	for _, name := range missing {
		fmt.Fprintf(&b, "    %s", titleStyle.Render(name))
		if help, ok := envHelp[name]; ok {
			fmt.Fprintf(&b, " %s", dimStyle.Render("- "+help))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// RenderError formats a command failure for stderr.
func RenderError(err error) string {
	return failStyle.Render("Error:") + " " + err.Error()
}
