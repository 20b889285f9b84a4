package cli

import (
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	mcpadapter "github.com/abdidvp/sonarfix/internal/adapters/inbound/mcp"
	"github.com/abdidvp/sonarfix/internal/adapters/outbound/config"
	"github.com/abdidvp/sonarfix/internal/adapters/outbound/history"
	"github.com/abdidvp/sonarfix/internal/adapters/outbound/snapshot"
	"github.com/abdidvp/sonarfix/internal/adapters/outbound/sonarqube"
)

func newMCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the sonarfix MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd(a))
	return cmd
}

func newMCPServeCmd(a *app) *cobra.Command {
	var projectPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start sonarfix MCP server (stdio)",
		Long:  "Start the sonarfix MCP server using stdio transport. This allows AI coding assistants to fetch grouped issues and read saved snapshots.",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(projectPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			settings, err := config.New().Load(root)
			if err != nil {
				return err
			}

			deps := mcpadapter.Deps{
				RepoRoot:  root,
				Settings:  settings,
				Snapshots: snapshot.New(),
				History:   history.New(),
				Logger:    a.logger,
			}
			if err := settings.Validate(); err != nil {
				deps.SourceErr = err
			} else {
				deps.Source = sonarqube.New(&settings, sonarqube.WithLogger(a.logger))
			}

			s := mcpadapter.NewSonarfixMCPServer(version, deps)
			return server.ServeStdio(s)
		},
	}

	cmd.Flags().StringVar(&projectPath, "path", ".", "Repository root (defaults to current working directory)")

	return cmd
}
