package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerResources registers all sonarfix MCP resources on the given server.
func registerResources(s *server.MCPServer, deps Deps) {
	// 1. sonarfix://history - recorded fix runs
	s.AddResource(
		mcplib.NewResource(
			"sonarfix://history",
			"Run History",
			mcplib.WithResourceDescription("Recorded fix runs for this repository"),
			mcplib.WithMIMEType("application/json"),
		),
		handleHistoryResource(deps),
	)

	// 2. sonarfix://config - effective settings, without secrets
	s.AddResource(
		mcplib.NewResource(
			"sonarfix://config",
			"Settings",
			mcplib.WithResourceDescription("Effective server, filter and agent settings"),
			mcplib.WithMIMEType("application/json"),
		),
		handleConfigResource(deps),
	)
}

func handleHistoryResource(deps Deps) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		entries, err := deps.History.Load(deps.RepoRoot)
		if err != nil {
			return nil, fmt.Errorf("loading history: %w", err)
		}
		return jsonResource("sonarfix://history", entries)
	}
}

func handleConfigResource(deps Deps) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		return jsonResource("sonarfix://config", deps.Settings)
	}
}

func jsonResource(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
