// Package mcp exposes issue retrieval and snapshots over the Model Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/abdidvp/sonarfix/internal/domain"
)

// Deps are the collaborators the MCP handlers use. Source is nil when the
// server configuration is incomplete; fetch calls then report SourceErr.
type Deps struct {
	RepoRoot  string
	Settings  domain.Settings
	Source    domain.IssueSource
	SourceErr error
	Snapshots domain.SnapshotStore
	History   domain.RunHistory
	Logger    *zap.Logger
}

// NewSonarfixMCPServer creates a new MCP server with all sonarfix tools and
// resources registered.
func NewSonarfixMCPServer(version string, deps Deps) *server.MCPServer {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := server.NewMCPServer(
		"sonarfix",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, deps)
	registerResources(s, deps)

	return s
}
