// Package mcp implements the Model Context Protocol server for Hinagata.
//
// The MCP server exposes the stored agent definitions as MCP prompts,
// resources, and tools, allowing MCP-compatible clients to browse the
// catalog and render composed prompts with live field values.
package mcp

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ashita-ai/hinagata/internal/storage"
)

// Server wraps the MCP server with Hinagata's storage layer.
type Server struct {
	mcpServer *mcpserver.MCPServer
	db        *storage.DB
	logger    *slog.Logger

	mu         sync.Mutex
	registered map[uuid.UUID]string // agent id -> prompt name
}

// New creates and configures a new MCP server with all resources and tools.
// Call SyncPrompts to populate the prompt list from the store.
func New(db *storage.DB, logger *slog.Logger, version string) *Server {
	s := &Server{
		db:         db,
		logger:     logger,
		registered: make(map[uuid.UUID]string),
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"hinagata",
		version,
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(true),
	)

	s.registerResources()
	s.registerTools()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}
