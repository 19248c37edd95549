// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes sideload tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/sideload/internal/apperr"
	"github.com/starford/sideload/internal/importservice"
)

const guideURI = "sideload://import-guide"

// Server wraps the MCP server with sideload tools.
type Server struct {
	mcp *server.MCPServer
	svc *importservice.Service
}

// New creates a new MCP server with all sideload tools registered.
func New(svc *importservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Sideload",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("browse_directory",
		mcp.WithDescription("List the directories and files of a server directory beneath the import root. "+
			"Files report whether they can be imported and whether they already were."),
		mcp.WithString("path", mcp.Description("Absolute directory path (empty for the import root)")),
	), s.browseDirectory)

	s.mcp.AddTool(mcp.NewTool("import_files",
		mcp.WithDescription("Import server files into the media library, one at a time and in order. "+
			"Read the "+guideURI+" resource first."),
		mcp.WithArray("files", mcp.Required(),
			mcp.Description("Absolute file paths, as returned by browse_directory"),
			mcp.WithStringItems()),
	), s.importFiles)

	s.mcp.AddTool(mcp.NewTool("get_settings",
		mcp.WithDescription("Returns the import root, the copy/move behavior and the allowed file types."),
	), s.getSettings)

	s.mcp.AddTool(mcp.NewTool("search_assets",
		mcp.WithDescription("Search registered assets by title or storage path."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchAssets)

	s.mcp.AddResource(
		mcp.NewResource(guideURI, "Import Guide",
			mcp.WithResourceDescription("How browsing and importing server files behaves."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readGuideResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) browseDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Browse(ctx, req.GetString("path", ""))
	if err != nil {
		return mcp.NewToolResultError(apperr.Message(err)), nil
	}
	return jsonResult(res), nil
}

func (s *Server) importFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := req.RequireStringSlice("files")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Import(ctx, files)), nil
}

func (s *Server) getSettings(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Settings()), nil
}

func (s *Server) searchAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.SearchAssets(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readGuideResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      guideURI,
			MIMEType: "text/markdown",
			Text:     ImportGuide,
		},
	}, nil
}
