package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mfenderov/draftpress/internal/converter"
	"github.com/mfenderov/draftpress/internal/journal"
	"github.com/mfenderov/draftpress/pkg/models"
)

// Config holds MCP server configuration.
type Config struct {
	Name     string
	Version  string
	Strategy string // default conversion strategy for convert_document
}

// Journal is the read side of the outcome journal.
type Journal interface {
	Search(ctx context.Context, q journal.Query) ([]models.Outcome, error)
	GetOutcome(ctx context.Context, id string) (*models.Outcome, error)
}

// Server exposes the publication journal and the converter as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	journal   Journal
	strategy  string
}

// ConvertedDocument is returned by convert_document.
type ConvertedDocument struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	ContentHTML string `json:"content_html"`
	Markdown    string `json:"markdown"`
	HasContent  bool   `json:"has_content"`
}

// NewServer creates a new MCP server. The journal may be nil, in which case
// only convert_document is registered.
func NewServer(config Config, j Journal) *Server {
	mcpServer := server.NewMCPServer(
		config.Name,
		config.Version,
		server.WithToolCapabilities(true),
	)

	s := &Server{
		mcpServer: mcpServer,
		journal:   j,
		strategy:  config.Strategy,
	}

	if j != nil {
		searchTool := mcp.NewTool("search_publications",
			mcp.WithDescription("Search past publication outcomes (drafts created and documents skipped), newest first."),
			mcp.WithString("query",
				mcp.Description("Full-text query on title, file name and skip reason"),
			),
			mcp.WithString("run_id",
				mcp.Description("Only outcomes of this run"),
			),
			mcp.WithString("status",
				mcp.Description("published or skipped"),
				mcp.Enum(string(models.StatusPublished), string(models.StatusSkipped)),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results to return (default: 20)"),
			),
		)
		mcpServer.AddTool(searchTool, s.searchHandler)

		getTool := mcp.NewTool("get_publication",
			mcp.WithDescription("Get one publication outcome by ID"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Outcome ID to retrieve"),
			),
		)
		mcpServer.AddTool(getTool, s.getPublicationHandler)
	}

	convertTool := mcp.NewTool("convert_document",
		mcp.WithDescription("Convert a local .docx file the way the publisher would, without publishing it"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the .docx file"),
		),
		mcp.WithString("strategy",
			mcp.Description("paragraphs or document (default: configured strategy)"),
			mcp.Enum(converter.StrategyParagraphs, converter.StrategyDocument),
		),
	)
	mcpServer.AddTool(convertTool, s.convertHandler)

	return s
}

// searchHandler handles the search_publications tool call.
func (s *Server) searchHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := journal.Query{
		Text:   req.GetString("query", ""),
		RunID:  req.GetString("run_id", ""),
		Status: models.Status(req.GetString("status", "")),
		Limit:  req.GetInt("limit", journal.DefaultLimit),
	}

	outcomes, err := s.journal.Search(ctx, q)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return jsonResult(outcomes)
}

// getPublicationHandler handles the get_publication tool call.
func (s *Server) getPublicationHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	outcome, err := s.journal.GetOutcome(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get publication failed: %v", err)), nil
	}

	if outcome == nil {
		return mcp.NewToolResultError(fmt.Sprintf("publication not found: %s", id)), nil
	}

	return jsonResult(outcome)
}

// convertHandler handles the convert_document tool call.
func (s *Server) convertHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path parameter is required"), nil
	}

	doc, err := s.handleConvert(path, req.GetString("strategy", s.strategy))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("convert failed: %v", err)), nil
	}

	return jsonResult(doc)
}

// handleConvert converts one document with the named strategy.
func (s *Server) handleConvert(path, strategy string) (*ConvertedDocument, error) {
	conv, err := converter.New(strategy)
	if err != nil {
		return nil, err
	}

	article, err := conv.Convert(path)
	if err != nil {
		return nil, err
	}

	doc := &ConvertedDocument{
		Title:       article.Title,
		Summary:     article.Summary,
		ContentHTML: article.ContentHTML,
		HasContent:  article.HasContent(),
	}
	if doc.HasContent {
		doc.Markdown, err = converter.Markdown(article.ContentHTML)
		if err != nil {
			return nil, fmt.Errorf("failed to render markdown: %w", err)
		}
	}
	return doc, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(result)), nil
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
