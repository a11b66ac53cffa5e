// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the résumé editing session for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/cvcraft/internal/apperr"
	"github.com/starford/cvcraft/internal/editor"
	"github.com/starford/cvcraft/internal/models"
	"github.com/starford/cvcraft/internal/pagination"
)

const contractURI = "cvcraft://document-format"

// Editor is the session surface exposed as tools.
type Editor interface {
	State() editor.State
	Apply(ctx context.Context, m editor.Mutation) (editor.State, error)
	Undo(ctx context.Context) editor.State
	Reset(ctx context.Context) editor.State
	RequestPaginationRefresh(headerHeight float64, sectionHeights []float64, pageHeight float64) []int
	ExportToPrintView(ctx context.Context) (editor.PrintJob, error)
}

// Server wraps the MCP server with editor tools.
type Server struct {
	mcp *server.MCPServer
	ed  Editor
}

// New creates a new MCP server with all editor tools registered.
func New(ed Editor, version string) *Server {
	s := &Server{ed: ed}

	s.mcp = server.NewMCPServer(
		"CVCraft",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Return the current résumé with its revision, checksum, page breaks and theme colour."),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("apply_mutation",
		mcp.WithDescription("Apply one editing operation to the résumé. "+
			"Read the contract first via the get_document_format tool or the "+contractURI+" resource."),
		mcp.WithString("op", mcp.Required(), mcp.Enum(opNames()...), mcp.Description("Operation name")),
		mcp.WithString("section_id", mcp.Description("Target section id")),
		mcp.WithString("entry_id", mcp.Description("Target entry id")),
		mcp.WithString("field", mcp.Description("Field to update")),
		mcp.WithString("value", mcp.Description("New field value or section title")),
		mcp.WithNumber("index", mcp.Description("add_section: insert after this index (-1 = at start)")),
		mcp.WithString("direction", mcp.Enum(string(models.Up), string(models.Down)), mcp.Description("Move direction")),
		mcp.WithString("kind", mcp.Description("Section kind for add_section, entry kind for add_entry")),
	), s.applyMutation)

	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Revert the last successful mutation. Does nothing when there is nothing to undo."),
	), s.undo)

	s.mcp.AddTool(mcp.NewTool("reset_document",
		mcp.WithDescription("Replace the résumé with the default document and clear the undo history."),
	), s.resetDocument)

	s.mcp.AddTool(mcp.NewTool("compute_page_breaks",
		mcp.WithDescription("Compute page breaks from block heights in pixels, in current section order."),
		mcp.WithNumber("header_height", mcp.Description("Height of the personal info header")),
		mcp.WithArray("section_heights", mcp.Required(),
			mcp.Items(map[string]any{"type": "number"}),
			mcp.Description("Height of each section")),
		mcp.WithNumber("page_height", mcp.Description("Printable page height; omit for the configured default")),
	), s.computePageBreaks)

	s.mcp.AddTool(mcp.NewTool("get_print_view",
		mcp.WithDescription("Render the current résumé as print-formatted HTML with page breaks applied."),
	), s.getPrintView)

	s.mcp.AddTool(mcp.NewTool("get_document_format",
		mcp.WithDescription("Returns the document and mutation contract. "+
			"Call this before applying mutations."),
	), s.getDocumentFormat)

	// Resource: document format contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Document Format Contract",
			mcp.WithResourceDescription("Résumé structure and the mutations that change it."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
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

func opNames() []string {
	out := make([]string, len(editor.Ops))
	for i, op := range editor.Ops {
		out[i] = string(op)
	}
	return out
}

// bindArgs decodes the tool arguments into v through their JSON form.
func bindArgs(req mcp.CallToolRequest, v any) error {
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func stateResult(st editor.State) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return stateResult(s.ed.State())
}

func (s *Server) applyMutation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var m editor.Mutation
	if err := bindArgs(req, &m); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	st, err := s.ed.Apply(ctx, m)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidMutation) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}
	return stateResult(st)
}

func (s *Server) undo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return stateResult(s.ed.Undo(ctx))
}

func (s *Server) resetDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return stateResult(s.ed.Reset(ctx))
}

func (s *Server) computePageBreaks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		HeaderHeight   float64   `json:"header_height"`
		SectionHeights []float64 `json:"section_heights"`
		PageHeight     float64   `json:"page_height"`
	}
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if args.SectionHeights == nil {
		return mcp.NewToolResultError("section_heights is required"), nil
	}
	breaks := s.ed.RequestPaginationRefresh(args.HeaderHeight, args.SectionHeights, args.PageHeight)
	out, _ := json.Marshal(map[string]any{
		"page_breaks": breaks,
		"pages":       pagination.PageCount(breaks),
	})
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getPrintView(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	job, err := s.ed.ExportToPrintView(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(job.HTML)), nil
}

func (s *Server) getDocumentFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readDocumentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
