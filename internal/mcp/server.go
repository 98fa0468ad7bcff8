// Package mcp exposes deckfile imports over the Model Context Protocol.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deckfile/deckfile/internal/collection"
	"github.com/deckfile/deckfile/internal/config"
	"github.com/deckfile/deckfile/internal/database"
	"github.com/deckfile/deckfile/internal/importer"
	"github.com/deckfile/deckfile/internal/parser"
	"github.com/deckfile/deckfile/internal/session"
)

// Server wraps the MCP server with deckfile-specific functionality.
type Server struct {
	server   *mcp.Server
	dbCtx    *database.Context
	engine   *importer.Engine
	sessions *session.FileStore
	settings config.Settings
}

// NewServer creates a new MCP server instance.
func NewServer() (*Server, error) {
	settings, err := config.LoadSettings("")
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	dbCtx, err := database.CreateDatabase("")
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	sessions := session.NewFileStore(config.GetSessionsDir())
	engine := importer.NewEngine(collection.NewSQLiteStore(dbCtx), sessions, settings)

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "deckfile",
		Version: "0.1.0",
	}, nil)

	s := &Server{
		server:   mcpServer,
		dbCtx:    dbCtx,
		engine:   engine,
		sessions: sessions,
		settings: settings,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context) error {
	defer database.CloseDatabase(s.dbCtx)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	// deckfile_check
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "deckfile_check",
		Description: "Parse a deckfile document and report its sections and warnings without importing",
	}, s.handleCheck)

	// deckfile_import
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "deckfile_import",
		Description: "Import a deckfile document into the card collection",
	}, s.handleImport)

	// deckfile_sessions
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "deckfile_sessions",
		Description: "List recorded import sessions, newest first",
	}, s.handleSessions)

	// deckfile_apply_strategy
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "deckfile_apply_strategy",
		Description: "Change how specific lines of a past import resolved their duplicates",
	}, s.handleApplyStrategy)

	// deckfile_rollback
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "deckfile_rollback",
		Description: "Undo every mutation an import session performed",
	}, s.handleRollback)
}

// Input/Output types for each tool

type CheckInput struct {
	Text string `json:"text" jsonschema:"required,description=The deckfile document text to parse"`
}

type CheckSection struct {
	DeckName    string `json:"deckName"`
	NoteType    string `json:"noteType"`
	Rows        int    `json:"rows"`
	StartLineNo int    `json:"startLineNo"`
}

type CheckWarning struct {
	Message string `json:"message"`
	LineNo  int    `json:"lineNo"`
}

type CheckOutput struct {
	Sections []CheckSection `json:"sections"`
	Warnings []CheckWarning `json:"warnings"`
	Rows     int            `json:"rows"`
}

type ImportInput struct {
	Text       string  `json:"text" jsonschema:"required,description=The deckfile document text to import"`
	SourcePath *string `json:"sourcePath,omitempty" jsonschema:"description=Label recorded as the session's source path"`
	Mode       *string `json:"mode,omitempty" jsonschema:"enum=duplicate;update;skip,description=Duplicate policy overriding the configured default"`
}

type ImportOutput struct {
	SessionID string         `json:"sessionId"`
	Added     int            `json:"added"`
	Updated   int            `json:"updated"`
	Skipped   int            `json:"skipped"`
	Errors    []string       `json:"errors"`
	Warnings  []CheckWarning `json:"warnings,omitempty"`
}

type SessionsInput struct {
	Limit *int `json:"limit,omitempty" jsonschema:"description=Maximum number of sessions to return"`
}

type SessionEntry struct {
	SessionID     string `json:"sessionId"`
	CreatedAt     string `json:"createdAt"`
	SourcePath    string `json:"sourcePath"`
	DuplicateMode string `json:"duplicateMode"`
	Items         int    `json:"items"`
}

type SessionsOutput struct {
	Sessions []SessionEntry `json:"sessions"`
}

type ApplyStrategyInput struct {
	SessionID string `json:"sessionId" jsonschema:"required,description=The import session to adjust"`
	LineNos   []int  `json:"lineNos" jsonschema:"required,description=Source line numbers whose policy should change"`
	Mode      string `json:"mode" jsonschema:"required,enum=duplicate;update;skip,description=Target duplicate policy"`
}

type ApplyStrategyOutput struct {
	Applied int      `json:"applied"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

type RollbackInput struct {
	SessionID *string `json:"sessionId,omitempty" jsonschema:"description=The session to roll back (latest if not specified)"`
}

type RollbackOutput struct {
	SessionID string   `json:"sessionId"`
	Restored  int      `json:"restored"`
	Deleted   int      `json:"deleted"`
	Errors    []string `json:"errors"`
}

func (s *Server) parserOptions() parser.Options {
	return parser.Options{
		DeckLinePrefix:  s.settings.DeckLinePrefix,
		AllowASCIIColon: s.settings.TypeLineAllowASCIIColon,
	}
}

// Tool handlers

func (s *Server) handleCheck(ctx context.Context, req *mcp.CallToolRequest, input CheckInput) (*mcp.CallToolResult, CheckOutput, error) {
	parsed := parser.ParseText(input.Text, s.parserOptions())

	out := CheckOutput{
		Sections: []CheckSection{},
		Warnings: []CheckWarning{},
		Rows:     parsed.RowCount(),
	}
	for _, section := range parsed.Sections {
		out.Sections = append(out.Sections, CheckSection{
			DeckName:    section.DeckName,
			NoteType:    section.NoteType,
			Rows:        len(section.Rows),
			StartLineNo: section.StartLineNo,
		})
	}
	for _, warning := range parsed.Warnings {
		out.Warnings = append(out.Warnings, CheckWarning{Message: warning.Message, LineNo: warning.LineNo})
	}
	return nil, out, nil
}

func (s *Server) handleImport(ctx context.Context, req *mcp.CallToolRequest, input ImportInput) (*mcp.CallToolResult, ImportOutput, error) {
	engine := s.engine
	if input.Mode != nil {
		mode, err := session.ParseDuplicateMode(*input.Mode)
		if err != nil {
			return nil, ImportOutput{}, err
		}
		settings := s.settings
		settings.DuplicateMode = mode.String()
		engine = importer.NewEngine(collection.NewSQLiteStore(s.dbCtx), s.sessions, settings)
	}

	sourcePath := "mcp"
	if input.SourcePath != nil {
		sourcePath = *input.SourcePath
	}

	parsed := parser.ParseText(input.Text, s.parserOptions())
	result, err := engine.Import(ctx, parsed, sourcePath)
	if err != nil {
		return nil, ImportOutput{}, fmt.Errorf("failed to import: %w", err)
	}

	out := ImportOutput{
		SessionID: result.SessionID,
		Added:     result.Added,
		Updated:   result.Updated,
		Skipped:   result.Skipped,
		Errors:    result.Errors,
	}
	for _, warning := range parsed.Warnings {
		out.Warnings = append(out.Warnings, CheckWarning{Message: warning.Message, LineNo: warning.LineNo})
	}
	return nil, out, nil
}

func (s *Server) handleSessions(ctx context.Context, req *mcp.CallToolRequest, input SessionsInput) (*mcp.CallToolResult, SessionsOutput, error) {
	sessions, err := s.sessions.ListAll()
	if err != nil {
		return nil, SessionsOutput{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	if input.Limit != nil && *input.Limit >= 0 && len(sessions) > *input.Limit {
		sessions = sessions[:*input.Limit]
	}

	out := SessionsOutput{Sessions: []SessionEntry{}}
	for _, sess := range sessions {
		out.Sessions = append(out.Sessions, SessionEntry{
			SessionID:     sess.SessionID,
			CreatedAt:     sess.CreatedAt.Format("2006-01-02 15:04:05"),
			SourcePath:    sess.SourcePath,
			DuplicateMode: sess.DuplicateMode,
			Items:         len(sess.Items),
		})
	}
	return nil, out, nil
}

func (s *Server) handleApplyStrategy(ctx context.Context, req *mcp.CallToolRequest, input ApplyStrategyInput) (*mcp.CallToolResult, ApplyStrategyOutput, error) {
	mode, err := session.ParseDuplicateMode(input.Mode)
	if err != nil {
		return nil, ApplyStrategyOutput{}, err
	}

	result, err := s.engine.ApplyDuplicateStrategy(ctx, input.SessionID, input.LineNos, mode)
	if err != nil {
		return nil, ApplyStrategyOutput{}, fmt.Errorf("failed to apply strategy: %w", err)
	}

	return nil, ApplyStrategyOutput{
		Applied: result.Applied,
		Skipped: result.Skipped,
		Errors:  result.Errors,
	}, nil
}

func (s *Server) handleRollback(ctx context.Context, req *mcp.CallToolRequest, input RollbackInput) (*mcp.CallToolResult, RollbackOutput, error) {
	var (
		sess *session.ImportSession
		err  error
	)
	if input.SessionID != nil {
		sess, err = s.sessions.Load(*input.SessionID)
	} else {
		sess, err = s.sessions.LoadLatest()
	}
	if err != nil {
		return nil, RollbackOutput{}, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return nil, RollbackOutput{}, fmt.Errorf("no import session found")
	}

	result, err := s.engine.RollbackSession(ctx, sess)
	if err != nil {
		return nil, RollbackOutput{}, fmt.Errorf("failed to roll back: %w", err)
	}

	return nil, RollbackOutput{
		SessionID: sess.SessionID,
		Restored:  result.Restored,
		Deleted:   result.Deleted,
		Errors:    result.Errors,
	}, nil
}
