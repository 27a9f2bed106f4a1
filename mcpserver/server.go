// Package mcpserver exposes design comparison as Model Context Protocol tools
// so a chat assistant can run analyses and fetch the stored report.
package mcpserver

import (
	"bytes"
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/teranos/pixelcheck/analysis"
	"github.com/teranos/pixelcheck/errors"
	"github.com/teranos/pixelcheck/logger"
	"github.com/teranos/pixelcheck/report"
	"github.com/teranos/pixelcheck/session"
	"github.com/teranos/pixelcheck/version"
)

// defaultUser keys sessions when the caller gives no user_id
const defaultUser = "default"

// Server wraps an Analyzer and a session Store behind MCP tools
type Server struct {
	analyzer *analysis.Analyzer
	store    *session.Store
	logger   *zap.SugaredLogger
	server   *server.MCPServer
}

// New creates the MCP server and registers its tools
func New(analyzer *analysis.Analyzer, store *session.Store, log *zap.SugaredLogger) *Server {
	s := &Server{
		analyzer: analyzer,
		store:    store,
		logger:   logger.OrNop(log),
	}
	s.server = server.NewMCPServer(
		"pixelcheck",
		version.Get().Version,
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	designArg := func(name, platform string) mcp.ToolOption {
		return mcp.WithString(name,
			mcp.Required(),
			mcp.Description("Figma URL, file key, or inline design JSON for "+platform),
		)
	}

	compareTool := mcp.NewTool("compare_designs",
		mcp.WithDescription("Compare Android, iOS and Web designs and report cross-platform consistency"),
		designArg("android", "Android"),
		designArg("ios", "iOS"),
		designArg("web", "Web"),
		mcp.WithString("user_id",
			mcp.Description("Session key for get_report (default: \"default\")"),
		),
		mcp.WithBoolean("cards",
			mcp.Description("Also extract feature cards per platform (default: false)"),
		),
	)
	s.server.AddTool(compareTool, s.handleCompare)

	cardsTool := mcp.NewTool("extract_cards",
		mcp.WithDescription("List the feature cards of one design with their icon and text inventory"),
		designArg("design", "the design"),
	)
	s.server.AddTool(cardsTool, s.handleExtractCards)

	reportTool := mcp.NewTool("get_report",
		mcp.WithDescription("Return the latest stored comparison for a user or session"),
		mcp.WithString("user_id",
			mcp.Description("User whose latest report to return (default: \"default\")"),
		),
		mcp.WithString("session_id",
			mcp.Description("Session id returned by compare_designs; overrides user_id"),
		),
		mcp.WithString("format",
			mcp.Description("text or json (default: text)"),
			mcp.Enum("text", "json"),
		),
	)
	s.server.AddTool(reportTool, s.handleGetReport)
}

// sourceFrom treats arguments starting with '{' as inline JSON
func sourceFrom(arg string) analysis.Source {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "{") {
		return analysis.Source{Raw: []byte(arg)}
	}
	return analysis.Source{URL: arg}
}

func toolError(err error) *mcp.CallToolResult {
	msg := err.Error()
	if hints := errors.FlattenHints(err); hints != "" {
		msg += "\nhint: " + hints
	}
	return mcp.NewToolResultError(msg)
}

func (s *Server) handleCompare(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in analysis.Inputs
	for _, arg := range []struct {
		name string
		dst  *analysis.Source
	}{{"android", &in.Android}, {"ios", &in.IOS}, {"web", &in.Web}} {
		v, err := request.RequireString(arg.name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		*arg.dst = sourceFrom(v)
	}
	in.Cards = request.GetBool("cards", false)
	userID := request.GetString("user_id", defaultUser)

	rep, err := s.analyzer.Run(ctx, in)
	if err != nil {
		return toolError(err), nil
	}
	sess, err := s.store.Put(userID, rep)
	if err != nil {
		return toolError(err), nil
	}
	s.logger.Infow("MCP comparison stored", logger.FieldSessionID, sess.ID, logger.FieldUserID, userID)

	var buf bytes.Buffer
	if err := report.RenderText(&buf, rep, false); err != nil {
		return toolError(err), nil
	}
	buf.WriteString("session " + sess.ID + "\n")
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) handleExtractCards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	arg, err := request.RequireString("design")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.analyzer.ExtractOne(ctx, sourceFrom(arg))
	if err != nil {
		return toolError(err), nil
	}

	h := s.analyzer.Extractor().ExtractHierarchical(doc.Root)
	var buf bytes.Buffer
	if err := report.RenderCards(&buf, h); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) handleGetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		sess *session.Session
		err  error
	)
	if id := request.GetString("session_id", ""); id != "" {
		sess, err = s.store.GetByID(id)
	} else {
		sess, err = s.store.Get(request.GetString("user_id", defaultUser))
	}
	if err != nil {
		return toolError(errors.WithHint(err, "run compare_designs first")), nil
	}

	if request.GetString("format", "text") == "json" {
		data, err := report.MarshalJSON(sess.Report)
		if err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	var buf bytes.Buffer
	if err := report.RenderText(&buf, sess.Report, false); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

// Serve runs the server over stdio until the client disconnects
func (s *Server) Serve() error {
	return server.ServeStdio(s.server)
}
