// Package mcp exposes the attendance conversation to MCP clients.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/podyouths/rollcall"
	"github.com/podyouths/rollcall/internal/logging"
	"github.com/podyouths/rollcall/internal/presentation/graph"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/podyouths/rollcall/pkg/ports"
	"github.com/podyouths/rollcall/pkg/runner"
)

const (
	graphURI         = "rollcall://graph"
	sessionGraphURI  = "rollcall://graph/{chat_id}"
	sessionURIPrefix = graphURI + "/"
	mermaidMIME      = "text/vnd.mermaid"
)

// Engine is what the MCP server needs from the rollcall engine.
type Engine interface {
	Handle(ctx context.Context, msg domain.Message) (domain.Reply, error)
	Session(ctx context.Context, chatID string) (*domain.Session, error)
	Gateway() ports.Gateway
	Transitions() []domain.Edge
}

// Server wraps the engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
		mcpServer: server.NewMCPServer("rollcall-mcp", strings.TrimSpace(rollcall.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on addr using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Send one chat message to the attendance conversation and return the bot's reply. Start with /start."),
		mcp.WithString("chat_id", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Message text, e.g. a cell group, a name, DONE or NONE")),
		mcp.WithString("sender_name", mcp.Description("First name of the person typing (optional)")),
		mcp.WithOutputSchema[runner.Response](),
	), mcp.NewStructuredToolHandler(s.handleSendMessage))

	s.mcpServer.AddTool(mcp.NewTool("list_cell_groups",
		mcp.WithDescription("List the known cell groups."),
	), s.handleListCellGroups)

	s.mcpServer.AddTool(mcp.NewTool("attendance_report",
		mcp.WithDescription("List the attendance records of a cell group on one date."),
		mcp.WithString("cell_group", mcp.Required(), mcp.Description("Cell group name")),
		mcp.WithString("date", mcp.Required(), mcp.Description("Meeting date as YYYY-MM-DD")),
	), s.handleAttendanceReport)
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (runner.Response, error) {
	chatID, _ := args["chat_id"].(string)
	text, _ := args["text"].(string)
	sender, _ := args["sender_name"].(string)
	if chatID == "" {
		return runner.Response{}, errors.New("chat_id is required")
	}

	resp, err := runner.HandleAndRespond(ctx, s.engine, domain.Message{ChatID: chatID, Text: text, SenderName: sender})
	if err != nil {
		s.logger.Warn("MCP send_message failed", "chat_id", chatID, "err", err)
		return runner.Response{}, err
	}
	return *resp, nil
}

func (s *Server) handleListCellGroups(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cells, err := s.engine.Gateway().CellGroups(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list cell groups failed: %v", err)), nil
	}
	if cells == nil {
		cells = []string{}
	}
	out, _ := json.Marshal(cells)
	return mcp.NewToolResultText(string(out)), nil
}

type reportRecord struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (s *Server) handleAttendanceReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cell, err := request.RequireString("cell_group")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := request.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := domain.ParseDate(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	reader, ok := s.engine.Gateway().(ports.AttendanceReader)
	if !ok {
		return mcp.NewToolResultError("attendance reports are not supported by this store"), nil
	}
	records, err := reader.Attendance(ctx, cell, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("attendance report failed: %v", err)), nil
	}

	out := make([]reportRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, reportRecord{Name: rec.Name, Status: string(rec.Status)})
	}
	body, _ := json.Marshal(out)
	return mcp.NewToolResultText(string(body)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Conversation graph",
		mcp.WithResourceDescription("Mermaid flowchart of the attendance conversation"),
		mcp.WithMIMEType(mermaidMIME),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return s.graphContents(graphURI, nil), nil
	})

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(sessionGraphURI, "Conversation graph of a chat",
		mcp.WithTemplateDescription("Mermaid flowchart highlighting the step a chat is on"),
		mcp.WithTemplateMIMEType(mermaidMIME),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := request.Params.URI
		chatID := strings.TrimPrefix(uri, sessionURIPrefix)
		if chatID == "" || chatID == uri {
			return nil, fmt.Errorf("invalid resource uri %q", uri)
		}
		session, err := s.engine.Session(ctx, chatID)
		if err != nil {
			return nil, fmt.Errorf("failed to load session %s: %w", chatID, err)
		}
		return s.graphContents(uri, &graph.Overlay{CurrentStep: session.Step}), nil
	})
}

func (s *Server) graphContents(uri string, overlay *graph.Overlay) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mermaidMIME,
			Text:     graph.GenerateMermaid(s.engine.Transitions(), overlay),
		},
	}
}
