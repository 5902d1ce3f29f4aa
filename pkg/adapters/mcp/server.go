package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/onboard"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/aretw0/onboard/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sourcegraph/conc"
)

// StagesURI is the resource listing the stage catalog.
const StagesURI = "onboard://stages"

// Engine defines what the MCP server needs from the onboarding engine.
type Engine interface {
	ports.SessionEngine
}

// waiter is implemented by engines that run effects in the background.
type waiter interface {
	Wait()
}

// SessionResponse aligns with the HTTP SessionView and provides a unified
// structure across adapters.
type SessionResponse struct {
	Session *domain.SessionView `json:"session" jsonschema_description:"The session after the call, including every turn"`
	Choices []domain.Choice     `json:"choices" jsonschema_description:"Choices offered by the most recent system turn that has any"`
}

type startArgs struct {
	SessionID      string `json:"session_id"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	Token          string `json:"token"`
}

type inputArgs struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	Text      string `json:"text"`
}

type jumpArgs struct {
	SessionID string `json:"session_id"`
	Stage     string `json:"stage"`
}

type fileArgs struct {
	SessionID string `json:"session_id"`
	Stage     string `json:"stage"`
	Name      string `json:"name"`
	Content   string `json:"content"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

// Server wraps the onboarding Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("onboard-mcp", onboard.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when
// ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	var wg conc.WaitGroup
	wg.Go(func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	})
	defer wg.Wait()

	select {
	case err := <-serverErrors:
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	startTool := mcp.NewTool("start_session",
		mcp.WithDescription("Start a guided setup session, or resume it when session_id already exists."),
		mcp.WithString("session_id", mcp.Description("Session ID (generated when omitted)")),
		mcp.WithString("role", mcp.Required(), mcp.Enum(string(domain.RolePlatformAdmin), string(domain.RoleOrgAdmin)),
			mcp.Description("Actor role")),
		mcp.WithString("organization_id", mcp.Description("Organization the actor belongs to")),
		mcp.WithString("user_id", mcp.Description("Actor user ID, recorded as the creator of imports")),
		mcp.WithString("token", mcp.Description("API token used for invitations and imports")),
		mcp.WithOutputSchema[SessionResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStart))

	inputTool := mcp.NewTool("send_input",
		mcp.WithDescription("Send a user event: either a choice token from the latest turn or free text."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("token", mcp.Description("Choice token, e.g. skip_team")),
		mcp.WithString("text", mcp.Description("Free text, used when token is empty")),
		mcp.WithOutputSchema[SessionResponse](),
	)
	s.mcpServer.AddTool(inputTool, mcp.NewStructuredToolHandler(s.handleInput))

	jumpTool := mcp.NewTool("jump_to_stage",
		mcp.WithDescription("Move the session directly to an applicable stage."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("stage", mcp.Required(), mcp.Description("Target stage ID")),
		mcp.WithOutputSchema[SessionResponse](),
	)
	s.mcpServer.AddTool(jumpTool, mcp.NewStructuredToolHandler(s.handleJump))

	fileTool := mcp.NewTool("select_file",
		mcp.WithDescription("Hand a CSV file to a stage for validation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("stage", mcp.Required(), mcp.Description("Stage that receives the file")),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name")),
		mcp.WithString("content", mcp.Required(), mcp.Description("CSV content")),
		mcp.WithOutputSchema[SessionResponse](),
	)
	s.mcpServer.AddTool(fileTool, mcp.NewStructuredToolHandler(s.handleFile))

	getTool := mcp.NewTool("get_session",
		mcp.WithDescription("Get the current view of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[SessionResponse](),
	)
	s.mcpServer.AddTool(getTool, mcp.NewStructuredToolHandler(s.handleGet))
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args startArgs) (SessionResponse, error) {
	sc := domain.SessionContext{
		ActorRole:       domain.Role(args.Role),
		OrganizationID:  args.OrganizationID,
		UserID:          args.UserID,
		IsAuthenticated: args.Token != "",
		AuthToken:       args.Token,
	}
	if !sc.ActorRole.Valid() {
		return SessionResponse{}, fmt.Errorf("unsupported role %q", args.Role)
	}
	return s.respond(s.engine.Start(ctx, args.SessionID, sc))
}

func (s *Server) handleInput(ctx context.Context, request mcp.CallToolRequest, args inputArgs) (SessionResponse, error) {
	clean, err := runner.SanitizeInput(args.Text)
	if err != nil {
		s.logger.Warn("MCP Input: rejected", "err", err, "size", len(args.Text))
		return SessionResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	if _, err := s.engine.Input(ctx, args.SessionID, args.Token, clean); err != nil {
		return SessionResponse{}, err
	}
	return s.settled(ctx, args.SessionID)
}

func (s *Server) handleJump(ctx context.Context, request mcp.CallToolRequest, args jumpArgs) (SessionResponse, error) {
	return s.respond(s.engine.Jump(ctx, args.SessionID, domain.StageID(args.Stage)))
}

func (s *Server) handleFile(ctx context.Context, request mcp.CallToolRequest, args fileArgs) (SessionResponse, error) {
	upload := domain.Upload{Name: args.Name, Content: []byte(args.Content)}
	if _, err := s.engine.SelectFile(ctx, args.SessionID, domain.StageID(args.Stage), upload); err != nil {
		return SessionResponse{}, err
	}
	return s.settled(ctx, args.SessionID)
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest, args sessionArgs) (SessionResponse, error) {
	return s.respond(s.engine.View(ctx, args.SessionID))
}

// settled waits for scheduled effects so agents see their outcome in the
// same call.
func (s *Server) settled(ctx context.Context, sessionID string) (SessionResponse, error) {
	if w, ok := s.engine.(waiter); ok {
		w.Wait()
	}
	return s.respond(s.engine.View(ctx, sessionID))
}

func (s *Server) respond(view *domain.SessionView, err error) (SessionResponse, error) {
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return SessionResponse{}, fmt.Errorf("unknown session: %w", err)
		}
		return SessionResponse{}, err
	}
	resp := SessionResponse{Session: view, Choices: []domain.Choice{}}
	for i := len(view.Turns) - 1; i >= 0; i-- {
		if turn := view.Turns[i]; turn.Speaker == domain.SpeakerSystem && len(turn.Choices) > 0 {
			resp.Choices = turn.Choices
			break
		}
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StagesURI, "Onboarding stages",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		stages := map[domain.Role][]domain.Stage{
			domain.RolePlatformAdmin: s.engine.Stages(domain.SessionContext{ActorRole: domain.RolePlatformAdmin}),
			domain.RoleOrgAdmin:      s.engine.Stages(domain.SessionContext{ActorRole: domain.RoleOrgAdmin}),
		}
		jsonBytes, err := json.Marshal(stages)
		if err != nil {
			return nil, fmt.Errorf("failed to encode stages: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StagesURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
