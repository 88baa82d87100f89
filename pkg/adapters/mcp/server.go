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

	"github.com/aretw0/ussdpilot"
	"github.com/aretw0/ussdpilot/internal/logging"
	"github.com/aretw0/ussdpilot/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SessionURI is the resource exposing the live session snapshot.
const SessionURI = "ussd://session"

// Controller is the part of the pilot exposed to agents.
type Controller interface {
	Arm(ctx context.Context, req domain.PaymentRequest) error
	Reset(ctx context.Context) error
	Snapshot() domain.Snapshot
}

// SessionStatus is the structured output of every tool.
type SessionStatus struct {
	Phase       domain.Phase `json:"phase" jsonschema_description:"Current phase of the menu flow"`
	Status      string       `json:"status" jsonschema_description:"Human readable progress line"`
	Terminal    bool         `json:"terminal" jsonschema_description:"True once the payment succeeded or failed"`
	Armed       bool         `json:"armed" jsonschema_description:"True while a payment is attached"`
	Amount      string       `json:"amount,omitempty" jsonschema_description:"Armed amount"`
	Destination string       `json:"destination,omitempty" jsonschema_description:"Armed destination identifier"`
	Payee       string       `json:"payee,omitempty" jsonschema_description:"Display name or destination"`
}

func newSessionStatus(snap domain.Snapshot) SessionStatus {
	st := SessionStatus{
		Phase:    snap.Phase,
		Status:   snap.Phase.Status(),
		Terminal: snap.Terminal(),
		Armed:    snap.Armed(),
	}
	if snap.Request != nil {
		st.Amount = snap.Request.Amount
		st.Destination = snap.Request.DestinationID
		st.Payee = snap.Request.Payee()
	}
	return st
}

// Server wraps the pilot and exposes it as an MCP Server.
type Server struct {
	pilot     Controller
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(pilot Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		pilot:     pilot,
		mcpServer: server.NewMCPServer("ussdpilot-mcp", strings.TrimSpace(ussdpilot.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

// ArmArgs are the arguments of the arm_payment tool.
type ArmArgs struct {
	Amount      string `json:"amount"`
	Destination string `json:"destination"`
	DisplayName string `json:"display_name,omitempty"`
}

func (s *Server) registerTools() {
	armTool := mcp.NewTool("arm_payment",
		mcp.WithDescription("Attach a payment to the pilot. The next menu session is driven up to PIN entry."),
		mcp.WithString("amount", mcp.Required(), mcp.Description("Positive decimal amount with at most two places")),
		mcp.WithString("destination", mcp.Required(), mcp.Description("Destination identifier (user@handle)")),
		mcp.WithString("display_name", mcp.Description("Payee name shown to the user (optional)")),
		mcp.WithOutputSchema[SessionStatus](),
	)
	s.mcpServer.AddTool(armTool, mcp.NewStructuredToolHandler(s.handleArm))

	resetTool := mcp.NewTool("reset_session",
		mcp.WithDescription("Return the pilot to idle and drop the armed payment."),
		mcp.WithOutputSchema[SessionStatus](),
	)
	s.mcpServer.AddTool(resetTool, mcp.NewStructuredToolHandler(s.handleReset))

	statusTool := mcp.NewTool("session_status",
		mcp.WithDescription("Report the current phase and armed payment."),
		mcp.WithOutputSchema[SessionStatus](),
	)
	s.mcpServer.AddTool(statusTool, mcp.NewStructuredToolHandler(s.handleStatus))
}

func (s *Server) handleArm(ctx context.Context, request mcp.CallToolRequest, args ArmArgs) (SessionStatus, error) {
	req, err := domain.NewPaymentRequest(args.Amount, args.Destination, args.DisplayName)
	if err != nil {
		return SessionStatus{}, err
	}
	if err := s.pilot.Arm(ctx, req); err != nil {
		if errors.Is(err, domain.ErrInvalidAmount) || errors.Is(err, domain.ErrInvalidDestination) {
			return SessionStatus{}, err
		}
		s.logger.Error("MCP arm failed", "err", err)
		return SessionStatus{}, fmt.Errorf("arm failed: %w", err)
	}
	return newSessionStatus(s.pilot.Snapshot()), nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, _ map[string]any) (SessionStatus, error) {
	if err := s.pilot.Reset(ctx); err != nil {
		return SessionStatus{}, fmt.Errorf("reset failed: %w", err)
	}
	return newSessionStatus(s.pilot.Snapshot()), nil
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest, _ map[string]any) (SessionStatus, error) {
	return newSessionStatus(s.pilot.Snapshot()), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SessionURI, "Current USSD Session",
		mcp.WithMIMEType("application/json"),
	), s.readSession)
}

func (s *Server) readSession(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(s.pilot.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      SessionURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
