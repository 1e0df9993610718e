// Package mcp exposes editing sessions as Model Context Protocol tools, so an
// assistant can build and rearrange a patient's slides.
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

	"github.com/aretw0/slidedeck"
	"github.com/aretw0/slidedeck/internal/logging"
	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/aretw0/slidedeck/pkg/session"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// resourcePrefix is the URI prefix of the presentation resources.
const resourcePrefix = "slidedeck://presentation/"

// EditResult is returned by every mutating tool.
type EditResult struct {
	Changed bool            `json:"changed" jsonschema_description:"False when the edit resolved to nothing (unknown node, sub-pixel drag)"`
	State   slidedeck.State `json:"state" jsonschema_description:"The session after the edit"`
}

// NodeResult is returned by tools that create a node.
type NodeResult struct {
	Node  domain.Node     `json:"node"`
	State slidedeck.State `json:"state"`
}

// Server exposes a session.Manager as an MCP server.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server over sessions.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		mcpServer: server.NewMCPServer("slidedeck-mcp", slidedeck.Version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	withCORS := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Requested-With"},
	})
	mux := http.NewServeMux()
	mux.Handle("/sse", withCORS(sseServer.SSEHandler()))
	mux.Handle("/message", withCORS(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
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

type patientArgs struct {
	PatientID string `json:"patient_id"`
}

type loadArgs struct {
	PatientID string `json:"patient_id"`
	Force     bool   `json:"force"`
}

type slideArgs struct {
	PatientID string `json:"patient_id"`
	SlideID   string `json:"slide_id"`
}

type createArgs struct {
	PatientID string  `json:"patient_id"`
	Type      string  `json:"type"`
	Value     *string `json:"value"`
	Left      float64 `json:"left"`
	Top       float64 `json:"top"`
}

type nodeArgs struct {
	PatientID string `json:"patient_id"`
	NodeID    string `json:"node_id"`
}

type moveArgs struct {
	PatientID string  `json:"patient_id"`
	NodeID    string  `json:"node_id"`
	DX        float64 `json:"dx"`
	DY        float64 `json:"dy"`
}

type resizeArgs struct {
	PatientID string  `json:"patient_id"`
	NodeID    string  `json:"node_id"`
	Width     float64 `json:"width"`
}

type leftArgs struct {
	PatientID string  `json:"patient_id"`
	NodeID    string  `json:"node_id"`
	Left      float64 `json:"left"`
}

type valueArgs struct {
	PatientID string  `json:"patient_id"`
	NodeID    string  `json:"node_id"`
	Value     *string `json:"value"`
	Draggable *bool   `json:"draggable"`
}

type alignArgs struct {
	PatientID string  `json:"patient_id"`
	NodeID    string  `json:"node_id"`
	Axis      string  `json:"axis"`
	Extent    float64 `json:"extent"`
}

func patientParam() mcp.ToolOption {
	return mcp.WithString("patient_id", mcp.Required(), mcp.Description("Patient whose deck is edited"))
}

func nodeParam() mcp.ToolOption {
	return mcp.WithString("node_id", mcp.Required(), mcp.Description("Node on the active slide"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the editing session of a patient: slides in order, the active slide, selection and undo availability."),
		patientParam(),
		mcp.WithOutputSchema[slidedeck.State](),
	), mcp.NewStructuredToolHandler(s.handleGetSession))

	s.mcpServer.AddTool(mcp.NewTool("get_outline",
		mcp.WithDescription("Get a markdown outline of the patient's deck."),
		patientParam(),
	), s.handleOutline)

	s.mcpServer.AddTool(mcp.NewTool("load",
		mcp.WithDescription("Reload the deck from storage. Fails if the deck was edited while loading, unless force is set."),
		patientParam(),
		mcp.WithBoolean("force", mcp.Description("Discard unsaved edits")),
		mcp.WithOutputSchema[slidedeck.State](),
	), mcp.NewStructuredToolHandler(s.handleLoad))

	s.mcpServer.AddTool(mcp.NewTool("save",
		mcp.WithDescription("Persist the current slides."),
		patientParam(),
		mcp.WithOutputSchema[slidedeck.State](),
	), mcp.NewStructuredToolHandler(s.handleSave))

	s.mcpServer.AddTool(mcp.NewTool("add_slide",
		mcp.WithDescription("Append an empty slide and make it active."),
		patientParam(),
		mcp.WithOutputSchema[slidedeck.State](),
	), mcp.NewStructuredToolHandler(s.handleAddSlide))

	s.mcpServer.AddTool(mcp.NewTool("set_active_slide",
		mcp.WithDescription("Navigate to a slide. Node tools act on the active slide."),
		patientParam(),
		mcp.WithString("slide_id", mcp.Required()),
		mcp.WithOutputSchema[slidedeck.State](),
	), mcp.NewStructuredToolHandler(s.handleSetActive))

	s.mcpServer.AddTool(mcp.NewTool("create_node",
		mcp.WithDescription("Create a node on the active slide. Text nodes default to 'Hello World'."),
		patientParam(),
		mcp.WithString("type", mcp.Required(), mcp.Enum(nodeTypes()...)),
		mcp.WithString("value", mcp.Description("Markup for text/html, a location for images; omit for embeds")),
		mcp.WithNumber("left", mcp.Description("Canvas x (0-960)")),
		mcp.WithNumber("top", mcp.Description("Canvas y (0-700)")),
		mcp.WithOutputSchema[NodeResult](),
	), mcp.NewStructuredToolHandler(s.handleCreate))

	s.mcpServer.AddTool(mcp.NewTool("move_node",
		mcp.WithDescription("Drag a node by a delta. Drags under one pixel on both axes are ignored."),
		patientParam(), nodeParam(),
		mcp.WithNumber("dx", mcp.Required()),
		mcp.WithNumber("dy", mcp.Required()),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleMove))

	s.mcpServer.AddTool(mcp.NewTool("resize_node",
		mcp.WithDescription("Set a node's width."),
		patientParam(), nodeParam(),
		mcp.WithNumber("width", mcp.Required()),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleResize))

	s.mcpServer.AddTool(mcp.NewTool("set_node_left",
		mcp.WithDescription("Set a node's horizontal position."),
		patientParam(), nodeParam(),
		mcp.WithNumber("left", mcp.Required()),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleLeft))

	s.mcpServer.AddTool(mcp.NewTool("set_node_value",
		mcp.WithDescription("Replace a node's value and optionally its draggable flag."),
		patientParam(), nodeParam(),
		mcp.WithString("value"),
		mcp.WithBoolean("draggable"),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleValue))

	s.mcpServer.AddTool(mcp.NewTool("align_node",
		mcp.WithDescription("Centre a node on the canvas along an axis, given its rendered size on that axis."),
		patientParam(), nodeParam(),
		mcp.WithString("axis", mcp.Required(), mcp.Enum(string(slidedeck.AxisHorizontal), string(slidedeck.AxisVertical))),
		mcp.WithNumber("extent", mcp.Required(), mcp.Description("Rendered width or height in pixels")),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleAlign))

	s.mcpServer.AddTool(mcp.NewTool("delete_node",
		mcp.WithDescription("Delete a node from the active slide."),
		patientParam(), nodeParam(),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleDelete))

	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last change of a slide (default: the active slide)."),
		patientParam(),
		mcp.WithString("slide_id"),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleUndo))

	s.mcpServer.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone change of a slide (default: the active slide)."),
		patientParam(),
		mcp.WithString("slide_id"),
		mcp.WithOutputSchema[EditResult](),
	), mcp.NewStructuredToolHandler(s.handleRedo))
}

func nodeTypes() []string {
	out := make([]string, len(domain.NodeTypes))
	for i, t := range domain.NodeTypes {
		out[i] = string(t)
	}
	return out
}

// withEditor runs fn on the patient's session under its lock.
func (s *Server) withEditor(ctx context.Context, patientID string, fn func(context.Context, *slidedeck.Editor) error) error {
	if patientID == "" {
		return errors.New("patient_id is required")
	}
	return s.sessions.WithLock(ctx, patientID, fn)
}

func (s *Server) state(ctx context.Context, patientID string, fn func(context.Context, *slidedeck.Editor) error) (slidedeck.State, error) {
	var st slidedeck.State
	err := s.withEditor(ctx, patientID, func(ctx context.Context, ed *slidedeck.Editor) error {
		if err := fn(ctx, ed); err != nil {
			return err
		}
		st = ed.State()
		return nil
	})
	return st, err
}

func (s *Server) edit(ctx context.Context, patientID string, fn func(context.Context, *slidedeck.Editor) (bool, error)) (EditResult, error) {
	var res EditResult
	err := s.withEditor(ctx, patientID, func(ctx context.Context, ed *slidedeck.Editor) error {
		changed, err := fn(ctx, ed)
		if err != nil {
			return err
		}
		res = EditResult{Changed: changed, State: ed.State()}
		return nil
	})
	return res, err
}

func noop(context.Context, *slidedeck.Editor) error { return nil }

func (s *Server) handleGetSession(ctx context.Context, _ mcp.CallToolRequest, args patientArgs) (slidedeck.State, error) {
	return s.state(ctx, args.PatientID, noop)
}

func (s *Server) handleOutline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patientID := request.GetString("patient_id", "")
	st, err := s.state(ctx, patientID, noop)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("outline failed: %v", err)), nil
	}
	return mcp.NewToolResultText(slidedeck.FullOutline(st)), nil
}

func (s *Server) handleLoad(ctx context.Context, _ mcp.CallToolRequest, args loadArgs) (slidedeck.State, error) {
	return s.state(ctx, args.PatientID, func(ctx context.Context, ed *slidedeck.Editor) error {
		if args.Force {
			return ed.ForceLoad(ctx)
		}
		return ed.Load(ctx)
	})
}

func (s *Server) handleSave(ctx context.Context, _ mcp.CallToolRequest, args patientArgs) (slidedeck.State, error) {
	return s.state(ctx, args.PatientID, func(ctx context.Context, ed *slidedeck.Editor) error {
		return ed.Save(ctx)
	})
}

func (s *Server) handleAddSlide(ctx context.Context, _ mcp.CallToolRequest, args patientArgs) (slidedeck.State, error) {
	return s.state(ctx, args.PatientID, func(ctx context.Context, ed *slidedeck.Editor) error {
		ed.AddSlide(ctx)
		return nil
	})
}

func (s *Server) handleSetActive(ctx context.Context, _ mcp.CallToolRequest, args slideArgs) (slidedeck.State, error) {
	return s.state(ctx, args.PatientID, func(_ context.Context, ed *slidedeck.Editor) error {
		return ed.SetActiveSlide(domain.SlideID(args.SlideID))
	})
}

func (s *Server) handleCreate(ctx context.Context, _ mcp.CallToolRequest, args createArgs) (NodeResult, error) {
	var res NodeResult
	err := s.withEditor(ctx, args.PatientID, func(ctx context.Context, ed *slidedeck.Editor) error {
		node, err := ed.CreateNode(ctx, domain.NodeType(args.Type), args.Value, args.Left, args.Top)
		if err != nil {
			return err
		}
		res = NodeResult{Node: node, State: ed.State()}
		return nil
	})
	return res, err
}

func (s *Server) handleMove(ctx context.Context, _ mcp.CallToolRequest, args moveArgs) (EditResult, error) {
	return s.edit(ctx, args.PatientID, func(ctx context.Context, ed *slidedeck.Editor) (bool, error) {
		return ed.MoveNode(ctx, args.NodeID, args.DX, args.DY), nil
	})
}

func (s *Server) handleResize(ctx context.Context, _ mcp.CallToolRequest, args resizeArgs) (EditResult, error) {
	if args.Width <= 0 {
		return EditResult{}, errors.New("width must be positive")
	}
	return s.edit(ctx, args.PatientID, func(ctx context.Context, ed *slidedeck.Editor) (bool, error) {
		return ed.ResizeNode(ctx, args.NodeID, args.Width), nil
	})
}

func (s *Server) handleLeft(ctx context.Context, _ mcp.CallToolRequest, args leftArgs) (EditResult, error) {
	return s.edit(ctx, args.PatientID, func(ctx context.Context, ed *slidedeck.Editor) (bool, error) {
		return ed.SetNodeLeft(ctx, args.NodeID, args.Left), nil
	})
}

func (s *Server) handleValue(ctx context.Context, _ mcp.CallToolRequest, args valueArgs) (EditResult, error) {
	return s.edit(ctx, args.PatientID, func(ctx context.Context, ed *slidedeck.Editor) (bool, error) {
		return ed.SetNodeValue(ctx, args.NodeID, args.Value, args.Draggable), nil
	})
}

func (s *Server) handleAlign(ctx context.Context, _ mcp.CallToolRequest, args alignArgs) (EditResult, error) {
	return s.edit(ctx, args.PatientID, func(ctx context.Context, ed *slidedeck.Editor) (bool, error) {
		return ed.AlignNode(ctx, args.NodeID, slidedeck.Axis(args.Axis), args.Extent)
	})
}

func (s *Server) handleDelete(ctx context.Context, _ mcp.CallToolRequest, args nodeArgs) (EditResult, error) {
	return s.edit(ctx, args.PatientID, func(ctx context.Context, ed *slidedeck.Editor) (bool, error) {
		return ed.DeleteNode(ctx, args.NodeID), nil
	})
}

func (s *Server) handleUndo(ctx context.Context, _ mcp.CallToolRequest, args slideArgs) (EditResult, error) {
	return s.edit(ctx, args.PatientID, func(ctx context.Context, ed *slidedeck.Editor) (bool, error) {
		return ed.Undo(ctx, domain.SlideID(args.SlideID)), nil
	})
}

func (s *Server) handleRedo(ctx context.Context, _ mcp.CallToolRequest, args slideArgs) (EditResult, error) {
	return s.edit(ctx, args.PatientID, func(ctx context.Context, ed *slidedeck.Editor) (bool, error) {
		return ed.Redo(ctx, domain.SlideID(args.SlideID)), nil
	})
}

func (s *Server) registerResources() {
	// EXPOSE: slidedeck://presentation/{patientId}
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(resourcePrefix+"{patientId}", "Patient presentation",
		mcp.WithTemplateDescription("The flattened deck of a patient's editing session."),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readPresentation)
}

func (s *Server) readPresentation(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	patientID := strings.TrimPrefix(uri, resourcePrefix)
	if patientID == "" || patientID == uri {
		return nil, fmt.Errorf("invalid presentation uri %q", uri)
	}

	var doc domain.Document
	err := s.withEditor(ctx, patientID, func(_ context.Context, ed *slidedeck.Editor) error {
		doc = ed.Document()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read presentation: %w", err)
	}
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
