package service

import (
	"context"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"

	"github.com/louisbranch/bloodroll/internal/platform/branding"
	"github.com/louisbranch/bloodroll/internal/services/mcp/domain"
)

const (
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
	// serverInstructions is sent to clients on initialize.
	serverInstructions = "Rolls Vampire: The Masquerade dice for characters loaded by the dice daemon. " +
		"Read vtm://characters to find character ids, compose a pool with vtm_roll_pool, " +
		"then optionally select up to three regular dice with vtm_toggle_die and call vtm_willpower_reroll."
)

// serverName identifies this MCP server to clients.
var serverName = branding.AppName + " MCP"

type mcpRegistrationKind int

const (
	mcpRegistrationKindTools mcpRegistrationKind = iota
	mcpRegistrationKindResources
)

const (
	mcpRollToolsModuleName         = "roll-tools"
	mcpJournalToolsModuleName      = "journal-tools"
	mcpCharacterResourceModuleName = "character-resources"
)

type mcpRegistrationModule struct {
	name     string
	kind     mcpRegistrationKind
	register func(*mcp.Server) error
}

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves the streamable HTTP transport.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	// DiceURL is the base URL of the dice daemon HTTP API.
	DiceURL string
	// HealthAddr is the dice daemon gRPC health address. Empty skips the
	// startup wait and the background monitor.
	HealthAddr string
	Transport  TransportKind
	HTTPAddr   string // defaults to localhost:8472 for HTTP transport
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	dice      domain.DiceClient
	conn      *grpc.ClientConn
}

// New creates an MCP server whose tools forward to dice.
func New(dice domain.DiceClient) (*Server, error) {
	if dice == nil {
		return nil, fmt.Errorf("dice client is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		Instructions:       serverInstructions,
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})
	server := &Server{mcpServer: mcpServer, dice: dice}

	for _, module := range server.registrationModules() {
		if err := module.register(mcpServer); err != nil {
			return nil, fmt.Errorf("register %s: %w", module.name, err)
		}
		if module.kind == mcpRegistrationKindResources {
			log.Printf("mcp: registered resource module %s", module.name)
		}
	}
	return server, nil
}

func (s *Server) registrationModules() []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{
			name: mcpRollToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(server *mcp.Server) error {
				mcp.AddTool(server, domain.RollPoolTool(), notifyAfter(domain.RollPoolHandler(s.dice), s.charactersUpdated))
				mcp.AddTool(server, domain.QuickRollTool(), notifyAfter(domain.QuickRollHandler(s.dice), s.charactersUpdated))
				mcp.AddTool(server, domain.ToggleDieTool(), domain.ToggleDieHandler(s.dice))
				mcp.AddTool(server, domain.WillpowerRerollTool(), notifyAfter(domain.WillpowerRerollHandler(s.dice), s.charactersUpdated))
				mcp.AddTool(server, domain.WipeOverlayTool(), domain.WipeOverlayHandler(s.dice))
				return nil
			},
		},
		{
			name: mcpJournalToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(server *mcp.Server) error {
				mcp.AddTool(server, domain.ListRollsTool(), domain.ListRollsHandler(s.dice))
				return nil
			},
		},
		{
			name: mcpCharacterResourceModuleName,
			kind: mcpRegistrationKindResources,
			register: func(server *mcp.Server) error {
				server.AddResource(domain.CharacterListResource(), domain.CharacterListResourceHandler(s.dice))
				return nil
			},
		},
	}
}

// notifyAfter runs after once handler succeeds.
func notifyAfter[I, O any](handler mcp.ToolHandlerFor[I, O], after func(context.Context)) mcp.ToolHandlerFor[I, O] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input I) (*mcp.CallToolResult, O, error) {
		result, out, err := handler(ctx, req, input)
		if err == nil && after != nil {
			after(ctx)
		}
		return result, out, err
	}
}

// charactersUpdated tells subscribers that tracks may have moved.
func (s *Server) charactersUpdated(ctx context.Context) {
	err := s.mcpServer.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: domain.CharacterListResource().URI})
	if err != nil {
		log.Printf("mcp: resource update notification failed: %v", err)
	}
}
