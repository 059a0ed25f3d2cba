// Package mcpserver exposes the pipeline as MCP tools over stdio so editor
// and design-tool plugins can drive it.
package mcpserver

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valpere/uxtran/internal"
	"github.com/valpere/uxtran/internal/batch"
	"github.com/valpere/uxtran/internal/logging"
	"github.com/valpere/uxtran/internal/orchestrator"
	"github.com/valpere/uxtran/internal/store"
)

// Server holds the components shared by every tool call. The store lives as
// long as the server, so memory, glossary and job history are per session.
type Server struct {
	orch   *orchestrator.Orchestrator
	client *batch.Client
	store  *store.Store
	logger *log.Logger
}

func New(orch *orchestrator.Orchestrator, client *batch.Client, st *store.Store, logger *log.Logger) *Server {
	return &Server{
		orch:   orch,
		client: client,
		store:  st,
		logger: logging.WithPrefix(logging.OrDiscard(logger), "mcp"),
	}
}

// MCP builds the protocol server with every tool registered.
func (s *Server) MCP(version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "uxtran", Version: version}, nil)

	mcp.AddTool(server, MetadataTranslateTexts, s.TranslateTexts)
	mcp.AddTool(server, MetadataRewriteTexts, s.RewriteTexts)
	mcp.AddTool(server, MetadataImproveText, s.ImproveText)
	mcp.AddTool(server, MetadataAddGlossaryTerm, s.AddGlossaryTerm)
	mcp.AddTool(server, MetadataListGlossaryTerms, s.ListGlossaryTerms)
	mcp.AddTool(server, MetadataDeleteGlossaryTerm, s.DeleteGlossaryTerm)
	mcp.AddTool(server, MetadataListJobs, s.ListJobs)
	mcp.AddTool(server, MetadataMemoryStats, s.MemoryStats)

	return server
}

// Run serves over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context, version string) error {
	s.logger.Info("serving on stdio", "version", version)
	return s.MCP(version).Run(ctx, &mcp.StdioTransport{})
}

// progressReporter forwards pipeline progress as MCP progress notifications
// when the caller supplied a progress token.
func (s *Server) progressReporter(ctx context.Context, req *mcp.CallToolRequest) func(internal.Progress) {
	return func(p internal.Progress) {
		s.logger.Debug(p.Message, "current", p.Current, "total", p.Total)

		if req == nil || req.Session == nil || req.Params == nil {
			return
		}
		token := req.Params.GetProgressToken()
		if token == nil {
			return
		}
		err := req.Session.NotifyProgress(ctx, &mcp.ProgressNotificationParams{
			ProgressToken: token,
			Progress:      float64(p.Current),
			Total:         float64(p.Total),
			Message:       p.Message,
		})
		if err != nil {
			s.logger.Warn("progress notification failed", "err", err)
		}
	}
}
