// Package mcpserver exposes the assistant as MCP tools over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"voice-assistant/internal/assistant"
	"voice-assistant/internal/dispatch"
	"voice-assistant/internal/storage"
)

const (
	name    = "voice-assistant"
	version = "1.0.0"

	defaultHistory = 10
	maxHistory     = 100
)

// ResolveParams are the arguments of the resolve tool.
type ResolveParams struct {
	UserID    int64  `json:"user_id" mcp:"conversation id; utterances of one id share game and context"`
	Utterance string `json:"utterance" mcp:"the user's utterance in Russian"`
}

// HistoryParams are the arguments of the recent_history tool.
type HistoryParams struct {
	UserID int64 `json:"user_id" mcp:"conversation id"`
	Limit  int   `json:"limit,omitempty" mcp:"number of exchanges to return (default: 10, max: 100)"`
}

type Server struct {
	pool     *assistant.Pool
	recorder storage.Recorder
	log      *zap.Logger
}

// New creates the tool handlers. recorder may be nil, which disables
// recent_history.
func New(pool *assistant.Pool, recorder storage.Recorder, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{pool: pool, recorder: recorder, log: log}
}

// MCP builds the protocol server with every tool registered.
func (s *Server) MCP() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve",
		Description: "Passes one utterance to the voice assistant and returns its reply. A reply ending with [STOP] ends the conversation.",
	}, s.Resolve)
	if s.recorder != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "recent_history",
			Description: "Returns the latest recorded exchanges of a conversation",
		}, s.RecentHistory)
	}
	return server
}

// Run serves on stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("mcp server started", zap.Bool("history", s.recorder != nil))
	return s.MCP().Run(ctx, mcp.NewStdioTransport())
}

func (s *Server) Resolve(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[ResolveParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	if strings.TrimSpace(args.Utterance) == "" {
		return errorResult("utterance is required"), nil
	}

	// tool calls carry no push channel, reminders are only logged
	res, err := s.pool.Handle(ctx, args.UserID, args.Utterance, nil)
	if err != nil {
		s.log.Error("resolve", zap.Int64("user", args.UserID), zap.Error(err))
		return errorResult(fmt.Sprintf("resolve failed: %v", err)), nil
	}
	return textResult(render(res)), nil
}

func (s *Server) RecentHistory(_ context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[HistoryParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	limit := args.Limit
	switch {
	case limit <= 0:
		limit = defaultHistory
	case limit > maxHistory:
		limit = maxHistory
	}

	events, err := s.recorder.LoadInteractions()
	if err != nil {
		return errorResult(fmt.Sprintf("load history: %v", err)), nil
	}
	recent := storage.Recent(events, args.UserID, limit)
	if len(recent) == 0 {
		return textResult("No exchanges recorded"), nil
	}

	var sb strings.Builder
	for _, e := range recent {
		ts := e.Timestamp.Format("2006-01-02 15:04:05")
		if e.UserMessage != "" {
			fmt.Fprintf(&sb, "[%s] user: %s\n", ts, e.UserMessage)
		}
		fmt.Fprintf(&sb, "[%s] assistant: %s\n", ts, e.AssistantResponse)
	}
	return textResult(strings.TrimRight(sb.String(), "\n")), nil
}

// render flattens a result for a text-only client.
func render(res dispatch.Result) string {
	if res.Kind != dispatch.Terminate {
		return res.Text
	}
	if res.Text == "" {
		return "[" + dispatch.StopSentinel + "]"
	}
	return res.Text + " [" + dispatch.StopSentinel + "]"
}

func textResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
