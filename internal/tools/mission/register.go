// Package mission exposes MissionService operations as MCP tools.
package mission

import (
	"context"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
)

// RegisterOption configures optional behaviour for tool registration.
type RegisterOption func(*registerOpts)

type registerOpts struct {
	enabled  func(name string) bool
	searcher Searcher
}

// WithSearch registers the search tool backed by idx.
func WithSearch(idx Searcher) RegisterOption {
	return func(o *registerOpts) { o.searcher = idx }
}

// WithToolFilter registers only the tools for which enabled returns true
// (typically policy.IsToolEnabled).
func WithToolFilter(enabled func(name string) bool) RegisterOption {
	return func(o *registerOpts) { o.enabled = enabled }
}

type handler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

type registrar struct {
	s    *server.MCPServer
	opts registerOpts
}

func (r *registrar) add(tool mcp.Tool, h handler) {
	if r.opts.enabled != nil && !r.opts.enabled(tool.Name) {
		return
	}
	r.s.AddTool(tool, server.ToolHandlerFunc(h))
}

// Register registers the mission control tools with the mcp-go server.
func Register(s *server.MCPServer, svc *app.MissionService, logger *log.Logger, opts ...RegisterOption) {
	r := &registrar{s: s}
	for _, opt := range opts {
		opt(&r.opts)
	}

	// Task tools (5)
	registerCreateTask(r, svc, logger)
	registerAssignTask(r, svc, logger)
	registerUpdateTaskStatus(r, svc, logger)
	registerUpdateTask(r, svc, logger)
	registerListTasks(r, svc, logger)

	// Thread tools (2)
	registerPostMessage(r, svc, logger)
	registerReadThread(r, svc, logger)

	// Documents (1)
	registerCreateDocument(r, svc, logger)

	// Subscriptions (2)
	registerSubscribe(r, svc, logger)
	registerUnsubscribe(r, svc, logger)

	// Agent tools (4)
	registerPostStandup(r, svc, logger)
	registerMyNotifications(r, svc, logger)
	registerHeartbeat(r, svc, logger)
	registerListAgents(r, svc, logger)

	if r.opts.searcher != nil {
		registerSearch(r, r.opts.searcher)
	}

	registerResources(s, svc, logger)
}
