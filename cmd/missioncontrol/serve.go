package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/designscozyroom-lab/missioncontrol/internal/api"
	"github.com/designscozyroom-lab/missioncontrol/internal/app"
	"github.com/designscozyroom-lab/missioncontrol/internal/otel"
	"github.com/designscozyroom-lab/missioncontrol/internal/search"
	"github.com/designscozyroom-lab/missioncontrol/internal/tools/mission"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var (
		port       int
		noDelivery bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, MCP endpoint, delivery daemon and presence watchdog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBundle(flags, true)
			if err != nil {
				return err
			}
			defer b.close()
			if cmd.Flags().Changed("port") {
				b.cfg.HTTPPort = port
			}
			return runServe(cmd.Context(), b, !noDelivery)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (default from config, env: MC_HTTP_PORT)")
	cmd.Flags().BoolVar(&noDelivery, "no-delivery", false, "Do not run the delivery daemon in this process")
	return cmd
}

func runServe(ctx context.Context, b *bundle, withDelivery bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := b.logger
	logger.Println("Starting mission control...")
	logger.Printf("State: %s (driver %s)", b.pol.StateFile(), b.pol.Database().Driver)

	metricsHandler, err := otel.InitMeterProvider(ctx, "missioncontrol")
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := otel.InitMetrics(ctx); err != nil {
		return fmt.Errorf("metrics instruments: %w", err)
	}

	hub := api.NewSSEHub()
	targets := []app.Triggerable{hub}

	var deliverer app.Deliverer
	var daemon *app.DeliveryDaemon
	if withDelivery {
		d, err := b.deliverer()
		if err != nil {
			return err
		}
		defer func() { _ = d.Close() }()
		deliverer = d
		daemon = app.NewDeliveryDaemon(b.svc, d, logger, app.WithDeliveryInterval(b.pol.DeliveryInterval()))
		targets = append(targets, daemon)
		logger.Printf("Delivery: mode=%s interval=%s", b.pol.Delivery().Mode, b.pol.DeliveryInterval())
	}

	idx, indexer := openSearch(b)
	if idx != nil {
		defer idx.Close()
		targets = append(targets, indexer)
		go indexer.Run(ctx)
	}

	// Writes from this process and from other processes sharing the state file
	// both surface through the signal file.
	notifier := app.NewNotifier(b.pol.SignalFilePath(), logger, targets)
	go notifier.Start(ctx)

	watchdog := app.NewWatchdog(b.svc, logger, app.WithRetention(b.pol.Retention()))
	go watchdog.Start(ctx)

	if daemon != nil {
		go daemon.Run(ctx)
	}

	mcpServer := newMCPServer(b, idx)
	routerCfg := api.RouterConfig{
		Hub:     hub,
		Metrics: metricsHandler,
		MCP:     server.NewStreamableHTTPServer(mcpServer),
	}
	if idx != nil {
		routerCfg.Search = idx
	}
	router := api.NewRouter(api.NewHandler(b.svc, deliverer, logger), routerCfg)

	shutdown, err := startHTTPServer(router, b.pol.HTTPPort(), logger)
	if err != nil {
		return err
	}

	<-ctx.Done()
	logger.Println("Shutting down...")
	shutdown()
	watchdog.Stop()
	notifier.Stop()
	logger.Println("Server stopped")
	return nil
}

// openSearch opens the full-text index, or returns nils when it is disabled or
// cannot be opened. Search is optional; the rest of the server runs without it.
func openSearch(b *bundle) (*search.Store, *search.Indexer) {
	path := b.pol.SearchDBPath()
	if path == "" {
		return nil, nil
	}
	idx, err := search.Open(path)
	if err != nil {
		b.logger.Printf("Warning: search index disabled: %v", err)
		return nil, nil
	}
	b.logger.Printf("Search index: %s", path)
	return idx, search.NewIndexer(idx, b.svc, b.logger)
}

// newMCPServer builds the MCP server with the mission tools registered.
// idx may be nil, in which case the search tool is not offered.
func newMCPServer(b *bundle, idx *search.Store) *server.MCPServer {
	hooks := &server.Hooks{}
	hooks.AddAfterCallTool(func(ctx context.Context, id any, message *mcp.CallToolRequest, result *mcp.CallToolResult) {
		if message != nil {
			b.logger.Printf("Calling tool: %s", message.Params.Name)
		}
	})
	s := server.NewMCPServer(
		"missioncontrol",
		Version,
		server.WithInstructions(mission.InstructionsText()),
		server.WithHooks(hooks),
		server.WithToolHandlerMiddleware(mission.NotificationBanner(b.svc)),
		server.WithResourceCapabilities(false, true),
	)
	opts := []mission.RegisterOption{mission.WithToolFilter(b.pol.IsToolEnabled)}
	if idx != nil {
		opts = append(opts, mission.WithSearch(idx))
	}
	mission.Register(s, b.svc, b.logger, opts...)
	return s
}

// startHTTPServer serves handler in the background and returns a shutdown function.
// Uses net.Listen so port 0 picks a free port.
func startHTTPServer(handler *gin.Engine, port int, logger *log.Logger) (func(), error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("HTTP listen: %w", err)
	}
	baseURL := fmt.Sprintf("http://localhost:%d", ln.Addr().(*net.TCPAddr).Port)
	logger.Printf("HTTP server on %s", baseURL)
	logger.Printf("  API:          %s/api", baseURL)
	logger.Printf("  MCP:          %s/mcp", baseURL)
	logger.Printf("  Change feed:  %s/api/events", baseURL)
	logger.Printf("  Search:       %s/api/search?q=", baseURL)
	logger.Printf("  Metrics:      %s/metrics", baseURL)

	httpServer := &http.Server{Handler: handler}
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("HTTP server error: %v", err)
		}
	}()

	return func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}
	}, nil
}
