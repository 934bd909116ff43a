package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
)

func newDaemonCmd(flags *rootFlags) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run only the notification delivery daemon",
		Long: "Polls for undelivered notifications and pushes each into the recipient's session.\n" +
			"Every notification is attempted once and marked delivered whatever the outcome.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBundle(flags, !once)
			if err != nil {
				return err
			}
			defer b.close()
			d, err := b.deliverer()
			if err != nil {
				return err
			}
			defer func() { _ = d.Close() }()

			daemon := app.NewDeliveryDaemon(b.svc, d, b.logger, app.WithDeliveryInterval(b.pol.DeliveryInterval()))
			if once {
				stats := daemon.DeliverOnce(cmd.Context())
				cmd.Printf("attempted=%d failed=%d\n", stats.Attempted, stats.Failed)
				return nil
			}
			return runDaemon(cmd.Context(), b, daemon)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Run a single delivery pass and exit")
	return cmd
}

// runDaemon runs the delivery loop until ctx is cancelled, woken early by
// writes from any process sharing the state file.
func runDaemon(ctx context.Context, b *bundle, daemon *app.DeliveryDaemon) error {
	notifier := app.NewNotifier(b.pol.SignalFilePath(), b.logger, []app.Triggerable{daemon})
	go notifier.Start(ctx)
	defer notifier.Stop()

	b.logger.Printf("Delivery daemon: mode=%s state=%s", b.pol.Delivery().Mode, b.pol.StateFile())
	daemon.Run(ctx)
	b.logger.Println("Delivery daemon stopped")
	return nil
}

func newMCPCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the mission tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBundle(flags, true)
			if err != nil {
				return err
			}
			defer b.close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			idx, indexer := openSearch(b)
			if idx != nil {
				defer idx.Close()
				notifier := app.NewNotifier(b.pol.SignalFilePath(), b.logger, []app.Triggerable{indexer})
				go notifier.Start(ctx)
				defer notifier.Stop()
				go indexer.Run(ctx)
			}

			b.logger.Println("Stdio ready")
			stdioSrv := server.NewStdioServer(newMCPServer(b, idx))
			if err := stdioSrv.Listen(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil && cmd.Context().Err() == nil {
				return fmt.Errorf("stdio server: %w", err)
			}
			return nil
		},
	}
}
