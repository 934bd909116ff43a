package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/designscozyroom-lab/missioncontrol/internal/app"
	"github.com/designscozyroom-lab/missioncontrol/internal/domain"
	"github.com/designscozyroom-lab/missioncontrol/internal/search"
)

// newStatusCmd implements "missioncontrol status [agent]".
func newStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status [agent]",
		Short: "Show board counts, or one agent's presence and pending notifications",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBundle(flags, false)
			if err != nil {
				return err
			}
			defer b.close()

			if len(args) == 1 {
				return printAgentStatus(cmd, b.svc, args[0])
			}
			return printBoardStatus(cmd, b.svc)
		},
	}
}

func printAgentStatus(cmd *cobra.Command, svc *app.MissionService, agentID string) error {
	agent, err := svc.GetAgent(agentID)
	if err != nil {
		return err
	}
	pending, err := svc.NotificationsForAgent(agentID)
	if err != nil {
		return err
	}
	current := agent.CurrentTaskID
	if current == "" {
		current = "-"
	}
	cmd.Printf("agent=%s status=%s pending=%d current_task=%s last_heartbeat=%s\n",
		agent.AgentID, agent.Status, len(pending), current, agent.LastHeartbeat.Format("2006-01-02T15:04:05Z07:00"))
	return nil
}

func printBoardStatus(cmd *cobra.Command, svc *app.MissionService) error {
	agents, err := svc.ListAgents()
	if err != nil {
		return err
	}
	tasks, err := svc.ListTasks(app.TaskFilter{})
	if err != nil {
		return err
	}
	undelivered, err := svc.UndeliveredNotifications()
	if err != nil {
		return err
	}

	byStatus := make(map[domain.TaskStatus]int)
	for _, t := range tasks {
		byStatus[t.Status]++
	}
	var parts []string
	for _, s := range domain.TaskStatuses {
		parts = append(parts, fmt.Sprintf("%s=%d", s, byStatus[s]))
	}
	cmd.Printf("agents=%d tasks=%d undelivered=%d\n", len(agents), len(tasks), len(undelivered))
	cmd.Printf("tasks: %s\n", strings.Join(parts, " "))
	return nil
}

func newAgentsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Manage the agent roster",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Insert roster agents that are missing; existing agents are left as they are",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBundle(flags, false)
			if err != nil {
				return err
			}
			defer b.close()
			n, err := b.svc.InitializeAgents()
			if err != nil {
				return err
			}
			cmd.Printf("Inserted %d agent(s)\n", n)
			return nil
		},
	})

	var actor string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Delete every agent and reinsert the roster (recorded in the activity feed)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if actor == "" {
				actor = os.Getenv("USER")
			}
			b, err := openBundle(flags, false)
			if err != nil {
				return err
			}
			defer b.close()
			n, err := b.svc.ResetAgents(actor)
			if err != nil {
				return err
			}
			cmd.Printf("Reset roster to %d agent(s) (by %s)\n", n, actor)
			return nil
		},
	}
	reset.Flags().StringVar(&actor, "actor", "", "Who is resetting the roster (default: $USER)")
	cmd.AddCommand(reset)

	return cmd
}

func newBroadcastCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "broadcast <message>",
		Short: "Send a message to every agent's session",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBundle(flags, false)
			if err != nil {
				return err
			}
			defer b.close()
			d, err := b.deliverer()
			if err != nil {
				return err
			}
			defer func() { _ = d.Close() }()

			results, err := b.svc.Broadcast(cmd.Context(), d, strings.Join(args, " "))
			if err != nil {
				return err
			}
			failed := 0
			for _, r := range results {
				if r.Success {
					cmd.Printf("  ok    %s\n", r.AgentID)
					continue
				}
				failed++
				cmd.Printf("  FAIL  %s: %s\n", r.AgentID, r.Error)
			}
			cmd.Printf("Sent %d/%d\n", len(results)-failed, len(results))
			if failed > 0 {
				return fmt.Errorf("broadcast failed for %d agent(s)", failed)
			}
			return nil
		},
	}
}

func newSearchCmd(flags *rootFlags) *cobra.Command {
	var (
		kind  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over tasks, thread comments and documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBundle(flags, false)
			if err != nil {
				return err
			}
			defer b.close()

			k := search.Kind(kind)
			if k != "" && !k.Valid() {
				return fmt.Errorf("invalid --kind %q (want task, message or document)", kind)
			}
			idx, indexer := openSearch(b)
			if idx == nil {
				return fmt.Errorf("search index is disabled")
			}
			defer idx.Close()
			indexer.Sync()

			query := strings.Join(args, " ")
			results, err := idx.Query(query, k, limit)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				cmd.Printf("No results for %q\n", query)
				return nil
			}
			for _, r := range results {
				cmd.Printf("%-8s %-36s %s\n", r.Kind, r.RefID, r.Title)
				cmd.Printf("         %s\n", r.Snippet)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Limit to task, message or document")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum results")
	return cmd
}
