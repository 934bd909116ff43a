package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	stateFile  string
}

func newRootCmd(version string) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:          "missioncontrol",
		Short:        "Mission control for agent teams: tasks, threads, notifications and delivery",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is normal; values already in the environment win.
			_ = godotenv.Load()
			if flags.configPath == "" {
				flags.configPath = os.Getenv("MC_CONFIG")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to YAML config (env: MC_CONFIG)")
	cmd.PersistentFlags().StringVar(&flags.stateFile, "state-file", "", "Override the SQLite state file (env: MC_STATE_FILE)")

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newDaemonCmd(flags))
	cmd.AddCommand(newMCPCmd(flags))
	cmd.AddCommand(newStatusCmd(flags))
	cmd.AddCommand(newAgentsCmd(flags))
	cmd.AddCommand(newBroadcastCmd(flags))
	cmd.AddCommand(newSearchCmd(flags))
	cmd.AddCommand(newVersionCmd(version))

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("missioncontrol {{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}
	return cmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("missioncontrol %s\n", version)
		},
	}
}
