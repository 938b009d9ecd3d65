package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the bot's status report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := newClient(cfg)

			st, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}

			running := "stopped"
			if st.Running {
				running = "running"
			}
			fmt.Printf("Bot %d: %s, up %s\n", st.QQ, running, formatUptime(st.Uptime))
			fmt.Printf("Plugins: %d enabled of %d installed\n", st.EnabledPlugins, st.PluginsCount)
			for _, a := range st.Adapters {
				state := "disconnected"
				if a.Connected {
					state = "connected"
				}
				info("adapter %-20s %s", a.Name, state)
			}
			return nil
		},
	}
}
