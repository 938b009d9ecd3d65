package main

import (
	"github.com/spf13/cobra"
)

func restartCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the bot process",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := newClient(cfg).Restart(cmd.Context(), confirm); err != nil {
				return err
			}
			success("restart requested")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Required acknowledgement that the bot will restart")
	return cmd
}

func shutdownCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "shutdown",
		Short: "Stop the bot process",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := newClient(cfg).Shutdown(cmd.Context(), confirm); err != nil {
				return err
			}
			success("shutdown requested")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Required acknowledgement that the bot will stop")
	return cmd
}
