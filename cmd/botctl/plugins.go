package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func pluginsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Manage bot plugins",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List installed plugins",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				plugins, err := newClient(cfg).Plugins(cmd.Context())
				if err != nil {
					return err
				}
				for _, p := range plugins {
					mark := " "
					if p.Enabled {
						mark = "*"
					}
					fmt.Printf("%s %-24s v%-8s %s\n", mark, p.Name, p.Version, p.Description)
				}
				return nil
			},
		},
		pluginActionCmd("enable", "Enable a plugin by name"),
		pluginActionCmd("disable", "Disable a plugin by name"),
		pluginActionCmd("reload", "Reload a plugin by name"),
	)

	return cmd
}

func pluginActionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := newClient(cfg)
			name := args[0]

			switch action {
			case "enable":
				err = client.EnablePlugin(cmd.Context(), name)
			case "disable":
				err = client.DisablePlugin(cmd.Context(), name)
			case "reload":
				err = client.ReloadPlugin(cmd.Context(), name)
			}
			if err != nil {
				return err
			}
			success("%s: plugin %s", action, name)
			return nil
		},
	}
}
