package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func blacklistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Manage the group deny list",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List denied groups",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				groups, err := newClient(cfg).Blacklist(cmd.Context())
				if err != nil {
					return err
				}
				if len(groups) == 0 {
					info("(empty)")
					return nil
				}
				for _, g := range groups {
					fmt.Println(g)
				}
				return nil
			},
		},
		blacklistEditCmd("add"),
		blacklistEditCmd("remove"),
	)

	return cmd
}

func blacklistEditCmd(action string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <group-id>",
		Short: action + " a group on the deny list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("group id must be numeric: %q", args[0])
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := newClient(cfg)

			if action == "add" {
				err = client.BlacklistAdd(cmd.Context(), groupID)
			} else {
				err = client.BlacklistRemove(cmd.Context(), groupID)
			}
			if err != nil {
				return err
			}
			success("%s group %d", action, groupID)
			return nil
		},
	}
}
