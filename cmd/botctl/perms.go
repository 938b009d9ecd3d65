package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/starrain-dev/botctl/pkg/api"
)

func permsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perms",
		Short: "Manage the three access-list tiers (admins, owners, developers)",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List members of every tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			perms, err := newClient(cfg).Permissions(cmd.Context())
			if err != nil {
				return err
			}
			printTier("admins", perms.Admins)
			printTier("owners", perms.Owners)
			printTier("developers", perms.Developers)
			return nil
		},
	}

	cmd.AddCommand(list, permsEditCmd("add"), permsEditCmd("remove"))
	return cmd
}

func permsEditCmd(action string) *cobra.Command {
	var tier string

	cmd := &cobra.Command{
		Use:   action + " <account-id>",
		Short: action + " an account in a tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("account id must be numeric: %q", args[0])
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := newClient(cfg)

			t := api.Tier(tier)
			if action == "add" {
				err = client.AddPermission(cmd.Context(), t, id)
			} else {
				err = client.RemovePermission(cmd.Context(), t, id)
			}
			if err != nil {
				return err
			}
			success("%s %d in %s", action, id, tier)
			return nil
		},
	}

	cmd.Flags().StringVar(&tier, "tier", "admins", "Tier to edit: admins, owners, or developers")
	return cmd
}

func printTier(name string, ids []int64) {
	fmt.Printf("%s:\n", name)
	if len(ids) == 0 {
		info("(none)")
		return
	}
	for _, id := range ids {
		info("%d", id)
	}
}
