package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func friendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "friends",
		Short: "List the bot's contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			friends, err := newClient(cfg).Friends(cmd.Context())
			if err != nil {
				return err
			}
			for _, f := range friends {
				name := f.Remark
				if name == "" {
					name = f.Nickname
				}
				fmt.Printf("%-12d %s\n", f.UserID, name)
			}
			return nil
		},
	}
}

func groupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List the bot's groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			groups, err := newClient(cfg).Groups(cmd.Context())
			if err != nil {
				return err
			}
			for _, g := range groups {
				fmt.Printf("%-12d %-32s %d members\n", g.GroupID, g.GroupName, g.MemberCount)
			}
			return nil
		},
	}
}
