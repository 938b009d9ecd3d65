package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/starrain-dev/botctl/pkg/api"
)

func sendCmd() *cobra.Command {
	var msgType string
	var userID int64
	var groupID int64

	cmd := &cobra.Command{
		Use:   "send <message...>",
		Short: "Send a message through the bot",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := newClient(cfg)

			req := api.SendMessageRequest{
				Type:    msgType,
				UserID:  userID,
				GroupID: groupID,
				Message: strings.Join(args, " "),
			}
			if err := client.SendMessage(cmd.Context(), req); err != nil {
				return err
			}
			success("message sent")
			return nil
		},
	}

	cmd.Flags().StringVarP(&msgType, "type", "t", "private", "Message type: private or group")
	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "Target user id (private messages)")
	cmd.Flags().Int64VarP(&groupID, "group", "g", 0, "Target group id (group messages)")

	return cmd
}
