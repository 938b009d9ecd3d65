package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func loginCmd() *cobra.Command {
	var username string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the controller and cache the credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := newClient(cfg)

			if password == "" {
				fmt.Fprint(os.Stderr, "Password: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return err
				}
				password = strings.TrimSpace(string(raw))
			}

			result, err := client.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if err := saveCredential(cfg, result.Token); err != nil {
				warn("logged in, but could not cache the credential: %v", err)
				return nil
			}
			success("logged in to %s (expires in %ds)", cfg.ControllerURL, result.ExpiresIn)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "admin", "Controller username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Controller password (prompted when omitted)")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the cached credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := newClient(cfg)
			err = client.Logout(cmd.Context())
			clearCredential(cfg)
			if err != nil {
				warn("local credential cleared; controller said: %s", displayError(err))
				return nil
			}
			success("logged out")
			return nil
		},
	}
}
