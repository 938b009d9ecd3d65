package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/starrain-dev/botctl/internal/config"
	"github.com/starrain-dev/botctl/pkg/channel"
	"github.com/starrain-dev/botctl/pkg/protocol"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream live controller events until interrupted",
		Long: `Open the control channel and print every event the controller pushes:
plugin changes, permission edits, sent messages, system notices.

The channel reconnects automatically after transient failures. It stops
when the credential expires, when the controller's connection limit is
reached, or on Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client := newClient(cfg)
			if client.Credential() == "" {
				return fmt.Errorf("not logged in, run 'botctl login' first")
			}

			done := make(chan struct{})
			stop := sync.OnceFunc(func() { close(done) })

			sess := channel.New(client, channel.Config{
				URL:            cfg.WebSocketURL,
				ReconnectDelay: config.Duration(cfg.ReconnectDelay, channel.DefaultReconnectDelay),
				OnMessage: func(msg protocol.Message) {
					fmt.Printf("%-20s %s\n", msg.Type, string(msg.Raw))
				},
				OnStatus: func(st channel.Status) {
					switch st {
					case channel.StatusConnected:
						success("channel open")
					case channel.StatusDisconnected:
						warn("channel lost")
					case channel.StatusNonceFailed:
						warn("could not obtain a connection challenge")
						stop()
					case channel.StatusExpired:
						warn("session expired, run 'botctl login' again")
						stop()
					case channel.StatusMaxConn:
						warn("controller connection limit reached")
						stop()
					}
				},
			})

			sess.Connect(cmd.Context())
			defer sess.Disconnect()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			select {
			case <-sig:
			case <-done:
			case <-cmd.Context().Done():
			}
			return nil
		},
	}
}
