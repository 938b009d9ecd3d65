package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/starrain-dev/botctl/internal/config"
	booterrors "github.com/starrain-dev/botctl/internal/errors"
	"github.com/starrain-dev/botctl/pkg/api"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	flagController string
	flagVerbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "botctl",
		Short: "Admin control client for the Starrain bot controller",
		Long: `botctl manages a running Starrain bot through its controller API.

It covers the full admin surface: status, plugin enablement, access
lists, group deny lists, log retrieval, message delivery, and process
control, plus a live event channel (botctl watch).

Credentials come from 'botctl login' and are cached locally until the
controller rejects them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagController, "controller", "", "Controller base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		loginCmd(),
		logoutCmd(),
		statusCmd(),
		pluginsCmd(),
		permsCmd(),
		blacklistCmd(),
		logsCmd(),
		sendCmd(),
		friendsCmd(),
		groupsCmd(),
		restartCmd(),
		shutdownCmd(),
		watchCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", displayError(err))
		os.Exit(1)
	}
}

// displayError renders an error for a human: structured errors go through
// the display registry so internal codes never leak.
func displayError(err error) string {
	var berr *booterrors.Error
	if errors.As(err, &berr) {
		return berr.Display()
	}
	return err.Error()
}

// loadConfig reads botctl.json and applies the --controller override.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	if flagController != "" {
		cfg.ControllerURL = strings.TrimRight(flagController, "/")
	}
	return cfg, nil
}

// newClient builds the API client from config and restores any cached
// credential.
func newClient(cfg *config.Config) *api.Client {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client := api.New(cfg.ControllerURL,
		api.WithLogger(logger),
		api.WithTimeout(config.Duration(cfg.RequestTimeout, api.DefaultTimeout)),
		api.WithLoginTimeout(config.Duration(cfg.LoginTimeout, api.LoginTimeout)),
	)
	if token, err := loadCredential(cfg); err == nil && token != "" {
		client.SetCredential(token)
	}
	return client
}

// credentialPath returns where the bearer credential is cached.
func credentialPath(cfg *config.Config) (string, error) {
	if cfg.CredentialFile != "" {
		return cfg.CredentialFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "botctl", "credential"), nil
}

func loadCredential(cfg *config.Config) (string, error) {
	path, err := credentialPath(cfg)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// saveCredential caches the bearer credential, owner-readable only.
func saveCredential(cfg *config.Config, token string) error {
	path, err := credentialPath(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}

func clearCredential(cfg *config.Config) {
	if path, err := credentialPath(cfg); err == nil {
		os.Remove(path)
	}
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// formatUptime renders an uptime in a compact human form.
func formatUptime(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	if d <= 0 {
		return "not running"
	}
	if d >= 24*time.Hour {
		days := int(d.Hours()) / 24
		return fmt.Sprintf("%dd%dh", days, int(d.Hours())%24)
	}
	if d >= time.Hour {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
	if d >= time.Minute {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}
