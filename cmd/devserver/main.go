// Command devserver runs a local stand-in for the fitnest backend.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fitnest/client/internal/config"
	"fitnest/client/internal/devserver"
	"fitnest/client/internal/logging"

	"github.com/spf13/cobra"
)

var (
	configPath string
	addr       string
	echo       bool
	noSeed     bool
)

var rootCmd = &cobra.Command{
	Use:          "devserver",
	Short:        "Local backend with auth, decks and the chat relay",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configPath == "" {
			configPath = os.Getenv("CONFIG_PATH")
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if addr != "" {
			cfg.DevServer.Addr = addr
		}
		if echo {
			cfg.DevServer.EchoToSender = true
		}
		if noSeed {
			cfg.DevServer.Seed = false
		}

		logger, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		defer logger.Sync()

		srv, err := devserver.New(cmd.Context(), cfg.DevServer, logger.Named("devserver"))
		if err != nil {
			return err
		}
		return srv.Run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML config file (default $CONFIG_PATH)")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides the config")
	rootCmd.Flags().BoolVar(&echo, "echo-sender", false, "also relay each message back to its sender")
	rootCmd.Flags().BoolVar(&noSeed, "no-seed", false, "skip loading demo accounts and listings")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
