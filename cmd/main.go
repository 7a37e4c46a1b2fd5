// Command fitnest is a terminal client for the fitnest roommate service:
// log in, browse the explore decks, keep a starred list and chat.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fitnest/client/internal/auth"
	"fitnest/client/internal/backend"
	"fitnest/client/internal/config"
	"fitnest/client/internal/localization"
	"fitnest/client/internal/logging"
	"fitnest/client/internal/starred"
	"fitnest/client/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	ephemeral  bool
	language   string
	verbose    bool
)

// app is what every subcommand works with. It is built in the root
// command's PersistentPreRunE and torn down in PersistentPostRunE.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   storage.Store
	api     *backend.Client
	loc     *localization.Localizer
	session *auth.Session
}

var current *app

var rootCmd = &cobra.Command{
	Use:           "fitnest",
	Short:         "Terminal client for fitnest",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		current = a
		return nil
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if current == nil {
			return nil
		}
		_ = current.logger.Sync()
		return current.store.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $CONFIG_PATH)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep client state in memory only")
	rootCmd.PersistentFlags().StringVar(&language, "lang", "", "UI language (en, uk)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd, matchesCmd, chatCmd, conversationsCmd, exploreCmd, starredCmd)
}

func newApp(ctx context.Context) (*app, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if ephemeral {
		cfg.Storage.Driver = "memory"
	}
	if language != "" {
		cfg.Language = language
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	api, err := backend.New(cfg.BaseURL,
		backend.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		backend.WithLogger(logger.Named("backend")),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, store: store, api: api, loc: localization.Default()}
	if sess, err := auth.Load(ctx, store); err == nil {
		a.useSession(ctx, sess)
	} else if !errors.Is(err, auth.ErrNotLoggedIn) {
		logger.Warn("stored session unreadable", zap.Error(err))
	}
	return a, nil
}

func (a *app) useSession(ctx context.Context, sess *auth.Session) {
	a.session = sess
	a.api.SetTokenSource(sess)
	if n, err := a.starred().MigrateLegacy(ctx); err != nil {
		a.logger.Warn("legacy starred list not migrated", zap.Error(err))
	} else if n > 0 {
		a.logger.Info("legacy starred items migrated", zap.Int("items", n))
	}
}

// requireSession fails with the localized "not logged in" message.
func (a *app) requireSession() error {
	if !a.session.Valid() {
		return errors.New(a.t("auth.not_logged_in"))
	}
	return nil
}

func (a *app) starred() *starred.Cache {
	return starred.New(a.store, a.session, a.logger.Named("starred"))
}

func (a *app) t(key string, args ...any) string {
	if len(args) == 0 {
		return a.loc.GetString(a.cfg.Language, key)
	}
	return a.loc.Format(a.cfg.Language, key, args...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
