package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/jrsteele09/cactus-garden/cache"
	"github.com/jrsteele09/cactus-garden/garden"
	"github.com/jrsteele09/cactus-garden/internal/config"
	"github.com/jrsteele09/cactus-garden/kiosk"
	"github.com/jrsteele09/cactus-garden/retry"
	"github.com/jrsteele09/cactus-garden/server"
	"github.com/jrsteele09/cactus-garden/server/authflowrepo"
	"github.com/jrsteele09/cactus-garden/server/loginsession"
	"github.com/jrsteele09/cactus-garden/storage"
	"github.com/jrsteele09/cactus-garden/storage/filestore"
	"github.com/jrsteele09/cactus-garden/storage/memstore"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

const apiTimeout = 15 * time.Second

type rootOptions struct {
	envFile     string
	overlayFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "garden",
		Short:         "Front ends for the cactus garden API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	rootCmd.PersistentFlags().StringVar(&opts.overlayFile, "config", os.Getenv("GARDEN_CONFIG"), "YAML overlay of environment defaults")

	rootCmd.AddCommand(
		frontendCmd("admin", "Run the staff admin panel", opts, buildAdmin),
		frontendCmd("kiosk", "Run the public garden kiosk", opts, buildKiosk),
		frontendCmd("serve", "Run the admin panel and the kiosk", opts, buildAll),
	)
	return rootCmd
}

type builder func(ctx context.Context, cfg config.Config, log zerolog.Logger, store storage.Storage) ([]*http.Server, error)

// frontendCmd reads opts when the command runs, after flags are parsed.
func frontendCmd(use, short string, opts *rootOptions, build builder) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), *opts, func(ctx context.Context, cfg config.Config, log zerolog.Logger) ([]*http.Server, error) {
				store, err := openStorage(cfg)
				if err != nil {
					return nil, err
				}
				return build(ctx, cfg, log, store)
			})
		},
	}
}

// openStorage keeps client state in TOKEN_FILE when set, sealed with TOKEN_KEY.
func openStorage(cfg config.Config) (storage.Storage, error) {
	if cfg.GetTokenFile() == "" {
		return memstore.New(), nil
	}
	fs, err := filestore.Open(cfg.GetTokenFile(), filestore.WithSecret(cfg.GetTokenKey()))
	if err != nil {
		return nil, errors.Wrap(err, "[openStorage]")
	}
	return fs, nil
}

func buildAdmin(ctx context.Context, cfg config.Config, log zerolog.Logger, store storage.Storage) ([]*http.Server, error) {
	admin, err := server.NewAdmin(cfg, log,
		loginsession.NewInMemoryLoginSessionRepo(),
		authflowrepo.NewInMemoryRepo(),
		server.WithTokenStorage(store),
	)
	if err != nil {
		return nil, err
	}
	go admin.Run(ctx)

	return []*http.Server{{Addr: cfg.GetAdminPort(), Handler: admin.Handler(admin.SessionGate)}}, nil
}

func buildKiosk(_ context.Context, cfg config.Config, log zerolog.Logger, store storage.Storage) ([]*http.Server, error) {
	httpClient := &http.Client{Timeout: apiTimeout}

	api, err := garden.NewClient(cfg.GetAPIBaseURL(), garden.Public, httpClient,
		garden.WithRetryPolicy(retry.FromConfig(cfg)),
		garden.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	var tokens oauth2.TokenSource
	if t := cfg.GetKioskAccessToken(); t != "" {
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: t, TokenType: "Bearer"})
	}

	k, err := server.NewKiosk(cfg, log, api,
		cache.New(store, cfg.GetCacheTTL(), cache.WithLogger(log)),
		kiosk.NewImageLoader(httpClient, tokens, kiosk.WithLogger(log)),
	)
	if err != nil {
		return nil, err
	}
	return []*http.Server{{Addr: cfg.GetKioskPort(), Handler: k.Handler()}}, nil
}

func buildAll(ctx context.Context, cfg config.Config, log zerolog.Logger, store storage.Storage) ([]*http.Server, error) {
	admin, err := buildAdmin(ctx, cfg, log, store)
	if err != nil {
		return nil, err
	}
	k, err := buildKiosk(ctx, cfg, log, store)
	if err != nil {
		return nil, err
	}
	return append(admin, k...), nil
}
