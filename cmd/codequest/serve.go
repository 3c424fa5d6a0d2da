package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"codequest/internal/devtools"
	"codequest/internal/telemetry"
)

func newServeOfflineCmd(flags *rootFlags) *cobra.Command {
	var (
		addr      string
		packsDir  string
		jwtSecret string
		latency   time.Duration
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "serve-offline",
		Short: "Serve problem packs over the practice HTTP API",
		Long: `Serves bundled or on-disk problem packs with the same generate, run and
submit endpoints as the remote practice service. Point a workspace at it with
--api-url.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			logger, err := telemetry.NewJSONLogger(cfg.LogPath)
			if err != nil {
				return err
			}
			defer logger.Close()

			var packs []devtools.Pack
			if packsDir != "" {
				packs, err = devtools.LoadDir(packsDir)
			} else {
				packs, err = devtools.BuiltinPacks()
			}
			if err != nil {
				return fmt.Errorf("load problem packs: %w", err)
			}
			catalog, err := devtools.NewCatalog(packs)
			if err != nil {
				return err
			}

			srv := devtools.NewServer(devtools.Options{
				Catalog:     catalog,
				Logger:      logger,
				JWTSecret:   jwtSecret,
				Latency:     latency,
				MaxProblems: limit,
			})
			url, err := srv.Start(addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "serving %d problems at %s\n", catalog.Size(), url)

			<-cmd.Context().Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	f.StringVar(&packsDir, "packs-dir", "", "load problem packs from this directory instead of the bundled ones")
	f.StringVar(&jwtSecret, "jwt-secret", "", "verify HS256 bearer tokens with this secret")
	f.DurationVar(&latency, "latency", 0, "delay every evaluation response")
	f.IntVar(&limit, "limit", 3, "problems returned per generate request")
	return cmd
}
