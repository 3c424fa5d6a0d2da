package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codequest/internal/app"
)

var version = "dev"

type rootFlags struct {
	configPath string
	envFile    string
	apiURL     string
	tokenFile  string
	dataDir    string
	logPath    string
	exportDir  string
	offline    bool
	ascii      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "codequest",
		Short:         "Practice coding problems in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.config/codequest/config.yaml)")
	pf.StringVar(&flags.envFile, "env-file", "", "dotenv file loaded before the environment (default .env)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "directory for the local history database")
	pf.StringVar(&flags.tokenFile, "token-file", "", "file holding the bearer token")
	pf.StringVar(&flags.logPath, "log-path", "", "write JSON event logs to this file")

	f := root.Flags()
	f.StringVar(&flags.apiURL, "api-url", "", "practice service base URL")
	f.StringVar(&flags.exportDir, "export-dir", "", "directory solutions are downloaded to")
	f.BoolVar(&flags.offline, "offline", false, "serve bundled problem packs locally instead of the remote service")
	f.BoolVar(&flags.ascii, "ascii", false, "draw with ASCII glyphs only")

	root.AddCommand(
		newServeOfflineCmd(flags),
		newHistoryCmd(flags),
		newLoginCmd(flags),
		newLogoutCmd(flags),
		newVersionCmd(),
	)
	return root
}

// load resolves the configuration; flags set on the command line win.
func (f *rootFlags) load(cmd *cobra.Command) (app.Config, error) {
	cfg, err := app.LoadConfig(f.configPath, f.envFile)
	if err != nil {
		return cfg, err
	}
	changed := cmd.Flags().Changed
	if changed("api-url") {
		cfg.APIURL = f.apiURL
	}
	if changed("token-file") {
		cfg.TokenFile = f.tokenFile
	}
	if changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if changed("log-path") {
		cfg.LogPath = f.logPath
	}
	if changed("export-dir") {
		cfg.ExportDir = f.exportDir
	}
	if changed("offline") {
		cfg.Offline = f.offline
	}
	if changed("ascii") {
		cfg.UI.ASCII = f.ascii
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the codequest version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "codequest", version)
		},
	}
}
