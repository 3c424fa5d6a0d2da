package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"codequest/internal/app"
)

func newLoginCmd(flags *rootFlags) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a bearer token for the practice service",
		Long: `Stores a bearer token in the token file. Pass it with --token or on the
first line of standard input.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if token == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read token: %w", err)
				}
				token = strings.TrimSpace(line)
			}
			path, err := app.Login(cfg, token)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token saved to", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	return cmd
}

func newLogoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd)
			if err != nil {
				return err
			}
			path, err := app.Logout(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "removed", path)
			return nil
		},
	}
}
