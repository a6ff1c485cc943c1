package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/relaychat/internal/app"
	"github.com/vovakirdan/relaychat/internal/auth"
	"github.com/vovakirdan/relaychat/internal/store/sqlite"
)

func newUserAddCmd(root *rootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "useradd <username>",
		Short: "Create an account in the user database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(root)
			if err != nil {
				return err
			}

			st, err := sqlite.New(cfg.DatabasePath)
			if err != nil {
				return fmt.Errorf("init store: %w", err)
			}
			defer st.Close()

			token, err := app.NewAuthService(st, &cfg).Register(cmd.Context(), args[0], password)
			switch {
			case errors.Is(err, auth.ErrUserExists):
				return fmt.Errorf("user %q already exists", args[0])
			case err != nil:
				return err
			}

			logger.Info().Str("username", args[0]).Str("db_path", cfg.DatabasePath).Msg("user created")
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (at least 6 characters)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
