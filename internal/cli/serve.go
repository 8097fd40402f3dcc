package cli

import (
	"net"

	"qadmin/internal/config"
	"qadmin/internal/server"
	"qadmin/internal/store"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr, db, token string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rejection codes API from a local SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.cfg.Serve
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("db") {
				p, err := config.ExpandPath(db)
				if err != nil {
					return writeErr(cmd, err)
				}
				cfg.DB = p
			}
			if cmd.Flags().Changed("api-token") {
				cfg.Token = token
			}

			st, err := store.Open(cmd.Context(), cfg.DB)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer st.Close()

			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := server.Serve(cmd.Context(), ln, server.Config{Addr: cfg.Addr, Token: cfg.Token, Repo: st}); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config serve.addr)")
	cmd.Flags().StringVar(&db, "db", "", "SQLite database path (default from config serve.db)")
	cmd.Flags().StringVar(&token, "api-token", "", "Require this bearer token (default from config serve.token)")
	return cmd
}
