package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/filestore"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the checks over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			dbCfg, err := a.dbConfig()
			if err != nil {
				return err
			}
			db, err := a.open(ctx, dbCfg)
			if err != nil {
				return err
			}
			defer db.Close()

			catalog, err := a.catalog()
			if err != nil {
				return err
			}

			var arch *filestore.Archiver
			if a.cfg.Archive.Enabled() {
				var closeStore func()
				arch, closeStore, err = a.archiver(ctx)
				if err != nil {
					return err
				}
				defer closeStore()
			}

			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}
			srv := server.New(server.Options{
				Addr:            addr,
				DB:              db,
				DBConfig:        dbCfg,
				Open:            a.open,
				Catalog:         catalog,
				Env:             a.envOptions(),
				Heatmap:         a.heatmapOptions(),
				Archiver:        arch,
				Logger:          a.log,
				NewIntrospector: a.newIntrospector,
			})
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
