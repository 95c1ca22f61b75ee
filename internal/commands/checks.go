package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/diag"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/envcheck"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/smoke"
)

func (a *app) envOptions() envcheck.Options {
	return envcheck.Options{
		EnvFile:  a.cfg.Env.File,
		Required: a.cfg.Env.Required,
		LLMKeys:  a.cfg.Env.LLMKeys,
	}
}

func (a *app) heatmapOptions() smoke.HeatmapOptions {
	return smoke.HeatmapOptions{URL: a.cfg.Heatmap.URL, Timeout: a.cfg.Heatmap.Timeout}
}

func newEnvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Report which required environment variables are set (values masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := envcheck.Check(a.envOptions())
			if err := emit(cmd.OutOrStdout(), a.format, rep, func(w io.Writer) error { return writeEnvText(w, rep) }); err != nil {
				return err
			}
			if !rep.OK {
				return checkFailed{checks: []string{"env"}}
			}
			return nil
		},
	}
}

func newDriverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "driver",
		Short: "Open the configured database driver and report the server version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.dbConfig()
			if err != nil {
				return err
			}
			rep := diag.CheckDriver(cmd.Context(), cfg, a.open)
			if err := emit(cmd.OutOrStdout(), a.format, rep, func(w io.Writer) error { return writeDriverText(w, rep) }); err != nil {
				return err
			}
			if !rep.OK {
				return checkFailed{checks: []string{"driver"}}
			}
			return nil
		},
	}
}

func newCRUDCmd(a *app) *cobra.Command {
	var opts smoke.CRUDOptions

	cmd := &cobra.Command{
		Use:   "crud",
		Short: "Insert, read, update and delete a marked row in analysis_reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			rep := smoke.CRUD(cmd.Context(), db, opts)
			if err := emit(cmd.OutOrStdout(), a.format, rep, func(w io.Writer) error { return writeCRUDText(w, rep) }); err != nil {
				return err
			}
			if !rep.OK {
				return checkFailed{checks: []string{"crud"}}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "table to exercise (default analysis_reports)")
	cmd.Flags().StringVar(&opts.Marker, "marker", "", "user_input value marking the test row")
	cmd.Flags().StringVar(&opts.Status, "status", "", "status column value for the inserted row")
	return cmd
}

func newHeatmapCmd(a *app) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Fetch the heatmap-data endpoint and check its JSON points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.heatmapOptions()
			if url != "" {
				opts.URL = url
			}
			rep := smoke.Heatmap(cmd.Context(), opts)
			if err := emit(cmd.OutOrStdout(), a.format, rep, func(w io.Writer) error { return writeHeatmapText(w, rep) }); err != nil {
				return err
			}
			if !rep.OK {
				return checkFailed{checks: []string{"heatmap"}}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "endpoint URL (default HEATMAP_URL)")
	return cmd
}
