package commands

import (
	"bytes"
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/diag"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/envcheck"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/report"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/smoke"
)

func newAllCmd(a *app) *cobra.Command {
	var (
		skipCRUD bool
		archive  bool
	)

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Run every check in sequence and print one combined report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.format == formatHTML {
				return errs.New(errs.ErrKindInvalidInput, "html output is only available for the schema check")
			}
			ctx := cmd.Context()
			run := a.runAll(ctx, skipCRUD)

			var buf bytes.Buffer
			var err error
			if a.format == formatJSON {
				err = run.WriteJSON(&buf)
			} else {
				err = run.WriteText(&buf)
			}
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
				return err
			}

			if archive {
				var body bytes.Buffer
				if err := run.WriteJSON(&body); err != nil {
					return err
				}
				if err := a.archive(ctx, run.ID.String(), formatJSON, body.Bytes()); err != nil {
					return err
				}
			}

			if failed := run.Failed(); len(failed) > 0 {
				return checkFailed{checks: failed}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipCRUD, "skip-crud", false, "do not write the CRUD test row")
	cmd.Flags().BoolVar(&archive, "archive", false, "upload the JSON run report to the archive")
	return cmd
}

// runAll runs env, driver, schema, crud and heatmap in that order. A check
// that cannot start is recorded as failed; one with nothing to check is
// skipped.
func (a *app) runAll(ctx context.Context, skipCRUD bool) *report.Run {
	run := report.NewRun(time.Now())
	log := a.log.With().Str("run_id", run.ID.String()).Logger()
	ctx = log.WithContext(ctx)

	env := envcheck.Check(a.envOptions())
	run.Add("env", report.CheckResult{OK: env.OK, Error: firstOf(env.Issues), Payload: env})

	dbCfg, dbErr := a.dbConfig()
	if dbErr != nil {
		msg := errs.Message(dbErr)
		run.Add("driver", report.CheckResult{Error: msg})
		run.Add("schema", report.CheckResult{Error: msg})
		run.Add("crud", report.CheckResult{Error: msg, Skipped: skipCRUD})
	} else {
		drv := diag.CheckDriver(ctx, dbCfg, a.open)
		run.Add("driver", report.CheckResult{OK: drv.OK, Error: drv.Error, Payload: drv})

		res, err := a.validateSchema(ctx)
		if err != nil {
			run.Add("schema", report.CheckResult{Error: errs.Message(err)})
		} else {
			run.Add("schema", report.CheckResult{OK: res.OK(), Payload: report.Summarize(res)})
		}

		if skipCRUD {
			run.Add("crud", report.CheckResult{Skipped: true, Error: "disabled by --skip-crud"})
		} else {
			run.Add("crud", a.crudCheck(ctx))
		}
	}

	if a.cfg.Heatmap.URL == "" {
		run.Add("heatmap", report.CheckResult{Skipped: true, Error: "heatmap url not configured"})
	} else {
		hm := smoke.Heatmap(ctx, a.heatmapOptions())
		run.Add("heatmap", report.CheckResult{OK: hm.OK, Error: hm.Error, Payload: hm})
	}

	log.InfoWith("run finished", map[string]interface{}{"status": string(run.Status), "failed": run.Failed()})
	return run
}

func (a *app) crudCheck(ctx context.Context) report.CheckResult {
	db, err := a.openDB(ctx)
	if err != nil {
		return report.CheckResult{Error: errs.Message(err)}
	}
	defer db.Close()

	rep := smoke.CRUD(ctx, db, smoke.CRUDOptions{})
	return report.CheckResult{OK: rep.OK, Error: rep.Error, Payload: rep}
}

func firstOf(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
