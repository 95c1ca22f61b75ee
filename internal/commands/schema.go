package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/report"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/schema"
)

func newSchemaCmd(a *app) *cobra.Command {
	var (
		catalogFile string
		archive     bool
	)

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Validate the live database schema against the expected tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if catalogFile != "" {
				a.cfg.CatalogFile = catalogFile
			}
			ctx := cmd.Context()

			res, err := a.validateSchema(ctx)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := renderSchema(&buf, a.format, res); err != nil {
				return err
			}
			body := buf.Bytes()
			if _, err := cmd.OutOrStdout().Write(body); err != nil {
				return err
			}

			if archive {
				if err := a.archive(ctx, uuid.New().String(), a.format, body); err != nil {
					return err
				}
			}

			if !res.OK() {
				return checkFailed{checks: []string{"schema"}}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogFile, "catalog", "", "YAML catalog of expected tables (default built-in)")
	cmd.Flags().BoolVar(&archive, "archive", false, "upload the rendered report to the archive")
	return cmd
}

// validateSchema opens the database, runs the Validator and closes the
// connection.
func (a *app) validateSchema(ctx context.Context) (*schema.Result, error) {
	catalog, err := a.catalog()
	if err != nil {
		return nil, err
	}
	db, err := a.openDB(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	intro, err := a.newIntrospector(db)
	if err != nil {
		return nil, err
	}
	return schema.NewValidator(intro, a.log).Validate(ctx, catalog)
}

func renderSchema(w io.Writer, f format, res *schema.Result) error {
	switch f {
	case formatJSON:
		return report.WriteJSON(w, res)
	case formatHTML:
		return report.WriteHTML(w, res)
	default:
		return report.WriteText(w, res)
	}
}

// archive uploads body and logs where it went.
func (a *app) archive(ctx context.Context, runID string, f format, body []byte) error {
	arch, closeStore, err := a.archiver(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	saved, err := arch.Save(ctx, runID, time.Now(), f.archiveFormat(), body)
	if err != nil {
		return errs.Wrap(errs.KindOf(err), fmt.Sprintf("archive report %s", runID), err)
	}
	fields := map[string]interface{}{"bucket": saved.Bucket, "key": saved.Key, "size": saved.Size}
	if saved.URL != "" {
		fields["url"] = saved.URL
	}
	a.log.InfoWith("report archived", fields)
	return nil
}
