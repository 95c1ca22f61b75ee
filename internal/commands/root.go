// Package commands implements the pulsecheck CLI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/config"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database/connect"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/filestore"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/filestore/minio"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/logger"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/schema"
)

// checkFailed means a check ran and its report, already printed, says it
// failed. Execute exits non-zero without logging it again.
type checkFailed struct {
	checks []string
}

func (e checkFailed) Error() string {
	return "check failed: " + strings.Join(e.checks, ", ")
}

// app carries state shared by every subcommand. The function fields are
// swapped out in tests.
type app struct {
	configPath string
	envFile    string
	format     format
	logLevel   string
	logFormat  string

	cfg config.Config
	log *logger.Logger

	open            connect.Opener
	newIntrospector func(database.DB) (schema.Introspector, error)
	newStore        func(context.Context, *filestore.Config) (filestore.Store, error)
}

func newApp() *app {
	return &app{
		format:          formatText,
		log:             logger.Nop(),
		open:            connect.Open,
		newIntrospector: schema.NewIntrospector,
		newStore:        openMinIO,
	}
}

func openMinIO(ctx context.Context, cfg *filestore.Config) (filestore.Store, error) {
	d, err := minio.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Execute runs the CLI application.
func Execute(version string) error {
	root := newRootCmd(newApp(), version)
	err := root.Execute()
	if err != nil {
		var cf checkFailed
		if !errors.As(err, &cf) {
			fmt.Fprintln(os.Stderr, "pulsecheck:", errs.Message(err))
		}
	}
	return err
}

func newRootCmd(a *app, version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "pulsecheck",
		Short:         "Diagnostics for the UrbanPulse database, environment and heatmap endpoint",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&a.envFile, "env-file", "", "dotenv file (default from config, .env)")
	pf.VarP(&a.format, "format", "f", "output format: text, json or html")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn, error or disabled")
	pf.StringVar(&a.logFormat, "log-format", "", "console or json")

	root.AddCommand(
		newEnvCmd(a),
		newDriverCmd(a),
		newSchemaCmd(a),
		newCRUDCmd(a),
		newHeatmapCmd(a),
		newServeCmd(a),
		newAllCmd(a),
		newReportsCmd(a),
	)
	return root
}

// setup loads configuration, builds the logger and stores it in the
// command context.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	a.cfg = cfg

	a.log = logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		TimeFormat: "rfc3339",
		Output:     cmd.ErrOrStderr(),
	})
	logger.SetGlobal(a.log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(a.log.WithContext(ctx))
	return nil
}

// dbConfig validates the database settings and converts them.
func (a *app) dbConfig() (*database.Config, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	return a.cfg.Database.Connection()
}

func (a *app) openDB(ctx context.Context) (database.DB, error) {
	cfg, err := a.dbConfig()
	if err != nil {
		return nil, err
	}
	return a.open(ctx, cfg)
}

func (a *app) catalog() (schema.Catalog, error) {
	if a.cfg.CatalogFile == "" {
		return schema.DefaultCatalog(), nil
	}
	return schema.LoadCatalog(a.cfg.CatalogFile)
}

// archiver connects to the report archive. The returned func closes it.
func (a *app) archiver(ctx context.Context) (*filestore.Archiver, func(), error) {
	if !a.cfg.Archive.Enabled() {
		return nil, nil, errs.New(errs.ErrKindInvalidInput, "archive endpoint not configured (set archive.endpoint or ARCHIVE_ENDPOINT)")
	}
	store, err := a.newStore(ctx, a.cfg.Archive.Filestore())
	if err != nil {
		return nil, nil, err
	}
	closeStore := func() { _ = store.Close() }
	return filestore.NewArchiver(store, a.cfg.Archive.Bucket, a.cfg.Archive.PresignTTL), closeStore, nil
}
