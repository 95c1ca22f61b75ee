// Package connect opens the database.DB implementation matching a Config.
// It lives outside package database so the drivers can import database
// without a cycle.
package connect

import (
	"context"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database/mysql"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database/postgres"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
)

// Opener opens a database from cfg.
type Opener func(ctx context.Context, cfg *database.Config) (database.DB, error)

// Versioner is implemented by drivers that can report the server version.
type Versioner interface {
	ServerVersion(ctx context.Context) (string, error)
}

// Open connects with the driver named in cfg and pings before returning.
func Open(ctx context.Context, cfg *database.Config) (database.DB, error) {
	if cfg == nil {
		return nil, errs.New(errs.ErrKindInvalidInput, "nil database config")
	}
	switch cfg.Driver {
	case database.DriverMySQL:
		d, err := mysql.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	case database.DriverPostgres:
		d, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported database driver %q", cfg.Driver)
	}
}

var (
	_ Versioner = (*mysql.Driver)(nil)
	_ Versioner = (*postgres.Driver)(nil)
)
