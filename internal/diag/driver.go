// Package diag holds the connectivity diagnostics run before any schema or
// data checks.
package diag

import (
	"context"
	"time"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/database/connect"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/logger"
)

// DriverReport is the outcome of CheckDriver.
type DriverReport struct {
	Driver     string `json:"driver"`
	Target     string `json:"target,omitempty"`
	OK         bool   `json:"ok"`
	Version    string `json:"version,omitempty"`
	Error      string `json:"error,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// CheckDriver opens the configured database with open, which pings it,
// then asks the server for its version. The connection is closed before
// returning. A nil open means connect.Open.
func CheckDriver(ctx context.Context, cfg *database.Config, open connect.Opener) DriverReport {
	if open == nil {
		open = connect.Open
	}
	log := logger.FromContext(ctx)
	start := time.Now()

	rep := DriverReport{Driver: string(cfg.Driver), Target: target(cfg)}
	fail := func(err error) DriverReport {
		rep.Error = errs.Message(err)
		rep.ErrorKind = errs.KindOf(err).String()
		rep.DurationMS = time.Since(start).Milliseconds()
		log.ErrorWith("driver check failed", err, map[string]interface{}{"driver": rep.Driver})
		return rep
	}

	db, err := open(ctx, cfg)
	if err != nil {
		return fail(err)
	}
	defer db.Close()

	if v, ok := db.(connect.Versioner); ok {
		version, err := v.ServerVersion(ctx)
		if err != nil {
			return fail(err)
		}
		rep.Version = version
	}

	rep.OK = true
	rep.DurationMS = time.Since(start).Milliseconds()
	log.InfoWith("driver check passed", map[string]interface{}{"driver": rep.Driver, "version": rep.Version})
	return rep
}

// target describes what was dialled without leaking credentials.
func target(cfg *database.Config) string {
	if cfg.DSN != "" {
		return "dsn"
	}
	if cfg.Database == "" {
		return cfg.Host
	}
	return cfg.Host + "/" + cfg.Database
}
