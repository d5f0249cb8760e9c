// Package check runs advisory passes against a configured store. It is the
// glue shared by the CLI, the watcher and the HTTP surface.
package check

import (
	"context"
	"io"
	"log/slog"

	"github.com/Aman-CERP/dbadvisor/internal/advisor"
	"github.com/Aman-CERP/dbadvisor/internal/capability"
	"github.com/Aman-CERP/dbadvisor/internal/config"
	"github.com/Aman-CERP/dbadvisor/internal/configstore"
	dberrors "github.com/Aman-CERP/dbadvisor/internal/errors"
)

// OpenFunc opens the inspected configuration store.
type OpenFunc func() (configstore.Store, error)

// Runner runs passes on stores produced by Open.
type Runner struct {
	Advisor *advisor.Advisor
	Open    OpenFunc
	Logger  *slog.Logger
}

// NewAdvisor builds an advisor from settings. Capabilities listed as
// disabled are reported unavailable and a configured catalog replaces the
// default advisory texts.
func NewAdvisor(cfg *config.Config, logger *slog.Logger) (*advisor.Advisor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []advisor.Option{
		advisor.WithProbe(capability.WithDisabled(capability.Default(), cfg.Capabilities.Disabled...)),
		advisor.WithSessionGCMaxLifetime(cfg.Host.SessionGCMaxLifetime),
		advisor.WithLogger(logger),
	}
	if cfg.Catalog != "" {
		cat, err := advisor.LoadCatalog(cfg.Catalog)
		if err != nil {
			return nil, err
		}
		opts = append(opts, advisor.WithCatalog(cat))
	}
	return advisor.New(opts...), nil
}

// NewRunner returns a Runner for the store named by uri.
func NewRunner(a *advisor.Advisor, uri string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Advisor: a,
		Open:    func() (configstore.Store, error) { return configstore.Open(uri) },
		Logger:  logger,
	}
}

// Run opens the store, performs one pass and emits it to sink. Writes made
// by the pass are kept in an overlay and only reach the store, and are
// saved, when persist is set. The store is closed afterwards when it holds
// resources.
func (r *Runner) Run(ctx context.Context, sink advisor.Sink, persist bool) (advisor.Report, error) {
	store, err := r.Open()
	if err != nil {
		return advisor.Report{}, err
	}
	if c, ok := store.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil {
				r.Logger.Warn("failed to close store", slog.String("error", cerr.Error()))
			}
		}()
	}

	overlay := configstore.NewOverlay(store)
	report, err := r.Advisor.RunTo(ctx, overlay, sink)
	if err != nil {
		return report, err
	}

	if changed := overlay.Changed(); len(changed) > 0 {
		if !persist {
			r.Logger.Info("store changes not persisted", slog.Any("paths", changed))
			return report, nil
		}
		if err := overlay.Commit(ctx); err != nil {
			if dberrors.GetCode(err) != "" {
				return report, err
			}
			return report, dberrors.WriteError("failed to persist store changes", err)
		}
		r.Logger.Info("store changes persisted", slog.Any("paths", changed))
	}
	return report, nil
}
