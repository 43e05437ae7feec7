package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/evan-idocoding/tweakkit/catalog"
	"github.com/evan-idocoding/tweakkit/internal/config"
	"github.com/evan-idocoding/tweakkit/persist/sqlitestore"
	"github.com/evan-idocoding/tweakkit/persist/yamlfile"
	"github.com/evan-idocoding/tweakkit/rt/tweak"
	"github.com/evan-idocoding/tweakkit/rt/tweak/tweakslog"
)

// Built-in collection holding tweakkit's own settings.
const (
	builtinCollection = "tweakkit"
	logLevelKey       = "tweakkit.logLevel"
)

// app is the state shared by all commands of one invocation.
type app struct {
	cfgFile string

	cfg       config.Config
	logger    *slog.Logger
	level     *slog.LevelVar
	store     *tweak.Store
	persister tweak.Persister
	closers   []func() error
}

// open builds the store for one invocation. On error, anything already
// opened is closed again.
func (a *app) open(cmd *cobra.Command) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(err, a.close())
		}
	}()

	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	lvl, _ := cfg.Log.SlogLevel()
	a.level = new(slog.LevelVar)
	a.level.Set(lvl)
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Log.Format, a.level)

	cols, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}

	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := sqlitestore.Open(cfg.Storage.Path, sqlitestore.WithLogger(a.logger))
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		a.persister = db
		a.closers = append(a.closers, db.Close)
	default:
		a.persister = yamlfile.New(cfg.Storage.Path, yamlfile.WithLogger(a.logger))
	}

	st := tweak.New(tweak.WithPersister(a.persister), tweak.WithLogger(a.logger))
	lvDef, err := tweakslog.LevelDefinition(logLevelKey, lvl)
	if err != nil {
		return err
	}
	builtin := tweak.NewCollection(builtinCollection)
	if err := builtin.Add(lvDef); err != nil {
		return err
	}
	if err := st.Register(builtin); err != nil {
		return err
	}
	for _, c := range cols {
		if err := st.Register(c); err != nil {
			return fmt.Errorf("catalog %s: %w", cfg.Catalog.Path, err)
		}
	}

	rep := st.LoadOverrides()
	a.logger.Debug("overrides loaded", "applied", len(rep.Applied), "skipped", len(rep.Skipped))

	cancel, err := tweakslog.BindLevel(st, logLevelKey, a.level)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error { cancel(); return nil })
	a.store = st
	return nil
}

// closing wraps run so the store is closed after it returns, whatever the error.
func (a *app) closing(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		return errors.Join(err, a.close())
	}
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newLogger(w io.Writer, format string, lv *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: lv}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
