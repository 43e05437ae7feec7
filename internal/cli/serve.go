package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/evan-idocoding/tweakkit/admin"
	"github.com/evan-idocoding/tweakkit/rt/tweak/tweakslog"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP admin API",
		Long: `Serve the HTTP admin API.

Reads are open unless server.read_tokens is set. Writes are mounted only
when server.write_tokens is set; write tokens are also accepted for reads.
Tokens are sent in the X-Access-Token header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", a.cfg.Server.Addr)
			if err != nil {
				return err
			}
			return a.serve(ctx, ln)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default 127.0.0.1:8080)")
	return cmd
}

// serve runs the admin server on ln until ctx is done, then shuts it down.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	cancel := a.store.Subscribe(tweakslog.Observer(a.logger))
	defer cancel()

	srv := &http.Server{
		Handler:           a.adminHandler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("tweakkit listening", "addr", ln.Addr().String(), "writes", len(a.cfg.Server.WriteTokens) > 0)
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func (a *app) adminHandler() http.Handler {
	sc := a.cfg.Server
	var read, write admin.Guard = admin.AllowAll(), nil
	if len(sc.WriteTokens) > 0 {
		write = admin.Tokens(sc.WriteTokens)
	}
	if len(sc.ReadTokens) > 0 {
		read = admin.Tokens(append(append([]string(nil), sc.ReadTokens...), sc.WriteTokens...))
	}

	var checks []admin.ReadyCheck
	if p, ok := a.persister.(interface{ Ping(context.Context) error }); ok {
		checks = append(checks, admin.ReadyCheck{Name: "storage", Func: p.Ping, Timeout: 2 * time.Second})
	}

	opts := []admin.Option{
		admin.EnableHealthz(admin.HealthzSpec{Guard: admin.AllowAll()}),
		admin.EnableReadyz(admin.ReadyzSpec{Guard: read, Checks: checks}),
		admin.EnableTweaks(admin.TweaksSpec{Store: a.store, ReadGuard: read, WriteGuard: write}),
	}
	return admin.New(opts...)
}
