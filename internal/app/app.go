package app

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"voicescribe/internal/api/server"
	"voicescribe/internal/app/reconciler"
	"voicescribe/internal/app/watchdog"
)

// App is the assembled service: the HTTP server plus the background loops
// that move processing jobs forward
type App struct {
	Server     *server.Server
	Reconciler *reconciler.Reconciler
	Watchdog   *watchdog.Watchdog
	Logger     *zap.Logger
}

func newApp(srv *server.Server, rec *reconciler.Reconciler, wd *watchdog.Watchdog, logger *zap.Logger) *App {
	return &App{Server: srv, Reconciler: rec, Watchdog: wd, Logger: logger}
}

// Run serves until ctx is cancelled or the server fails. A server failure
// also stops the background loops.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Server.Run(gctx)
	})
	g.Go(func() error {
		a.Reconciler.Start(gctx)
		<-gctx.Done()
		a.Reconciler.Stop()
		return nil
	})
	if a.Watchdog.Enabled() {
		g.Go(func() error {
			a.Watchdog.Start(gctx)
			<-gctx.Done()
			a.Watchdog.Stop()
			return nil
		})
	} else {
		a.Logger.Info("staleness watchdog disabled")
	}

	return g.Wait()
}
