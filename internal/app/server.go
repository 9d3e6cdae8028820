package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
)

// Start binds the listener, serves in the background and returns a channel
// closed on SIGINT, SIGTERM or SIGHUP, or when the server stops on its own.
func (a *App) Start() <-chan struct{} {
	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		slog.Error("failed to bind http listener", "address", a.httpServer.Addr, "error", err)
		os.Exit(1)
	}

	sigCtx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	a.goroutine.Go(a.ctx, "http-server", func(ctx context.Context) error {
		slog.InfoContext(ctx, "http server listening", "address", ln.Addr().String())

		err := a.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		a.cancel()
		return err
	})

	done := make(chan struct{})
	go func() {
		<-sigCtx.Done()
		stop()
		close(done)
		slog.Info("shutdown requested")
	}()

	return done
}

// Stop drains in-flight requests and background work, then runs closers
// in name order. ctx bounds the whole shutdown.
func (a *App) Stop(ctx context.Context) {
	a.cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to shutdown http server", "error", err)
	}

	waited := make(chan error, 1)
	go func() { waited <- a.goroutine.Wait() }()

	slog.InfoContext(ctx, "waiting for background work to finish", "in_flight", a.goroutine.InFlight())
	select {
	case err := <-waited:
		if err != nil {
			slog.ErrorContext(ctx, "background work reported errors", "error", err)
		}
	case <-ctx.Done():
		slog.ErrorContext(ctx, "gave up waiting for background work", "error", ctx.Err())
	}

	names := make([]string, 0, len(a.closerFn))
	for name := range a.closerFn {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if err := a.closerFn[name](ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", name, "error", err)
		}
	}

	slog.InfoContext(ctx, "application stopped")
}
