// Package server runs the long-lived processes of the service under one
// errgroup: the HTTP listener, the gRPC health listener, queue workers, the
// stock feed hub and the scheduler. Cancelling ctx stops them all.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shashiranjanraj/stockroom/internal/app"
	"github.com/shashiranjanraj/stockroom/internal/kernel"
	"github.com/shashiranjanraj/stockroom/pkg/grpc"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

// Options selects what Run starts.
type Options struct {
	HTTPAddr string
	// GRPCAddr empty disables the gRPC health listener.
	GRPCAddr string
	// Workers is the number of in-process queue workers. Zero leaves jobs
	// to a separate queue:work process.
	Workers int
	// Schedule runs the scheduler in this process.
	Schedule bool

	ShutdownTimeout time.Duration
}

// Run blocks until ctx is cancelled or a component fails, then shuts the
// rest down gracefully.
func Run(ctx context.Context, a *app.App, opts Options) error {
	k, err := kernel.NewHTTP(a)
	if err != nil {
		return err
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 15 * time.Second
	}

	srv := &http.Server{
		Addr:              opts.HTTPAddr,
		Handler:           k.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server: http listening", "addr", opts.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()
		logger.Info("server: http shutting down")
		return srv.Shutdown(sctx)
	})

	if opts.GRPCAddr != "" {
		if err := serveGRPC(ctx, g, a, opts.GRPCAddr); err != nil {
			return err
		}
	}

	g.Go(func() error { a.Hub.Run(ctx); return nil })
	g.Go(func() error { k.Sweep(ctx); return nil })

	if opts.Workers > 0 {
		g.Go(func() error { a.Queue.Work(ctx, opts.Workers); return nil })
	}
	if a.RedisQueue != nil {
		g.Go(func() error { a.RedisQueue.Promote(ctx, time.Second); return nil })
	}
	if opts.Schedule {
		g.Go(func() error { a.Scheduler.Start(ctx); return nil })
	}

	return g.Wait()
}

func serveGRPC(ctx context.Context, g *errgroup.Group, a *app.App, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	gs := grpc.New()

	var probes []grpc.Probe
	for _, p := range a.Probes() {
		probes = append(probes, p)
	}

	g.Go(func() error {
		logger.Info("server: grpc listening", "addr", addr)
		return gs.Serve(lis)
	})
	g.Go(func() error { gs.Watch(ctx, 10*time.Second, probes...); return nil })
	g.Go(func() error {
		<-ctx.Done()
		gs.Stop()
		return nil
	})
	return nil
}
