package main

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/stockroom/app/routes"
	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/internal/server"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/router"
)

var (
	serveWorkers    int
	serveNoSchedule bool
	serveNoGRPC     bool
	serveMigrate    bool
)

// inventory serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, gRPC health, queue workers and scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, closeApp, err := boot(ctx)
		if err != nil {
			return err
		}
		defer closeApp()

		if serveMigrate {
			ran, err := a.Migrate(ctx)
			if err != nil {
				return err
			}
			logger.Info("migrations applied", "count", len(ran))
		}

		workers := serveWorkers
		if !cmd.Flags().Changed("workers") {
			workers = config.QueueWorkers()
		}
		opts := server.Options{
			HTTPAddr: ":" + config.AppPort(),
			Workers:  workers,
			Schedule: !serveNoSchedule,
		}
		if !serveNoGRPC {
			opts.GRPCAddr = ":" + config.GRPCPort()
		}
		return server.Run(ctx, a, opts)
	},
}

// inventory route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Handlers are never invoked; only the table is read.
		r := router.New()
		routes.RegisterAPI(r, routes.Controllers{
			GraphQL: http.NotFoundHandler(),
			Metrics: metrics.Handler(),
		}, nil)

		infos := r.Routes()
		sort.Slice(infos, func(i, j int) bool {
			if infos[i].Path != infos[j].Path {
				return infos[i].Path < infos[j].Path
			}
			return infos[i].Method < infos[j].Method
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&serveWorkers, "workers", "w", 1, "In-process queue workers (0 to run none; defaults to QUEUE_WORKERS)")
	serveCmd.Flags().BoolVar(&serveNoSchedule, "no-schedule", false, "Do not run scheduled tasks in this process")
	serveCmd.Flags().BoolVar(&serveNoGRPC, "no-grpc", false, "Do not start the gRPC health listener")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply pending migrations before serving")
}
