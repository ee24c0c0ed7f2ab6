package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shashiranjanraj/stockroom/app/jobs"
	"github.com/shashiranjanraj/stockroom/config"
)

var (
	queueWorkersFlag int
	queueFailedLimit int
)

// inventory queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Start webhook delivery workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		a, closeApp, err := boot(ctx)
		if err != nil {
			return err
		}
		defer closeApp()

		if a.RedisQueue == nil {
			return fmt.Errorf("queue:work needs QUEUE_DRIVER=redis; the memory queue is only drained by serve")
		}

		workers := queueWorkersFlag
		if !cmd.Flags().Changed("workers") {
			workers = config.QueueWorkers()
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { a.RedisQueue.Promote(ctx, time.Second); return nil })
		g.Go(func() error { a.Queue.Work(ctx, workers); return nil })
		return g.Wait()
	},
}

// inventory queue:failed
var queueFailedCmd = &cobra.Command{
	Use:   "queue:failed",
	Short: "List dead-lettered jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		a, closeApp, err := boot(ctx)
		if err != nil {
			return err
		}
		defer closeApp()

		failed, err := a.Queue.ListFailed(ctx, queueFailedLimit)
		if err != nil {
			return err
		}
		if len(failed) == 0 {
			fmt.Println("No failed jobs.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tJOB\tATTEMPTS\tFAILED AT\tERROR")
		for _, f := range failed {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", f.ID, f.JobType, f.Attempts, f.FailedAt.Format(time.RFC3339), f.Error)
		}
		return w.Flush()
	},
}

// inventory queue:retry <id>
var queueRetryCmd = &cobra.Command{
	Use:   "queue:retry <id>",
	Short: "Re-dispatch a dead-lettered job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid job id %q", args[0])
		}

		ctx, stop := signalContext()
		defer stop()
		a, closeApp, err := boot(ctx)
		if err != nil {
			return err
		}
		defer closeApp()

		if a.RedisQueue == nil {
			return fmt.Errorf("queue:retry needs QUEUE_DRIVER=redis so a worker can pick the job up")
		}
		if err := a.Queue.Retry(ctx, uint(id), jobs.StockNotificationPolicy); err != nil {
			return err
		}
		fmt.Printf("Job %d re-queued.\n", id)
		return nil
	},
}

// inventory schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Run the task scheduler in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()
		a, closeApp, err := boot(ctx)
		if err != nil {
			return err
		}
		defer closeApp()

		fmt.Println("Registered scheduled tasks:")
		for _, t := range a.Scheduler.List() {
			fmt.Println("  •", t)
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { a.Hub.Run(ctx); return nil })
		g.Go(func() error { a.Scheduler.Start(ctx); return nil })
		return g.Wait()
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 1, "Number of concurrent workers (defaults to QUEUE_WORKERS)")
	queueFailedCmd.Flags().IntVarP(&queueFailedLimit, "limit", "n", 50, "Maximum jobs to list")
}
