package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/teacher-contracts/internal/core/events"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start workers that consume contract events from RabbitMQ.`,
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Turn contract events from RabbitMQ into notifications",
	Long: `Consume the contract event exchange and create notifications through the
worker pool. Run it with notification.out_of_process set so the API servers
skip their own fan-out.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startNotificationWorker(); err != nil {
			fmt.Fprintf(os.Stderr, "worker: %v\n", err)
			os.Exit(1)
		}
	},
}

var maxWorkers, jobQueueSize int

func startNotificationWorker() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if !cfg.RabbitMQ.Enabled {
		return errors.New("rabbitmq.enabled must be set for the notification worker")
	}
	if maxWorkers > 0 {
		cfg.Notification.MaxWorkers = maxWorkers
	}
	if jobQueueSize > 0 {
		cfg.Notification.JobQueueSize = jobQueueSize
	}

	// The worker must not republish what it consumes.
	cfg.RabbitMQ.Enabled = false
	deps, err := initializeDependencies(cfg)
	if err != nil {
		return err
	}
	defer deps.Close()
	lg := deps.Logger

	// No sockets here; clients pick the rows up on their next poll.
	services := deps.NewServices(nil)
	dispatcher := deps.NewNotificationFanOut(services)

	consumer, err := events.DialAMQPConsumer(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.Queue,
		[]string{events.EventTypeContractCreated, events.EventTypeContractStatusChanged},
		deps.Bus,
		lg,
	)
	if err != nil {
		return err
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lg.Info("notification worker is running. Press Ctrl+C to stop.",
		"max_workers", cfg.Notification.MaxWorkers,
		"job_queue_size", cfg.Notification.JobQueueSize,
		"queue", cfg.RabbitMQ.Queue)

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error("consumer stopped", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		lg.Warn("shutdown timeout reached, forcing exit", "error", err)
	}
	lg.Info("notification worker shutdown complete")
	return nil
}

func init() {
	notificationWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	notificationWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")

	workerCmd.AddCommand(notificationWorkerCmd)
	rootCmd.AddCommand(workerCmd)
}
