package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/teacher-contracts/internal/core/events"
	"github.com/frahmantamala/teacher-contracts/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish contract events by hand to exercise subscribers and the RabbitMQ exchange.`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [contract-id]",
	Short: "Publish a contract status change",
	Long: `Publish a contract.status_changed event to the event bus. When RabbitMQ is
enabled the event is forwarded to the exchange as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(args[0])
	},
}

var (
	eventFrom    string
	eventTo      string
	eventTeacher string
	eventDept    string
	eventBroker  bool
)

func publishTestEvent(contractID string) error {
	lg := logger.LoggerWrapper()
	bus := events.NewEventBus(lg)

	bus.Subscribe(events.AllEvents, func(ctx context.Context, event events.Event) error {
		lg.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	if eventBroker {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		lg = logger.LoggerWrapper()
		fwd, err := events.DialAMQPForwarder(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.PublishTimeout, lg)
		if err != nil {
			return err
		}
		defer fwd.Close()
		fwd.Attach(bus)
	}

	event := events.NewContractStatusChangedEvent(events.StatusChange{
		ContractID:   contractID,
		TeacherID:    eventTeacher,
		DepartmentID: eventDept,
		Title:        "CLI test contract",
		FromStatus:   eventFrom,
		ToStatus:     eventTo,
		Action:       "cli",
		ActorID:      "cli",
	})

	lg.Info("publishing test event", "event_type", event.EventType(), "event_id", event.EventID())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := bus.PublishSync(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	lg.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventFrom, "from", "pending_dept", "status before the change")
	publishEventCmd.Flags().StringVar(&eventTo, "to", "pending_hr", "status after the change")
	publishEventCmd.Flags().StringVar(&eventTeacher, "teacher", "u4", "teacher who owns the contract")
	publishEventCmd.Flags().StringVar(&eventDept, "department", "d1", "teacher's department")
	publishEventCmd.Flags().BoolVar(&eventBroker, "broker", false, "also forward to the configured RabbitMQ exchange")

	eventCmd.AddCommand(publishEventCmd)
	rootCmd.AddCommand(eventCmd)
}
