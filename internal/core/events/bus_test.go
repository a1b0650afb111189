package events_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/frahmantamala/teacher-contracts/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("EventBus", func() {
	var bus *events.EventBus

	BeforeEach(func() {
		bus = events.NewEventBus(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
	})

	It("should deliver to handlers of the event type and to wildcard handlers", func() {
		var typed, all, other int32
		bus.Subscribe(events.EventTypeContractCreated, func(ctx context.Context, e events.Event) error {
			atomic.AddInt32(&typed, 1)
			return nil
		})
		bus.Subscribe(events.AllEvents, func(ctx context.Context, e events.Event) error {
			atomic.AddInt32(&all, 1)
			return nil
		})
		bus.Subscribe(events.EventTypeContractStatusChanged, func(ctx context.Context, e events.Event) error {
			atomic.AddInt32(&other, 1)
			return nil
		})

		err := bus.PublishSync(context.Background(), events.NewContractCreatedEvent("c9", "u6", "d1", "full_time", "Full-time contract", "u6"))

		Expect(err).NotTo(HaveOccurred())
		Expect(typed).To(Equal(int32(1)))
		Expect(all).To(Equal(int32(1)))
		Expect(other).To(Equal(int32(0)))
	})

	It("should stop synchronous delivery on the first failing handler", func() {
		bus.Subscribe("x", func(ctx context.Context, e events.Event) error { return errors.New("boom") })

		err := bus.PublishSync(context.Background(), events.BaseEvent{ID: "1", Type: "x"})
		Expect(err).To(MatchError(ContainSubstring("boom")))
	})

	It("should detach asynchronous handlers from the caller's cancellation", func() {
		var sawErr atomic.Value
		bus.Subscribe("x", func(ctx context.Context, e events.Event) error {
			time.Sleep(10 * time.Millisecond)
			sawErr.Store(ctx.Err() == nil)
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		Expect(bus.Publish(ctx, events.BaseEvent{ID: "1", Type: "x"})).To(Succeed())
		cancel()

		drainCtx, drainCancel := context.WithTimeout(context.Background(), time.Second)
		defer drainCancel()
		Expect(bus.Drain(drainCtx)).To(Succeed())
		Expect(sawErr.Load()).To(Equal(true))
	})

	It("should expose payload fields of typed events", func() {
		e := events.NewContractStatusChangedEvent(events.StatusChange{
			ContractID: "c3",
			ToStatus:   "pending_hr",
			ActorID:    "u2",
		})

		Expect(events.StringField(e, "contract_id")).To(Equal("c3"))
		Expect(events.StringField(e, "to_status")).To(Equal("pending_hr"))
		Expect(events.StringField(e, "missing")).To(BeEmpty())
	})
})
