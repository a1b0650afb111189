package notification_test

import (
	"context"
	"sync"

	"github.com/frahmantamala/teacher-contracts/internal/core/events"
	coreUser "github.com/frahmantamala/teacher-contracts/internal/core/user"
	"github.com/frahmantamala/teacher-contracts/internal/notification"
	"github.com/frahmantamala/teacher-contracts/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type fakeRecipients struct {
	deptAdmins map[string][]*user.User
	byRole     map[coreUser.Role][]*user.User
}

func (f *fakeRecipients) DepartmentAdmins(_ context.Context, departmentID string) ([]*user.User, error) {
	return f.deptAdmins[departmentID], nil
}

func (f *fakeRecipients) UsersByRole(_ context.Context, role coreUser.Role) ([]*user.User, error) {
	return f.byRole[role], nil
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []notification.Job
}

func (q *recordingQueue) Enqueue(job notification.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) recipients() map[string]notification.CreateNotificationDTO {
	out := map[string]notification.CreateNotificationDTO{}
	for _, j := range q.jobs {
		out[j.Notification.UserID] = j.Notification
	}
	return out
}

var _ = Describe("EventHandler", func() {
	var (
		ctx     context.Context
		queue   *recordingQueue
		handler *notification.EventHandler
	)

	BeforeEach(func() {
		ctx = context.Background()
		queue = &recordingQueue{}
		recipients := &fakeRecipients{
			deptAdmins: map[string][]*user.User{"d1": {{ID: "u2"}}},
			byRole:     map[coreUser.Role][]*user.User{coreUser.RoleHRAdmin: {{ID: "u1"}}},
		}
		handler = notification.NewEventHandler(recipients, queue, testLogger())
	})

	statusChanged := func(from, to, action, reason string) events.Event {
		return events.NewContractStatusChangedEvent(events.StatusChange{
			ContractID:   "c3",
			TeacherID:    "u4",
			DepartmentID: "d1",
			Title:        "Full-time contract renewal",
			FromStatus:   from,
			ToStatus:     to,
			Action:       action,
			ActorID:      "someone",
			Reason:       reason,
		})
	}

	It("should ask the department admins on submit", func() {
		Expect(handler.HandleContractStatusChanged(ctx, statusChanged("draft", "pending_dept", "submit", ""))).To(Succeed())

		got := queue.recipients()
		Expect(got).To(HaveLen(1))
		Expect(got["u2"].Type).To(Equal(notification.TypeApprovalRequest))
		Expect(got["u2"].Link).To(Equal("/approvals/c3"))
	})

	It("should ask HR and tell the teacher after department approval", func() {
		Expect(handler.HandleContractStatusChanged(ctx, statusChanged("pending_dept", "pending_hr", "approve", ""))).To(Succeed())

		got := queue.recipients()
		Expect(got).To(HaveLen(2))
		Expect(got["u1"].Link).To(Equal("/hr-approvals/c3"))
		Expect(got["u1"].Type).To(Equal(notification.TypeApprovalRequest))
		Expect(got["u4"].Link).To(Equal("/my-contracts/c3"))
		Expect(got["u4"].Type).To(Equal(notification.TypeInfo))
	})

	DescribeTable("teacher outcomes",
		func(to, action, reason string, wantType notification.Type, wantMessage string) {
			Expect(handler.HandleContractStatusChanged(ctx, statusChanged("pending_hr", to, action, reason))).To(Succeed())

			got := queue.recipients()
			Expect(got).To(HaveLen(1))
			Expect(got["u4"].Type).To(Equal(wantType))
			Expect(got["u4"].Link).To(Equal("/my-contracts/c3"))
			Expect(got["u4"].Message).To(ContainSubstring(wantMessage))
		},
		Entry("approved", "approved", "approve", "", notification.TypeApproved, "was approved"),
		Entry("rejected with reason", "rejected", "reject", "Budget", notification.TypeRejected, "was rejected: Budget"),
		Entry("archived", "archived", "archive", "", notification.TypeInfo, "was archived"),
		Entry("terminated", "terminated", "terminate", "", notification.TypeInfo, "was terminated"),
	)

	It("should tell a teacher about a contract HR drafted for them", func() {
		event := events.NewContractCreatedEvent("c9", "u6", "d1", "temporary", "Temporary contract", "u1")
		Expect(handler.HandleContractCreated(ctx, event)).To(Succeed())
		Expect(queue.recipients()).To(HaveKey("u6"))
	})

	It("should stay quiet when a teacher drafts their own", func() {
		event := events.NewContractCreatedEvent("c9", "u6", "d1", "temporary", "Temporary contract", "u6")
		Expect(handler.HandleContractCreated(ctx, event)).To(Succeed())
		Expect(queue.jobs).To(BeEmpty())
	})

	It("should be reachable through the event bus", func() {
		bus := events.NewEventBus(testLogger())
		handler.RegisterEventHandlers(bus)

		Expect(bus.PublishSync(ctx, statusChanged("draft", "pending_dept", "submit", ""))).To(Succeed())
		Expect(queue.recipients()).To(HaveKey("u2"))
	})
})
