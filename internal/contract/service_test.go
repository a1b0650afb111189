package contract_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/frahmantamala/teacher-contracts/internal"
	"github.com/frahmantamala/teacher-contracts/internal/contract"
	contractPostgres "github.com/frahmantamala/teacher-contracts/internal/contract/postgres"
	"github.com/frahmantamala/teacher-contracts/internal/core/database"
	"github.com/frahmantamala/teacher-contracts/internal/core/events"
	coreUser "github.com/frahmantamala/teacher-contracts/internal/core/user"
	"github.com/frahmantamala/teacher-contracts/internal/template"
	templatePostgres "github.com/frahmantamala/teacher-contracts/internal/template/postgres"
	"github.com/frahmantamala/teacher-contracts/internal/user"
	userPostgres "github.com/frahmantamala/teacher-contracts/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

var (
	hr       = coreUser.Actor{ID: database.UserHR, Role: coreUser.RoleHRAdmin}
	csHead   = coreUser.Actor{ID: database.UserCSHead, Role: coreUser.RoleDeptAdmin, DepartmentID: database.DeptComputerScience}
	mathHead = coreUser.Actor{ID: database.UserMathHead, Role: coreUser.RoleDeptAdmin, DepartmentID: database.DeptMathematics}
	alice    = coreUser.Actor{ID: database.UserAlice, Role: coreUser.RoleTeacher, DepartmentID: database.DeptComputerScience}
	brian    = coreUser.Actor{ID: database.UserBrian, Role: coreUser.RoleTeacher, DepartmentID: database.DeptMathematics}
	carol    = coreUser.Actor{ID: database.UserCarol, Role: coreUser.RoleTeacher, DepartmentID: database.DeptComputerScience}
)

func ids(contracts []*contract.Contract) []string {
	out := make([]string, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, c.ID)
	}
	return out
}

// errorCode returns the first field code of a validation error, else the
// error's own code.
func errorCode(err error) internal.ErrorCode {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
	if details, ok := appErr.Details.(internal.ValidationErrors); ok && len(details.Errors) > 0 {
		return internal.ErrorCode(details.Errors[0].Code)
	}
	return appErr.Code
}

var _ = Describe("Contract Service", func() {
	var (
		ctx       context.Context
		db        *database.DB
		publisher *recordingPublisher
		service   *contract.Service
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())
		Expect(database.Seed(ctx, db.Gorm, "not-a-real-hash", time.Now().UTC())).To(Succeed())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		users := user.NewService(userPostgres.NewUserRepository(db.Gorm), slogger)
		templates := template.NewService(templatePostgres.NewTemplateRepository(db.Gorm), slogger)
		publisher = &recordingPublisher{}
		service = contract.NewService(contractPostgres.NewContractRepository(db.Gorm), users, templates, publisher, slogger)
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	Describe("CreateContract", func() {
		newDTO := func() contract.CreateContractDTO {
			return contract.CreateContractDTO{
				TeacherID: database.UserCarol,
				Type:      contract.TypeTemporary,
				StartDate: "2026-01-05",
				EndDate:   "2026-06-30",
			}
		}

		It("should store a new draft with matching timestamps", func() {
			// Given a teacher creating a contract for themselves
			dto := newDTO()

			// When
			c, err := service.CreateContract(ctx, carol, dto)

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(c.ID).NotTo(BeEmpty())
			Expect(c.ID).NotTo(BeElementOf("c1", "c2", "c3", "c4", "c5"))
			Expect(c.Status).To(Equal(contract.StatusDraft))
			Expect(c.Title).To(Equal("Temporary contract"))
			Expect(c.CreatedAt).To(Equal(c.UpdatedAt))
			Expect(publisher.types()).To(Equal([]string{events.EventTypeContractCreated}))

			stored, err := service.GetContract(ctx, c.ID, carol)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.TeacherID).To(Equal(database.UserCarol))
			Expect(stored.Status).To(Equal(contract.StatusDraft))
			Expect(stored.StartDate.Format("2006-01-02")).To(Equal("2026-01-05"))
		})

		It("should let hr create for any teacher", func() {
			dto := newDTO()
			dto.TeacherID = database.UserBrian
			dto.Title = "Summer school"

			c, err := service.CreateContract(ctx, hr, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Title).To(Equal("Summer school"))
		})

		It("should not let a teacher create for someone else", func() {
			dto := newDTO()
			dto.TeacherID = database.UserAlice

			_, err := service.CreateContract(ctx, carol, dto)
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))
		})

		It("should not let department admins create contracts", func() {
			_, err := service.CreateContract(ctx, csHead, newDTO())
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))
		})

		It("should reject a teacher id that is not a teacher", func() {
			dto := newDTO()
			dto.TeacherID = database.UserCSHead

			_, err := service.CreateContract(ctx, hr, dto)
			Expect(err).To(HaveOccurred())
			Expect(errorCode(err)).To(Equal(internal.ErrCodeUserNotFound))
		})

		It("should reject an inverted date range", func() {
			dto := newDTO()
			dto.EndDate = "2025-12-31"

			_, err := service.CreateContract(ctx, carol, dto)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("end_date"))
			Expect(publisher.types()).To(BeEmpty())
		})

		It("should reject an unknown template", func() {
			dto := newDTO()
			missing := "t-missing"
			dto.TemplateID = &missing

			_, err := service.CreateContract(ctx, carol, dto)
			Expect(err).To(MatchError(internal.ErrTemplateNotFound))
		})
	})

	Describe("UpdateContractStatus", func() {
		It("should record the department approval when forwarding to hr", func() {
			// Given c3 waits for its department (d1, headed by u2)
			// When
			c, err := service.UpdateContractStatus(ctx, "c3", contract.StatusPendingHR, database.UserCSHead, "")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Status).To(Equal(contract.StatusPendingHR))
			Expect(c.DepartmentApprovalStatus).NotTo(BeNil())
			Expect(*c.DepartmentApprovalStatus).To(Equal(contract.DepartmentApproved))
			Expect(*c.DepartmentApprovedBy).To(Equal(database.UserCSHead))
			Expect(c.DepartmentApprovedAt).NotTo(BeNil())
			Expect(c.UpdatedAt).To(BeTemporally("~", time.Now(), time.Minute))

			stored, err := service.GetContract(ctx, "c3", hr)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(contract.StatusPendingHR))
			Expect(*stored.DepartmentApprovedBy).To(Equal(database.UserCSHead))

			Expect(publisher.events).To(HaveLen(1))
			Expect(events.StringField(publisher.events[0], "to_status")).To(Equal("pending_hr"))
			Expect(events.StringField(publisher.events[0], "department_id")).To(Equal(database.DeptComputerScience))
		})

		It("should ignore unknown contracts", func() {
			c, err := service.UpdateContractStatus(ctx, "does-not-exist", contract.StatusApproved, database.UserHR, "")

			Expect(err).NotTo(HaveOccurred())
			Expect(c).To(BeNil())

			all, total, err := service.ListContracts(ctx, hr, contract.ListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(BeEquivalentTo(5))
			Expect(all).To(HaveLen(5))
			Expect(publisher.types()).To(BeEmpty())
		})

		It("should set approval fields on final approval", func() {
			c, err := service.UpdateContractStatus(ctx, "c2", contract.StatusApproved, database.UserHR, "")

			Expect(err).NotTo(HaveOccurred())
			Expect(c.Status).To(Equal(contract.StatusApproved))
			Expect(*c.ApprovedBy).To(Equal(database.UserHR))
			Expect(c.ApprovedAt).NotTo(BeNil())
		})

		It("should set rejection fields with the reason", func() {
			c, err := service.UpdateContractStatus(ctx, "c2", contract.StatusRejected, database.UserHR, "  Position frozen ")

			Expect(err).NotTo(HaveOccurred())
			Expect(c.Status).To(Equal(contract.StatusRejected))
			Expect(*c.RejectedBy).To(Equal(database.UserHR))
			Expect(*c.RejectionReason).To(Equal("Position frozen"))
		})

		It("should refuse a department admin from another department", func() {
			_, err := service.UpdateContractStatus(ctx, "c3", contract.StatusPendingHR, database.UserMathHead, "")
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))

			stored, err := service.GetContract(ctx, "c3", hr)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(contract.StatusPendingDept))
		})

		It("should refuse a teacher approving their own contract", func() {
			_, err := service.UpdateContractStatus(ctx, "c3", contract.StatusPendingHR, database.UserAlice, "")
			Expect(errorCode(err)).To(Equal(internal.ErrCodeIllegalTransition))
		})

		It("should refuse to skip steps", func() {
			_, err := service.UpdateContractStatus(ctx, "c4", contract.StatusApproved, database.UserHR, "")
			Expect(errorCode(err)).To(Equal(internal.ErrCodeIllegalTransition))
		})

		It("should refuse an unknown status", func() {
			_, err := service.UpdateContractStatus(ctx, "c4", contract.Status("signed"), database.UserHR, "")
			Expect(errorCode(err)).To(Equal(internal.ErrCodeInvalidStatus))
		})
	})

	Describe("Transition", func() {
		It("should walk a draft through to approval", func() {
			c, err := service.Transition(ctx, "c4", contract.ActionSubmit, carol, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Status).To(Equal(contract.StatusPendingDept))

			c, err = service.Transition(ctx, "c4", contract.ActionApprove, csHead, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Status).To(Equal(contract.StatusPendingHR))

			c, err = service.Transition(ctx, "c4", contract.ActionApprove, hr, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Status).To(Equal(contract.StatusApproved))

			c, err = service.Transition(ctx, "c4", contract.ActionTerminate, hr, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Status).To(Equal(contract.StatusTerminated))

			Expect(publisher.types()).To(HaveLen(4))
		})

		It("should not let a teacher submit another teacher's draft", func() {
			_, err := service.Transition(ctx, "c4", contract.ActionSubmit, alice, "")
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))
		})

		It("should validate template data on submit", func() {
			tpl := database.TemplateFullTime
			c, err := service.CreateContract(ctx, alice, contract.CreateContractDTO{
				TeacherID:  database.UserAlice,
				TemplateID: &tpl,
				Type:       contract.TypeFullTime,
				StartDate:  "2026-09-01",
				EndDate:    "2027-08-31",
				Data:       map[string]interface{}{"salary": 90000},
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Transition(ctx, c.ID, contract.ActionSubmit, alice, "")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("Teaching load"))

			_, err = service.UpdateDraft(ctx, c.ID, alice, contract.UpdateDraftDTO{
				Data: map[string]interface{}{"salary": 90000, "teaching_load": 10, "rank": "Professor"},
			})
			Expect(err).NotTo(HaveOccurred())

			submitted, err := service.Transition(ctx, c.ID, contract.ActionSubmit, alice, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(submitted.Status).To(Equal(contract.StatusPendingDept))
		})

		It("should report unknown contracts as not found", func() {
			_, err := service.Transition(ctx, "missing", contract.ActionSubmit, hr, "")
			Expect(err).To(MatchError(internal.ErrContractNotFound))
		})
	})

	Describe("Visibility", func() {
		DescribeTable("ListContracts",
			func(viewer coreUser.Actor, want []string) {
				contracts, total, err := service.ListContracts(ctx, viewer, contract.ListFilter{})
				Expect(err).NotTo(HaveOccurred())
				Expect(ids(contracts)).To(Equal(want))
				Expect(total).To(BeEquivalentTo(len(want)))
			},
			Entry("hr sees everything newest first", hr, []string{"c4", "c3", "c2", "c5", "c1"}),
			Entry("computer science head sees d1 teachers", csHead, []string{"c4", "c3", "c1"}),
			Entry("mathematics head sees d2 teachers", mathHead, []string{"c2", "c5"}),
			Entry("alice sees her own", alice, []string{"c3", "c1"}),
			Entry("brian sees his own", brian, []string{"c2", "c5"}),
		)

		It("should hide contracts outside the viewer scope", func() {
			_, err := service.GetContract(ctx, "c2", csHead)
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))

			_, err = service.GetContract(ctx, "c1", carol)
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))
		})

		It("should return nil for unknown contracts", func() {
			c, err := service.GetContract(ctx, "missing", hr)
			Expect(err).NotTo(HaveOccurred())
			Expect(c).To(BeNil())
		})

		It("should filter, search and page", func() {
			contracts, total, err := service.ListContracts(ctx, hr, contract.ListFilter{Limit: 2, Offset: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(BeEquivalentTo(5))
			Expect(ids(contracts)).To(Equal([]string{"c3", "c2"}))

			contracts, _, err = service.ListContracts(ctx, hr, contract.ListFilter{Search: "RENEWAL"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(contracts)).To(Equal([]string{"c3"}))

			contracts, _, err = service.ListContracts(ctx, csHead, contract.ListFilter{Status: contract.StatusDraft})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(contracts)).To(Equal([]string{"c4"}))

			contracts, _, err = service.ListContracts(ctx, mathHead, contract.ListFilter{Type: contract.TypeVisiting})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(contracts)).To(Equal([]string{"c5"}))
		})

		It("should not widen a teacher's scope through the teacher filter", func() {
			contracts, _, err := service.ListContracts(ctx, alice, contract.ListFilter{TeacherID: database.UserBrian})
			Expect(err).NotTo(HaveOccurred())
			Expect(contracts).To(BeEmpty())
		})

		It("should reject unknown filter values", func() {
			_, _, err := service.ListContracts(ctx, hr, contract.ListFilter{Status: "lost"})
			Expect(errorCode(err)).To(Equal(internal.ErrCodeInvalidStatus))
		})

		It("should list a teacher's contracts by id", func() {
			contracts, err := service.GetUserContracts(ctx, database.UserBrian)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(contracts)).To(Equal([]string{"c2", "c5"}))
		})
	})

	Describe("ListPendingApprovals", func() {
		It("should give each approver their queue", func() {
			pending, err := service.ListPendingApprovals(ctx, csHead)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(pending)).To(Equal([]string{"c3"}))

			pending, err = service.ListPendingApprovals(ctx, mathHead)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(BeEmpty())

			pending, err = service.ListPendingApprovals(ctx, hr)
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(pending)).To(Equal([]string{"c2"}))

			pending, err = service.ListPendingApprovals(ctx, alice)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(BeEmpty())
		})
	})

	Describe("AvailableActions", func() {
		It("should combine the workflow table with scope", func() {
			c3, err := service.GetContract(ctx, "c3", hr)
			Expect(err).NotTo(HaveOccurred())

			Expect(service.AvailableActions(ctx, c3, csHead)).To(Equal([]contract.Action{contract.ActionApprove, contract.ActionReject}))
			Expect(service.AvailableActions(ctx, c3, mathHead)).To(BeEmpty())
			Expect(service.AvailableActions(ctx, c3, hr)).To(BeEmpty())

			c1, err := service.GetContract(ctx, "c1", hr)
			Expect(err).NotTo(HaveOccurred())
			Expect(service.AvailableActions(ctx, c1, hr)).To(Equal([]contract.Action{contract.ActionArchive, contract.ActionTerminate}))
		})

		It("should offer nothing on a closed contract", func() {
			c5, err := service.GetContract(ctx, "c5", hr)
			Expect(err).NotTo(HaveOccurred())
			Expect(c5.Status.IsFinal()).To(BeTrue())

			for _, viewer := range []coreUser.Actor{hr, mathHead, brian} {
				Expect(service.AvailableActions(ctx, c5, viewer)).To(BeEmpty())
			}
		})
	})

	Describe("UpdateDraft", func() {
		It("should let the owner edit a draft", func() {
			title := "Temporary lab cover"
			end := "2026-12-31"

			c, err := service.UpdateDraft(ctx, "c4", carol, contract.UpdateDraftDTO{Title: &title, EndDate: &end})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Title).To(Equal(title))
			Expect(c.EndDate.Format("2006-01-02")).To(Equal(end))
			Expect(c.UpdatedAt).To(BeTemporally(">", c.CreatedAt))
		})

		It("should refuse contracts past draft", func() {
			title := "Changed"
			_, err := service.UpdateDraft(ctx, "c3", alice, contract.UpdateDraftDTO{Title: &title})
			Expect(err).To(MatchError(internal.ErrCannotModifyContract))
		})

		It("should refuse other teachers", func() {
			title := "Changed"
			_, err := service.UpdateDraft(ctx, "c4", alice, contract.UpdateDraftDTO{Title: &title})
			Expect(err).To(MatchError(internal.ErrUnauthorizedAccess))
		})

		It("should refuse a range that ends before it starts", func() {
			end := "2000-01-01"
			_, err := service.UpdateDraft(ctx, "c4", carol, contract.UpdateDraftDTO{EndDate: &end})
			Expect(errorCode(err)).To(Equal(internal.ErrCodeInvalidDateRange))
		})
	})
})
