package template_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/frahmantamala/teacher-contracts/internal"
	"github.com/frahmantamala/teacher-contracts/internal/core/database"
	"github.com/frahmantamala/teacher-contracts/internal/template"
	templatePostgres "github.com/frahmantamala/teacher-contracts/internal/template/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Template Service", func() {
	var (
		ctx     context.Context
		db      *database.DB
		service *template.Service
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = database.OpenInMemory()
		Expect(err).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = template.NewService(templatePostgres.NewTemplateRepository(db.Gorm), slogger)
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	newDTO := func() template.CreateTemplateDTO {
		return template.CreateTemplateDTO{
			Name:        "Visiting scholar",
			Description: "Short term visiting appointment",
			Fields: []template.Field{
				{Key: "host", Label: "Host professor", Type: template.FieldText, Required: true},
				{Key: "stipend", Label: "Stipend", Type: template.FieldNumber},
			},
			ApplicableTypes: []string{"visiting"},
		}
	}

	Describe("Create", func() {
		It("should start at version 1 and active", func() {
			t, err := service.Create(ctx, newDTO())

			Expect(err).NotTo(HaveOccurred())
			Expect(t.ID).NotTo(BeEmpty())
			Expect(t.Version).To(Equal(1))
			Expect(t.IsActive).To(BeTrue())

			stored, err := service.Get(ctx, t.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Fields).To(HaveLen(2))
			Expect(stored.ApplicableTypes).To(Equal([]string{"visiting"}))
		})

		It("should reject templates without fields", func() {
			dto := newDTO()
			dto.Fields = nil

			_, err := service.Create(ctx, dto)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("fields is required"))
		})

		It("should reject select fields without options", func() {
			dto := newDTO()
			dto.Fields = append(dto.Fields, template.Field{Key: "campus", Label: "Campus", Type: template.FieldSelect})

			_, err := service.Create(ctx, dto)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("options is required"))
		})

		It("should reject duplicate field keys", func() {
			dto := newDTO()
			dto.Fields = append(dto.Fields, template.Field{Key: "host", Label: "Again", Type: template.FieldText})

			_, err := service.Create(ctx, dto)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("duplicate field key"))
		})

		It("should reject unknown contract types", func() {
			dto := newDTO()
			dto.ApplicableTypes = []string{"permanent"}

			_, err := service.Create(ctx, dto)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Update", func() {
		It("should bump the version", func() {
			t, err := service.Create(ctx, newDTO())
			Expect(err).NotTo(HaveOccurred())

			name := "Visiting researcher"
			updated, err := service.Update(ctx, t.ID, template.UpdateTemplateDTO{Name: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Version).To(Equal(2))
			Expect(updated.Name).To(Equal(name))
			Expect(updated.Fields).To(HaveLen(2))
		})

		It("should report unknown templates", func() {
			_, err := service.Update(ctx, "missing", template.UpdateTemplateDTO{})
			Expect(err).To(Equal(internal.ErrTemplateNotFound))
		})
	})

	Describe("Deactivate and listing", func() {
		It("should hide deactivated templates from active listings", func() {
			t, err := service.Create(ctx, newDTO())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Deactivate(ctx, t.ID)
			Expect(err).NotTo(HaveOccurred())

			active, err := service.List(ctx, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(BeEmpty())

			all, err := service.List(ctx, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(1))
			Expect(all[0].IsActive).To(BeFalse())
		})

		It("should filter applicable templates by type", func() {
			_, err := service.Create(ctx, newDTO())
			Expect(err).NotTo(HaveOccurred())

			visiting, err := service.ListApplicable(ctx, "visiting", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(visiting).To(HaveLen(1))

			fullTime, err := service.ListApplicable(ctx, "full_time", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(fullTime).To(BeEmpty())
		})
	})

	Describe("ValidateData", func() {
		It("should return a result listing the problems", func() {
			t, err := service.Create(ctx, newDTO())
			Expect(err).NotTo(HaveOccurred())

			result, err := service.ValidateData(ctx, t.ID, map[string]interface{}{"stipend": "lots"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Valid).To(BeFalse())
			Expect(result.Errors).To(HaveLen(2))

			result, err = service.ValidateData(ctx, t.ID, map[string]interface{}{"host": "Prof. Chen"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Valid).To(BeTrue())
			Expect(result.Errors).To(BeEmpty())
		})
	})
})
