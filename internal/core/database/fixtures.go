package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	contractDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/contract"
	notificationDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/notification"
	templateDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/template"
	userDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/user"
)

// Fixture ids. u2 heads d1 where teachers u4 and u6 work; u3 heads d2 where
// u5 works; u1 is HR.
const (
	DeptComputerScience = "d1"
	DeptMathematics     = "d2"

	UserHR       = "u1"
	UserCSHead   = "u2"
	UserMathHead = "u3"
	UserAlice    = "u4"
	UserBrian    = "u5"
	UserCarol    = "u6"

	TemplateFullTime = "t1"
	TemplateHourly   = "t2"
)

// Seed inserts the demo organisation. Dates are relative to now so the
// expiring-contract report always has something to show.
func Seed(ctx context.Context, db *gorm.DB, passwordHash string, now time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rows := range []interface{}{
			departments(now),
			users(passwordHash, now),
			templates(now),
			contracts(now),
			notifications(now),
		} {
			if err := tx.Create(rows).Error; err != nil {
				return fmt.Errorf("seed %T: %w", rows, err)
			}
		}
		return nil
	})
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func mustJSON(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func departments(now time.Time) []*userDatamodel.Department {
	return []*userDatamodel.Department{
		{ID: DeptComputerScience, Name: "Computer Science", Code: "CS", AdminID: strPtr(UserCSHead), CreatedAt: now},
		{ID: DeptMathematics, Name: "Mathematics", Code: "MATH", AdminID: strPtr(UserMathHead), CreatedAt: now},
	}
}

func users(hash string, now time.Time) []*userDatamodel.User {
	u := func(id, name, email, role string, dept *string, position, phone string) *userDatamodel.User {
		return &userDatamodel.User{
			ID:           id,
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         role,
			DepartmentID: dept,
			Position:     position,
			Phone:        phone,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}
	return []*userDatamodel.User{
		u(UserHR, "Helen Park", "hr@university.edu", "hr_admin", nil, "HR Director", "+1-555-0101"),
		u(UserCSHead, "David Chen", "cs.head@university.edu", "dept_admin", strPtr(DeptComputerScience), "Department Head", "+1-555-0102"),
		u(UserMathHead, "Maria Lopez", "math.head@university.edu", "dept_admin", strPtr(DeptMathematics), "Department Head", "+1-555-0103"),
		u(UserAlice, "Alice Wong", "alice.wong@university.edu", "teacher", strPtr(DeptComputerScience), "Associate Professor", "+1-555-0104"),
		u(UserBrian, "Brian Smith", "brian.smith@university.edu", "teacher", strPtr(DeptMathematics), "Lecturer", "+1-555-0105"),
		u(UserCarol, "Carol Davis", "carol.davis@university.edu", "teacher", strPtr(DeptComputerScience), "Assistant Professor", "+1-555-0106"),
	}
}

func templates(now time.Time) []*templateDatamodel.ContractTemplate {
	return []*templateDatamodel.ContractTemplate{
		{
			ID:          TemplateFullTime,
			Name:        "Standard Full-time Faculty",
			Description: "Annual appointment for full-time teaching staff",
			Fields: mustJSON([]map[string]interface{}{
				{"key": "salary", "label": "Annual salary", "type": "number", "required": true},
				{"key": "teaching_load", "label": "Teaching load (hours/week)", "type": "number", "required": true},
				{"key": "rank", "label": "Academic rank", "type": "select", "required": true, "options": []string{"Assistant Professor", "Associate Professor", "Professor"}},
				{"key": "benefits", "label": "Benefits package", "type": "checkbox"},
				{"key": "notes", "label": "Notes", "type": "textarea"},
			}),
			ApplicableTypes:     mustJSON([]string{"full_time"}),
			ApplicablePositions: mustJSON([]string{}),
			Version:             1,
			IsActive:            true,
			CreatedAt:           now.AddDate(-2, 0, 0),
			UpdatedAt:           now.AddDate(-2, 0, 0),
		},
		{
			ID:          TemplateHourly,
			Name:        "Hourly Lecturer",
			Description: "Part-time, temporary and visiting appointments paid by the hour",
			Fields: mustJSON([]map[string]interface{}{
				{"key": "hourly_rate", "label": "Hourly rate", "type": "number", "required": true},
				{"key": "courses", "label": "Courses", "type": "textarea", "required": true},
				{"key": "first_class", "label": "First class", "type": "date"},
			}),
			ApplicableTypes:     mustJSON([]string{"part_time", "temporary", "visiting"}),
			ApplicablePositions: mustJSON([]string{}),
			Version:             2,
			IsActive:            true,
			CreatedAt:           now.AddDate(-1, 0, 0),
			UpdatedAt:           now.AddDate(0, -3, 0),
		},
	}
}

func contracts(now time.Time) []*contractDatamodel.Contract {
	day := 24 * time.Hour
	c1End := now.Add(60 * day).Truncate(day)

	return []*contractDatamodel.Contract{
		{
			ID:                       "c1",
			TeacherID:                UserAlice,
			TemplateID:               strPtr(TemplateFullTime),
			Title:                    "Full-time contract",
			ContractType:             "full_time",
			Status:                   "approved",
			StartDate:                c1End.AddDate(-1, 0, 0),
			EndDate:                  c1End,
			DepartmentApprovalStatus: strPtr("approved"),
			DepartmentApprovedAt:     timePtr(now.Add(-395 * day)),
			DepartmentApprovedBy:     strPtr(UserCSHead),
			ApprovedAt:               timePtr(now.Add(-390 * day)),
			ApprovedBy:               strPtr(UserHR),
			Data:                     mustJSON(map[string]interface{}{"salary": 85000, "teaching_load": 12, "rank": "Associate Professor", "benefits": true}),
			Attachments:              mustJSON([]map[string]interface{}{{"name": "signed.pdf", "url": "/files/c1/signed.pdf", "size": 182044}}),
			CreatedAt:                now.Add(-400 * day),
			UpdatedAt:                now.Add(-390 * day),
		},
		{
			ID:                       "c2",
			TeacherID:                UserBrian,
			TemplateID:               strPtr(TemplateHourly),
			Title:                    "Part-time contract",
			ContractType:             "part_time",
			Status:                   "pending_hr",
			StartDate:                now.Add(14 * day).Truncate(day),
			EndDate:                  now.Add(194 * day).Truncate(day),
			DepartmentApprovalStatus: strPtr("approved"),
			DepartmentApprovedAt:     timePtr(now.Add(-3 * day)),
			DepartmentApprovedBy:     strPtr(UserMathHead),
			Data:                     mustJSON(map[string]interface{}{"hourly_rate": 65, "courses": "Calculus I, Linear Algebra"}),
			CreatedAt:                now.Add(-30 * day),
			UpdatedAt:                now.Add(-3 * day),
		},
		{
			ID:           "c3",
			TeacherID:    UserAlice,
			TemplateID:   strPtr(TemplateFullTime),
			Title:        "Full-time contract renewal",
			ContractType: "full_time",
			Status:       "pending_dept",
			StartDate:    c1End,
			EndDate:      c1End.AddDate(1, 0, 0),
			Data:         mustJSON(map[string]interface{}{"salary": 88000, "teaching_load": 12, "rank": "Associate Professor", "benefits": true}),
			CreatedAt:    now.Add(-5 * day),
			UpdatedAt:    now.Add(-4 * day),
		},
		{
			ID:           "c4",
			TeacherID:    UserCarol,
			Title:        "Temporary contract",
			ContractType: "temporary",
			Status:       "draft",
			StartDate:    now.Add(30 * day).Truncate(day),
			EndDate:      now.Add(120 * day).Truncate(day),
			CreatedAt:    now.Add(-2 * day),
			UpdatedAt:    now.Add(-2 * day),
		},
		{
			ID:              "c5",
			TeacherID:       UserBrian,
			TemplateID:      strPtr(TemplateHourly),
			Title:           "Visiting contract",
			ContractType:    "visiting",
			Status:          "rejected",
			StartDate:       now.Add(-20 * day).Truncate(day),
			EndDate:         now.Add(70 * day).Truncate(day),
			RejectedAt:      timePtr(now.Add(-45 * day)),
			RejectedBy:      strPtr(UserMathHead),
			RejectionReason: strPtr("Budget constraints for this semester"),
			Data:            mustJSON(map[string]interface{}{"hourly_rate": 80, "courses": "Topology seminar"}),
			CreatedAt:       now.Add(-60 * day),
			UpdatedAt:       now.Add(-45 * day),
		},
	}
}

func notifications(now time.Time) []*notificationDatamodel.Notification {
	day := 24 * time.Hour
	return []*notificationDatamodel.Notification{
		{ID: "n1", UserID: UserCSHead, Title: "Contract awaiting approval", Message: "Alice Wong submitted \"Full-time contract renewal\"", Link: "/approvals/c3", Type: "approval_request", CreatedAt: now.Add(-4 * day)},
		{ID: "n2", UserID: UserHR, Title: "Contract awaiting HR approval", Message: "\"Part-time contract\" was approved by Mathematics", Link: "/hr-approvals/c2", Type: "approval_request", CreatedAt: now.Add(-3 * day)},
		{ID: "n3", UserID: UserAlice, Title: "Contract approved", Message: "\"Full-time contract\" was approved", Link: "/my-contracts/c1", Type: "approved", IsRead: true, CreatedAt: now.Add(-390 * day)},
		{ID: "n4", UserID: UserBrian, Title: "Contract rejected", Message: "\"Visiting contract\" was rejected: Budget constraints for this semester", Link: "/my-contracts/c5", Type: "rejected", CreatedAt: now.Add(-45 * day)},
	}
}

// Clear removes every row the seed can create, children first.
func Clear(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("UPDATE departments SET admin_id = NULL").Error; err != nil {
			return fmt.Errorf("clear department admins: %w", err)
		}
		for _, table := range []string{"notifications", "contracts", "contract_templates", "users", "departments"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
