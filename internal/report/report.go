package report

import "time"

type Bucket struct {
	Key   string `json:"key" db:"bucket"`
	Count int64  `json:"count" db:"total"`
}

type DepartmentCount struct {
	DepartmentID string `json:"department_id" db:"department_id"`
	Name         string `json:"name" db:"name"`
	Count        int64  `json:"count" db:"total"`
}

type ExpiringContract struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	TeacherID   string    `json:"teacher_id" db:"teacher_id"`
	TeacherName string    `json:"teacher_name" db:"teacher_name"`
	EndDate     time.Time `json:"end_date" db:"end_date"`
}

// Dashboard summarises the contracts a viewer can see.
type Dashboard struct {
	Total        int64              `json:"total"`
	ByStatus     map[string]int64   `json:"by_status"`
	ByType       map[string]int64   `json:"by_type"`
	ByDepartment []DepartmentCount  `json:"by_department,omitempty"`
	Pending      int64              `json:"pending"`
	Expiring     []ExpiringContract `json:"expiring"`
	ExpiringDays int                `json:"expiring_within_days"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

func toMap(buckets []Bucket) (map[string]int64, int64) {
	out := make(map[string]int64, len(buckets))
	var total int64
	for _, b := range buckets {
		out[b.Key] = b.Count
		total += b.Count
	}
	return out, total
}
