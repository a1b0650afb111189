package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/teacher-contracts/internal/contract"
	"github.com/frahmantamala/teacher-contracts/internal/report"
)

const fromScoped = `
FROM contracts c
JOIN users u ON u.id = c.teacher_id
LEFT JOIN departments d ON d.id = u.department_id
`

type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) report.RepositoryAPI {
	return &ReportRepository{db: db}
}

// where renders the visibility scope as a WHERE clause. Callers have already
// rejected empty scopes.
func where(scope contract.Scope) (string, []interface{}) {
	switch {
	case scope.TeacherID != "":
		return " WHERE c.teacher_id = ?", []interface{}{scope.TeacherID}
	case scope.DepartmentID != "":
		return " WHERE u.department_id = ?", []interface{}{scope.DepartmentID}
	}
	return " WHERE 1 = 1", nil
}

func (r *ReportRepository) CountByStatus(ctx context.Context, scope contract.Scope) ([]report.Bucket, error) {
	clause, args := where(scope)
	query := r.db.Rebind(`SELECT c.status AS bucket, COUNT(*) AS total` + fromScoped + clause + ` GROUP BY c.status ORDER BY c.status`)

	var buckets []report.Bucket
	err := r.db.SelectContext(ctx, &buckets, query, args...)
	return buckets, err
}

func (r *ReportRepository) CountByType(ctx context.Context, scope contract.Scope) ([]report.Bucket, error) {
	clause, args := where(scope)
	query := r.db.Rebind(`SELECT c.contract_type AS bucket, COUNT(*) AS total` + fromScoped + clause + ` GROUP BY c.contract_type ORDER BY c.contract_type`)

	var buckets []report.Bucket
	err := r.db.SelectContext(ctx, &buckets, query, args...)
	return buckets, err
}

func (r *ReportRepository) CountByDepartment(ctx context.Context, scope contract.Scope) ([]report.DepartmentCount, error) {
	clause, args := where(scope)
	query := r.db.Rebind(`SELECT COALESCE(d.id, '') AS department_id, COALESCE(d.name, 'Unassigned') AS name, COUNT(*) AS total` +
		fromScoped + clause + ` GROUP BY d.id, d.name ORDER BY name`)

	var counts []report.DepartmentCount
	err := r.db.SelectContext(ctx, &counts, query, args...)
	return counts, err
}

func (r *ReportRepository) CountWithStatus(ctx context.Context, scope contract.Scope, status contract.Status) (int64, error) {
	clause, args := where(scope)
	query := r.db.Rebind(`SELECT COUNT(*)` + fromScoped + clause + ` AND c.status = ?`)

	var count int64
	err := r.db.GetContext(ctx, &count, query, append(args, string(status))...)
	return count, err
}

func (r *ReportRepository) ExpiringBetween(ctx context.Context, scope contract.Scope, from, to time.Time) ([]report.ExpiringContract, error) {
	clause, args := where(scope)
	query := r.db.Rebind(`SELECT c.id, c.title, c.teacher_id, u.name AS teacher_name, c.end_date` +
		fromScoped + clause + ` AND c.status = ? AND c.end_date > ? AND c.end_date <= ? ORDER BY c.end_date, c.id`)

	var contracts []report.ExpiringContract
	err := r.db.SelectContext(ctx, &contracts, query, append(args, string(contract.StatusApproved), from, to)...)
	return contracts, err
}
