package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/frahmantamala/teacher-contracts/internal/auth"
	coreUser "github.com/frahmantamala/teacher-contracts/internal/core/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	var creds auth.Credentials
	query := `SELECT id, email, password_hash, is_active FROM users WHERE email = ?`

	row := r.db.WithContext(ctx).Raw(query, email).Row()
	if err := row.Scan(&creds.UserID, &creds.Email, &creds.PasswordHash, &creds.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &creds, nil
}

func (r *Repository) GetUser(ctx context.Context, userID string) (*auth.User, error) {
	var (
		u      auth.User
		role   string
		deptID sql.NullString
	)
	query := `SELECT id, email, name, role, department_id, is_active FROM users WHERE id = ?`

	row := r.db.WithContext(ctx).Raw(query, userID).Row()
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &deptID, &u.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Role = coreUser.Role(role)
	u.DepartmentID = deptID.String
	return &u, nil
}
