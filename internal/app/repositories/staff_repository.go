package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/icemlc/lcportal/internal/app/models"
	"github.com/icemlc/lcportal/internal/pkg/apperrors"
	"github.com/icemlc/lcportal/internal/pkg/dberrors"
)

const staffEmailConstraint = "staff_email_key"

// StaffRepository handles database operations for staff accounts
type StaffRepository struct {
	db *pgxpool.Pool
}

// NewStaffRepository creates a new staff repository
func NewStaffRepository(db *pgxpool.Pool) *StaffRepository {
	return &StaffRepository{
		db: db,
	}
}

// Create adds a staff account
func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	query := `
		INSERT INTO staff (email, password, name, department_id, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		staff.Email, staff.Password, staff.Name, staff.DepartmentID, staff.Role, staff.IsActive,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, staffEmailConstraint) {
			return apperrors.ErrEmailAlreadyExists
		}
		return fmt.Errorf("error creating staff: %w", err)
	}

	return nil
}

// GetByEmail retrieves a staff account by email
func (r *StaffRepository) GetByEmail(ctx context.Context, email string) (*models.Staff, error) {
	query := `
		SELECT id, email, password, name, department_id, role, is_active, created_at, updated_at
		FROM staff
		WHERE email = $1
	`

	return r.scanStaff(r.db.QueryRow(ctx, query, email))
}

// GetByID retrieves a staff account by id
func (r *StaffRepository) GetByID(ctx context.Context, id int64) (*models.Staff, error) {
	query := `
		SELECT id, email, password, name, department_id, role, is_active, created_at, updated_at
		FROM staff
		WHERE id = $1
	`

	return r.scanStaff(r.db.QueryRow(ctx, query, id))
}

func (r *StaffRepository) scanStaff(row pgx.Row) (*models.Staff, error) {
	var staff models.Staff
	err := row.Scan(
		&staff.ID,
		&staff.Email,
		&staff.Password,
		&staff.Name,
		&staff.DepartmentID,
		&staff.Role,
		&staff.IsActive,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStaffNotFound
		}
		return nil, fmt.Errorf("error retrieving staff: %w", err)
	}

	return &staff, nil
}

// EmailExists checks whether a staff account with this email exists
func (r *StaffRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM staff WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking staff existence: %w", err)
	}

	return exists, nil
}
