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

const departmentNameCollegeConstraint = "departments_name_college_key"

// DepartmentRepository handles database operations for the clearance catalog
type DepartmentRepository struct {
	db *pgxpool.Pool
}

// NewDepartmentRepository creates a new department repository
func NewDepartmentRepository(db *pgxpool.Pool) *DepartmentRepository {
	return &DepartmentRepository{
		db: db,
	}
}

// Create adds a department to the catalog. The catalog is seeded at
// deployment; this exists for admin corrections only.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	query := `
		INSERT INTO departments (name, category, branch_id, college)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		department.Name, department.Category, department.BranchID, department.College,
	).Scan(&department.ID)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, departmentNameCollegeConstraint) {
			return apperrors.ErrDepartmentAlreadyExists
		}
		return fmt.Errorf("error creating department: %w", err)
	}

	return nil
}

// GetByID retrieves a department by ID
func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*models.Department, error) {
	query := `
		SELECT id, name, category, branch_id, college
		FROM departments
		WHERE id = $1
	`

	var department models.Department
	err := r.db.QueryRow(ctx, query, id).Scan(
		&department.ID,
		&department.Name,
		&department.Category,
		&department.BranchID,
		&department.College,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("error retrieving department: %w", err)
	}

	return &department, nil
}

// GetAll retrieves the whole catalog
func (r *DepartmentRepository) GetAll(ctx context.Context) ([]*models.Department, error) {
	query := `
		SELECT id, name, category, branch_id, college
		FROM departments
		ORDER BY id
	`

	return r.listDepartments(ctx, query)
}

// FirstByCategory retrieves the first catalog entry with the given category,
// or ErrDepartmentNotFound if the catalog has none.
func (r *DepartmentRepository) FirstByCategory(ctx context.Context, category models.DepartmentCategory) (*models.Department, error) {
	query := `
		SELECT id, name, category, branch_id, college
		FROM departments
		WHERE category = $1
		ORDER BY id
		LIMIT 1
	`

	var department models.Department
	err := r.db.QueryRow(ctx, query, category).Scan(
		&department.ID,
		&department.Name,
		&department.Category,
		&department.BranchID,
		&department.College,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("error retrieving department by category: %w", err)
	}

	return &department, nil
}

// BranchHeads retrieves every branch-head department for the given branch
// within one college.
func (r *DepartmentRepository) BranchHeads(ctx context.Context, branchID int64, college string) ([]*models.Department, error) {
	query := `
		SELECT id, name, category, branch_id, college
		FROM departments
		WHERE category = $1 AND branch_id = $2 AND college = $3
		ORDER BY id
	`

	return r.listDepartments(ctx, query, models.CategoryBranchHead, branchID, college)
}

// RemainingClearance retrieves the terminal fan-out set: branchless
// departments outside the finance/library/registrar tiers, scoped to the
// student's college or the ALL sentinel.
func (r *DepartmentRepository) RemainingClearance(ctx context.Context, college string) ([]*models.Department, error) {
	query := `
		SELECT id, name, category, branch_id, college
		FROM departments
		WHERE category NOT IN ($1, $2, $3)
		  AND branch_id IS NULL
		  AND college IN ($4, $5)
		ORDER BY id
	`

	return r.listDepartments(ctx, query,
		models.CategoryFinance, models.CategoryLibrary, models.CategoryRegistrar,
		college, models.CollegeAll)
}

func (r *DepartmentRepository) listDepartments(ctx context.Context, query string, args ...any) ([]*models.Department, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []*models.Department
	for rows.Next() {
		var department models.Department
		if err := rows.Scan(
			&department.ID,
			&department.Name,
			&department.Category,
			&department.BranchID,
			&department.College,
		); err != nil {
			return nil, err
		}
		departments = append(departments, &department)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return departments, nil
}

// GetBranchByID retrieves an academic branch
func (r *DepartmentRepository) GetBranchByID(ctx context.Context, id int64) (*models.Branch, error) {
	var branch models.Branch
	err := r.db.QueryRow(ctx, `SELECT id, name FROM branches WHERE id = $1`, id).Scan(&branch.ID, &branch.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("branch not found")
		}
		return nil, fmt.Errorf("error retrieving branch: %w", err)
	}
	return &branch, nil
}

// EnsureBranch inserts a branch by name if absent and returns its id.
func (r *DepartmentRepository) EnsureBranch(ctx context.Context, name string) (int64, error) {
	var id int64
	query := `
		INSERT INTO branches (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`
	if err := r.db.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("error ensuring branch: %w", err)
	}
	return id, nil
}
