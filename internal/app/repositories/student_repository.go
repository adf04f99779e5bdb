package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/icemlc/lcportal/internal/app/models"
	"github.com/icemlc/lcportal/internal/pkg/apperrors"
	"github.com/icemlc/lcportal/internal/pkg/dberrors"
)

const (
	studentPRNConstraint   = "students_pkey"
	studentEmailConstraint = "students_email_key"
)

// ProfileFlags is a partial update of the workflow flags on a student
// profile. Nil fields are left untouched; ClearLCURL nulls out the
// certificate pointer.
type ProfileFlags struct {
	IsFormEditable *bool
	LCReady        *bool
	LCGenerated    *bool
	LCURL          *string
	ClearLCURL     bool
}

// StudentRepository handles database operations for students and their
// profiles
type StudentRepository struct {
	db *pgxpool.Pool
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		db: db,
	}
}

func (r *StudentRepository) q(q Querier) Querier {
	if q != nil {
		return q
	}
	return r.db
}

// Create registers a student
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	query := `
		INSERT INTO students (prn, name, email, phone, college)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(ctx, query,
		student.PRN, student.Name, student.Email, student.Phone, student.College)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, studentPRNConstraint) {
			return apperrors.ErrPRNAlreadyExists
		}
		if dberrors.IsDuplicateConstraintError(err, studentEmailConstraint) {
			return apperrors.ErrEmailAlreadyExists
		}
		return fmt.Errorf("error creating student: %w", err)
	}

	return nil
}

// GetByPRN retrieves a student by registration number
func (r *StudentRepository) GetByPRN(ctx context.Context, prn string) (*models.Student, error) {
	query := `
		SELECT prn, name, email, phone, college
		FROM students
		WHERE prn = $1
	`

	var student models.Student
	err := r.db.QueryRow(ctx, query, prn).Scan(
		&student.PRN,
		&student.Name,
		&student.Email,
		&student.Phone,
		&student.College,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}

	return &student, nil
}

// GetProfile retrieves a student's profile
func (r *StudentRepository) GetProfile(ctx context.Context, prn string) (*models.StudentProfile, error) {
	query := `
		SELECT student_prn, branch_id, branch, year_of_admission, admission_mode,
		       reason_for_leaving, is_form_editable, lc_ready, lc_generated, lc_url,
		       created_at, updated_at
		FROM student_profiles
		WHERE student_prn = $1
	`

	var profile models.StudentProfile
	err := r.db.QueryRow(ctx, query, prn).Scan(
		&profile.StudentPRN,
		&profile.BranchID,
		&profile.Branch,
		&profile.YearOfAdmission,
		&profile.AdmissionMode,
		&profile.ReasonForLeaving,
		&profile.IsFormEditable,
		&profile.LCReady,
		&profile.LCGenerated,
		&profile.LCURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, fmt.Errorf("error retrieving student profile: %w", err)
	}

	return &profile, nil
}

// UpsertProfile creates or updates the LC form fields of a profile. Workflow
// flags are not touched here; they belong to the approval pipeline.
func (r *StudentRepository) UpsertProfile(ctx context.Context, profile *models.StudentProfile) error {
	query := `
		INSERT INTO student_profiles
			(student_prn, branch_id, branch, year_of_admission, admission_mode, reason_for_leaving)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_prn) DO UPDATE SET
			branch_id = EXCLUDED.branch_id,
			branch = EXCLUDED.branch,
			year_of_admission = EXCLUDED.year_of_admission,
			admission_mode = EXCLUDED.admission_mode,
			reason_for_leaving = EXCLUDED.reason_for_leaving,
			updated_at = NOW()
		RETURNING is_form_editable, lc_ready, lc_generated, lc_url, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		profile.StudentPRN, profile.BranchID, profile.Branch,
		profile.YearOfAdmission, profile.AdmissionMode, profile.ReasonForLeaving,
	).Scan(
		&profile.IsFormEditable,
		&profile.LCReady,
		&profile.LCGenerated,
		&profile.LCURL,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error upserting student profile: %w", err)
	}

	return nil
}

// UpdateFlags applies a partial flag update to a profile. Runs inside the
// caller's transaction when q is non-nil.
func (r *StudentRepository) UpdateFlags(ctx context.Context, q Querier, prn string, flags ProfileFlags) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{prn}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if flags.IsFormEditable != nil {
		addSet("is_form_editable", *flags.IsFormEditable)
	}
	if flags.LCReady != nil {
		addSet("lc_ready", *flags.LCReady)
	}
	if flags.LCGenerated != nil {
		addSet("lc_generated", *flags.LCGenerated)
	}
	if flags.ClearLCURL {
		sets = append(sets, "lc_url = NULL")
	} else if flags.LCURL != nil {
		addSet("lc_url", *flags.LCURL)
	}

	query := "UPDATE student_profiles SET "
	for i, set := range sets {
		if i > 0 {
			query += ", "
		}
		query += set
	}
	query += " WHERE student_prn = $1"

	cmdTag, err := r.q(q).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating profile flags: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrProfileNotFound
	}

	return nil
}
