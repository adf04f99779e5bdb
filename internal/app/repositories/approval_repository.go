package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/icemlc/lcportal/internal/app/models"
	"github.com/icemlc/lcportal/internal/pkg/apperrors"
	"github.com/icemlc/lcportal/internal/pkg/dberrors"
)

// approvalStudentDeptConstraint is the unique constraint guarding the
// (student_prn, department_id) pair. It is the authoritative dedup point for
// concurrent cascade fan-out; the pre-insert existence check is only an
// optimization.
const approvalStudentDeptConstraint = "approval_requests_student_dept_key"

const approvalColumns = `
	id, student_prn, department_id, status, remarks,
	student_name, department_name, branch, year_of_admission,
	created_at, updated_at, approved_at`

// ApprovalRepository handles database operations for approval requests and
// their audit actions.
type ApprovalRepository struct {
	db *pgxpool.Pool
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *pgxpool.Pool) *ApprovalRepository {
	return &ApprovalRepository{
		db: db,
	}
}

// q returns the caller-supplied querier, or the pool when called outside a
// transaction.
func (r *ApprovalRepository) q(q Querier) Querier {
	if q != nil {
		return q
	}
	return r.db
}

func scanApproval(row pgx.Row) (*models.ApprovalRequest, error) {
	var req models.ApprovalRequest
	err := row.Scan(
		&req.ID,
		&req.StudentPRN,
		&req.DepartmentID,
		&req.Status,
		&req.Remarks,
		&req.StudentName,
		&req.DepartmentName,
		&req.Branch,
		&req.YearOfAdmission,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.ApprovedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// GetByID retrieves an approval request by its surrogate id
func (r *ApprovalRepository) GetByID(ctx context.Context, id int64) (*models.ApprovalRequest, error) {
	query := `
		SELECT` + approvalColumns + `
		FROM approval_requests
		WHERE id = $1
	`

	req, err := scanApproval(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrApprovalNotFound
		}
		return nil, fmt.Errorf("error retrieving approval request: %w", err)
	}

	return req, nil
}

// UpdateStatus persists a status transition. approvedAt is non-nil only for
// resolving statuses (APPROVED/REJECTED).
func (r *ApprovalRepository) UpdateStatus(ctx context.Context, q Querier, id int64, status models.ApprovalStatus, remarks string, approvedAt *time.Time) (*models.ApprovalRequest, error) {
	query := `
		UPDATE approval_requests
		SET status = $1, remarks = $2, approved_at = COALESCE($3, approved_at), updated_at = NOW()
		WHERE id = $4
		RETURNING` + approvalColumns + `
	`

	req, err := scanApproval(r.q(q).QueryRow(ctx, query, status, remarks, approvedAt, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrApprovalNotFound
		}
		return nil, fmt.Errorf("error updating approval status: %w", err)
	}

	return req, nil
}

// InsertAction appends one row to the audit ledger. Rows are never updated
// or deleted afterwards.
func (r *ApprovalRepository) InsertAction(ctx context.Context, q Querier, action *models.ApprovalAction) error {
	query := `
		INSERT INTO approval_actions (request_id, staff_id, action, remarks)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q(q).QueryRow(ctx, query,
		action.RequestID, action.StaffID, action.Action, action.Remarks,
	).Scan(&action.ID, &action.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting approval action: %w", err)
	}

	return nil
}

// InsertIfAbsent creates an approval request for the (student, department)
// pair unless one already exists. A concurrent duplicate insert surfaces as
// InsertOutcomeAlreadyExists, not an error.
func (r *ApprovalRepository) InsertIfAbsent(ctx context.Context, req *models.ApprovalRequest) (InsertOutcome, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM approval_requests WHERE student_prn = $1 AND department_id = $2)`,
		req.StudentPRN, req.DepartmentID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("error checking approval existence: %w", err)
	}

	if exists {
		return InsertOutcomeAlreadyExists, nil
	}

	query := `
		INSERT INTO approval_requests
			(student_prn, department_id, status, remarks,
			 student_name, department_name, branch, year_of_admission)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err = r.db.QueryRow(ctx, query,
		req.StudentPRN, req.DepartmentID, models.StatusPending, req.Remarks,
		req.StudentName, req.DepartmentName, req.Branch, req.YearOfAdmission,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, approvalStudentDeptConstraint) {
			return InsertOutcomeAlreadyExists, nil
		}
		return 0, fmt.Errorf("error creating approval request: %w", err)
	}

	req.Status = models.StatusPending
	return InsertOutcomeCreated, nil
}

// ListByStudent retrieves all approval requests for a student, oldest first
func (r *ApprovalRepository) ListByStudent(ctx context.Context, prn string) ([]*models.ApprovalRequest, error) {
	query := `
		SELECT` + approvalColumns + `
		FROM approval_requests
		WHERE student_prn = $1
		ORDER BY created_at ASC
	`

	return r.listApprovals(ctx, query, prn)
}

// ListByDepartmentAndStatus retrieves a department's requests in the given
// status. Pending requests are ordered by creation time, resolved ones by
// resolution time.
func (r *ApprovalRepository) ListByDepartmentAndStatus(ctx context.Context, deptID int64, status models.ApprovalStatus) ([]*models.ApprovalRequest, error) {
	orderBy := "created_at ASC"
	if status.IsResolved() {
		orderBy = "approved_at DESC"
	}

	query := `
		SELECT` + approvalColumns + `
		FROM approval_requests
		WHERE department_id = $1 AND status = $2
		ORDER BY ` + orderBy

	return r.listApprovals(ctx, query, deptID, status)
}

func (r *ApprovalRepository) listApprovals(ctx context.Context, query string, args ...any) ([]*models.ApprovalRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*models.ApprovalRequest
	for rows.Next() {
		req, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

// CountByStudent returns the number of approval requests a student has and
// how many of them are not yet APPROVED.
func (r *ApprovalRepository) CountByStudent(ctx context.Context, prn string) (total int, nonApproved int, err error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status <> $2)
		FROM approval_requests
		WHERE student_prn = $1
	`

	err = r.db.QueryRow(ctx, query, prn, models.StatusApproved).Scan(&total, &nonApproved)
	if err != nil {
		return 0, 0, fmt.Errorf("error counting approval requests: %w", err)
	}

	return total, nonApproved, nil
}

// ListActionsByRequest retrieves the audit trail for an approval request,
// oldest first.
func (r *ApprovalRepository) ListActionsByRequest(ctx context.Context, requestID int64) ([]*models.ApprovalAction, error) {
	query := `
		SELECT id, request_id, staff_id, action, remarks, created_at
		FROM approval_actions
		WHERE request_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*models.ApprovalAction
	for rows.Next() {
		var action models.ApprovalAction
		if err := rows.Scan(
			&action.ID,
			&action.RequestID,
			&action.StaffID,
			&action.Action,
			&action.Remarks,
			&action.CreatedAt,
		); err != nil {
			return nil, err
		}
		actions = append(actions, &action)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return actions, nil
}
