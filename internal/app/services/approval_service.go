package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/icemlc/lcportal/internal/app/models"
	"github.com/icemlc/lcportal/internal/app/repositories"
	"github.com/icemlc/lcportal/internal/db"
	"github.com/icemlc/lcportal/internal/pkg/apperrors"
)

// ApprovalStore is the persistence surface the state machine needs for
// approval requests and their audit ledger.
type ApprovalStore interface {
	GetByID(ctx context.Context, id int64) (*models.ApprovalRequest, error)
	UpdateStatus(ctx context.Context, q repositories.Querier, id int64, status models.ApprovalStatus, remarks string, approvedAt *time.Time) (*models.ApprovalRequest, error)
	InsertAction(ctx context.Context, q repositories.Querier, action *models.ApprovalAction) error
	InsertIfAbsent(ctx context.Context, req *models.ApprovalRequest) (repositories.InsertOutcome, error)
	ListByStudent(ctx context.Context, prn string) ([]*models.ApprovalRequest, error)
	ListByDepartmentAndStatus(ctx context.Context, deptID int64, status models.ApprovalStatus) ([]*models.ApprovalRequest, error)
	ListActionsByRequest(ctx context.Context, requestID int64) ([]*models.ApprovalAction, error)
	CountByStudent(ctx context.Context, prn string) (total int, nonApproved int, err error)
}

// StudentStore is the persistence surface toward students and their
// profiles.
type StudentStore interface {
	GetByPRN(ctx context.Context, prn string) (*models.Student, error)
	GetProfile(ctx context.Context, prn string) (*models.StudentProfile, error)
	UpdateFlags(ctx context.Context, q repositories.Querier, prn string, flags repositories.ProfileFlags) error
}

// DepartmentStore extends the catalog view with by-id lookup.
type DepartmentStore interface {
	DepartmentCatalog
	GetByID(ctx context.Context, id int64) (*models.Department, error)
}

// TxRunner runs a function within a storage transaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn db.TransactionFn) error
}

// ApprovalService is the approval state machine. It validates a
// status-change command, persists the transition atomically, fans out the
// next cascade stage and recomputes certificate readiness.
type ApprovalService struct {
	approvals   ApprovalStore
	students    StudentStore
	departments DepartmentStore
	resolver    *CascadeResolver
	tx          TxRunner
	logger      zerolog.Logger
}

// NewApprovalService creates a new approval service
func NewApprovalService(
	approvals ApprovalStore,
	students StudentStore,
	departments DepartmentStore,
	resolver *CascadeResolver,
	tx TxRunner,
	logger zerolog.Logger,
) *ApprovalService {
	return &ApprovalService{
		approvals:   approvals,
		students:    students,
		departments: departments,
		resolver:    resolver,
		tx:          tx,
		logger:      logger,
	}
}

// TransitionApproval processes one status-change command from a department
// actor. Validation happens before any mutation; the status update, audit
// row and form-flag change commit in one transaction; the cascade fan-out
// and readiness recompute run afterwards in their own scopes so a fan-out
// failure cannot roll back an already-committed transition.
func (s *ApprovalService) TransitionApproval(ctx context.Context, actingStaffID, actingDeptID, approvalID int64, newStatus, remarks string) (*models.ApprovalRequest, error) {
	status, err := models.ParseTransitionStatus(newStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidStatus, err)
	}

	req, err := s.approvals.GetByID(ctx, approvalID)
	if err != nil {
		return nil, err
	}

	// A staff member may only act on requests addressed to their own
	// department.
	if req.DepartmentID != actingDeptID {
		s.logger.Warn().
			Int64("staffId", actingStaffID).
			Int64("actingDeptId", actingDeptID).
			Int64("approvalId", approvalID).
			Int64("requestDeptId", req.DepartmentID).
			Msg("Transition attempt on another department's approval request")
		return nil, apperrors.ErrDepartmentMismatch
	}

	var updated *models.ApprovalRequest
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var approvedAt *time.Time
		if status.IsResolved() {
			now := time.Now()
			approvedAt = &now
		}

		updated, err = s.approvals.UpdateStatus(ctx, tx, approvalID, status, remarks, approvedAt)
		if err != nil {
			return err
		}

		if err := s.approvals.InsertAction(ctx, tx, &models.ApprovalAction{
			RequestID: approvalID,
			StaffID:   actingStaffID,
			Action:    status,
			Remarks:   remarks,
		}); err != nil {
			return err
		}

		// APPROVED locks the form for good; REQUESTED_INFO reopens it so the
		// student can answer; REJECTED leaves it alone.
		switch status {
		case models.StatusApproved:
			editable := false
			return s.students.UpdateFlags(ctx, tx, req.StudentPRN, repositories.ProfileFlags{IsFormEditable: &editable})
		case models.StatusRequestedInfo:
			editable := true
			return s.students.UpdateFlags(ctx, tx, req.StudentPRN, repositories.ProfileFlags{IsFormEditable: &editable})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorageFailure, err)
	}

	if status == models.StatusApproved {
		s.fanOutCascade(ctx, updated)
	}

	if err := s.RecomputeReadiness(ctx, req.StudentPRN); err != nil {
		// The transition itself committed; readiness is recomputed again on
		// the next transition for this student.
		s.logger.Error().Err(err).Str("prn", req.StudentPRN).Msg("Failed to recompute readiness")
	}

	return updated, nil
}

// fanOutCascade creates the next-stage approval requests for a just-approved
// request. Each candidate insert is independent and best-effort: one failure
// is logged and must not block the remaining candidates, and a duplicate
// from a concurrent branch is a no-op.
func (s *ApprovalService) fanOutCascade(ctx context.Context, approved *models.ApprovalRequest) {
	student, err := s.students.GetByPRN(ctx, approved.StudentPRN)
	if err != nil {
		s.logger.Error().Err(err).Str("prn", approved.StudentPRN).Msg("Cascade: failed to load student")
		return
	}

	profile, err := s.students.GetProfile(ctx, approved.StudentPRN)
	if err != nil {
		s.logger.Error().Err(err).Str("prn", approved.StudentPRN).Msg("Cascade: failed to load profile")
		return
	}

	dept, err := s.departments.GetByID(ctx, approved.DepartmentID)
	if err != nil {
		s.logger.Error().Err(err).Int64("deptId", approved.DepartmentID).Msg("Cascade: failed to load department")
		return
	}

	candidates, err := s.resolver.ResolveNextStage(ctx, dept, student, profile)
	if err != nil {
		s.logger.Error().Err(err).Int64("deptId", dept.ID).Msg("Cascade: failed to resolve next stage")
		return
	}

	for _, candidate := range candidates {
		outcome, err := s.approvals.InsertIfAbsent(ctx, &models.ApprovalRequest{
			StudentPRN:      student.PRN,
			DepartmentID:    candidate.ID,
			StudentName:     student.Name,
			DepartmentName:  candidate.Name,
			Branch:          profile.Branch,
			YearOfAdmission: profile.YearOfAdmission,
		})
		if err != nil {
			s.logger.Error().Err(err).
				Str("prn", student.PRN).
				Int64("deptId", candidate.ID).
				Msg("Cascade: failed to create approval request")
			continue
		}
		if outcome == repositories.InsertOutcomeAlreadyExists {
			s.logger.Debug().
				Str("prn", student.PRN).
				Int64("deptId", candidate.ID).
				Msg("Cascade: approval request already exists")
			continue
		}
		s.logger.Info().
			Str("prn", student.PRN).
			Int64("deptId", candidate.ID).
			Str("dept", candidate.Name).
			Msg("Cascade: approval request created")
	}
}

// RecomputeReadiness marks the student's profile ready for certificate
// generation once every approval request is APPROVED. A student with no
// requests at all is never ready; the query shape would otherwise declare
// readiness vacuously. Re-running against an already-ready profile changes
// nothing.
func (s *ApprovalService) RecomputeReadiness(ctx context.Context, prn string) error {
	total, nonApproved, err := s.approvals.CountByStudent(ctx, prn)
	if err != nil {
		return err
	}

	if total == 0 || nonApproved > 0 {
		return nil
	}

	profile, err := s.students.GetProfile(ctx, prn)
	if err != nil {
		return err
	}
	if profile.LCReady {
		return nil
	}

	ready := true
	generated := false
	if err := s.students.UpdateFlags(ctx, nil, prn, repositories.ProfileFlags{
		LCReady:     &ready,
		LCGenerated: &generated,
		ClearLCURL:  true,
	}); err != nil {
		return err
	}

	s.logger.Info().Str("prn", prn).Int("approvals", total).Msg("Student cleared for certificate generation")
	return nil
}

// GetApproval retrieves one approval request with its audit trail
func (s *ApprovalService) GetApproval(ctx context.Context, id int64) (*models.ApprovalRequest, []*models.ApprovalAction, error) {
	req, err := s.approvals.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	actions, err := s.approvals.ListActionsByRequest(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return req, actions, nil
}

// ListByDepartment retrieves a department's requests in one status
func (s *ApprovalService) ListByDepartment(ctx context.Context, deptID int64, status models.ApprovalStatus) ([]*models.ApprovalRequest, error) {
	if _, err := s.departments.GetByID(ctx, deptID); err != nil {
		return nil, err
	}

	return s.approvals.ListByDepartmentAndStatus(ctx, deptID, status)
}

// ListByStudent retrieves all of a student's approval requests
func (s *ApprovalService) ListByStudent(ctx context.Context, prn string) ([]*models.ApprovalRequest, error) {
	if _, err := s.students.GetByPRN(ctx, prn); err != nil {
		return nil, err
	}

	return s.approvals.ListByStudent(ctx, prn)
}
