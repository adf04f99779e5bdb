package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"

	"github.com/icemlc/lcportal/internal/app/models"
	"github.com/icemlc/lcportal/internal/app/repositories"
	"github.com/icemlc/lcportal/internal/pkg/apperrors"
	"github.com/icemlc/lcportal/internal/pkg/filestorage"
	"github.com/icemlc/lcportal/internal/pkg/validation"
)

// StudentWriter extends StudentStore with registration and form writes.
type StudentWriter interface {
	StudentStore
	Create(ctx context.Context, student *models.Student) error
	UpsertProfile(ctx context.Context, profile *models.StudentProfile) error
}

// BranchCatalog resolves academic branches for form submissions.
type BranchCatalog interface {
	GetBranchByID(ctx context.Context, id int64) (*models.Branch, error)
}

// StudentService handles student registration, the LC form and certificate
// generation bookkeeping.
type StudentService struct {
	students  StudentWriter
	branches  BranchCatalog
	approvals ApprovalStore
	catalog   DepartmentCatalog
	storage   filestorage.FileStorage
	logger    zerolog.Logger
}

// NewStudentService creates a new student service
func NewStudentService(
	students StudentWriter,
	branches BranchCatalog,
	approvals ApprovalStore,
	catalog DepartmentCatalog,
	storage filestorage.FileStorage,
	logger zerolog.Logger,
) *StudentService {
	return &StudentService{
		students:  students,
		branches:  branches,
		approvals: approvals,
		catalog:   catalog,
		storage:   storage,
		logger:    logger,
	}
}

// RegisterStudent creates a student record
func (s *StudentService) RegisterStudent(ctx context.Context, student *models.Student) error {
	if !validation.NewStringValidation(strings.ToUpper(student.PRN)).WithPattern(validation.CompiledPatterns.PRN).Validate() {
		return apperrors.NewBadRequestError("invalid PRN format")
	}
	if !validation.NewStringValidation(strings.ToLower(student.Email)).WithPattern(validation.CompiledPatterns.Email).Validate() {
		return apperrors.NewBadRequestError("invalid email format")
	}
	if !validation.NewStringValidation(student.Name).WithMinLength(validation.NameMinLength).WithMaxLength(validation.NameMaxLength).Validate() {
		return apperrors.NewBadRequestError("invalid student name")
	}
	if strings.TrimSpace(student.College) == "" {
		return apperrors.NewBadRequestError("college is required")
	}

	student.PRN = strings.ToUpper(student.PRN)
	return s.students.Create(ctx, student)
}

// GetStudent retrieves a student with profile, if one exists yet
func (s *StudentService) GetStudent(ctx context.Context, prn string) (*models.Student, error) {
	student, err := s.students.GetByPRN(ctx, prn)
	if err != nil {
		return nil, err
	}

	profile, err := s.students.GetProfile(ctx, prn)
	if err == nil {
		student.Profile = profile
	} else if !apperrors.Is(err, apperrors.ErrProfileNotFound) {
		return nil, err
	}

	return student, nil
}

// SubmitForm creates or updates the LC form for a student and, on first
// submission, opens the clearance chain with a request for the finance
// department. Resubmission is rejected while the form is locked.
func (s *StudentService) SubmitForm(ctx context.Context, prn string, profile *models.StudentProfile) (*models.StudentProfile, error) {
	student, err := s.students.GetByPRN(ctx, prn)
	if err != nil {
		return nil, err
	}

	existing, err := s.students.GetProfile(ctx, prn)
	if err != nil && !apperrors.Is(err, apperrors.ErrProfileNotFound) {
		return nil, err
	}
	if existing != nil && !existing.IsFormEditable {
		return nil, apperrors.ErrFormLocked
	}

	branch, err := s.branches.GetBranchByID(ctx, profile.BranchID)
	if err != nil {
		return nil, err
	}

	if profile.YearOfAdmission < 1900 {
		return nil, apperrors.NewBadRequestError("invalid year of admission")
	}

	profile.StudentPRN = student.PRN
	profile.Branch = branch.Name
	if err := s.students.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}

	if err := s.ensureInitialRequest(ctx, student, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// ensureInitialRequest opens the clearance chain with the finance department
// if no request exists yet. Shares the insert-if-absent primitive with the
// cascade fan-out, so a resubmission or a concurrent submit is a no-op.
func (s *StudentService) ensureInitialRequest(ctx context.Context, student *models.Student, profile *models.StudentProfile) error {
	finance, err := s.catalog.FirstByCategory(ctx, models.CategoryFinance)
	if err != nil {
		return fmt.Errorf("resolving finance department: %w", err)
	}

	outcome, err := s.approvals.InsertIfAbsent(ctx, &models.ApprovalRequest{
		StudentPRN:      student.PRN,
		DepartmentID:    finance.ID,
		StudentName:     student.Name,
		DepartmentName:  finance.Name,
		Branch:          profile.Branch,
		YearOfAdmission: profile.YearOfAdmission,
	})
	if err != nil {
		return err
	}

	if outcome == repositories.InsertOutcomeCreated {
		s.logger.Info().Str("prn", student.PRN).Str("dept", finance.Name).Msg("Clearance chain opened")
	}

	return nil
}

// RecordCertificate stores a generated leaving certificate for a cleared
// student and flips the generation flags. Only callable once every approval
// request is APPROVED.
func (s *StudentService) RecordCertificate(ctx context.Context, prn string, file *multipart.FileHeader) (*models.StudentProfile, error) {
	profile, err := s.students.GetProfile(ctx, prn)
	if err != nil {
		return nil, err
	}

	if !profile.LCReady {
		return nil, apperrors.ErrCertificateNotReady
	}

	url, err := s.storage.SaveFileWithPath(file, "certificates")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorageFailure, err)
	}

	generated := true
	if err := s.students.UpdateFlags(ctx, nil, prn, repositories.ProfileFlags{
		LCGenerated: &generated,
		LCURL:       &url,
	}); err != nil {
		return nil, err
	}

	profile.LCGenerated = true
	profile.LCURL = &url

	s.logger.Info().Str("prn", prn).Str("url", url).Msg("Leaving certificate recorded")
	return profile, nil
}
