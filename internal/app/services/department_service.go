package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/icemlc/lcportal/internal/app/models"
	"github.com/icemlc/lcportal/internal/pkg/apperrors"
)

// DepartmentWriter extends the catalog with admin writes and listings.
type DepartmentWriter interface {
	DepartmentStore
	Create(ctx context.Context, department *models.Department) error
	GetAll(ctx context.Context) ([]*models.Department, error)
	EnsureBranch(ctx context.Context, name string) (int64, error)
	GetBranchByID(ctx context.Context, id int64) (*models.Branch, error)
}

// DepartmentService handles the clearance catalog
type DepartmentService struct {
	departments DepartmentWriter
	logger      zerolog.Logger
}

// NewDepartmentService creates a new department service
func NewDepartmentService(departments DepartmentWriter, logger zerolog.Logger) *DepartmentService {
	return &DepartmentService{
		departments: departments,
		logger:      logger,
	}
}

// CreateDepartment adds a department to the catalog
func (s *DepartmentService) CreateDepartment(ctx context.Context, department *models.Department) error {
	department.Name = strings.TrimSpace(department.Name)
	if department.Name == "" {
		return apperrors.NewBadRequestError("department name is required")
	}

	switch department.Category {
	case models.CategoryFinance, models.CategoryLibrary, models.CategoryBranchHead,
		models.CategoryRegistrar, models.CategoryOther:
	default:
		return apperrors.NewBadRequestError("invalid department category")
	}

	// Branch heads are the only branch-scoped tier.
	if department.Category == models.CategoryBranchHead && department.BranchID == nil {
		return apperrors.NewBadRequestError("branch head departments require a branch")
	}
	if department.Category != models.CategoryBranchHead && department.BranchID != nil {
		return apperrors.NewBadRequestError("only branch head departments may carry a branch")
	}

	if department.BranchID != nil {
		if _, err := s.departments.GetBranchByID(ctx, *department.BranchID); err != nil {
			return err
		}
	}

	if strings.TrimSpace(department.College) == "" {
		department.College = models.CollegeAll
	}

	if err := s.departments.Create(ctx, department); err != nil {
		return err
	}

	s.logger.Info().
		Str("name", department.Name).
		Str("category", string(department.Category)).
		Msg("Department created")
	return nil
}

// GetDepartment retrieves one catalog entry
func (s *DepartmentService) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	return s.departments.GetByID(ctx, id)
}

// ListDepartments retrieves the whole catalog
func (s *DepartmentService) ListDepartments(ctx context.Context) ([]*models.Department, error) {
	return s.departments.GetAll(ctx)
}

// EnsureBranch inserts a branch by name if absent and returns its id
func (s *DepartmentService) EnsureBranch(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperrors.NewBadRequestError("branch name is required")
	}

	return s.departments.EnsureBranch(ctx, name)
}
