package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/icemlc/lcportal/internal/app/models"
	"github.com/icemlc/lcportal/internal/pkg/apperrors"
)

// DepartmentCatalog is the read-only view of the clearance catalog the
// cascade resolver routes against.
type DepartmentCatalog interface {
	FirstByCategory(ctx context.Context, category models.DepartmentCategory) (*models.Department, error)
	BranchHeads(ctx context.Context, branchID int64, college string) ([]*models.Department, error)
	RemainingClearance(ctx context.Context, college string) ([]*models.Department, error)
}

// CascadeResolver determines which departments must receive a new approval
// request after one department signs off. The policy is a fixed three-tier
// pipeline: finance clearance, then library, then the student's branch head,
// then every remaining clearance desk in parallel.
//
// Resolution is a pure function of the department category and the student's
// profile; the caller performs the inserts.
type CascadeResolver struct {
	catalog DepartmentCatalog
}

// NewCascadeResolver creates a new cascade resolver
func NewCascadeResolver(catalog DepartmentCatalog) *CascadeResolver {
	return &CascadeResolver{
		catalog: catalog,
	}
}

// ResolveNextStage returns the departments that must clear the student next,
// given the department that was just approved. An empty result means the
// chain has no further stages to spawn from this department.
func (r *CascadeResolver) ResolveNextStage(ctx context.Context, approved *models.Department, student *models.Student, profile *models.StudentProfile) ([]*models.Department, error) {
	switch approved.Category {
	case models.CategoryFinance:
		library, err := r.catalog.FirstByCategory(ctx, models.CategoryLibrary)
		if err != nil {
			// A catalog without a library desk simply ends this branch of
			// the chain.
			if errors.Is(err, apperrors.ErrDepartmentNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("resolving library stage: %w", err)
		}
		return []*models.Department{library}, nil

	case models.CategoryLibrary:
		heads, err := r.catalog.BranchHeads(ctx, profile.BranchID, student.College)
		if err != nil {
			return nil, fmt.Errorf("resolving branch head stage: %w", err)
		}
		return heads, nil

	case models.CategoryBranchHead:
		remaining, err := r.catalog.RemainingClearance(ctx, student.College)
		if err != nil {
			return nil, fmt.Errorf("resolving remaining clearance stage: %w", err)
		}
		return remaining, nil

	default:
		// Terminal departments (registrar and the parallel clearance desks)
		// spawn nothing.
		return nil, nil
	}
}
