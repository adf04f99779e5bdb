package dto

import "github.com/icemlc/lcportal/internal/app/models"

// CreateDepartmentRequest represents a catalog entry creation request
type CreateDepartmentRequest struct {
	Name     string                    `json:"name" binding:"required" example:"Library Dept"`
	Category models.DepartmentCategory `json:"category" binding:"required" enums:"FINANCE,LIBRARY,BRANCH_HEAD,REGISTRAR,OTHER"`
	BranchID *int64                    `json:"branchId,omitempty"`
	College  string                    `json:"college" example:"ICEM"`
}

// DepartmentListResponse wraps the catalog listing
type DepartmentListResponse struct {
	Departments []*models.Department `json:"departments"`
	Total       int                  `json:"total"`
}
