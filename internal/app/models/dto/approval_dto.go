package dto

import "github.com/icemlc/lcportal/internal/app/models"

// UpdateApprovalStatusRequest carries one status-change command. Status must
// be APPROVED, REJECTED or REQUESTED_INFO; PENDING is not a valid target.
type UpdateApprovalStatusRequest struct {
	Status  string `json:"status" binding:"required" example:"APPROVED" enums:"APPROVED,REJECTED,REQUESTED_INFO"`
	Remarks string `json:"remarks" example:"No dues pending"`
}

// ApprovalDetailResponse bundles a request with its audit trail
type ApprovalDetailResponse struct {
	Request *models.ApprovalRequest  `json:"request"`
	Actions []*models.ApprovalAction `json:"actions"`
}

// ApprovalListResponse wraps a department or student listing
type ApprovalListResponse struct {
	Requests []*models.ApprovalRequest `json:"requests"`
	Total    int                       `json:"total"`
}

// NewApprovalListResponse builds a listing response
func NewApprovalListResponse(requests []*models.ApprovalRequest) ApprovalListResponse {
	return ApprovalListResponse{
		Requests: requests,
		Total:    len(requests),
	}
}
