package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/icemlc/lcportal/internal/app/models"
	"github.com/icemlc/lcportal/internal/app/models/dto"
	"github.com/icemlc/lcportal/internal/app/services"
	"github.com/icemlc/lcportal/internal/middleware"
)

// ApprovalController handles approval request operations
type ApprovalController struct {
	approvalService *services.ApprovalService
	logger          zerolog.Logger
}

// NewApprovalController creates a new ApprovalController
func NewApprovalController(approvalService *services.ApprovalService, logger zerolog.Logger) *ApprovalController {
	return &ApprovalController{
		approvalService: approvalService,
		logger:          logger,
	}
}

// UpdateStatus handles a status transition on one approval request
// @Summary Update approval request status
// @Description Transitions an approval request to APPROVED, REJECTED or REQUESTED_INFO. The acting staff member must belong to the request's department. Approving triggers the next cascade stage.
// @Tags approvals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Approval request ID"
// @Param request body dto.UpdateApprovalStatusRequest true "Target status and remarks"
// @Success 200 {object} dto.APIResponse{data=models.ApprovalRequest} "Status updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid status value"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Request belongs to another department"
// @Failure 404 {object} dto.ErrorResponse "Approval request not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /approvals/{id}/status [patch]
func (c *ApprovalController) UpdateStatus(ctx *gin.Context) {
	approvalID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid approval request ID").WithField("id")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	var req dto.UpdateApprovalStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid status update data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	staffID, departmentID, ok := middleware.ActingStaff(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	updated, err := c.approvalService.TransitionApproval(ctx.Request.Context(), staffID, departmentID, approvalID, req.Status, req.Remarks)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(updated))
}

// GetByID returns one approval request with its audit trail
// @Summary Get approval request detail
// @Description Returns an approval request together with its audit ledger
// @Tags approvals
// @Produce json
// @Security BearerAuth
// @Param id path int true "Approval request ID"
// @Success 200 {object} dto.APIResponse{data=dto.ApprovalDetailResponse} "Approval request detail"
// @Failure 400 {object} dto.ErrorResponse "Invalid approval request ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Approval request not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /approvals/{id} [get]
func (c *ApprovalController) GetByID(ctx *gin.Context) {
	approvalID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid approval request ID").WithField("id")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	req, actions, err := c.approvalService.GetApproval(ctx.Request.Context(), approvalID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.ApprovalDetailResponse{
		Request: req,
		Actions: actions,
	}))
}

// ListForDepartment returns the acting department's requests in one status
// @Summary List department approval requests
// @Description Lists the acting staff member's department queue filtered by status. Defaults to PENDING.
// @Tags approvals
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter" Enums(PENDING, APPROVED, REJECTED, REQUESTED_INFO) default(PENDING)
// @Success 200 {object} dto.APIResponse{data=dto.ApprovalListResponse} "Approval requests"
// @Failure 400 {object} dto.ErrorResponse "Invalid status value"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /approvals [get]
func (c *ApprovalController) ListForDepartment(ctx *gin.Context) {
	_, departmentID, ok := middleware.ActingStaff(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return
	}

	status := models.ApprovalStatus(ctx.DefaultQuery("status", string(models.StatusPending)))
	switch status {
	case models.StatusPending, models.StatusApproved, models.StatusRejected, models.StatusRequestedInfo:
	default:
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid status value").WithField("status")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	requests, err := c.approvalService.ListByDepartment(ctx.Request.Context(), departmentID, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewApprovalListResponse(requests)))
}

// ListForStudent returns every approval request of one student
// @Summary List a student's approval requests
// @Description Lists all approval requests of a student across every department
// @Tags approvals
// @Produce json
// @Security BearerAuth
// @Param prn path string true "Student PRN"
// @Success 200 {object} dto.APIResponse{data=dto.ApprovalListResponse} "Approval requests"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students/{prn}/approvals [get]
func (c *ApprovalController) ListForStudent(ctx *gin.Context) {
	prn := ctx.Param("prn")

	requests, err := c.approvalService.ListByStudent(ctx.Request.Context(), prn)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.NewApprovalListResponse(requests)))
}
