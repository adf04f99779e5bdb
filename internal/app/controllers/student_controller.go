package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/icemlc/lcportal/internal/app/models"
	"github.com/icemlc/lcportal/internal/app/models/dto"
	"github.com/icemlc/lcportal/internal/app/services"
	"github.com/icemlc/lcportal/internal/middleware"
)

// StudentController handles student registration, the LC form and the
// registrar's certificate upload.
type StudentController struct {
	studentService *services.StudentService
	logger         zerolog.Logger
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService *services.StudentService, logger zerolog.Logger) *StudentController {
	return &StudentController{
		studentService: studentService,
		logger:         logger,
	}
}

// Register handles student registration
// @Summary Register a student
// @Description Creates a student record identified by PRN
// @Tags students
// @Accept json
// @Produce json
// @Param request body dto.RegisterStudentRequest true "Student information"
// @Success 201 {object} dto.APIResponse{data=models.Student} "Student registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 409 {object} dto.ErrorResponse "PRN already registered"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students [post]
func (c *StudentController) Register(ctx *gin.Context) {
	var req dto.RegisterStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid student data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	student := &models.Student{
		PRN:     req.PRN,
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		College: req.College,
	}
	if err := c.studentService.RegisterStudent(ctx.Request.Context(), student); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(student))
}

// Get returns a student with profile
// @Summary Get a student
// @Description Returns a student record with the LC form profile if submitted
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param prn path string true "Student PRN"
// @Success 200 {object} dto.APIResponse{data=models.Student} "Student"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students/{prn} [get]
func (c *StudentController) Get(ctx *gin.Context) {
	student, err := c.studentService.GetStudent(ctx.Request.Context(), ctx.Param("prn"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(student))
}

// SubmitForm handles a leaving certificate form submission
// @Summary Submit the leaving certificate form
// @Description Creates or updates the LC form and, on first submission, opens the clearance chain. Rejected while the form is locked.
// @Tags students
// @Accept json
// @Produce json
// @Param prn path string true "Student PRN"
// @Param request body dto.SubmitFormRequest true "Form fields"
// @Success 200 {object} dto.APIResponse{data=models.StudentProfile} "Form saved"
// @Failure 400 {object} dto.ErrorResponse "Invalid form data or form locked"
// @Failure 404 {object} dto.ErrorResponse "Student or branch not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students/{prn}/form [post]
func (c *StudentController) SubmitForm(ctx *gin.Context) {
	var req dto.SubmitFormRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid form data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	profile, err := c.studentService.SubmitForm(ctx.Request.Context(), ctx.Param("prn"), &models.StudentProfile{
		BranchID:         req.BranchID,
		YearOfAdmission:  req.YearOfAdmission,
		AdmissionMode:    req.AdmissionMode,
		ReasonForLeaving: req.ReasonForLeaving,
	})
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(profile))
}

// UploadCertificate stores a generated leaving certificate
// @Summary Upload a generated leaving certificate
// @Description Stores the certificate file for a fully cleared student and marks the profile generated. Registrar only.
// @Tags students
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param prn path string true "Student PRN"
// @Param file formData file true "Certificate file"
// @Success 200 {object} dto.APIResponse{data=models.StudentProfile} "Certificate recorded"
// @Failure 400 {object} dto.ErrorResponse "Student not cleared or file missing"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Registrar role required"
// @Failure 404 {object} dto.ErrorResponse "Student profile not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students/{prn}/certificate [post]
func (c *StudentController) UploadCertificate(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Certificate file is required").WithField("file")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	profile, err := c.studentService.RecordCertificate(ctx.Request.Context(), ctx.Param("prn"), file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(profile))
}
