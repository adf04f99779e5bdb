package dto

// RegisterStudentRequest represents a student registration request
type RegisterStudentRequest struct {
	PRN     string `json:"prn" binding:"required" example:"21510001"`
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	College string `json:"college" binding:"required" example:"ICEM"`
}

// SubmitFormRequest carries the leaving certificate form fields
type SubmitFormRequest struct {
	BranchID         int64  `json:"branchId" binding:"required,min=1"`
	YearOfAdmission  int    `json:"yearOfAdmission" binding:"required"`
	AdmissionMode    string `json:"admissionMode" binding:"required" example:"FIRST_YEAR"`
	ReasonForLeaving string `json:"reasonForLeaving" binding:"required"`
}
