package models

import "time"

// Student is identified by the registration number (PRN) issued by the
// institution.
type Student struct {
	PRN     string `json:"prn"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	College string `json:"college"`

	Profile *StudentProfile `json:"profile,omitempty"`
}

// StudentProfile holds the leaving-certificate form fields and the workflow
// flags mutated by the approval pipeline. One profile per student.
type StudentProfile struct {
	StudentPRN       string `json:"studentPrn"`
	BranchID         int64  `json:"branchId"`
	Branch           string `json:"branch"`
	YearOfAdmission  int    `json:"yearOfAdmission"`
	AdmissionMode    string `json:"admissionMode"`
	ReasonForLeaving string `json:"reasonForLeaving"`

	// Workflow flags. LCReady flips true once every approval request for the
	// student is APPROVED; LCURL points at the generated certificate.
	IsFormEditable bool    `json:"isFormEditable"`
	LCReady        bool    `json:"lcReady"`
	LCGenerated    bool    `json:"lcGenerated"`
	LCURL          *string `json:"lcUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
