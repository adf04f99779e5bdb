package models

import (
	"fmt"
	"time"
)

// ApprovalStatus is the lifecycle state of an approval request.
type ApprovalStatus string

const (
	StatusPending       ApprovalStatus = "PENDING"
	StatusApproved      ApprovalStatus = "APPROVED"
	StatusRejected      ApprovalStatus = "REJECTED"
	StatusRequestedInfo ApprovalStatus = "REQUESTED_INFO"
)

// ParseTransitionStatus parses a status value supplied by a department actor.
// PENDING is the creation-time state and is not a valid transition target.
func ParseTransitionStatus(s string) (ApprovalStatus, error) {
	switch ApprovalStatus(s) {
	case StatusApproved, StatusRejected, StatusRequestedInfo:
		return ApprovalStatus(s), nil
	default:
		return "", fmt.Errorf("invalid approval status %q", s)
	}
}

// IsResolved reports whether the status stamps a resolution time.
func (s ApprovalStatus) IsResolved() bool {
	return s == StatusApproved || s == StatusRejected
}

// ApprovalRequest is one clearance obligation between a student and a
// department. The (student_prn, department_id) pair is unique; the database
// constraint is the authoritative dedup point for concurrent creation.
type ApprovalRequest struct {
	ID           int64          `json:"id"`
	StudentPRN   string         `json:"studentPrn"`
	DepartmentID int64          `json:"departmentId"`
	Status       ApprovalStatus `json:"status"`
	Remarks      string         `json:"remarks"`

	// Snapshot fields captured at creation time so department listings stay
	// stable even if the student record changes afterwards.
	StudentName     string `json:"studentName"`
	DepartmentName  string `json:"departmentName"`
	Branch          string `json:"branch"`
	YearOfAdmission int    `json:"yearOfAdmission"`

	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
}

// ApprovalAction is one row of the append-only audit ledger. Rows are written
// once per status transition and never updated or deleted.
type ApprovalAction struct {
	ID        int64          `json:"id"`
	RequestID int64          `json:"requestId"`
	StaffID   int64          `json:"staffId"`
	Action    ApprovalStatus `json:"action"`
	Remarks   string         `json:"remarks"`
	CreatedAt time.Time      `json:"createdAt"`
}
