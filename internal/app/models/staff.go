package models

import "time"

// StaffRole controls which route groups a staff account may use.
type StaffRole string

const (
	RoleStaff     StaffRole = "STAFF"
	RoleRegistrar StaffRole = "REGISTRAR"
	RoleAdmin     StaffRole = "ADMIN"
)

// Staff is a department actor. Every staff member belongs to exactly one
// department; transitions may only target requests addressed to it.
type Staff struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Password     string    `json:"-"`
	Name         string    `json:"name"`
	DepartmentID int64     `json:"departmentId"`
	Role         StaffRole `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Department *Department `json:"department,omitempty"`
}
