package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	ApprovalRepository   *ApprovalRepository
	DepartmentRepository *DepartmentRepository
	StudentRepository    *StudentRepository
	StaffRepository      *StaffRepository
	TokenRepository      *TokenRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		ApprovalRepository:   NewApprovalRepository(db),
		DepartmentRepository: NewDepartmentRepository(db),
		StudentRepository:    NewStudentRepository(db),
		StaffRepository:      NewStaffRepository(db),
		TokenRepository:      NewTokenRepository(db),
	}
}
