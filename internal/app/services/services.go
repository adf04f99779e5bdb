// Package services implements the leaving certificate workflow: the approval
// state machine, the cascade resolver, readiness evaluation and the student,
// catalog and authentication flows around them. Services depend on narrow
// store interfaces so they can be exercised without a database.
package services

import (
	"github.com/rs/zerolog"

	"github.com/icemlc/lcportal/internal/app/repositories"
	"github.com/icemlc/lcportal/internal/db"
	"github.com/icemlc/lcportal/internal/pkg/auth"
	"github.com/icemlc/lcportal/internal/pkg/filestorage"
)

// Services holds all the service instances
type Services struct {
	AuthService       *AuthService
	ApprovalService   *ApprovalService
	StudentService    *StudentService
	DepartmentService *DepartmentService
}

// NewServices initializes all services
func NewServices(
	repos *repositories.Repositories,
	database *db.PostgresDB,
	jwtService *auth.JWTService,
	storage filestorage.FileStorage,
	logger zerolog.Logger,
) *Services {
	resolver := NewCascadeResolver(repos.DepartmentRepository)

	return &Services{
		AuthService: NewAuthService(
			repos.StaffRepository,
			repos.TokenRepository,
			repos.DepartmentRepository,
			jwtService,
			logger,
		),
		ApprovalService: NewApprovalService(
			repos.ApprovalRepository,
			repos.StudentRepository,
			repos.DepartmentRepository,
			resolver,
			database,
			logger,
		),
		StudentService: NewStudentService(
			repos.StudentRepository,
			repos.DepartmentRepository,
			repos.ApprovalRepository,
			repos.DepartmentRepository,
			storage,
			logger,
		),
		DepartmentService: NewDepartmentService(
			repos.DepartmentRepository,
			logger,
		),
	}
}
