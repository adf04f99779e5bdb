package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appModels "github.com/icemlc/lcportal/internal/app/models"
	appRepos "github.com/icemlc/lcportal/internal/app/repositories"
	"github.com/icemlc/lcportal/internal/pkg/apperrors"
	"github.com/icemlc/lcportal/internal/pkg/auth"
)

const (
	defaultAdminEmail    = "admin@lcportal.local"
	defaultAdminPassword = "ChangeMe123!"
)

// CreateDefaultData seeds the branches, the clearance catalog and a default
// admin account if they don't exist. The catalog is mostly static; the
// cascade depends on these categories being present.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	departmentRepo := appRepos.NewDepartmentRepository(dbPool)
	staffRepo := appRepos.NewStaffRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default data (branches, clearance catalog)...")
	var finalErr error

	// --- Academic branches --- //
	branchIDs := make(map[string]int64)
	for _, name := range []string{
		"Computer Engineering",
		"Mechanical Engineering",
		"Civil Engineering",
		"Electronics & Telecommunication",
	} {
		id, err := departmentRepo.EnsureBranch(ctx, name)
		if err != nil {
			lgr.Error().Err(err).Str("branch", name).Msg("Error ensuring branch")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		branchIDs[name] = id
	}

	// --- Sequential clearance tiers --- //
	tiers := []*appModels.Department{
		{Name: "Account Section", Category: appModels.CategoryFinance, College: appModels.CollegeAll},
		{Name: "Library Dept", Category: appModels.CategoryLibrary, College: appModels.CollegeAll},
		{Name: "Registrar Office", Category: appModels.CategoryRegistrar, College: appModels.CollegeAll},
	}
	for _, dept := range tiers {
		if err := departmentRepo.Create(ctx, dept); err != nil && !errors.Is(err, apperrors.ErrDepartmentAlreadyExists) {
			lgr.Error().Err(err).Str("name", dept.Name).Msg("Error creating clearance tier")
			finalErr = errors.Join(finalErr, err)
		}
	}

	// --- Branch heads per college --- //
	for branch, id := range branchIDs {
		branchID := id
		for _, college := range []string{"ICEM", "ICP"} {
			hod := &appModels.Department{
				Name:     "HOD " + branch + " (" + college + ")",
				Category: appModels.CategoryBranchHead,
				BranchID: &branchID,
				College:  college,
			}
			if err := departmentRepo.Create(ctx, hod); err != nil && !errors.Is(err, apperrors.ErrDepartmentAlreadyExists) {
				lgr.Error().Err(err).Str("name", hod.Name).Msg("Error creating branch head department")
				finalErr = errors.Join(finalErr, err)
			}
		}
	}

	// --- Remaining clearance desks (terminal fan-out) --- //
	desks := []*appModels.Department{
		{Name: "Training & Placement", Category: appModels.CategoryOther, College: appModels.CollegeAll},
		{Name: "Sports Dept", Category: appModels.CategoryOther, College: appModels.CollegeAll},
		{Name: "Hostel Office", Category: appModels.CategoryOther, College: "ICEM"},
		{Name: "Exam Cell", Category: appModels.CategoryOther, College: appModels.CollegeAll},
	}
	for _, dept := range desks {
		if err := departmentRepo.Create(ctx, dept); err != nil && !errors.Is(err, apperrors.ErrDepartmentAlreadyExists) {
			lgr.Error().Err(err).Str("name", dept.Name).Msg("Error creating clearance desk")
			finalErr = errors.Join(finalErr, err)
		}
	}

	// --- Default admin bound to the registrar office --- //
	exists, err := staffRepo.EmailExists(ctx, defaultAdminEmail)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking default admin existence")
		return errors.Join(finalErr, err)
	}
	if !exists {
		registrar, err := departmentRepo.FirstByCategory(ctx, appModels.CategoryRegistrar)
		if err != nil {
			lgr.Error().Err(err).Msg("Error resolving registrar office for default admin")
			return errors.Join(finalErr, err)
		}

		hashed, err := auth.HashPassword(defaultAdminPassword)
		if err != nil {
			return errors.Join(finalErr, err)
		}

		admin := &appModels.Staff{
			Email:        defaultAdminEmail,
			Password:     hashed,
			Name:         "Portal Admin",
			DepartmentID: registrar.ID,
			Role:         appModels.RoleAdmin,
			IsActive:     true,
		}
		if err := staffRepo.Create(ctx, admin); err != nil && !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			lgr.Error().Err(err).Msg("Error creating default admin account")
			finalErr = errors.Join(finalErr, err)
		} else if err == nil {
			lgr.Warn().Str("email", defaultAdminEmail).Msg("Default admin created, change the password immediately")
		}
	}

	if finalErr == nil {
		lgr.Info().Msg("Default data check/creation complete.")
	}
	return finalErr
}
