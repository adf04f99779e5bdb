package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/icemlc/lcportal/internal/app/models"
	"github.com/icemlc/lcportal/internal/app/repositories"
	"github.com/icemlc/lcportal/internal/pkg/apperrors"
	"github.com/icemlc/lcportal/internal/pkg/auth"
	"github.com/icemlc/lcportal/internal/pkg/validation"
)

// TokenPair bundles the credentials returned on login and refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int
	RefreshExpiresIn int
}

// StaffStore is the persistence surface for staff accounts.
type StaffStore interface {
	Create(ctx context.Context, staff *models.Staff) error
	GetByEmail(ctx context.Context, email string) (*models.Staff, error)
	GetByID(ctx context.Context, id int64) (*models.Staff, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// TokenStore persists opaque refresh tokens.
type TokenStore interface {
	Store(ctx context.Context, token *repositories.RefreshToken) error
	Get(ctx context.Context, token string) (*repositories.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
}

// AuthService handles staff authentication
type AuthService struct {
	staff       StaffStore
	tokens      TokenStore
	departments DepartmentStore
	jwtService  *auth.JWTService
	logger      zerolog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	staff StaffStore,
	tokens TokenStore,
	departments DepartmentStore,
	jwtService *auth.JWTService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		staff:       staff,
		tokens:      tokens,
		departments: departments,
		jwtService:  jwtService,
		logger:      logger,
	}
}

// Register creates a staff account bound to one department
func (s *AuthService) Register(ctx context.Context, email, password, name string, departmentID int64, role models.StaffRole) (*models.Staff, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if !validation.NewStringValidation(email).WithPattern(validation.CompiledPatterns.Email).Validate() {
		return nil, apperrors.NewBadRequestError("invalid email format")
	}
	if len(password) < validation.PasswordMinLength {
		return nil, apperrors.NewBadRequestError("password must be at least 8 characters")
	}
	if !validation.NewStringValidation(name).WithMinLength(validation.NameMinLength).WithMaxLength(validation.NameMaxLength).Validate() {
		return nil, apperrors.NewBadRequestError("invalid name")
	}

	switch role {
	case models.RoleStaff, models.RoleRegistrar, models.RoleAdmin:
	default:
		return nil, apperrors.NewBadRequestError("invalid role")
	}

	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		return nil, err
	}

	exists, err := s.staff.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrEmailAlreadyExists
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	staff := &models.Staff{
		Email:        email,
		Password:     hashed,
		Name:         name,
		DepartmentID: departmentID,
		Role:         role,
		IsActive:     true,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, err
	}

	s.logger.Info().Str("email", email).Int64("deptId", departmentID).Msg("Staff account created")
	return staff, nil
}

// Login authenticates a staff member and issues a token pair
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Staff, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	staff, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrStaffNotFound) {
			// Do not reveal whether the account exists
			return nil, nil, apperrors.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !staff.IsActive {
		return nil, nil, apperrors.ErrAccountDisabled
	}

	if !auth.CheckPassword(staff.Password, password) {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, staff)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().Str("email", email).Int64("staffId", staff.ID).Msg("Staff logged in")
	return staff, pair, nil
}

// RefreshToken exchanges a valid refresh token for a new pair, revoking the
// old one.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.tokens.Get(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	if stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, apperrors.ErrTokenExpired
	}

	staff, err := s.staff.GetByID(ctx, stored.StaffID)
	if err != nil {
		return nil, err
	}
	if !staff.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, staff)
}

// Logout revokes a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}

// GetProfile returns the authenticated staff member with their department
func (s *AuthService) GetProfile(ctx context.Context, staffID int64) (*models.Staff, error) {
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, err
	}

	dept, err := s.departments.GetByID(ctx, staff.DepartmentID)
	if err == nil {
		staff.Department = dept
	}

	return staff, nil
}

func (s *AuthService) issueTokens(ctx context.Context, staff *models.Staff) (*TokenPair, error) {
	accessToken, refreshToken, expiresIn, refreshExpiresIn, err := s.jwtService.GenerateTokenPair(staff)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Store(ctx, &repositories.RefreshToken{
		Token:     refreshToken,
		StaffID:   staff.ID,
		ExpiresAt: s.jwtService.GetRefreshTokenExpiry(),
	}); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresIn:        expiresIn,
		RefreshExpiresIn: refreshExpiresIn,
	}, nil
}
