package dto

import "github.com/icemlc/lcportal/internal/app/models"

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterStaffRequest represents a staff account registration request
type RegisterStaffRequest struct {
	Email        string           `json:"email" binding:"required,email"`
	Password     string           `json:"password" binding:"required,min=8"`
	Name         string           `json:"name" binding:"required"`
	DepartmentID int64            `json:"departmentId" binding:"required,min=1"`
	Role         models.StaffRole `json:"role" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int    `json:"expiresIn"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int    `json:"refreshTokenExpiresIn,omitempty"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// StaffResponse represents staff account information
type StaffResponse struct {
	ID           int64              `json:"id"`
	Email        string             `json:"email"`
	Name         string             `json:"name"`
	DepartmentID int64              `json:"departmentId"`
	Role         string             `json:"role"`
	Department   *models.Department `json:"department,omitempty"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	Staff StaffResponse `json:"staff"`
}

// NewStaffResponse maps a staff model to its response shape
func NewStaffResponse(staff *models.Staff) StaffResponse {
	return StaffResponse{
		ID:           staff.ID,
		Email:        staff.Email,
		Name:         staff.Name,
		DepartmentID: staff.DepartmentID,
		Role:         string(staff.Role),
		Department:   staff.Department,
	}
}
