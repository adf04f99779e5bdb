package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icemlc/lcportal/internal/app/models"
	"github.com/icemlc/lcportal/internal/app/repositories"
	"github.com/icemlc/lcportal/internal/pkg/apperrors"
	"github.com/icemlc/lcportal/internal/pkg/auth"
)

type fakeStaffStore struct {
	byEmail map[string]*models.Staff
	nextID  int64
}

func newFakeStaffStore() *fakeStaffStore {
	return &fakeStaffStore{byEmail: make(map[string]*models.Staff)}
}

func (f *fakeStaffStore) Create(_ context.Context, staff *models.Staff) error {
	if _, ok := f.byEmail[staff.Email]; ok {
		return apperrors.ErrEmailAlreadyExists
	}
	f.nextID++
	staff.ID = f.nextID
	f.byEmail[staff.Email] = staff
	return nil
}

func (f *fakeStaffStore) GetByEmail(_ context.Context, email string) (*models.Staff, error) {
	staff, ok := f.byEmail[email]
	if !ok {
		return nil, apperrors.ErrStaffNotFound
	}
	return staff, nil
}

func (f *fakeStaffStore) GetByID(_ context.Context, id int64) (*models.Staff, error) {
	for _, staff := range f.byEmail {
		if staff.ID == id {
			return staff, nil
		}
	}
	return nil, apperrors.ErrStaffNotFound
}

func (f *fakeStaffStore) EmailExists(_ context.Context, email string) (bool, error) {
	_, ok := f.byEmail[email]
	return ok, nil
}

type fakeTokenStore struct {
	tokens map[string]*repositories.RefreshToken
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]*repositories.RefreshToken)}
}

func (f *fakeTokenStore) Store(_ context.Context, token *repositories.RefreshToken) error {
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeTokenStore) Get(_ context.Context, token string) (*repositories.RefreshToken, error) {
	rt, ok := f.tokens[token]
	if !ok {
		return nil, apperrors.ErrTokenInvalid
	}
	return rt, nil
}

func (f *fakeTokenStore) Revoke(_ context.Context, token string) error {
	if rt, ok := f.tokens[token]; ok {
		rt.Revoked = true
	}
	return nil
}

type authHarness struct {
	staff  *fakeStaffStore
	tokens *fakeTokenStore
	svc    *AuthService
}

func newAuthHarness(t *testing.T) *authHarness {
	t.Helper()

	h := &authHarness{
		staff:  newFakeStaffStore(),
		tokens: newFakeTokenStore(),
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 720 * time.Hour,
		TokenIssuer:     "lcportal.test",
	})
	h.svc = NewAuthService(h.staff, h.tokens, testCatalog(), jwtService, zerolog.Nop())
	return h
}

func (h *authHarness) register(t *testing.T, email string, deptID int64, role models.StaffRole) *models.Staff {
	t.Helper()
	staff, err := h.svc.Register(context.Background(), email, "s3cret-pass", "Test Staff", deptID, role)
	require.NoError(t, err)
	return staff
}

func TestRegister_Validation(t *testing.T) {
	h := newAuthHarness(t)
	ctx := context.Background()

	_, err := h.svc.Register(ctx, "not-an-email", "s3cret-pass", "Test Staff", 2, models.RoleStaff)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = h.svc.Register(ctx, "a@example.com", "short", "Test Staff", 2, models.RoleStaff)
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = h.svc.Register(ctx, "a@example.com", "s3cret-pass", "Test Staff", 2, models.StaffRole("SUPERUSER"))
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	_, err = h.svc.Register(ctx, "a@example.com", "s3cret-pass", "Test Staff", 999, models.RoleStaff)
	assert.ErrorIs(t, err, apperrors.ErrDepartmentNotFound)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h := newAuthHarness(t)
	h.register(t, "librarian@lcportal.local", 2, models.RoleStaff)

	_, err := h.svc.Register(context.Background(), "librarian@lcportal.local", "s3cret-pass", "Other", 2, models.RoleStaff)
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestLogin(t *testing.T) {
	h := newAuthHarness(t)
	h.register(t, "librarian@lcportal.local", 2, models.RoleStaff)

	staff, pair, err := h.svc.Login(context.Background(), "Librarian@lcportal.local", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "librarian@lcportal.local", staff.Email)
	assert.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	// Refresh token was persisted server-side
	stored, err := h.tokens.Get(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, staff.ID, stored.StaffID)
}

func TestLogin_Failures(t *testing.T) {
	h := newAuthHarness(t)
	registered := h.register(t, "librarian@lcportal.local", 2, models.RoleStaff)

	_, _, err := h.svc.Login(context.Background(), "librarian@lcportal.local", "wrong-pass")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	// Unknown accounts are indistinguishable from bad passwords
	_, _, err = h.svc.Login(context.Background(), "ghost@lcportal.local", "s3cret-pass")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	registered.IsActive = false
	_, _, err = h.svc.Login(context.Background(), "librarian@lcportal.local", "s3cret-pass")
	assert.ErrorIs(t, err, apperrors.ErrAccountDisabled)
}

func TestRefreshToken_RotatesToken(t *testing.T) {
	h := newAuthHarness(t)
	h.register(t, "librarian@lcportal.local", 2, models.RoleStaff)

	_, pair, err := h.svc.Login(context.Background(), "librarian@lcportal.local", "s3cret-pass")
	require.NoError(t, err)

	newPair, err := h.svc.RefreshToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	// The old token is revoked and cannot be replayed
	_, err = h.svc.RefreshToken(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestRefreshToken_Unknown(t *testing.T) {
	h := newAuthHarness(t)

	_, err := h.svc.RefreshToken(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestLogout_RevokesToken(t *testing.T) {
	h := newAuthHarness(t)
	h.register(t, "librarian@lcportal.local", 2, models.RoleStaff)

	_, pair, err := h.svc.Login(context.Background(), "librarian@lcportal.local", "s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, h.svc.Logout(context.Background(), pair.RefreshToken))

	_, err = h.svc.RefreshToken(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}
