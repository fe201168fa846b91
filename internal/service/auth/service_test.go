package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicore/clinic-api/internal/model"
	pkgauth "github.com/clinicore/clinic-api/pkg/auth"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/security"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
	roles map[uuid.UUID][]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: make(map[uuid.UUID]*model.User),
		roles: make(map[uuid.UUID][]string),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return apperrors.Conflict("email already registered")
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	clone := *user
	clone.Roles = r.roles[id]
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for id, user := range r.users {
		if user.Email == email {
			clone := *user
			clone.Roles = r.roles[id]
			return &clone, nil
		}
	}
	return nil, apperrors.NotFound("user")
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return apperrors.NotFound("user")
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) AssignRole(_ context.Context, userID uuid.UUID, role string) error {
	for _, existing := range r.roles[userID] {
		if existing == role {
			return nil
		}
	}
	r.roles[userID] = append(r.roles[userID], role)
	return nil
}

func (r *fakeUserRepo) ListRoles(_ context.Context, userID uuid.UUID) ([]string, error) {
	return r.roles[userID], nil
}

type fakeDoctorRepo struct {
	byEmail map[string]*model.Doctor
}

func (r *fakeDoctorRepo) Create(context.Context, *model.Doctor) error { return nil }
func (r *fakeDoctorRepo) Get(context.Context, uuid.UUID) (*model.Doctor, error) {
	return nil, apperrors.NotFound("doctor")
}
func (r *fakeDoctorRepo) GetByEmail(_ context.Context, email string) (*model.Doctor, error) {
	if doctor, ok := r.byEmail[email]; ok {
		return doctor, nil
	}
	return nil, apperrors.NotFound("doctor")
}
func (r *fakeDoctorRepo) Update(context.Context, *model.Doctor) error { return nil }
func (r *fakeDoctorRepo) Delete(context.Context, uuid.UUID) error { return nil }
func (r *fakeDoctorRepo) List(context.Context) ([]*model.Doctor, error) { return nil, nil }
func (r *fakeDoctorRepo) Exists(context.Context, uuid.UUID) (bool, error) { return false, nil }

type fakeTokenRepo struct {
	tokens map[string]uuid.UUID
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]uuid.UUID)}
}

func (r *fakeTokenRepo) StoreRefreshToken(_ context.Context, userID uuid.UUID, token string, _ time.Duration) error {
	r.tokens[token] = userID
	return nil
}

func (r *fakeTokenRepo) ValidateRefreshToken(_ context.Context, token string) (uuid.UUID, error) {
	userID, ok := r.tokens[token]
	if !ok {
		return uuid.Nil, apperrors.Unauthorized("invalid refresh token")
	}
	return userID, nil
}

func (r *fakeTokenRepo) RevokeRefreshToken(_ context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

func newTestService(doctors *fakeDoctorRepo) (*Service, *fakeUserRepo, *fakeTokenRepo) {
	users := newFakeUserRepo()
	tokens := newFakeTokenRepo()
	jwtSvc := pkgauth.NewJWTService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	svc := NewService(users, doctors, tokens, jwtSvc, hasher, 24*time.Hour)
	return svc, users, tokens
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestService(&fakeDoctorRepo{})
	ctx := context.Background()

	user, err := svc.Register(ctx, &model.RegisterRequest{
		Email:    "front@clinic.local",
		Password: "long-enough-password",
		Role:     model.RoleReceptionist,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleReceptionist}, user.Roles)
	assert.Nil(t, user.DoctorID)

	tokens, err := svc.Login(ctx, &model.LoginRequest{
		Email:    "front@clinic.local",
		Password: "long-enough-password",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	claims, err := svc.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(&fakeDoctorRepo{})
	ctx := context.Background()

	req := &model.RegisterRequest{
		Email:    "dup@clinic.local",
		Password: "long-enough-password",
		Role:     model.RoleAdmin,
	}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestRegisterDoctorLinksAccount(t *testing.T) {
	doctorID := uuid.New()
	doctors := &fakeDoctorRepo{byEmail: map[string]*model.Doctor{
		"smith@clinic.local": {ID: doctorID, Email: "smith@clinic.local"},
	}}
	svc, _, _ := newTestService(doctors)

	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "smith@clinic.local",
		Password: "long-enough-password",
		Role:     model.RoleDoctor,
	})
	require.NoError(t, err)

	require.NotNil(t, user.DoctorID)
	assert.Equal(t, doctorID, *user.DoctorID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _, _ := newTestService(&fakeDoctorRepo{})
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{
		Email:    "user@clinic.local",
		Password: "long-enough-password",
		Role:     model.RoleAdmin,
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "user@clinic.local", Password: "wrong-password"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "nobody@clinic.local", Password: "whatever-here"})
	appErr, ok = apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, tokenStore := newTestService(&fakeDoctorRepo{})
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{
		Email:    "rotate@clinic.local",
		Password: "long-enough-password",
		Role:     model.RoleAdmin,
	})
	require.NoError(t, err)

	first, err := svc.Login(ctx, &model.LoginRequest{Email: "rotate@clinic.local", Password: "long-enough-password"})
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, second.AccessToken)

	// The old refresh token is revoked by rotation.
	_, ok := tokenStore.tokens[first.RefreshToken]
	assert.False(t, ok)
	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.Error(t, err)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _, _ := newTestService(&fakeDoctorRepo{})
	ctx := context.Background()

	_, err := svc.Register(ctx, &model.RegisterRequest{
		Email:    "leave@clinic.local",
		Password: "long-enough-password",
		Role:     model.RoleAdmin,
	})
	require.NoError(t, err)

	tokens, err := svc.Login(ctx, &model.LoginRequest{Email: "leave@clinic.local", Password: "long-enough-password"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, tokens.RefreshToken))
	_, err = svc.Refresh(ctx, tokens.RefreshToken)
	assert.Error(t, err)
}

func TestAssignDoctorRoleLinks(t *testing.T) {
	doctorID := uuid.New()
	doctors := &fakeDoctorRepo{byEmail: map[string]*model.Doctor{
		"late@clinic.local": {ID: doctorID, Email: "late@clinic.local"},
	}}
	svc, users, _ := newTestService(doctors)
	ctx := context.Background()

	// Registered before the doctor role was granted, so no link yet.
	user, err := svc.Register(ctx, &model.RegisterRequest{
		Email:    "late@clinic.local",
		Password: "long-enough-password",
		Role:     model.RoleReceptionist,
	})
	require.NoError(t, err)
	require.Nil(t, user.DoctorID)

	require.NoError(t, svc.AssignRole(ctx, &model.AssignRoleRequest{UserID: user.ID, Role: model.RoleDoctor}))

	stored, err := users.Get(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.DoctorID)
	assert.Equal(t, doctorID, *stored.DoctorID)
	assert.ElementsMatch(t, []string{model.RoleReceptionist, model.RoleDoctor}, stored.Roles)
}
