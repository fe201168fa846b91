package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/auth"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/security"
)

type Service struct {
	users         repository.UserRepository
	doctors       repository.DoctorRepository
	tokens        repository.TokenRepository
	jwtSvc        auth.JWTService
	hasher        security.PasswordHasher
	refreshExpiry time.Duration
}

func NewService(
	users repository.UserRepository,
	doctors repository.DoctorRepository,
	tokens repository.TokenRepository,
	jwtSvc auth.JWTService,
	hasher security.PasswordHasher,
	refreshExpiry time.Duration,
) *Service {
	return &Service{
		users:         users,
		doctors:       doctors,
		tokens:        tokens,
		jwtSvc:        jwtSvc,
		hasher:        hasher,
		refreshExpiry: refreshExpiry,
	}
}

// Register creates an account and assigns its initial role. Doctor
// accounts are linked to the doctor row sharing their email, when one
// exists; the link is what later scopes "my appointments".
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.Conflict("email already registered")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation("password does not meet requirements")
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if req.Role == model.RoleDoctor {
		if doctor, err := s.doctors.GetByEmail(ctx, req.Email); err == nil {
			user.DoctorID = &doctor.ID
		}
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.users.AssignRole(ctx, user.ID, req.Role); err != nil {
		return nil, err
	}

	user.Roles = []string{req.Role}
	return user, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates a refresh token: the presented token must be live in
// the store, and is revoked before new tokens are issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	userID, err := s.tokens.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if _, err := s.jwtSvc.ValidateRefreshToken(refreshToken); err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.RevokeRefreshToken(ctx, refreshToken)
}

func (s *Service) AssignRole(ctx context.Context, req *model.AssignRoleRequest) error {
	user, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return err
	}

	// Granting the doctor role links the account when possible.
	if req.Role == model.RoleDoctor && user.DoctorID == nil {
		if doctor, err := s.doctors.GetByEmail(ctx, user.Email); err == nil {
			user.DoctorID = &doctor.ID
			user.UpdatedAt = time.Now().UTC()
			if err := s.users.Update(ctx, user); err != nil {
				return err
			}
		}
	}

	return s.users.AssignRole(ctx, req.UserID, req.Role)
}

func (s *Service) ValidateToken(token string) (*model.TokenClaims, error) {
	return s.jwtSvc.ValidateToken(token)
}

func (s *Service) issueTokens(ctx context.Context, user *model.User) (*model.TokenResponse, error) {
	accessToken, expiresAt, err := s.jwtSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	refreshToken, _, err := s.jwtSvc.GenerateRefreshToken(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.tokens.StoreRefreshToken(ctx, user.ID, refreshToken, s.refreshExpiry); err != nil {
		return nil, err
	}

	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		Roles:        user.Roles,
		DoctorID:     user.DoctorID,
	}, nil
}
