package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sdfoods/restaurant-backend/internal/users"
	pkgAuth "github.com/sdfoods/restaurant-backend/pkg/auth"
	"github.com/sdfoods/restaurant-backend/pkg/auth/session"
	"github.com/sdfoods/restaurant-backend/pkg/config"
	"github.com/sdfoods/restaurant-backend/pkg/db/models"
	"github.com/sdfoods/restaurant-backend/pkg/enums"
	pkgerrors "github.com/sdfoods/restaurant-backend/pkg/errors"
	"github.com/sdfoods/restaurant-backend/pkg/logger"
	"github.com/sdfoods/restaurant-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	suspendedMessage          = "account suspended"
)

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, accessToken string) error
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByLogin(ctx context.Context, identifier string) (*models.User, error)
	UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error)
	IsBlacklisted(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, userID, sessionID string) (string, error)
	Rotate(ctx context.Context, userID, oldSessionID, provided string) (string, string, error)
	Revoke(ctx context.Context, userID, sessionID string) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Users    userRepository
	Sessions sessionManager
	Hasher   passwordHasher
	JWT      config.JWTConfig
	Logger   *logger.Logger
}

type service struct {
	users    userRepository
	sessions sessionManager
	hasher   passwordHasher
	jwtCfg   config.JWTConfig
	logg     *logger.Logger
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		users:    params.Users,
		sessions: params.Sessions,
		hasher:   params.Hasher,
		jwtCfg:   params.JWT,
		logg:     logg,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if username == "" || email == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username, email and name are required")
	}
	if err := security.ValidatePassword(req.Password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	listed, err := s.users.IsBlacklisted(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check blacklist")
	}
	if listed {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "this email cannot be registered")
	}
	taken, err := s.users.UsernameOrEmailTaken(ctx, username, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing user")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "username or email already registered")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Phone:        req.Phone,
		HomeAddress:  req.HomeAddress,
		Role:         enums.UserRoleCustomer,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user registered")
	return users.FromModel(user), nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	valid, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, suspendedMessage)
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	user.LastLoginAt = &now

	sessionID := session.NewSessionID()
	refreshToken, err := s.sessions.Generate(ctx, user.ID.String(), sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return s.issue(now, user, sessionID, refreshToken)
}

// Refresh trades a refresh token for a new pair. The access token may be
// expired; it only identifies the session. Role and VIP standing are read
// fresh so promotions and suspensions take effect on the next refresh.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenResponse, error) {
	claims, err := s.parse(accessToken)
	if err != nil {
		return nil, err
	}

	newSessionID, newRefresh, err := s.sessions.Rotate(ctx, claims.UserID.String(), claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		_ = s.sessions.Revoke(ctx, claims.UserID.String(), newSessionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		_ = s.sessions.Revoke(ctx, user.ID.String(), newSessionID)
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, suspendedMessage)
	}
	return s.issue(time.Now().UTC(), user, newSessionID, newRefresh)
}

func (s *service) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.parse(accessToken)
	if err != nil {
		return err
	}
	if err := s.sessions.Revoke(ctx, claims.UserID.String(), claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) parse(accessToken string) (*pkgAuth.AccessTokenClaims, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, strings.TrimSpace(accessToken))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" || claims.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	return claims, nil
}

func (s *service) issue(now time.Time, user *models.User, sessionID, refreshToken string) (*TokenResponse, error) {
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		IsVIP:  user.IsVIP,
		JTI:    sessionID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user),
	}, nil
}
