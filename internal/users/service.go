package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/souqly-backend/internal/couriers"
	pkgauth "github.com/souqly/souqly-backend/pkg/auth"
	"github.com/souqly/souqly-backend/pkg/config"
	"github.com/souqly/souqly-backend/pkg/db"
	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service exposes account registration, login and lookup.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Get(ctx context.Context, id uuid.UUID) (*UserView, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo        Repository
	couriers    couriers.Repository
	tx          txRunner
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// ServiceParams bundles the dependencies for the users service.
type ServiceParams struct {
	Repo           Repository
	Couriers       couriers.Repository
	TxRunner       txRunner
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
}

// NewService builds the users service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	if params.Couriers == nil {
		return nil, fmt.Errorf("couriers repository is required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	return &service{
		repo:        params.Repo,
		couriers:    params.Couriers,
		tx:          params.TxRunner,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		now:         time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password is required")
	}
	if strings.TrimSpace(input.FullName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if input.Role == enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin accounts cannot self-register")
	}

	passwordHash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := repo.Create(ctx, &models.User{
			Email:        email,
			PasswordHash: passwordHash,
			FullName:     strings.TrimSpace(input.FullName),
			Role:         input.Role,
			Region:       input.Region,
			Phone:        input.Phone,
			IsActive:     true,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		if user.Role == enums.UserRoleLivreur {
			if _, err := s.couriers.WithTx(tx).Create(ctx, &models.Courier{UserID: user.ID}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create courier profile")
			}
		}

		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.mint(created)
}

func (s *service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	return s.mint(user)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserView, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	view := FromModel(user)
	return &view, nil
}

func (s *service) mint(user *models.User) (*AuthResult, error) {
	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now().UTC(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		Region: user.Region,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &AuthResult{AccessToken: token, User: FromModel(user)}, nil
}
