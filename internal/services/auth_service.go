package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleet-backoffice/internal/lockout"
	"fleet-backoffice/internal/models"
)

// UserStore is the slice of the auth repository the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	StampLogin(ctx context.Context, userID uuid.UUID) error
	MirrorLockout(ctx context.Context, email string, attempts int, lockedUntil *time.Time)
	GetMembership(ctx context.Context, userID, tenantID uuid.UUID) (*models.Membership, error)
	GetUserMemberships(ctx context.Context, userID uuid.UUID) ([]models.Membership, error)
	GetTenantByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	UpsertMembership(ctx context.Context, membership *models.Membership) error
}

// LoginRecorder writes the best-effort LOGIN audit entry.
type LoginRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, actorID *uuid.UUID, action models.AuditAction, table, recordID string, details interface{}) error
}

// AuthService implements login, token refresh and self-registration.
type AuthService struct {
	users     UserStore
	passwords *PasswordService
	tokens    *JWTService
	lockout   *lockout.Policy
	audit     LoginRecorder
	logger    *logrus.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(users UserStore, passwords *PasswordService, tokens *JWTService, policy *lockout.Policy, audit LoginRecorder, logger *logrus.Logger) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		lockout:   policy,
		audit:     audit,
		logger:    logger,
	}
}

// LoginRequest is the credentials payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	TenantID string `json:"tenant_id"`
}

// LoginResult carries the issued token pair.
type LoginResult struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *models.User `json:"user"`
	TenantID     string       `json:"tenant_id,omitempty"`
	Roles        []string     `json:"roles"`
}

// Login authenticates credentials against one tenant and issues tokens.
//
// The lockout gate runs first: a locked identifier answers ErrAccountLocked
// without a bcrypt cycle. Every other failure records a failed attempt and
// collapses to ErrInvalidCredentials so a caller cannot tell a bad password
// from a missing membership.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if locked, _ := s.lockout.IsLocked(ctx, email); locked {
		return nil, ErrAccountLocked
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		s.logger.WithError(err).Error("login: user lookup failed")
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if user == nil {
		s.fail(ctx, email)
		return nil, ErrInvalidCredentials
	}

	if err := s.passwords.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		s.fail(ctx, email)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		s.fail(ctx, email)
		return nil, ErrInvalidCredentials
	}

	tenantID, roles, err := s.resolveSession(ctx, user, req.TenantID)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.fail(ctx, email)
		}
		return nil, err
	}

	access, refresh, err := s.tokens.GenerateTokens(user.ID, user.Email, tenantID, roles)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	s.lockout.RecordSuccess(ctx, email)
	if err := s.users.StampLogin(ctx, user.ID); err != nil {
		s.logger.WithError(err).Warn("login: failed to stamp last login")
	}

	if s.audit != nil && tenantID != "" {
		if tid, perr := uuid.Parse(tenantID); perr == nil {
			if aerr := s.audit.Record(ctx, nil, tid, &user.ID, models.ActionLogin, "users", user.ID.String(), map[string]string{"email": user.Email}); aerr != nil {
				s.logger.WithError(aerr).Warn("login: audit write failed")
			}
		}
	}

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessExpiry().Seconds()),
		User:         user,
		TenantID:     tenantID,
		Roles:        roles,
	}, nil
}

// resolveSession picks the tenant and roles the tokens will carry. A
// super-admin may log in without naming a tenant and receives a tenant-less
// session; everyone else must hold a membership in the requested tenant.
func (s *AuthService) resolveSession(ctx context.Context, user *models.User, requestedTenant string) (string, []string, error) {
	if requestedTenant == "" {
		memberships, err := s.users.GetUserMemberships(ctx, user.ID)
		if err != nil {
			return "", nil, fmt.Errorf("membership lookup failed: %w", err)
		}
		for _, m := range memberships {
			if m.Role == models.RoleSuperAdmin {
				return "", []string{models.RoleSuperAdmin}, nil
			}
		}
		return "", nil, ErrInvalidCredentials
	}

	tenantID, err := uuid.Parse(requestedTenant)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	membership, err := s.users.GetMembership(ctx, user.ID, tenantID)
	if err != nil {
		return "", nil, fmt.Errorf("membership lookup failed: %w", err)
	}
	if membership == nil {
		return "", nil, ErrInvalidCredentials
	}

	return tenantID.String(), []string{membership.Role}, nil
}

func (s *AuthService) fail(ctx context.Context, email string) {
	state := s.lockout.RecordFailure(ctx, email)
	var lockedUntil *time.Time
	if !state.LockedUntil.IsZero() {
		t := state.LockedUntil
		lockedUntil = &t
	}
	s.users.MirrorLockout(ctx, email, state.FailedAttempts, lockedUntil)
}

// Refresh verifies a refresh token and issues a new access token. The
// membership is re-checked against the store so a revoked membership cuts
// the session at the next refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("refresh failed: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidToken
	}

	roles := claims.Roles
	if claims.TenantID != "" {
		tenantID, perr := uuid.Parse(claims.TenantID)
		if perr != nil {
			return nil, ErrInvalidToken
		}
		membership, merr := s.users.GetMembership(ctx, user.ID, tenantID)
		if merr != nil {
			return nil, fmt.Errorf("refresh failed: %w", merr)
		}
		if membership == nil {
			return nil, ErrInvalidToken
		}
		roles = []string{membership.Role}
	}

	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email, claims.TenantID, roles)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	return &LoginResult{
		AccessToken: access,
		ExpiresIn:   int64(s.tokens.AccessExpiry().Seconds()),
		User:        user,
		TenantID:    claims.TenantID,
		Roles:       roles,
	}, nil
}

// RegisterRequest is the self-registration payload.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
	TenantID    string `json:"tenant_id" binding:"required"`
}

// Register creates an inactive user with a user-role membership in the
// requested tenant. No tokens are issued; an admin approval activates the
// account. A duplicate email returns ErrDuplicate.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	tenantID, err := uuid.Parse(req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("invalid tenant id: %w", err)
	}

	tenant, err := s.users.GetTenantByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("register failed: %w", err)
	}
	if tenant == nil {
		return nil, ErrNotFound
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		IsActive:     false,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("register failed: %w", err)
	}

	membership := &models.Membership{
		UserID:   user.ID,
		TenantID: tenantID,
		Role:     models.RoleUser,
	}
	if err := s.users.UpsertMembership(ctx, membership); err != nil {
		return nil, fmt.Errorf("register failed: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"tenant_id": tenantID,
	}).Info("user registered, pending approval")

	return user, nil
}
