package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KevinKickass/OpenPedalCore/internal/config"
	"github.com/KevinKickass/OpenPedalCore/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidRole        = errors.New("invalid role")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleEditor, RoleAdmin:
		return true
	}
	return false
}

type Permission string

const (
	PermRead  Permission = "read"
	PermWrite Permission = "write"
	PermAdmin Permission = "admin"
)

// Permissions expands a role into the permissions it grants.
func (r Role) Permissions() []Permission {
	switch r {
	case RoleAdmin:
		return []Permission{PermRead, PermWrite, PermAdmin}
	case RoleEditor:
		return []Permission{PermRead, PermWrite}
	default:
		return []Permission{PermRead}
	}
}

// Store is the persistence the auth service needs. storage.PostgresClient
// implements it.
type Store interface {
	GetUserByUsername(ctx context.Context, username string) (*storage.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*storage.User, error)
	CreateUser(ctx context.Context, username, passwordHash, role string) (*storage.User, error)
	ListUsers(ctx context.Context) ([]*storage.User, error)
	UpdateUserPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	UpdateUserRole(ctx context.Context, userID uuid.UUID, role string) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
	RecordFailedLogin(ctx context.Context, userID uuid.UUID, maxAttempts int, lockFor time.Duration) error
	ResetFailedLogins(ctx context.Context, userID uuid.UUID) error

	CreateAPIToken(ctx context.Context, tokenHash, name string, permissions []string, createdByUserID *uuid.UUID, metadata map[string]any) (*storage.APIToken, error)
	GetAPITokenByHash(ctx context.Context, tokenHash string) (*storage.APIToken, error)
	UpdateAPITokenLastUsed(ctx context.Context, tokenID uuid.UUID) error
	ListAPITokens(ctx context.Context) ([]*storage.APIToken, error)
	UpdateAPIToken(ctx context.Context, tokenID uuid.UUID, name *string, metadata map[string]any) error
	DeleteAPIToken(ctx context.Context, tokenID uuid.UUID) error

	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error

	LogAuthEvent(ctx context.Context, ev storage.AuthEvent) error
}

// Principal is the authenticated caller of a request. UserID is nil for API
// tokens.
type Principal struct {
	UserID      *uuid.UUID   `json:"user_id,omitempty"`
	Username    string       `json:"username,omitempty"`
	Role        Role         `json:"role,omitempty"`
	TokenName   string       `json:"token_name,omitempty"`
	Permissions []Permission `json:"permissions"`
}

func (p Principal) Has(perm Permission) bool {
	for _, have := range p.Permissions {
		if have == perm {
			return true
		}
	}
	return false
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type Service struct {
	store       Store
	jwt         *JWTHandler
	hasher      *PasswordHasher
	cfg         config.AuthConfig
	logger      *zap.Logger
	now         func() time.Time
	maxAttempts int
}

func NewService(store Store, cfg config.AuthConfig, hasher *PasswordHasher, logger *zap.Logger) *Service {
	if hasher == nil {
		hasher = NewPasswordHasher()
	}
	maxAttempts := cfg.MaxFailedLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if !cfg.IsProductionReady() && cfg.Enabled {
		logger.Warn("JWT secret is not production ready", zap.String("env", cfg.JWTSecretEnv))
	}

	return &Service{
		store:       store,
		jwt:         NewJWTHandler(cfg.GetJWTSecret(), cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		hasher:      hasher,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
		maxAttempts: maxAttempts,
	}
}

// Enabled reports whether requests must authenticate. When disabled every
// caller is treated as an anonymous admin.
func (s *Service) Enabled() bool { return s.cfg.Enabled }

// Login authenticates a user and issues a token pair.
func (s *Service) Login(ctx context.Context, username, password, ipAddress, userAgent string) (TokenPair, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		s.logEvent(ctx, storage.AuthEvent{Type: "user_login_failed", IPAddress: ipAddress, UserAgent: userAgent, Reason: "user not found"})
		return TokenPair{}, ErrInvalidCredentials
	}

	if user.LockedUntil != nil && s.now().Before(*user.LockedUntil) {
		s.logEvent(ctx, storage.AuthEvent{Type: "user_login_failed", UserID: &user.ID, IPAddress: ipAddress, UserAgent: userAgent, Reason: "account locked"})
		return TokenPair{}, fmt.Errorf("%w until %s", ErrAccountLocked, user.LockedUntil.Format(time.RFC3339))
	}

	valid, err := s.hasher.VerifyPassword(password, user.PasswordHash)
	if err != nil || !valid {
		if err := s.store.RecordFailedLogin(ctx, user.ID, s.maxAttempts, s.cfg.AccountLockDuration); err != nil {
			s.logger.Error("Failed to record failed login", zap.String("username", username), zap.Error(err))
		}
		s.logEvent(ctx, storage.AuthEvent{Type: "user_login_failed", UserID: &user.ID, IPAddress: ipAddress, UserAgent: userAgent, Reason: "invalid password"})
		return TokenPair{}, ErrInvalidCredentials
	}

	if err := s.store.ResetFailedLogins(ctx, user.ID); err != nil {
		s.logger.Warn("Failed to reset failed logins", zap.String("username", username), zap.Error(err))
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("Failed to update last login", zap.String("username", username), zap.Error(err))
	}
	s.logEvent(ctx, storage.AuthEvent{Type: "user_login_success", UserID: &user.ID, IPAddress: ipAddress, UserAgent: userAgent, Success: true})

	return pair, nil
}

func (s *Service) issue(ctx context.Context, user *storage.User) (TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Username, Role(user.Role))
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken()
	if err != nil {
		return TokenPair{}, err
	}

	expiresAt := s.now().Add(s.cfg.RefreshTokenTTL)
	if err := s.store.StoreRefreshToken(ctx, user.ID, HashToken(refreshToken), expiresAt); err != nil {
		return TokenPair{}, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.jwt.AccessTokenTTL().Seconds()),
	}, nil
}

// Refresh rotates a refresh token: the old one is revoked and a new pair
// is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	hash := HashToken(refreshToken)

	userID, err := s.store.GetRefreshToken(ctx, hash)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if err := s.store.RevokeRefreshToken(ctx, hash); err != nil {
		return TokenPair{}, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return s.issue(ctx, user)
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.store.RevokeRefreshToken(ctx, HashToken(refreshToken))
}

// Authenticate resolves a bearer token, JWT first and then API token.
func (s *Service) Authenticate(ctx context.Context, token, ipAddress, userAgent string) (Principal, error) {
	if claims, err := s.jwt.ValidateAccessToken(token); err == nil {
		userID := claims.UserID
		return Principal{
			UserID:      &userID,
			Username:    claims.Username,
			Role:        claims.Role,
			Permissions: claims.Role.Permissions(),
		}, nil
	}

	if !IsAPIToken(token) {
		return Principal{}, ErrInvalidToken
	}

	apiToken, err := s.store.GetAPITokenByHash(ctx, HashToken(token))
	if err != nil {
		s.logEvent(ctx, storage.AuthEvent{Type: "api_token_failed", IPAddress: ipAddress, UserAgent: userAgent, Reason: "token not found"})
		return Principal{}, ErrInvalidToken
	}

	if err := s.store.UpdateAPITokenLastUsed(ctx, apiToken.ID); err != nil {
		s.logger.Warn("Failed to update api token usage", zap.String("token", apiToken.Name), zap.Error(err))
	}
	s.logEvent(ctx, storage.AuthEvent{Type: "api_token_success", APITokenID: &apiToken.ID, IPAddress: ipAddress, UserAgent: userAgent, Success: true})

	permissions := make([]Permission, len(apiToken.Permissions))
	for i, p := range apiToken.Permissions {
		permissions[i] = Permission(p)
	}
	return Principal{TokenName: apiToken.Name, Permissions: permissions}, nil
}

func (s *Service) CreateAPIToken(ctx context.Context, name string, permissions []string, createdBy *uuid.UUID, metadata map[string]any) (string, *storage.APIToken, error) {
	if len(permissions) == 0 {
		permissions = []string{string(PermRead)}
	}

	token, hash, err := GenerateAPIToken()
	if err != nil {
		return "", nil, err
	}

	apiToken, err := s.store.CreateAPIToken(ctx, hash, name, permissions, createdBy, metadata)
	if err != nil {
		return "", nil, fmt.Errorf("failed to store token: %w", err)
	}

	s.logEvent(ctx, storage.AuthEvent{Type: "api_token_created", UserID: createdBy, APITokenID: &apiToken.ID, Success: true})
	return token, apiToken, nil
}

func (s *Service) ListAPITokens(ctx context.Context) ([]*storage.APIToken, error) {
	return s.store.ListAPITokens(ctx)
}

func (s *Service) UpdateAPIToken(ctx context.Context, tokenID uuid.UUID, name *string, metadata map[string]any) error {
	return s.store.UpdateAPIToken(ctx, tokenID, name, metadata)
}

func (s *Service) DeleteAPIToken(ctx context.Context, tokenID uuid.UUID) error {
	return s.store.DeleteAPIToken(ctx, tokenID)
}

func (s *Service) CreateUser(ctx context.Context, username, password string, role Role) (*storage.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.store.CreateUser(ctx, username, hash, string(role))
}

// EnsureUser creates the user when no user with that name exists yet.
func (s *Service) EnsureUser(ctx context.Context, username, password string, role Role) error {
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if _, err := s.CreateUser(ctx, username, password, role); err != nil {
		return err
	}
	s.logger.Info("Bootstrap user created", zap.String("username", username), zap.String("role", string(role)))
	return nil
}

func (s *Service) GetUserByID(ctx context.Context, userID uuid.UUID) (*storage.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context) ([]*storage.User, error) {
	return s.store.ListUsers(ctx)
}

// UpdateUser changes password and/or role. A password change revokes every
// refresh token of the user.
func (s *Service) UpdateUser(ctx context.Context, userID uuid.UUID, password *string, role *Role) error {
	if role != nil && !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, *role)
	}

	if password != nil {
		if len(*password) < 8 {
			return ErrWeakPassword
		}
		hash, err := s.hasher.HashPassword(*password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		if err := s.store.UpdateUserPassword(ctx, userID, hash); err != nil {
			return err
		}
		if err := s.store.RevokeAllUserRefreshTokens(ctx, userID); err != nil {
			return fmt.Errorf("failed to revoke refresh tokens: %w", err)
		}
	}

	if role != nil {
		if err := s.store.UpdateUserRole(ctx, userID, string(*role)); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return s.store.DeleteUser(ctx, userID)
}

func (s *Service) logEvent(ctx context.Context, ev storage.AuthEvent) {
	if err := s.store.LogAuthEvent(ctx, ev); err != nil {
		s.logger.Debug("Failed to log auth event", zap.String("event", ev.Type), zap.Error(err))
	}
}
