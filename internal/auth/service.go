package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/millionaire/internal/auth/jwt"
	"github.com/gokatarajesh/millionaire/internal/db/queries"
	"github.com/gokatarajesh/millionaire/internal/db/repository"
)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotGuest           = errors.New("account is not a guest")
	ErrUserNotFound       = errors.New("user not found")
)

const maxDisplayNameRunes = 32

// userStore is the slice of UserRepository used by auth flows.
type userStore interface {
	CreateRegistered(ctx context.Context, email, passwordHash, displayName string) (queries.User, error)
	CreateGuest(ctx context.Context, displayName string) (queries.User, error)
	GetByEmail(ctx context.Context, email string) (queries.User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (queries.User, error)
	PromoteGuest(ctx context.Context, guestID uuid.UUID, email, passwordHash string) (queries.User, error)
	UpdateLogin(ctx context.Context, userID uuid.UUID) error
}

var _ userStore = (*repository.UserRepository)(nil)

// Service handles authentication and user management.
type Service struct {
	users    userStore
	tokenMgr *jwt.Manager
	logger   zerolog.Logger
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
}

// NewService creates an authentication service.
func NewService(users userStore, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		users:    users,
		tokenMgr: jwt.NewManager(opts.TokenConfig),
		logger:   logger,
	}
}

// Register creates a new registered user account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, *TokenPair, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}

	name := displayNameOr(req.DisplayName, strings.SplitN(email, "@", 2)[0])
	row, err := s.users.CreateRegistered(ctx, email, hash, name)
	if err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	user := userFromRow(row)
	tokens, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, tokens, nil
}

// Login authenticates a user with email/password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*User, *TokenPair, error) {
	row, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("lookup email: %w", err)
	}
	if !row.PasswordHash.Valid || VerifyPassword(row.PasswordHash.String, req.Password) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	user := userFromRow(row)
	if err := s.users.UpdateLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("update last login failed")
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return user, tokens, nil
}

// CreateGuest creates a guest account so anonymous players still get results and rankings.
func (s *Service) CreateGuest(ctx context.Context, req GuestRequest) (*User, *TokenPair, error) {
	name := displayNameOr(req.DisplayName, "ضيف-"+uuid.NewString()[:6])
	row, err := s.users.CreateGuest(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("create guest: %w", err)
	}

	user := userFromRow(row)
	tokens, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info().Str("user_id", user.ID.String()).Msg("guest created")
	return user, tokens, nil
}

// ConvertGuest upgrades a guest account to registered, keeping its game history.
func (s *Service) ConvertGuest(ctx context.Context, guestID uuid.UUID, req ConvertGuestRequest) (*User, *TokenPair, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, nil, err
	}

	current, err := s.users.GetByID(ctx, guestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("lookup guest: %w", err)
	}
	if current.UserType != repository.UserTypeGuest {
		return nil, nil, ErrNotGuest
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, nil, err
	}
	row, err := s.users.PromoteGuest(ctx, guestID, email, hash)
	if err != nil {
		return nil, nil, fmt.Errorf("convert guest: %w", err)
	}

	user := userFromRow(row)
	tokens, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info().Str("user_id", user.ID.String()).Msg("guest converted to registered")
	return user, tokens, nil
}

// RefreshToken issues a new access token after checking the account still exists.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenMgr.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	row, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	access, err := s.tokenMgr.GenerateAccessToken(subjectOf(userFromRow(row)))
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &TokenPair{AccessToken: access, ExpiresIn: int64(s.tokenMgr.AccessTTL().Seconds())}, nil
}

// Me loads the current account.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*User, error) {
	row, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return userFromRow(row), nil
}

// ValidateToken validates an access token and returns user claims.
func (s *Service) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.tokenMgr.ValidateAccessToken(tokenString)
}

func (s *Service) issue(user *User) (*TokenPair, error) {
	subject := subjectOf(user)
	access, err := s.tokenMgr.GenerateAccessToken(subject)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := s.tokenMgr.GenerateRefreshToken(subject)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokenMgr.AccessTTL().Seconds()),
	}, nil
}

func subjectOf(u *User) jwt.Subject {
	return jwt.Subject{ID: u.ID, DisplayName: u.DisplayName, UserType: u.UserType, IsGuest: u.IsGuest}
}

func userFromRow(row queries.User) *User {
	u := &User{
		ID:          repository.UUIDFrom(row.UserID),
		DisplayName: row.DisplayName,
		UserType:    row.UserType,
		IsGuest:     row.UserType == repository.UserTypeGuest,
	}
	if row.Email.Valid {
		email := row.Email.String
		u.Email = &email
	}
	return u
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func displayNameOr(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if r := []rune(name); len(r) > maxDisplayNameRunes {
		name = string(r[:maxDisplayNameRunes])
	}
	return name
}
