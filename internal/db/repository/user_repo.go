package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/millionaire/internal/db/queries"
)

// User types stored in users.user_type.
const (
	UserTypeGuest      = "guest"
	UserTypeRegistered = "registered"
)

type userStore interface {
	CreateUser(ctx context.Context, arg queries.CreateUserParams) (queries.User, error)
	GetUserByEmail(ctx context.Context, email pgtype.Text) (queries.User, error)
	GetUserByID(ctx context.Context, userID pgtype.UUID) (queries.User, error)
	PromoteGuestToRegistered(ctx context.Context, arg queries.PromoteGuestToRegisteredParams) (queries.User, error)
	UpdateUserLogin(ctx context.Context, userID pgtype.UUID) error
}

// UserRepository exposes typed DB operations required by auth flows.
type UserRepository struct {
	store userStore
}

func NewUserRepository(store userStore) *UserRepository {
	return &UserRepository{store: store}
}

// CreateRegistered inserts an account with credentials.
func (r *UserRepository) CreateRegistered(ctx context.Context, email, passwordHash, displayName string) (queries.User, error) {
	return r.store.CreateUser(ctx, queries.CreateUserParams{
		Email:        pgtype.Text{String: strings.ToLower(email), Valid: true},
		PasswordHash: pgtype.Text{String: passwordHash, Valid: true},
		DisplayName:  displayName,
		UserType:     UserTypeRegistered,
	})
}

// CreateGuest inserts a credential-less account.
func (r *UserRepository) CreateGuest(ctx context.Context, displayName string) (queries.User, error) {
	return r.store.CreateUser(ctx, queries.CreateUserParams{
		DisplayName: displayName,
		UserType:    UserTypeGuest,
	})
}

// GetByEmail fetches a user by email, returning ErrNotFound when absent.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (queries.User, error) {
	u, err := r.store.GetUserByEmail(ctx, pgtype.Text{String: strings.ToLower(email), Valid: true})
	return u, mapNoRows(err)
}

// GetByID fetches a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (queries.User, error) {
	u, err := r.store.GetUserByID(ctx, pgUUID(userID))
	return u, mapNoRows(err)
}

// PromoteGuest upgrades a guest to registered in one statement.
func (r *UserRepository) PromoteGuest(ctx context.Context, guestID uuid.UUID, email, passwordHash string) (queries.User, error) {
	u, err := r.store.PromoteGuestToRegistered(ctx, queries.PromoteGuestToRegisteredParams{
		UserID:       pgUUID(guestID),
		Email:        pgtype.Text{String: strings.ToLower(email), Valid: true},
		PasswordHash: pgtype.Text{String: passwordHash, Valid: true},
	})
	return u, mapNoRows(err)
}

// UpdateLogin records the last login timestamp.
func (r *UserRepository) UpdateLogin(ctx context.Context, userID uuid.UUID) error {
	return r.store.UpdateUserLogin(ctx, pgUUID(userID))
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// UUIDFrom converts a nullable pgtype.UUID into uuid.UUID (uuid.Nil when invalid).
func UUIDFrom(id pgtype.UUID) uuid.UUID {
	if !id.Valid {
		return uuid.Nil
	}
	return uuid.UUID(id.Bytes)
}
