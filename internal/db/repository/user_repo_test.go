package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gokatarajesh/millionaire/internal/db/queries"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) CreateUser(ctx context.Context, arg queries.CreateUserParams) (queries.User, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.User), args.Error(1)
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email pgtype.Text) (queries.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(queries.User), args.Error(1)
}

func (m *mockUserStore) PromoteGuestToRegistered(ctx context.Context, arg queries.PromoteGuestToRegisteredParams) (queries.User, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.User), args.Error(1)
}

func (m *mockUserStore) GetUserByID(ctx context.Context, userID pgtype.UUID) (queries.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(queries.User), args.Error(1)
}

func (m *mockUserStore) UpdateUserLogin(ctx context.Context, userID pgtype.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func TestUserRepository_CreateRegistered(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	params := queries.CreateUserParams{
		Email:        pgtype.Text{String: "user@example.com", Valid: true},
		PasswordHash: pgtype.Text{String: "hashed", Valid: true},
		DisplayName:  "سارة",
		UserType:     UserTypeRegistered,
	}
	expect := queries.User{UserID: uuidFromByte(1), DisplayName: "سارة", UserType: UserTypeRegistered}

	store.On("CreateUser", mock.Anything, params).Return(expect, nil)

	got, err := repo.CreateRegistered(context.Background(), "User@Example.com", "hashed", "سارة")

	assert.NoError(t, err)
	assert.Equal(t, expect, got)
	store.AssertExpectations(t)
}

func TestUserRepository_CreateGuest(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	params := queries.CreateUserParams{DisplayName: "ضيف", UserType: UserTypeGuest}
	store.On("CreateUser", mock.Anything, params).Return(queries.User{UserID: uuidFromByte(4), UserType: UserTypeGuest}, nil)

	got, err := repo.CreateGuest(context.Background(), "ضيف")

	assert.NoError(t, err)
	assert.Equal(t, UserTypeGuest, got.UserType)
	store.AssertExpectations(t)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	email := pgtype.Text{String: "user@example.com", Valid: true}
	expect := queries.User{UserID: uuidFromByte(2), DisplayName: "Ace"}

	store.On("GetUserByEmail", mock.Anything, email).Return(expect, nil)

	got, err := repo.GetByEmail(context.Background(), "user@example.com")

	assert.NoError(t, err)
	assert.Equal(t, expect, got)
	store.AssertExpectations(t)
}

func TestUserRepository_GetByEmailNotFound(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	store.On("GetUserByEmail", mock.Anything, mock.Anything).Return(queries.User{}, pgx.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "missing@example.com")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_PromoteGuest(t *testing.T) {
	store := new(mockUserStore)
	repo := NewUserRepository(store)

	params := queries.PromoteGuestToRegisteredParams{
		Email:        pgtype.Text{String: "upgraded@example.com", Valid: true},
		PasswordHash: pgtype.Text{String: "hashed", Valid: true},
		UserID:       uuidFromByte(3),
	}
	expect := queries.User{UserID: params.UserID, UserType: UserTypeRegistered}

	store.On("PromoteGuestToRegistered", mock.Anything, params).Return(expect, nil)

	got, err := repo.PromoteGuest(context.Background(), idFromByte(3), "upgraded@example.com", "hashed")

	assert.NoError(t, err)
	assert.Equal(t, expect, got)
	store.AssertExpectations(t)
}

func TestUUIDFrom(t *testing.T) {
	assert.Equal(t, idFromByte(9), UUIDFrom(uuidFromByte(9)))
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", UUIDFrom(pgtype.UUID{}).String())
}
