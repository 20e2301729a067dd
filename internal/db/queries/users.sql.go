package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `user_id, email, password_hash, display_name, user_type, created_at, last_login_at`

func scanUser(row interface{ Scan(...interface{}) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.UserID,
		&i.Email,
		&i.PasswordHash,
		&i.DisplayName,
		&i.UserType,
		&i.CreatedAt,
		&i.LastLoginAt,
	)
	return i, err
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (email, password_hash, display_name, user_type)
VALUES ($1, $2, $3, $4)
RETURNING ` + userColumns

type CreateUserParams struct {
	Email        pgtype.Text
	PasswordHash pgtype.Text
	DisplayName  string
	UserType     string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.Email,
		arg.PasswordHash,
		arg.DisplayName,
		arg.UserType,
	)
	return scanUser(row)
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

func (q *Queries) GetUserByEmail(ctx context.Context, email pgtype.Text) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

func (q *Queries) GetUserByID(ctx context.Context, userID pgtype.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, userID))
}

const promoteGuestToRegistered = `-- name: PromoteGuestToRegistered :one
UPDATE users
SET email = $2, password_hash = $3, user_type = 'registered'
WHERE user_id = $1 AND user_type = 'guest'
RETURNING ` + userColumns

type PromoteGuestToRegisteredParams struct {
	UserID       pgtype.UUID
	Email        pgtype.Text
	PasswordHash pgtype.Text
}

func (q *Queries) PromoteGuestToRegistered(ctx context.Context, arg PromoteGuestToRegisteredParams) (User, error) {
	row := q.db.QueryRow(ctx, promoteGuestToRegistered, arg.UserID, arg.Email, arg.PasswordHash)
	return scanUser(row)
}

const updateUserLogin = `-- name: UpdateUserLogin :exec
UPDATE users SET last_login_at = now() WHERE user_id = $1`

func (q *Queries) UpdateUserLogin(ctx context.Context, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, updateUserLogin, userID)
	return err
}
