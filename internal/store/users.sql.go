package store

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, email, password_hash, first_name, last_name, city, phone, iin,
    work_place, specialty, is_active, is_staff, is_superuser, date_joined, last_login, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.City,
		&u.Phone,
		&u.Iin,
		&u.WorkPlace,
		&u.Specialty,
		&u.IsActive,
		&u.IsStaff,
		&u.IsSuperuser,
		&u.DateJoined,
		&u.LastLogin,
		&u.UpdatedAt,
	)
	return u, err
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (
    email, password_hash, first_name, last_name, city, phone, iin,
    work_place, specialty, is_active, is_staff, is_superuser, date_joined, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns

type CreateUserParams struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	City         string
	Phone        string
	Iin          string
	WorkPlace    string
	Specialty    string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	DateJoined   time.Time
	UpdatedAt    time.Time
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Email,
		arg.PasswordHash,
		arg.FirstName,
		arg.LastName,
		arg.City,
		arg.Phone,
		arg.Iin,
		arg.WorkPlace,
		arg.Specialty,
		arg.IsActive,
		arg.IsStaff,
		arg.IsSuperuser,
		arg.DateJoined,
		arg.UpdatedAt,
	)
	return scanUser(row)
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const emailTaken = `-- name: EmailTaken :one
SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

func (q *Queries) EmailTaken(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, emailTaken, email).Scan(&exists)
	return exists, err
}

const phoneTaken = `-- name: PhoneTaken :one
SELECT EXISTS(SELECT 1 FROM users WHERE phone = ? AND id != ?)`

type PhoneTakenParams struct {
	Phone     string
	ExcludeID int64
}

// PhoneTaken ignores the row with ExcludeID so a user can keep their own number.
func (q *Queries) PhoneTaken(ctx context.Context, arg PhoneTakenParams) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, phoneTaken, arg.Phone, arg.ExcludeID).Scan(&exists)
	return exists, err
}

const iinTaken = `-- name: IinTaken :one
SELECT EXISTS(SELECT 1 FROM users WHERE iin = ?)`

func (q *Queries) IinTaken(ctx context.Context, iin string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, iinTaken, iin).Scan(&exists)
	return exists, err
}

const updateUserProfile = `-- name: UpdateUserProfile :one
UPDATE users SET
    first_name = ?, last_name = ?, city = ?, phone = ?,
    work_place = ?, specialty = ?, updated_at = ?
WHERE id = ?
RETURNING ` + userColumns

type UpdateUserProfileParams struct {
	FirstName string
	LastName  string
	City      string
	Phone     string
	WorkPlace string
	Specialty string
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUserProfile,
		arg.FirstName,
		arg.LastName,
		arg.City,
		arg.Phone,
		arg.WorkPlace,
		arg.Specialty,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanUser(row)
}

const updateUserLastLogin = `-- name: UpdateUserLastLogin :exec
UPDATE users SET last_login = ? WHERE id = ?`

type UpdateUserLastLoginParams struct {
	LastLogin sql.NullTime
	ID        int64
}

func (q *Queries) UpdateUserLastLogin(ctx context.Context, arg UpdateUserLastLoginParams) error {
	_, err := q.db.ExecContext(ctx, updateUserLastLogin, arg.LastLogin, arg.ID)
	return err
}

const updateUserPassword = `-- name: UpdateUserPassword :exec
UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

type UpdateUserPasswordParams struct {
	PasswordHash string
	UpdatedAt    time.Time
	ID           int64
}

func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, arg.PasswordHash, arg.UpdatedAt, arg.ID)
	return err
}

const setUserActive = `-- name: SetUserActive :exec
UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`

type SetUserActiveParams struct {
	IsActive  bool
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) SetUserActive(ctx context.Context, arg SetUserActiveParams) error {
	_, err := q.db.ExecContext(ctx, setUserActive, arg.IsActive, arg.UpdatedAt, arg.ID)
	return err
}

const listUsers = `-- name: ListUsers :many
SELECT ` + userColumns + ` FROM users ORDER BY date_joined DESC, id DESC LIMIT ? OFFSET ?`

type ListUsersParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const countUsers = `-- name: CountUsers :one
SELECT COUNT(*) FROM users`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&count)
	return count, err
}
