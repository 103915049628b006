package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gear_rental_backend/internal/models"
)

// AuthRepository defines the interface for authentication-related database operations.
type AuthRepository interface {
	CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error)
	FindUserByUsername(username string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(userID int64) (*models.User, error)
}

type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

// CreateUser inserts a new user. IsActive defaults to true; an empty role
// falls back to "staff".
func (r *authRepository) CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	role := user.Role
	if role == "" {
		role = "staff"
	}
	currentTime := time.Now()

	var userID int64
	err := executor.QueryRow(
		`INSERT INTO users (username, password_hash, email, full_name, role, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		user.Username, hashedPassword, user.Email, user.FullName, role, true, currentTime, currentTime,
	).Scan(&userID)
	if err != nil {
		return 0, wrapPQError(err, "creating user")
	}
	return userID, nil
}

const selectUserFields = `id, username, password_hash, email, full_name, role, is_active, created_at, updated_at`

func scanUserRow(s scanner, user *models.User, hashedPassword *string) error {
	return s.Scan(
		&user.ID, &user.Username, hashedPassword, &user.Email, &user.FullName,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
}

// FindUserByUsername retrieves a user by username, returning the stored
// password hash separately for the credential check.
func (r *authRepository) FindUserByUsername(username string) (*models.User, string, error) {
	user := &models.User{}
	var hashedPassword string
	err := scanUserRow(r.db.QueryRow(
		`SELECT `+selectUserFields+` FROM users WHERE username = $1`, username,
	), user, &hashedPassword)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: finding user by username %s: %v", ErrDatabaseError, username, err)
	}
	return user, hashedPassword, nil
}

// FindUserByID retrieves a user by ID. The password hash is not populated on
// the returned model.
func (r *authRepository) FindUserByID(userID int64) (*models.User, error) {
	user := &models.User{}
	var hashedPassword string
	err := scanUserRow(r.db.QueryRow(
		`SELECT `+selectUserFields+` FROM users WHERE id = $1`, userID,
	), user, &hashedPassword)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %d: %v", ErrDatabaseError, userID, err)
	}
	return user, nil
}
