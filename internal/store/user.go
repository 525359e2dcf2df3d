// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"forkful/internal/models"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, avatar_key, role, created_at, updated_at`

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.AvatarKey, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new user with a bcrypt-hashed password.
func (s *UserStore) Create(username, email, password, firstName, lastName string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := scanUser(s.db.QueryRow(`
		INSERT INTO users (username, email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		username, email, string(hash), firstName, lastName))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// FindByID retrieves a user by UUID. Returns nil if not found.
func (s *UserStore) FindByID(id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// FindByEmail retrieves a user by email address. Returns nil if not found.
func (s *UserStore) FindByEmail(email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// FindByUsername retrieves a user by username. Returns nil if not found.
func (s *UserStore) FindByUsername(username string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

// FindByIDs retrieves users keyed by ID. Used to attach authors to a page
// of recipes in one query.
func (s *UserStore) FindByIDs(ids []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}

	rows, err := s.db.Query(`SELECT `+userColumns+` FROM users WHERE id = ANY($1::uuid[])`, strs)
	if err != nil {
		return nil, fmt.Errorf("find users by ids: %w", err)
	}
	defer rows.Close()

	users := make(map[uuid.UUID]*models.User, len(ids))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users[u.ID] = u
	}
	return users, rows.Err()
}

// List returns users ordered by registration time, paginated.
func (s *UserStore) List(limit, offset int) ([]models.User, error) {
	rows, err := s.db.Query(`
		SELECT `+userColumns+` FROM users
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Count returns the total number of users.
func (s *UserStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// SetAvatar records the storage key of the user's avatar image.
func (s *UserStore) SetAvatar(id uuid.UUID, key string) error {
	_, err := s.db.Exec(`
		UPDATE users SET avatar_key = $1, updated_at = NOW() WHERE id = $2
	`, key, id)
	if err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	return nil
}

// ClearAvatar removes the user's avatar reference. Returns false if the
// user had no avatar set.
func (s *UserStore) ClearAvatar(id uuid.UUID) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE users SET avatar_key = NULL, updated_at = NOW()
		WHERE id = $1 AND avatar_key IS NOT NULL
	`, id)
	if err != nil {
		return false, fmt.Errorf("clear avatar: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("clear avatar: %w", err)
	}
	return n > 0, nil
}

// SetPassword replaces the user's password hash.
func (s *UserStore) SetPassword(id uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.Exec(`
		UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2
	`, string(hash), id)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
func (s *UserStore) CheckPassword(u *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
