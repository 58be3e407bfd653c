package store

import (
	"context"

	"github.com/google/uuid"

	"travel-service/internal/models"
)

// CreateUser inserts a new user
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	query := `
		INSERT INTO users (user_id, username, first_name, last_name, email, phone_number, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := s.db.GetContext(ctx, &user.CreatedAt, query,
		user.ID, user.Username, user.FirstName, user.LastName, user.Email,
		user.PhoneNumber, user.Role, user.PasswordHash)
	return translate(err, "user")
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE user_id = $1", id)
	if err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE username = $1", username)
	if err != nil {
		return nil, translate(err, "user")
	}
	return &user, nil
}
