package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrPhoneTaken means the phone number is already registered.
var ErrPhoneTaken = errors.New("phone already registered")

type NewPet struct {
	Name    string
	Species string
	Age     *int
	Sex     string
	Weight  *float64
}

type Credentials struct {
	UserID   int64
	Password string
}

type Repository interface {
	RegisterWithPet(ctx context.Context, phone, password string, pet NewPet) (int64, error)
	GetCredentials(ctx context.Context, phone string) (*Credentials, error)
	FirstPetID(ctx context.Context, userID int64) (*int64, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

// RegisterWithPet creates the user and their first pet in one transaction:
// either both rows land or neither does.
func (r *postgresRepo) RegisterWithPet(ctx context.Context, phone, password string, pet NewPet) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT phone FROM users WHERE phone = $1`, phone).Scan(&existing)
	if err == nil {
		return 0, ErrPhoneTaken
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	var userID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (phone, password, created_at) VALUES ($1, $2, CURRENT_DATE) RETURNING user_id`,
		phone, password).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pets (user_id, p_name, species, age, sex, weight) VALUES ($1, $2, $3, $4, $5, $6)`,
		userID, pet.Name, pet.Species, pet.Age, pet.Sex, pet.Weight)
	if err != nil {
		return 0, fmt.Errorf("insert pet: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return userID, nil
}

func (r *postgresRepo) GetCredentials(ctx context.Context, phone string) (*Credentials, error) {
	var c Credentials
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, password FROM users WHERE phone = $1`, phone).
		Scan(&c.UserID, &c.Password)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) FirstPetID(ctx context.Context, userID int64) (*int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT p_id FROM pets WHERE user_id = $1 ORDER BY p_id ASC LIMIT 1`, userID).
		Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}
