package pet

import (
	"context"
	"database/sql"

	"pet-triage-agent/internal/triage"
)

type Pet struct {
	ID      int64    `json:"pId"`
	UserID  int64    `json:"userId"`
	Name    string   `json:"pName"`
	Species string   `json:"species"`
	Age     *int     `json:"age"`
	Sex     string   `json:"sex"`
	Weight  *float64 `json:"weight"`
}

type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]Pet, error)
	GetByID(ctx context.Context, petID int64) (*Pet, error)
	GetContext(ctx context.Context, petID int64) (*triage.PetContext, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID int64) ([]Pet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p_id, user_id, p_name, species, age, sex, weight FROM pets WHERE user_id = $1 ORDER BY p_id ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pets := []Pet{}
	for rows.Next() {
		var p Pet
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Species, &p.Age, &p.Sex, &p.Weight); err != nil {
			return nil, err
		}
		pets = append(pets, p)
	}
	return pets, rows.Err()
}

func (r *postgresRepo) GetByID(ctx context.Context, petID int64) (*Pet, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT p_id, user_id, p_name, species, age, sex, weight FROM pets WHERE p_id = $1`,
		petID)

	var p Pet
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Species, &p.Age, &p.Sex, &p.Weight)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetContext is the PetContext provider consumed by the triage orchestrator.
// A missing pet is (nil, nil), not an error.
func (r *postgresRepo) GetContext(ctx context.Context, petID int64) (*triage.PetContext, error) {
	p, err := r.GetByID(ctx, petID)
	if err != nil || p == nil {
		return nil, err
	}
	pc := &triage.PetContext{
		ID:      p.ID,
		Name:    p.Name,
		Species: p.Species,
		Sex:     p.Sex,
	}
	if p.Age != nil {
		pc.Age = *p.Age
	}
	if p.Weight != nil {
		pc.Weight = *p.Weight
	}
	return pc, nil
}
