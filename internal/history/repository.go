package history

import (
	"context"
	"database/sql"
	"fmt"
)

// Visits with no confirmed catalog disease are filed under this placeholder.
const unclassifiedDiseaseID = 9999

type Repository interface {
	ListByPet(ctx context.Context, petID int64) ([]VisitRecord, error)
	Save(ctx context.Context, req SaveRequest) (int64, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) ListByPet(ctx context.Context, petID int64) ([]VisitRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.c_id, c.title, c.severity, c.final_advice, c.created_at, d.name
		FROM conversations c
		LEFT JOIN diseases d ON c.disease_id = d.disease_id
		WHERE c.pet_id = $1
		ORDER BY c.created_at DESC`,
		petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []VisitRecord{}
	for rows.Next() {
		var rec VisitRecord
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Severity, &rec.FinalAdvice, &rec.CreatedAt, &rec.DiseaseName); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Save persists a closed conversation and its full message log.
func (r *postgresRepo) Save(ctx context.Context, req SaveRequest) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	diseaseID := int64(unclassifiedDiseaseID)
	if req.DiseaseID != nil && *req.DiseaseID > 0 {
		diseaseID = *req.DiseaseID
	}

	var conversationID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO conversations (pet_id, title, severity, final_advice, disease_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING c_id`,
		req.PetID, req.Title, req.Severity, req.FinalAdvice, diseaseID).
		Scan(&conversationID)
	if err != nil {
		return 0, fmt.Errorf("insert conversation: %w", err)
	}

	for _, msg := range req.Messages {
		senderType, senderName := "User", "飼主"
		if msg.Sender == "ai" {
			senderType, senderName = "AI", "AI 助理"
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO messages (conversation_id, sender_type, sender_name, content)
			VALUES ($1, $2, $3, $4)`,
			conversationID, senderType, senderName, msg.Text)
		if err != nil {
			return 0, fmt.Errorf("insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return conversationID, nil
}
