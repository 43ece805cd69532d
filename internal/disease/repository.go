package disease

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"pet-triage-agent/internal/triage"
)

type Repository interface {
	FindByKeywords(ctx context.Context, keywords []string) ([]triage.MatchedDisease, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

// FindByKeywords matches keywords against canonical names and aliases in
// both containment directions, so「腸胃炎」finds「急性腸胃炎」and vice versa.
// The disease table drives the join: a missing alias row never hides a match.
func (r *postgresRepo) FindByKeywords(ctx context.Context, keywords []string) ([]triage.MatchedDisease, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	clauses := make([]string, 0, len(keywords))
	args := make([]any, 0, len(keywords))
	for i, k := range keywords {
		p := fmt.Sprintf("$%d", i+1)
		clauses = append(clauses, fmt.Sprintf(
			`(d.name ILIKE '%%' || %[1]s || '%%' OR %[1]s ILIKE '%%' || d.name || '%%'
			  OR a.alias ILIKE '%%' || %[1]s || '%%' OR %[1]s ILIKE '%%' || a.alias || '%%')`, p))
		args = append(args, k)
	}

	query := `
		SELECT DISTINCT d.disease_id, d.name, d.severity, d.advice
		FROM diseases d
		LEFT JOIN disease_aliases a ON a.disease_id = d.disease_id
		WHERE ` + strings.Join(clauses, " OR ")

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("disease lookup: %w", err)
	}
	defer rows.Close()

	var out []triage.MatchedDisease
	for rows.Next() {
		var d triage.MatchedDisease
		var id int64
		if err := rows.Scan(&id, &d.Name, &d.Severity, &d.Advice); err != nil {
			return nil, err
		}
		d.DiseaseID = &id
		out = append(out, d)
	}
	return out, rows.Err()
}
