package disease

import (
	"context"

	"pet-triage-agent/internal/triage"
)

const fallbackAdvice = "建議觀察情況，若惡化請就醫。"

// Service resolves free-text ailment names to canonical catalog records.
// It implements triage.DiseaseMatcher.
type Service interface {
	Match(ctx context.Context, names []string) ([]triage.MatchedDisease, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Match returns the distinct catalog records matching any of the candidate
// names. When the catalog matches nothing at all, it synthesizes one
// low-severity placeholder per candidate so the caller always has an
// actionable record for non-empty input.
func (s *service) Match(ctx context.Context, names []string) ([]triage.MatchedDisease, error) {
	if len(names) == 0 {
		return nil, nil
	}

	matched, err := s.repo.FindByKeywords(ctx, names)
	if err != nil {
		return nil, err
	}
	if len(matched) > 0 {
		return matched, nil
	}

	out := make([]triage.MatchedDisease, 0, len(names))
	for _, name := range names {
		out = append(out, triage.MatchedDisease{
			Name:     name,
			Severity: triage.SeverityLow,
			Advice:   fallbackAdvice,
		})
	}
	return out, nil
}
