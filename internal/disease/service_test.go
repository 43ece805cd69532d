package disease

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pet-triage-agent/internal/triage"
)

type mockRepo struct {
	results  []triage.MatchedDisease
	err      error
	keywords []string
}

func (m *mockRepo) FindByKeywords(_ context.Context, keywords []string) ([]triage.MatchedDisease, error) {
	m.keywords = keywords
	return m.results, m.err
}

func TestMatchEmptyInput(t *testing.T) {
	svc := NewService(&mockRepo{})

	matched, err := svc.Match(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestMatchAliasResolvesToCanonicalName(t *testing.T) {
	id := int64(1)
	repo := &mockRepo{results: []triage.MatchedDisease{
		{DiseaseID: &id, Name: "腸胃炎", Severity: triage.SeverityLow, Advice: "建議禁食半天並提供充足飲水，若持續嘔吐或腹瀉請就醫。"},
	}}
	svc := NewService(repo)

	matched, err := svc.Match(context.Background(), []string{"急性腸胃炎"})

	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "腸胃炎", matched[0].Name, "the canonical name wins over the raw candidate")
	assert.Equal(t, []string{"急性腸胃炎"}, repo.keywords)
}

func TestMatchFallbackSynthesizesRecord(t *testing.T) {
	svc := NewService(&mockRepo{})

	matched, err := svc.Match(context.Background(), []string{"外星病"})

	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Nil(t, matched[0].DiseaseID)
	assert.Equal(t, "外星病", matched[0].Name)
	assert.Equal(t, triage.SeverityLow, matched[0].Severity)
	assert.Equal(t, fallbackAdvice, matched[0].Advice)
}

func TestMatchFallbackOnePerCandidate(t *testing.T) {
	svc := NewService(&mockRepo{})

	matched, err := svc.Match(context.Background(), []string{"外星病", "太空感冒"})

	require.NoError(t, err)
	require.Len(t, matched, 2)
	assert.Equal(t, "外星病", matched[0].Name)
	assert.Equal(t, "太空感冒", matched[1].Name)
}

func TestMatchRepositoryError(t *testing.T) {
	svc := NewService(&mockRepo{err: errors.New("db down")})

	_, err := svc.Match(context.Background(), []string{"腸胃炎"})

	assert.Error(t, err, "a genuine query failure surfaces to the caller, which degrades on its own")
}
