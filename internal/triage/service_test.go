package triage

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOracle struct {
	mu           sync.Mutex
	extractions  []string
	extractCalls int
	advice       string
	adviceErr    error
	care         string
	careErr      error
	err          error
}

func (m *mockOracle) Generate(_ context.Context, _, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	switch {
	case strings.Contains(prompt, "followUpQuestion"):
		idx := m.extractCalls
		m.extractCalls++
		if len(m.extractions) == 0 {
			return "", errors.New("no extraction response configured")
		}
		if idx >= len(m.extractions) {
			idx = len(m.extractions) - 1
		}
		return m.extractions[idx], nil
	case strings.Contains(prompt, "suggestions"):
		return m.care, m.careErr
	default:
		return m.advice, m.adviceErr
	}
}

func (m *mockOracle) extractionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extractCalls
}

type mockPets struct {
	pets map[int64]*PetContext
}

func (m *mockPets) GetContext(_ context.Context, petID int64) (*PetContext, error) {
	return m.pets[petID], nil
}

type mockMatcher struct {
	mu        sync.Mutex
	results   []MatchedDisease
	err       error
	lastNames []string
	called    bool
}

func (m *mockMatcher) Match(_ context.Context, names []string) ([]MatchedDisease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called = true
	m.lastNames = names
	if m.err != nil {
		return nil, m.err
	}
	if len(names) == 0 {
		return nil, nil
	}
	return m.results, nil
}

func testPet() *PetContext {
	return &PetContext{ID: 1, Name: "小白", Species: "狗", Age: 3, Sex: "公", Weight: 8.5}
}

func newTestService(t *testing.T, oracle *mockOracle, matcher *mockMatcher) Service {
	t.Helper()
	store := newTestStore(t)
	pets := &mockPets{pets: map[int64]*PetContext{1: testPet()}}
	return NewService(store, oracle, pets, matcher, "extract-model", "final-model")
}

func extractionJSON(names []string, severity Severity, followUp string) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, `{"name":"`+n+`"}`)
	}
	return `{"possibleDiseases":[` + strings.Join(parts, ",") + `],"severity":"` + string(severity) + `","followUpQuestion":"` + followUp + `"}`
}

func TestProcessTurnMintsConversationID(t *testing.T) {
	oracle := &mockOracle{
		extractions: []string{extractionJSON([]string{"上呼吸道感染"}, SeverityMedium, "請問牠咳多久了？")},
	}
	svc := newTestService(t, oracle, &mockMatcher{})

	resp, err := svc.ProcessTurn(context.Background(), ChatRequest{
		UserID: 1, PetID: 1, Message: "咳嗽",
	})

	require.NoError(t, err)
	assert.NotZero(t, resp.ConversationID, "server should mint a conversation id")
	assert.Equal(t, StepGatherSymptoms, resp.CurrentStep)
	assert.False(t, resp.ShouldFinalize)
	assert.Equal(t, "請問牠咳多久了？", resp.ResponseText)
	assert.Equal(t, []string{"上呼吸道感染"}, resp.PossibleDiseases)
	assert.Equal(t, SeverityMedium, resp.Severity)
}

func TestProcessTurnPetNotFound(t *testing.T) {
	svc := newTestService(t, &mockOracle{}, &mockMatcher{})

	_, err := svc.ProcessTurn(context.Background(), ChatRequest{UserID: 1, PetID: 42, Message: "咳嗽"})

	assert.ErrorIs(t, err, ErrPetNotFound)
}

func TestProcessTurnStableFinalizeByRepetition(t *testing.T) {
	oracle := &mockOracle{
		extractions: []string{extractionJSON([]string{"腸胃炎"}, SeverityLow, "請問牠還有拉肚子嗎？")},
		advice:      "小白的情況應該是腸胃發炎，先讓牠禁食半天觀察看看。",
		care:        `{"suggestions":["禁食半天","補充水分","觀察精神"]}`,
	}
	id := int64(1)
	matcher := &mockMatcher{results: []MatchedDisease{
		{DiseaseID: &id, Name: "腸胃炎", Severity: SeverityLow, Advice: "建議禁食半天並提供充足飲水，若持續嘔吐或腹瀉請就醫。"},
	}}
	svc := newTestService(t, oracle, matcher)

	first, err := svc.ProcessTurn(context.Background(), ChatRequest{UserID: 1, PetID: 1, Message: "牠一直拉肚子"})
	require.NoError(t, err)
	require.Equal(t, StepGatherSymptoms, first.CurrentStep)

	cID := first.ConversationID
	second, err := svc.ProcessTurn(context.Background(), ChatRequest{
		UserID: 1, PetID: 1, Message: "還是在拉肚子", ConversationID: &cID,
	})
	require.NoError(t, err)

	assert.True(t, second.ShouldFinalize)
	assert.Equal(t, StepProvideAdvice, second.CurrentStep)
	require.NotEmpty(t, second.MatchedDiseases)
	assert.Equal(t, "腸胃炎", second.MatchedDiseases[0].Name)
	assert.Equal(t, "腸胃炎", second.DiseaseName)
	assert.Equal(t, SeverityLow, second.Severity)
	assert.Equal(t, []string{"腸胃炎"}, second.PossibleDiseases)
	assert.Equal(t, "小白的情況應該是腸胃發炎，先讓牠禁食半天觀察看看。", second.ResponseText)
	assert.Equal(t, []string{"禁食半天", "補充水分", "觀察精神"}, second.CareSuggestions)
	assert.False(t, second.ShowMapButton)
	assert.False(t, second.TriggerMapSearch)
}

func TestProcessTurnCriticalFinalizesImmediately(t *testing.T) {
	// High severity and no follow-up question closes on the first turn.
	oracle := &mockOracle{
		extractions: []string{extractionJSON([]string{"犬瘟熱"}, SeverityHigh, "")},
		advice:      "情況可能比較嚴重，請儘速帶小白前往動物醫院。",
		care:        `{"suggestions":["儘速就醫","保持保暖","避免接觸其他犬隻"]}`,
	}
	id := int64(2)
	matcher := &mockMatcher{results: []MatchedDisease{
		{DiseaseID: &id, Name: "犬瘟熱", Severity: SeverityHigh, Advice: "高度傳染性疾病，請儘速前往動物醫院。"},
	}}
	svc := newTestService(t, oracle, matcher)

	resp, err := svc.ProcessTurn(context.Background(), ChatRequest{UserID: 1, PetID: 1, Message: "一直發抖還抽搐"})
	require.NoError(t, err)

	assert.True(t, resp.ShouldFinalize)
	assert.Equal(t, StepProvideAdvice, resp.CurrentStep)
	assert.Equal(t, SeverityHigh, resp.Severity)
	assert.True(t, resp.ShowMapButton)
	assert.True(t, resp.TriggerMapSearch)
}

func TestProcessTurnOracleFailureDegrades(t *testing.T) {
	oracle := &mockOracle{err: errors.New("upstream timeout")}
	svc := newTestService(t, oracle, &mockMatcher{})

	resp, err := svc.ProcessTurn(context.Background(), ChatRequest{UserID: 1, PetID: 1, Message: "咳嗽"})
	require.NoError(t, err)

	assert.Equal(t, StepGatherSymptoms, resp.CurrentStep)
	assert.Equal(t, defaultFollowUp, resp.ResponseText)
	assert.Empty(t, resp.PossibleDiseases)
	assert.Equal(t, SeverityMedium, resp.Severity)
	assert.False(t, resp.ShouldFinalize)
}

func TestProcessTurnForcedFinalCheckSkipsExtraction(t *testing.T) {
	oracle := &mockOracle{
		advice: "建議先觀察一天。",
		care:   `{"suggestions":["a","b","c"]}`,
	}
	matcher := &mockMatcher{}
	svc := newTestService(t, oracle, matcher)

	resp, err := svc.ProcessTurn(context.Background(), ChatRequest{
		UserID: 1, PetID: 1, Message: "結束", FinalCheck: true,
	})
	require.NoError(t, err)

	assert.Zero(t, oracle.extractionCount(), "forced finalCheck must not call the extraction oracle")
	assert.Equal(t, StepProvideAdvice, resp.CurrentStep)
	assert.Equal(t, "未命名疾病", resp.DiseaseName)
	assert.Equal(t, defaultAdviceDigest, resp.FinalAdvice)
}

func TestProcessTurnShortCircuitSkipsExtraction(t *testing.T) {
	oracle := &mockOracle{
		extractions: []string{extractionJSON([]string{"腸胃炎"}, SeverityLow, "請問牠還有拉肚子嗎？")},
		advice:      "先讓牠禁食半天觀察看看。",
		care:        `{"suggestions":["a","b","c"]}`,
	}
	matcher := &mockMatcher{}
	store := newTestStore(t)
	pets := &mockPets{pets: map[int64]*PetContext{1: testPet()}}
	svc := NewService(store, oracle, pets, matcher, "extract-model", "final-model")

	cID := int64(99)
	store.SetStability(cID, StabilityRecord{Score: 2, LastCandidates: []string{"腸胃炎"}, LastSeverity: SeverityLow})

	resp, err := svc.ProcessTurn(context.Background(), ChatRequest{
		UserID: 1, PetID: 1, Message: "沒有了", ConversationID: &cID,
	})
	require.NoError(t, err)

	assert.Zero(t, oracle.extractionCount(), "short-circuit must not call the extraction oracle")
	assert.True(t, resp.ShouldFinalize)
	assert.Equal(t, StepProvideAdvice, resp.CurrentStep)
}

func TestProcessTurnMatcherErrorDegradesToAINames(t *testing.T) {
	oracle := &mockOracle{
		extractions: []string{extractionJSON([]string{"犬瘟熱"}, SeverityHigh, "")},
		advice:      "請儘速帶小白前往動物醫院。",
		care:        `{"suggestions":["a","b","c"]}`,
	}
	matcher := &mockMatcher{err: errors.New("db connection lost")}
	svc := newTestService(t, oracle, matcher)

	resp, err := svc.ProcessTurn(context.Background(), ChatRequest{UserID: 1, PetID: 1, Message: "一直抽搐"})
	require.NoError(t, err)

	assert.True(t, resp.ShouldFinalize)
	assert.Equal(t, []string{"犬瘟熱"}, resp.PossibleDiseases)
	assert.Empty(t, resp.MatchedDiseases)
	assert.Equal(t, "犬瘟熱", resp.DiseaseName)
	assert.Equal(t, defaultAdviceDigest, resp.FinalAdvice)
}

func TestProcessTurnAdviceOracleFallback(t *testing.T) {
	oracle := &mockOracle{
		extractions: []string{extractionJSON([]string{"犬瘟熱"}, SeverityHigh, "")},
		adviceErr:   errors.New("upstream timeout"),
		careErr:     errors.New("upstream timeout"),
	}
	id := int64(2)
	matcher := &mockMatcher{results: []MatchedDisease{
		{DiseaseID: &id, Name: "犬瘟熱", Severity: SeverityHigh, Advice: "高度傳染性疾病，請儘速前往動物醫院。"},
	}}
	svc := newTestService(t, oracle, matcher)

	resp, err := svc.ProcessTurn(context.Background(), ChatRequest{UserID: 1, PetID: 1, Message: "一直抽搐"})
	require.NoError(t, err)

	assert.Contains(t, resp.ResponseText, "犬瘟熱")
	assert.Contains(t, resp.ResponseText, "高")
	assert.Empty(t, resp.CareSuggestions)
}
