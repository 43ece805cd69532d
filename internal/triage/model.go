package triage

// Severity is the wire-level severity tier. The catalog and the extraction
// oracle both speak Traditional Chinese tiers.
type Severity string

const (
	SeverityHigh   Severity = "高"
	SeverityMedium Severity = "中"
	SeverityLow    Severity = "低"
	SeverityUnset  Severity = ""
)

// rank imposes the explicit total order 高 > 中 > 低 > unset. Severity
// merging must never fall back to string comparison.
func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

func (s Severity) Valid() bool {
	return s == SeverityHigh || s == SeverityMedium || s == SeverityLow
}

// MaxSeverity returns the more severe of the two tiers.
func MaxSeverity(a, b Severity) Severity {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// FinalizeClass is the classification the decision engine assigns to a turn
// before deciding whether to finalize it.
type FinalizeClass string

const (
	ClassNone     FinalizeClass = "none"
	ClassStable   FinalizeClass = "stable"
	ClassCritical FinalizeClass = "critical"
)

const (
	StepGatherSymptoms = "gather_symptoms"
	StepProvideAdvice  = "provide_advice"
)

// StabilityRecord tracks cross-turn diagnosis consistency for one
// conversation. Mutated exactly once per scored turn.
type StabilityRecord struct {
	Score          int
	LastCandidates []string // normalized comparison keys
	LastSeverity   Severity
}

// PetContext is the read-only pet snapshot fetched once per turn.
type PetContext struct {
	ID      int64   `json:"pId"`
	Name    string  `json:"pName"`
	Species string  `json:"species"`
	Age     int     `json:"age"`
	Sex     string  `json:"sex"`
	Weight  float64 `json:"weight"`
}

// MatchedDisease is a canonical catalog record resolved by the knowledge
// matcher, or a synthesized fallback when nothing matched.
type MatchedDisease struct {
	DiseaseID *int64   `json:"diseaseId"`
	Name      string   `json:"name"`
	Severity  Severity `json:"severity"`
	Advice    string   `json:"advice"`
}

type ChatRequest struct {
	UserID         int64  `json:"userId"`
	PetID          int64  `json:"petId"`
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversationId,omitempty"`
	FinalCheck     bool   `json:"finalCheck,omitempty"`
	StylePrompt    string `json:"stylePrompt,omitempty"`
	VoiceName      string `json:"voiceName,omitempty"`
}

type ChatResponse struct {
	ResponseText      string           `json:"responseText"`
	IsConversationEnd bool             `json:"isConversationEnd"`
	CurrentStep       string           `json:"currentStep,omitempty"`
	Severity          Severity         `json:"severity,omitempty"`
	PossibleDiseases  []string         `json:"possibleDiseases"`
	MatchedDiseases   []MatchedDisease `json:"matchedDiseases,omitempty"`
	DiseaseName       string           `json:"diseaseName,omitempty"`
	FinalAdvice       string           `json:"finalAdvice,omitempty"`
	ShowMapButton     bool             `json:"showMapButton"`
	ConversationID    int64            `json:"conversationId,omitempty"`
	ShouldFinalize    bool             `json:"shouldFinalize"`
	TriggerMapSearch  bool             `json:"triggerMapSearch,omitempty"`
	CareSuggestions   []string         `json:"careSuggestions,omitempty"`
}
