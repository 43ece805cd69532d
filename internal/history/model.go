package history

import "time"

// VisitRecord is one closed triage conversation as shown in a pet's history.
type VisitRecord struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Severity    string    `json:"severity"`
	FinalAdvice string    `json:"finalAdvice"`
	CreatedAt   time.Time `json:"createdAt"`
	DiseaseName *string   `json:"diseaseName"`
}

type Message struct {
	Sender string `json:"sender"` // "ai" or "user"
	Text   string `json:"text"`
}

type SaveRequest struct {
	PetID       int64     `json:"petId"`
	Title       string    `json:"title"`
	Severity    string    `json:"severity"`
	FinalAdvice string    `json:"finalAdvice"`
	DiseaseID   *int64    `json:"diseaseId"`
	Messages    []Message `json:"messages"`
}
