package triage

import (
	"encoding/json"
	"strings"
)

const defaultFollowUp = "請再次輸入剛剛的症狀"

var fenceReplacer = strings.NewReplacer("```json", "", "```", "")

// Extraction is the parsed output of the extraction oracle. Fallback marks a
// turn where the oracle's output could not be decoded and defaults were
// substituted; parsing never fails the request.
type Extraction struct {
	Diseases []string
	Severity Severity
	FollowUp string
	Fallback bool
}

type extractionPayload struct {
	PossibleDiseases []struct {
		Name string `json:"name"`
	} `json:"possibleDiseases"`
	Severity         string `json:"severity"`
	FollowUpQuestion string `json:"followUpQuestion"`
}

// ParseExtraction decodes the oracle's semi-structured reply, tolerating
// surrounding markdown code fences. Malformed output degrades to no
// candidates, medium severity and a generic follow-up question.
func ParseExtraction(raw string) Extraction {
	ext := Extraction{Severity: SeverityMedium}

	cleaned := strings.TrimSpace(fenceReplacer.Replace(raw))
	var payload extractionPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		ext.Fallback = true
		ext.FollowUp = defaultFollowUp
		return ext
	}

	for _, d := range payload.PossibleDiseases {
		if name := strings.TrimSpace(d.Name); name != "" {
			ext.Diseases = append(ext.Diseases, name)
		}
	}
	if sev := Severity(payload.Severity); sev.Valid() {
		ext.Severity = sev
	}
	// A deliberately absent follow-up is a finalization signal; keep it
	// empty here and let the responder substitute the generic question.
	ext.FollowUp = strings.TrimSpace(payload.FollowUpQuestion)
	return ext
}

type carePayload struct {
	Suggestions []string `json:"suggestions"`
}

// ParseCareSuggestions decodes the care-suggestion oracle's reply. Any
// decoding problem yields an empty list.
func ParseCareSuggestions(raw string) []string {
	cleaned := strings.TrimSpace(fenceReplacer.Replace(raw))
	var payload carePayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil
	}
	var out []string
	for _, s := range payload.Suggestions {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
