package triage

import (
	"regexp"
	"strings"
)

var (
	// Qualifier words the extraction oracle likes to prepend to disease
	// names. Stripping them makes「急性腸胃炎」and「腸胃炎」compare equal.
	qualifierRe     = regexp.MustCompile(`輕微|急性|慢性|刺激|誤食|或|/|\\|不當|不適|食入|食物|消化道`)
	parentheticalRe = regexp.MustCompile(`（.*）`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// normalizeName reduces a raw candidate disease name to the comparison key
// used for cross-turn overlap checks.
func normalizeName(name string) string {
	s := qualifierRe.ReplaceAllString(name, "")
	s = parentheticalRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, "")
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, normalizeName(n))
	}
	return out
}

// Scorer maintains the rolling stability score: consecutive turns whose
// candidate sets overlap raise it by one, any drift resets it to one.
type Scorer struct {
	store *ConversationStore
}

func NewScorer(store *ConversationStore) *Scorer {
	return &Scorer{store: store}
}

// Score updates the conversation's stability record with this turn's
// candidates and severity and returns the updated record. It never fails;
// an empty candidate set simply resets the score.
func (sc *Scorer) Score(conversationID int64, candidates []string, severity Severity) StabilityRecord {
	normalized := normalizeNames(candidates)

	prev, _ := sc.store.Stability(conversationID)
	overlap := false
	for _, n := range normalized {
		for _, p := range prev.LastCandidates {
			if n == p {
				overlap = true
				break
			}
		}
		if overlap {
			break
		}
	}

	rec := StabilityRecord{
		LastCandidates: normalized,
		LastSeverity:   severity,
	}
	if overlap {
		rec.Score = prev.Score + 1
	} else {
		rec.Score = 1
	}
	sc.store.SetStability(conversationID, rec)
	return rec
}
