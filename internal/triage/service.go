package triage

import (
	"context"
	"errors"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"
)

const defaultAdviceDigest = "建議觀察情況，若惡化請就醫。"

// ErrPetNotFound means the turn referenced a pet id with no stored context.
var ErrPetNotFound = errors.New("pet not found")

// Oracle is the external AI call. It returns raw text which the triage
// layer parses defensively; the oracle's reasoning is not modeled here.
type Oracle interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// PetProvider fetches the read-only pet snapshot for a turn. A nil snapshot
// with nil error means the pet does not exist.
type PetProvider interface {
	GetContext(ctx context.Context, petID int64) (*PetContext, error)
}

// DiseaseMatcher resolves free-text candidate names against the knowledge
// catalog.
type DiseaseMatcher interface {
	Match(ctx context.Context, names []string) ([]MatchedDisease, error)
}

type Service interface {
	ProcessTurn(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type service struct {
	store        *ConversationStore
	scorer       *Scorer
	oracle       Oracle
	pets         PetProvider
	matcher      DiseaseMatcher
	extractModel string
	finalModel   string
}

func NewService(store *ConversationStore, oracle Oracle, pets PetProvider, matcher DiseaseMatcher, extractModel, finalModel string) Service {
	return &service{
		store:        store,
		scorer:       NewScorer(store),
		oracle:       oracle,
		pets:         pets,
		matcher:      matcher,
		extractModel: extractModel,
		finalModel:   finalModel,
	}
}

// ProcessTurn runs one turn of the triage conversation: gather another
// symptom round, or close with a full assessment once the decision engine
// (or the caller) says so.
func (s *service) ProcessTurn(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	pet, err := s.pets.GetContext(ctx, req.PetID)
	if err != nil {
		return nil, err
	}
	if pet == nil {
		return nil, ErrPetNotFound
	}

	cID := int64(0)
	if req.ConversationID != nil {
		cID = *req.ConversationID
	} else {
		cID = s.store.MintID()
	}

	shouldFinalize := false
	finalClass := ClassNone
	aiDiseases := []string{}
	aiSeverity := SeverityMedium
	nextQuestion := defaultFollowUp

	// A low severity that already held steady for two rounds will not
	// change the verdict; skip the extraction call entirely.
	if prev, ok := s.store.Stability(cID); ok && !req.FinalCheck && ShortCircuit(prev) {
		shouldFinalize = true
		log.Printf("triage: conversation %d short-circuits to final check (severity=%s score=%d)", cID, prev.LastSeverity, prev.Score)
	}

	if !req.FinalCheck && !shouldFinalize {
		transcript := s.store.Append(cID, req.Message)

		ext := s.extract(ctx, req.StylePrompt, transcript, pet.Name)
		if len(ext.Diseases) > 0 {
			aiDiseases = ext.Diseases
		}
		aiSeverity = ext.Severity
		if ext.FollowUp != "" {
			nextQuestion = ext.FollowUp
		}

		rec := s.scorer.Score(cID, aiDiseases, aiSeverity)
		decision := Decide(aiDiseases, aiSeverity, ext.FollowUp, req.Message, rec.Score)
		shouldFinalize = decision.ShouldFinalize
		finalClass = decision.Class
		log.Printf("triage: conversation %d diseases=%v severity=%s score=%d class=%s finalize=%t",
			cID, aiDiseases, aiSeverity, rec.Score, finalClass, shouldFinalize)

		if !shouldFinalize {
			return &ChatResponse{
				ResponseText:     nextQuestion,
				CurrentStep:      StepGatherSymptoms,
				Severity:         aiSeverity,
				PossibleDiseases: aiDiseases,
				ConversationID:   cID,
			}, nil
		}
	}

	return s.finalize(ctx, req, *pet, cID, aiDiseases, aiSeverity, finalClass, shouldFinalize)
}

// extract runs the extraction oracle for one turn. Oracle failures and
// malformed output both degrade to defaults; the turn never fails here.
func (s *service) extract(ctx context.Context, stylePrompt string, transcript []string, petName string) Extraction {
	prompt := buildExtractionPrompt(stylePrompt, transcript, petName)
	raw, err := s.oracle.Generate(ctx, s.extractModel, prompt)
	if err != nil {
		log.Printf("triage: extraction oracle failed: %v", err)
		return Extraction{Severity: SeverityMedium, FollowUp: defaultFollowUp, Fallback: true}
	}
	ext := ParseExtraction(raw)
	if ext.Fallback {
		log.Printf("triage: extraction output unparseable, using defaults")
	}
	return ext
}

// finalize resolves the candidates against the catalog, merges severities,
// and produces the closing advice and care suggestions.
func (s *service) finalize(ctx context.Context, req ChatRequest, pet PetContext, cID int64, aiDiseases []string, aiSeverity Severity, finalClass FinalizeClass, shouldFinalize bool) (*ChatResponse, error) {
	matched, err := s.matcher.Match(ctx, aiDiseases)
	if err != nil {
		// Degrade to the AI's raw candidate names as the identified ailments.
		log.Printf("triage: disease match failed: %v", err)
		matched = nil
	}

	dbSeverity := SeverityLow
	for _, d := range matched {
		dbSeverity = MaxSeverity(dbSeverity, d.Severity)
	}
	finalSeverity := MaxSeverity(aiSeverity, dbSeverity)

	adviceParts := make([]string, 0, len(matched))
	for _, d := range matched {
		adviceParts = append(adviceParts, d.Advice)
	}
	adviceDigest := strings.Join(adviceParts, "；")
	if adviceDigest == "" {
		adviceDigest = defaultAdviceDigest
	}

	identified := aiDiseases
	if len(matched) > 0 {
		identified = make([]string, 0, len(matched))
		for _, d := range matched {
			identified = append(identified, d.Name)
		}
	}

	// The closing prose and the care suggestions are independent oracle
	// calls; run them concurrently.
	var finalResponse string
	var careSuggestions []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := s.oracle.Generate(gctx, s.finalModel, buildAdvicePrompt(req.StylePrompt, pet, identified, finalSeverity, adviceDigest))
		if err != nil {
			log.Printf("triage: advice oracle failed: %v", err)
			return nil
		}
		finalResponse = strings.TrimSpace(raw)
		return nil
	})
	g.Go(func() error {
		raw, err := s.oracle.Generate(gctx, s.finalModel, buildCarePrompt(req.StylePrompt, pet, identified, finalSeverity, adviceDigest))
		if err != nil {
			log.Printf("triage: care-suggestion oracle failed: %v", err)
			return nil
		}
		careSuggestions = ParseCareSuggestions(raw)
		return nil
	})
	_ = g.Wait()

	if finalResponse == "" {
		finalResponse = synthesizeAdvice(identified, finalSeverity, adviceDigest)
	}

	diseaseName := "未命名疾病"
	if len(matched) > 0 {
		diseaseName = matched[0].Name
	} else if len(aiDiseases) > 0 {
		diseaseName = aiDiseases[0]
	}

	return &ChatResponse{
		ResponseText:     finalResponse,
		CurrentStep:      StepProvideAdvice,
		Severity:         finalSeverity,
		PossibleDiseases: identified,
		MatchedDiseases:  matched,
		DiseaseName:      diseaseName,
		FinalAdvice:      adviceDigest,
		ShowMapButton:    finalSeverity == SeverityHigh,
		ConversationID:   cID,
		ShouldFinalize:   shouldFinalize,
		TriggerMapSearch: finalClass == ClassCritical && aiSeverity == SeverityHigh,
		CareSuggestions:  careSuggestions,
	}, nil
}
