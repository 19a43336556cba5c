package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carepulse/carepulse/internal/platform/genai"
)

var ErrEmptyQuestion = errors.New("question is required")

// Service is the reasoning gateway: it assembles patient context, drives the
// engine and persists only responses that survive validation.
type Service struct {
	builder *ContextBuilder
	repo    Repository
	engine  genai.Client
	log     zerolog.Logger
}

func NewService(builder *ContextBuilder, repo Repository, engine genai.Client, log zerolog.Logger) *Service {
	return &Service{
		builder: builder,
		repo:    repo,
		engine:  engine,
		log:     log.With().Str("component", "insight_service").Logger(),
	}
}

// Analyze runs one assessment: build the context bundle, call the engine with
// the structured-output prompt, validate strictly and save. Exactly one
// insight is persisted and returned, or none and an error; there is no
// partial outcome. An empty context still goes to the engine.
func (s *Service) Analyze(ctx context.Context, patientID uuid.UUID, trigger TriggerSource, symptomText string) (*Insight, error) {
	if !ValidTrigger(trigger) {
		return nil, fmt.Errorf("unknown trigger source %q", trigger)
	}

	bundle, err := s.builder.Build(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("build patient context: %w", err)
	}
	bundle.SymptomText = strings.TrimSpace(symptomText)

	prompt, err := analysisPrompt(bundle)
	if err != nil {
		return nil, err
	}
	raw, err := s.engine.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("reasoning engine: %w", err)
	}

	resp, err := decodeEngineResponse(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("patient_id", patientID.String()).Msg("engine response rejected")
		return nil, err
	}

	ins := &Insight{
		PatientID:       patientID.String(),
		GeneratedAt:     time.Now().UTC(),
		TriggerSource:   trigger,
		RiskCategory:    *resp.RiskCategory,
		ConfidenceScore: *resp.ConfidenceScore,
		Reasoning:       *resp.Reasoning,
		KeyFactors:      resp.KeyFactors,
		MedicationLinks: resp.MedicationLinks,
		Recommendations: *resp.Recommendations,
	}
	if _, err := s.repo.Save(ctx, ins); err != nil {
		return nil, fmt.Errorf("save insight: %w", err)
	}

	s.log.Info().
		Str("insight_id", ins.ID).
		Str("patient_id", ins.PatientID).
		Str("trigger", string(trigger)).
		Str("risk", string(ins.RiskCategory)).
		Msg("insight generated")
	return ins, nil
}

// Chat answers a follow-up question, grounded on a stored insight when an id
// is supplied and it resolves. An absent or unknown id degrades to an
// ungrounded answer rather than an error; chat never writes anything.
func (s *Service) Chat(ctx context.Context, insightID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	var ins *Insight
	if id := strings.TrimSpace(insightID); id != "" {
		found, err := s.repo.FindByID(ctx, id)
		switch {
		case errors.Is(err, ErrNotFound):
			s.log.Debug().Str("insight_id", id).Msg("chat insight not found, answering ungrounded")
		case err != nil:
			return "", err
		default:
			ins = found
		}
	}

	answer, err := s.engine.GenerateText(ctx, chatPrompt(ins, question))
	if err != nil {
		return "", fmt.Errorf("reasoning engine: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// InsightsForPatient returns a patient's stored insights, newest first.
func (s *Service) InsightsForPatient(ctx context.Context, patientID uuid.UUID) ([]*Insight, error) {
	return s.repo.FindByPatient(ctx, patientID)
}

// InsightByID loads one stored insight.
func (s *Service) InsightByID(ctx context.Context, id string) (*Insight, error) {
	return s.repo.FindByID(ctx, id)
}
