package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MinSources is the smallest input set a merge is meaningful for.
const MinSources = 2

// ErrTooFewSources is returned when the input contract is violated. It is
// the only condition that prevents a consolidated record from being
// produced; every data-quality problem becomes an alert instead.
var ErrTooFewSources = errors.New("consolidation requires at least two source records")

// Service runs the consolidation pipeline and owns its persistence.
type Service struct {
	repo      ConsolidationRepository
	validator *Validator
	logger    zerolog.Logger
}

func NewService(repo ConsolidationRepository, validator *Validator, logger zerolog.Logger) *Service {
	return &Service{repo: repo, validator: validator, logger: logger}
}

// Consolidate merges the given source records for one person, validates and
// normalizes the result, filters alerts, and persists the record.
func (s *Service) Consolidate(ctx context.Context, personRef string, sources []SourceRecord) (*ConsolidatedRecord, error) {
	if personRef == "" {
		return nil, fmt.Errorf("person reference is required")
	}
	if len(sources) < MinSources {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewSources, len(sources))
	}
	for i, src := range sources {
		if src.SourceType == "" {
			return nil, fmt.Errorf("source record %d: source_type is required", i)
		}
		if !validSourceTypes[src.SourceType] {
			return nil, fmt.Errorf("source record %d: unknown source_type %q", i, src.SourceType)
		}
		if src.EvaluationType != "" && !validEvaluationTypes[src.EvaluationType] {
			return nil, fmt.Errorf("source record %d: unknown evaluation_type %q", i, src.EvaluationType)
		}
	}

	dominant := DominantSourceType(sources)
	rec := Merge(personRef, sources, time.Now().UTC())
	raw := s.validator.ValidateAndNormalize(rec, dominant)
	rec.Alerts = FilterAlerts(raw, rec, dominant)

	if err := s.repo.Create(ctx, rec, sources); err != nil {
		return nil, fmt.Errorf("persist consolidated record: %w", err)
	}

	s.logger.Info().
		Str("person_ref", personRef).
		Str("consolidation_id", rec.ID.String()).
		Int("source_count", rec.SourceCount).
		Int("diagnoses", len(rec.Diagnoses)).
		Int("alerts_raw", len(raw)).
		Int("alerts_kept", len(rec.Alerts)).
		Str("dominant_source", dominant).
		Msg("record consolidated")

	return rec, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ConsolidatedRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetSources(ctx context.Context, id uuid.UUID) ([]SourceRecord, error) {
	return s.repo.GetSources(ctx, id)
}

func (s *Service) ListByPerson(ctx context.Context, personRef string, limit, offset int) ([]*ConsolidatedRecord, int, error) {
	return s.repo.ListByPerson(ctx, personRef, limit, offset)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*ConsolidatedRecord, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
