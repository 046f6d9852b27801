package surveillance

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service owns the program catalog and company enrollment, and evaluates
// consolidated diagnosis codes against both. The matcher built from the
// catalog is cached; catalog writes go through a coarse lock and drop the
// cache so concurrent evaluations never see a half-updated index.
type Service struct {
	catalog   CatalogRepository
	companies CompanyRepository
	logger    zerolog.Logger

	mu      sync.RWMutex
	matcher *Matcher
}

func NewService(catalog CatalogRepository, companies CompanyRepository, logger zerolog.Logger) *Service {
	return &Service{catalog: catalog, companies: companies, logger: logger}
}

// SeedCatalog installs the built-in programs when the catalog is empty.
func (s *Service) SeedCatalog(ctx context.Context) error {
	existing, err := s.catalog.ListPrograms(ctx)
	if err != nil {
		return fmt.Errorf("list programs: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, entry := range DefaultCatalog() {
		e := entry
		if err := s.catalog.UpsertProgram(ctx, &e); err != nil {
			return fmt.Errorf("seed program %s: %w", entry.ID, err)
		}
	}
	s.logger.Info().Int("programs", len(DefaultCatalog())).Msg("seeded surveillance program catalog")
	return nil
}

func (s *Service) Programs(ctx context.Context) ([]CatalogEntry, error) {
	return s.catalog.ListPrograms(ctx)
}

func (s *Service) SaveProgram(ctx context.Context, entry *CatalogEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("program id is required")
	}
	if entry.Name == "" {
		return fmt.Errorf("program name is required")
	}
	if len(entry.Diagnoses) == 0 {
		return fmt.Errorf("program must cover at least one diagnosis code")
	}
	if err := s.catalog.UpsertProgram(ctx, entry); err != nil {
		return err
	}
	s.invalidateMatcher()
	return nil
}

func (s *Service) DeleteProgram(ctx context.Context, id string) error {
	if err := s.catalog.DeleteProgram(ctx, id); err != nil {
		return err
	}
	s.invalidateMatcher()
	return nil
}

func (s *Service) CreateCompany(ctx context.Context, c *Company) error {
	if c.Name == "" {
		return fmt.Errorf("company name is required")
	}
	return s.companies.Create(ctx, c)
}

func (s *Service) GetCompany(ctx context.Context, id uuid.UUID) (*Company, error) {
	return s.companies.GetByID(ctx, id)
}

func (s *Service) ListCompanies(ctx context.Context, limit, offset int) ([]*Company, int, error) {
	return s.companies.List(ctx, limit, offset)
}

// SetEnrollment replaces a company's enrolled-program list in one write.
func (s *Service) SetEnrollment(ctx context.Context, id uuid.UUID, programs []string) error {
	return s.companies.SetEnrolledPrograms(ctx, id, programs)
}

func (s *Service) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	return s.companies.Delete(ctx, id)
}

// Evaluate matches a person's consolidated diagnosis codes against the
// catalog and the company's enrollment.
func (s *Service) Evaluate(ctx context.Context, companyID uuid.UUID, diagnosisCodes []string) (*Evaluation, error) {
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load company: %w", err)
	}
	m, err := s.loadMatcher(ctx)
	if err != nil {
		return nil, err
	}
	eval := m.Evaluate(diagnosisCodes, company.EnrolledPrograms)
	s.logger.Debug().
		Str("company_id", companyID.String()).
		Int("codes", len(diagnosisCodes)).
		Int("program_alerts", len(eval.ProgramAlerts)).
		Int("referral_candidates", len(eval.ReferralCandidates)).
		Msg("surveillance evaluation")
	return &eval, nil
}

func (s *Service) loadMatcher(ctx context.Context) (*Matcher, error) {
	s.mu.RLock()
	m := s.matcher
	s.mu.RUnlock()
	if m != nil {
		return m, nil
	}

	entries, err := s.catalog.ListPrograms(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if len(entries) == 0 {
		entries = DefaultCatalog()
	}
	m = NewMatcher(entries)

	s.mu.Lock()
	s.matcher = m
	s.mu.Unlock()
	return m, nil
}

func (s *Service) invalidateMatcher() {
	s.mu.Lock()
	s.matcher = nil
	s.mu.Unlock()
}
