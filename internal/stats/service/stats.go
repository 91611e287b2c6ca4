package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/hcdash/hcdash-backend/internal/stats/domain"
	"github.com/hcdash/hcdash-backend/internal/stats/repository"
	"github.com/hcdash/hcdash-backend/pkg/errors"
	"github.com/hcdash/hcdash-backend/pkg/logger"
	"github.com/hcdash/hcdash-backend/pkg/messaging"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
)

// Repository is the fact-table persistence the service needs
type Repository interface {
	List(ctx context.Context, m *domain.Metric, f repository.Filter) ([]*domain.Record, error)
	ListMany(ctx context.Context, metrics []*domain.Metric, f repository.Filter) (map[string][]*domain.Record, error)
	GetByID(ctx context.Context, m *domain.Metric, id string) (*domain.Record, error)
	Upsert(ctx context.Context, rec *domain.Record) error
	UpsertAll(ctx context.Context, records []*domain.Record) error
	Delete(ctx context.Context, m *domain.Metric, id, companyID string) error
	CarryOver(ctx context.Context, m *domain.Metric, companyID string, year, month int) (int64, error)
}

// StatsService handles metric reads and writes with company scoping
type StatsService struct {
	registry  *domain.Registry
	repo      Repository
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(registry *domain.Registry, repo Repository, publisher messaging.EventPublisher, log *logger.Logger) *StatsService {
	return &StatsService{
		registry:  registry,
		repo:      repo,
		publisher: publisher,
		logger:    log,
	}
}

// ListQuery is the filter of GET /api/stats/{metric}
type ListQuery struct {
	Year      int
	Month     int
	Quarter   int
	CompanyID string
	Category  string
}

// Metrics returns every metric definition
func (s *StatsService) Metrics() []*domain.Metric {
	return s.registry.All()
}

// Metric looks up a metric definition by slug
func (s *StatsService) Metric(slug string) (*domain.Metric, error) {
	return s.registry.Lookup(slug)
}

// List returns the scoped records of a metric. Reading an empty month of a
// carry-over metric first fills it from the previous month.
func (s *StatsService) List(ctx context.Context, slug string, q ListQuery) ([]*domain.Record, string, error) {
	m, err := s.registry.Lookup(slug)
	if err != nil {
		return nil, "", err
	}

	companyID, err := tenant.ResolveCompany(ctx, q.CompanyID)
	if err != nil {
		return nil, "", err
	}

	if m.CarryOver && q.Year != 0 && q.Month > 1 {
		s.carryOver(ctx, m, companyID, q.Year, q.Month)
	}

	records, err := s.repo.List(ctx, m, repository.Filter{
		CompanyID: companyID,
		Year:      q.Year,
		Month:     q.Month,
		Quarter:   q.Quarter,
		Category:  q.Category,
	})
	if err != nil {
		return nil, "", err
	}
	return records, companyID, nil
}

// carryOver logs failures and lets the read continue with whatever rows exist
func (s *StatsService) carryOver(ctx context.Context, m *domain.Metric, companyID string, year, month int) {
	copied, err := s.repo.CarryOver(ctx, m, companyID, year, month)
	if err != nil {
		s.logger.Error().Err(err).Str("metric", m.Slug).Str("company_id", companyID).
			Int("year", year).Int("month", month).Msg("carry-over failed")
		return
	}
	if copied == 0 {
		return
	}

	s.logger.Info().Str("metric", m.Slug).Str("company_id", companyID).
		Int("year", year).Int("month", month).Int64("copied", copied).Msg("carried over previous month")
	messaging.Notify(ctx, s.publisher, s.logger, messaging.EventStatsCarriedOver, messaging.CarryOverEvent{
		Metric:    m.Slug,
		CompanyID: companyID,
		Year:      year,
		Month:     month,
		Copied:    copied,
	})
}

// Upsert creates or overwrites the record with the body's natural key
func (s *StatsService) Upsert(ctx context.Context, slug string, body map[string]json.RawMessage) (*domain.Record, error) {
	m, err := s.registry.Lookup(slug)
	if err != nil {
		return nil, err
	}

	rec, requested, details := domain.ParseInput(m, body)
	if details != nil {
		return nil, errors.Validation(details)
	}

	if rec.CompanyID, err = s.writeScope(ctx, requested); err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	s.publishUpsert(ctx, rec)
	return rec, nil
}

// Delete removes one record of a deletable metric
func (s *StatsService) Delete(ctx context.Context, slug, id string) error {
	m, err := s.registry.Lookup(slug)
	if err != nil {
		return err
	}
	if !m.Deletable {
		return errors.New("METHOD_NOT_ALLOWED", "records of this metric cannot be deleted", http.StatusMethodNotAllowed)
	}

	rec, err := s.repo.GetByID(ctx, m, id)
	if err != nil {
		return err
	}
	if err := tenant.AuthorizeCompany(ctx, rec.CompanyID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, m, id, rec.CompanyID); err != nil {
		return err
	}

	messaging.Notify(ctx, s.publisher, s.logger, messaging.EventStatDeleted, statEvent(ctx, rec))
	return nil
}

// writeScope picks the company a write goes to and rejects foreign writes
func (s *StatsService) writeScope(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		if _, err := uuid.Parse(requested); err != nil {
			return "", errors.Validation(map[string]string{"companyId": "must be a valid UUID"})
		}
		if err := tenant.AuthorizeCompany(ctx, requested); err != nil {
			return "", err
		}
	}
	return tenant.ResolveCompany(ctx, requested)
}

func (s *StatsService) publishUpsert(ctx context.Context, rec *domain.Record) {
	messaging.Notify(ctx, s.publisher, s.logger, messaging.EventStatUpserted, statEvent(ctx, rec))
}

func statEvent(ctx context.Context, rec *domain.Record) messaging.StatEvent {
	return messaging.StatEvent{
		Metric:    rec.Metric().Slug,
		RecordID:  rec.ID,
		CompanyID: rec.CompanyID,
		Year:      rec.Year,
		Month:     rec.Month,
		Quarter:   rec.Quarter,
		ActorID:   tenant.UserID(ctx),
	}
}
