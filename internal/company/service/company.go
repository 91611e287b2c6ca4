package service

import (
	"context"
	"strings"

	"github.com/hcdash/hcdash-backend/internal/company/domain"
	"github.com/hcdash/hcdash-backend/pkg/logger"
	"github.com/hcdash/hcdash-backend/pkg/messaging"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
)

// Repository is the persistence the company service needs
type Repository interface {
	List(ctx context.Context) ([]*domain.Company, error)
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	Create(ctx context.Context, company *domain.Company) error
	Update(ctx context.Context, company *domain.Company) error
	Delete(ctx context.Context, id string) error
}

// CompanyService handles company business logic
type CompanyService struct {
	repo      Repository
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewCompanyService creates a new company service
func NewCompanyService(repo Repository, publisher messaging.EventPublisher, log *logger.Logger) *CompanyService {
	return &CompanyService{
		repo:      repo,
		publisher: publisher,
		logger:    log,
	}
}

// CreateCompanyRequest is the body of POST /api/companies
type CreateCompanyRequest struct {
	Name string  `json:"name" validate:"required,max=200"`
	Code *string `json:"code" validate:"omitempty,max=50"`
}

// UpdateCompanyRequest is the body of PUT /api/companies/{id}
type UpdateCompanyRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=200"`
	Code *string `json:"code" validate:"omitempty,max=50"`
}

// List returns the companies visible to the caller. USER_ANPER only sees its own.
func (s *CompanyService) List(ctx context.Context) ([]*domain.Company, error) {
	session, err := tenant.Require(ctx)
	if err != nil {
		return nil, tenant.ScopeError(err)
	}

	if session.Role == tenant.RoleUserAnper {
		own, err := s.repo.GetByID(ctx, session.CompanyID)
		if err != nil {
			return nil, err
		}
		return []*domain.Company{own}, nil
	}

	return s.repo.List(ctx)
}

// Directory returns a name/code lookup over every company
func (s *CompanyService) Directory(ctx context.Context) (*domain.Directory, error) {
	companies, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewDirectory(companies), nil
}

// GetByID returns one company if the caller may see it
func (s *CompanyService) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	if err := tenant.AuthorizeCompany(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Create creates a company
func (s *CompanyService) Create(ctx context.Context, req *CreateCompanyRequest) (*domain.Company, error) {
	company := &domain.Company{
		Name: strings.TrimSpace(req.Name),
		Code: normalizeCode(req.Code),
	}

	if err := s.repo.Create(ctx, company); err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.EventCompanyCreated, company)
	return company, nil
}

// Update changes name and/or code
func (s *CompanyService) Update(ctx context.Context, id string, req *UpdateCompanyRequest) (*domain.Company, error) {
	company, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		company.Name = strings.TrimSpace(*req.Name)
	}
	if req.Code != nil {
		company.Code = normalizeCode(req.Code)
	}

	if err := s.repo.Update(ctx, company); err != nil {
		return nil, err
	}

	s.publish(ctx, messaging.EventCompanyUpdated, company)
	return company, nil
}

// Delete removes a company that nothing references any more
func (s *CompanyService) Delete(ctx context.Context, id string) error {
	company, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, messaging.EventCompanyDeleted, company)
	return nil
}

func (s *CompanyService) publish(ctx context.Context, eventType string, company *domain.Company) {
	messaging.Notify(ctx, s.publisher, s.logger, eventType, messaging.CompanyEvent{
		CompanyID: company.ID,
		Name:      company.Name,
		ActorID:   tenant.UserID(ctx),
	})
}

// normalizeCode maps blank codes to NULL so the partial unique index ignores them
func normalizeCode(code *string) *string {
	if code == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*code)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
