package coa

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting"
	"github.com/groundwork-erp/groundwork-erp/internal/shared"
)

// Service is the chart of accounts registry. Adapters resolve every account
// they touch through GetOrCreate, so postings never fail on missing CoA setup.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs the registry.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// GetOrCreate resolves an account by code, falling back to the sub/list
// account leaf index (which yields the parent account), and finally lazily
// creating a top-level account with the supplied name and category.
func (s *Service) GetOrCreate(ctx context.Context, tenantID uuid.UUID, code, name string, accountType accounting.AccountType) (*Account, error) {
	account, err := s.repo.GetByCode(ctx, tenantID, code)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	parent, err := s.repo.FindParentByLeafCode(ctx, tenantID, code)
	if err == nil {
		return parent, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	created, err := s.repo.Insert(ctx, Account{
		TenantID:  tenantID,
		Code:      code,
		Name:      name,
		Type:      accountType,
		Component: accountType.FinancialComponent(),
	})
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("account created lazily",
			slog.String("tenant", tenantID.String()),
			slog.String("code", code),
			slog.String("type", string(accountType)))
	}
	return created, nil
}

// AddChild registers a sub-account or list-account under an existing parent.
// Child rows have no ledger identity; they extend the leaf-code index.
func (s *Service) AddChild(ctx context.Context, tenantID uuid.UUID, parentCode, code, name string, kind ChildKind) (*Account, error) {
	parent, err := s.repo.GetByCode(ctx, tenantID, parentCode)
	if err != nil {
		return nil, err
	}
	return s.repo.InsertChild(ctx, parent.ID, Account{
		TenantID:  tenantID,
		Code:      code,
		Name:      name,
		Type:      parent.Type,
		Component: parent.Component,
		ChildKind: &kind,
	})
}

// List returns every account for the tenant ordered by code.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]Account, error) {
	return s.repo.List(ctx, tenantID)
}
