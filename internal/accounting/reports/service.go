package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/groundwork-erp/groundwork-erp/internal/accounting/ledger"
)

// ActivitySource supplies aggregated ACTIVE-row activity per account.
type ActivitySource interface {
	ActivityByAccount(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) ([]ledger.AccountActivity, error)
}

// Service derives financial statements from the ledger. Statements are
// cached per tenant behind the versioned cache; concurrent builds for the
// same key collapse through singleflight.
type Service struct {
	source ActivitySource
	cache  *ledger.Cache
	group  singleflight.Group
}

// NewService constructs the statement service. cache may be nil, in which
// case every call rebuilds from the store.
func NewService(source ActivitySource, cache *ledger.Cache) *Service {
	return &Service{source: source, cache: cache}
}

// TrialBalance groups ACTIVE rows dated on or before asOf by account.
func (s *Service) TrialBalance(ctx context.Context, tenantID uuid.UUID, asOf *time.Time) (TrialBalance, error) {
	var out TrialBalance
	err := s.fetch(ctx, tenantID, "tb:"+dateKey(asOf), &out, func(ctx context.Context) (any, error) {
		activity, err := s.source.ActivityByAccount(ctx, tenantID, nil, asOf)
		if err != nil {
			return nil, err
		}
		return BuildTrialBalance(activity), nil
	})
	return out, err
}

// BalanceSheet reports Asset, Liability and Equity positions as of a date.
func (s *Service) BalanceSheet(ctx context.Context, tenantID uuid.UUID, asOf *time.Time) (BalanceSheet, error) {
	var out BalanceSheet
	err := s.fetch(ctx, tenantID, "bs:"+dateKey(asOf), &out, func(ctx context.Context) (any, error) {
		activity, err := s.source.ActivityByAccount(ctx, tenantID, nil, asOf)
		if err != nil {
			return nil, err
		}
		return BuildBalanceSheet(activity), nil
	})
	return out, err
}

// ProfitAndLoss reports Revenue and Expense movement within a date range.
func (s *Service) ProfitAndLoss(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (ProfitAndLoss, error) {
	var out ProfitAndLoss
	err := s.fetch(ctx, tenantID, "pl:"+dateKey(from)+":"+dateKey(to), &out, func(ctx context.Context) (any, error) {
		activity, err := s.source.ActivityByAccount(ctx, tenantID, from, to)
		if err != nil {
			return nil, err
		}
		return BuildProfitAndLoss(activity), nil
	})
	return out, err
}

func (s *Service) fetch(ctx context.Context, tenantID uuid.UUID, suffix string, dest any, loader func(context.Context) (any, error)) error {
	key, err := s.cache.BuildKey(ctx, tenantID, suffix)
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, key, dest, func(ctx context.Context) (any, error) {
		value, err, _ := s.group.Do(key, func() (any, error) {
			return loader(ctx)
		})
		return value, err
	})
}

func dateKey(t *time.Time) string {
	if t == nil {
		return "all"
	}
	return t.Format("2006-01-02")
}
