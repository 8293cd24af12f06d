package services

import (
	"context"
	"fmt"

	"splitledger/internal/core"
	"splitledger/internal/storage"
)

// AggregationService answers the read-side sum queries. It is stateless and
// always reflects the latest committed state; there is no caching layer in
// front of it. Account existence is a precondition the boundary checks before
// calling in, so a sum of zero here simply means "no matching records".
type AggregationService struct {
	store storage.Store
}

func NewAggregationService(store storage.Store) *AggregationService {
	return &AggregationService{store: store}
}

// SumByParticipant returns the cumulative amount recorded by owner against
// one participant name (exact, case-sensitive match).
func (s *AggregationService) SumByParticipant(ctx context.Context, owner, participant string) (core.Money, error) {
	sum, err := s.store.SumShareAmounts(ctx, owner, participant)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum by participant: %w", err)
	}
	return sum, nil
}

// SumByAccount returns the owner's total spend across all expenses.
func (s *AggregationService) SumByAccount(ctx context.Context, owner string) (core.Money, error) {
	sum, err := s.store.SumExpenseTotals(ctx, owner)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum by account: %w", err)
	}
	return sum, nil
}
