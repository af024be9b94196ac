package usecase

import (
	"context"
	"fmt"
	"time"

	"AlphaPull/internal/domain/models"
	domrepo "AlphaPull/internal/domain/repository"
)

// InsightQueryUseCase provides business logic for retrieving insights.
type InsightQueryUseCase struct {
	store domrepo.InsightStore
}

func NewInsightQueryUseCase(store domrepo.InsightStore) *InsightQueryUseCase {
	return &InsightQueryUseCase{store: store}
}

type ListInsightsParams struct {
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}

type ListInsightsResult struct {
	Symbol   string
	From     time.Time
	To       time.Time
	Count    int
	Insights []*models.Insight
}

func (uc *InsightQueryUseCase) List(ctx context.Context, p ListInsightsParams) (*ListInsightsResult, error) {
	if p.From.After(p.To) {
		return nil, fmt.Errorf("%w: from must be <= to", models.ErrInvalidArgument)
	}
	if p.Limit <= 0 {
		p.Limit = 1000
	}
	if p.Limit > 10000 {
		p.Limit = 10000
	}

	insights, err := uc.store.Query(ctx, p.Symbol, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}

	return &ListInsightsResult{
		Symbol:   p.Symbol,
		From:     p.From,
		To:       p.To,
		Count:    len(insights),
		Insights: insights,
	}, nil
}

type ActiveInsightsParams struct {
	At     time.Time // zero means now
	Symbol string
	Limit  int
}

// Active returns insights whose validity window contains the instant.
func (uc *InsightQueryUseCase) Active(ctx context.Context, p ActiveInsightsParams) ([]*models.Insight, error) {
	at := p.At
	if at.IsZero() {
		at = time.Now()
	}
	if p.Limit <= 0 {
		p.Limit = 1000
	}
	if p.Limit > 10000 {
		p.Limit = 10000
	}
	insights, err := uc.store.ActiveAt(ctx, at.UTC(), p.Symbol, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("active insights: %w", err)
	}
	return insights, nil
}

func (uc *InsightQueryUseCase) Get(ctx context.Context, id string) (*models.Insight, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: insight id required", models.ErrInvalidArgument)
	}
	return uc.store.Get(ctx, id)
}

// ByGroup returns all members of a group, oldest first.
func (uc *InsightQueryUseCase) ByGroup(ctx context.Context, groupID string) ([]*models.Insight, error) {
	if groupID == "" {
		return nil, fmt.Errorf("%w: group id required", models.ErrInvalidArgument)
	}
	insights, err := uc.store.ByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(insights) == 0 {
		return nil, fmt.Errorf("%w: group %s", models.ErrNotFound, groupID)
	}
	return insights, nil
}
