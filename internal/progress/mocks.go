package progress

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type ProgressRepositoryMock struct {
	mock.Mock
	// Current stands in for the stored row and Consumed for the
	// consumed_transactions table. UpdateAtomically runs fn against them the
	// way the locked transaction does: consumption marks are staged and only
	// kept when the commit succeeds, so a configured commit error discards
	// both the aggregate write and the marks.
	Current  *Aggregate
	Consumed map[string]bool
}

func (m *ProgressRepositoryMock) UpdateAtomically(ctx context.Context, accountID uint, fn func(current *Aggregate, consume ConsumeFunc) (*Aggregate, error)) (*Aggregate, error) {
	args := m.Called(ctx, accountID)
	if m.Consumed == nil {
		m.Consumed = make(map[string]bool)
	}

	staged := make(map[string]bool)
	consume := func(id string) (bool, error) {
		if m.Consumed[id] || staged[id] {
			return false, nil
		}
		staged[id] = true
		return true, nil
	}

	current := m.Current
	if current == nil {
		current = NewAggregate()
	}
	updated, err := fn(current, consume)
	if err != nil {
		return nil, err
	}
	if args.Error(1) != nil {
		// Simulated commit failure: roll back, keeping nothing.
		return nil, args.Error(1)
	}

	for id := range staged {
		m.Consumed[id] = true
	}
	m.Current = updated
	return updated, nil
}

func (m *ProgressRepositoryMock) Overwrite(ctx context.Context, accountID uint, agg *Aggregate) error {
	args := m.Called(ctx, accountID, agg)
	if args.Error(0) == nil {
		m.Current = agg
	}
	return args.Error(0)
}

type RatingPublisherMock struct {
	mock.Mock
}

func (m *RatingPublisherMock) PublishRating(ctx context.Context, accountID uint, rating int) error {
	args := m.Called(ctx, accountID, rating)
	return args.Error(0)
}
