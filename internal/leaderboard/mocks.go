package leaderboard

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type RatingRepositoryMock struct {
	mock.Mock
}

func (m *RatingRepositoryMock) PublishRating(ctx context.Context, accountID uint, rating int) error {
	args := m.Called(ctx, accountID, rating)
	return args.Error(0)
}

func (m *RatingRepositoryMock) Top(ctx context.Context, n int) ([]RatingEntry, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]RatingEntry), args.Error(1)
}

type DailyScoreRepositoryMock struct {
	mock.Mock
}

func (m *DailyScoreRepositoryMock) Get(ctx context.Context, accountID uint, day string) (*DailyScore, error) {
	args := m.Called(ctx, accountID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DailyScore), args.Error(1)
}

func (m *DailyScoreRepositoryMock) SubmitIfBetter(ctx context.Context, score *DailyScore) (bool, error) {
	args := m.Called(ctx, score)
	return args.Bool(0), args.Error(1)
}

type UsernameResolverMock struct {
	mock.Mock
}

func (m *UsernameResolverMock) GetUsername(id uint) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}
