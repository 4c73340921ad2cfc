package progress

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSyncService_SyncReplaysAndPersists(t *testing.T) {
	repo := &ProgressRepositoryMock{}
	ratings := &RatingPublisherMock{}
	service := NewSyncService(repo, ratings)

	repo.On("UpdateAtomically", mock.Anything, uint(7)).Return(nil, nil)
	ratings.On("PublishRating", mock.Anything, uint(7), 1000).Return(nil)

	req := &SyncRequest{
		State: *NewAggregate(),
		Pending: []Transaction{
			{ID: "A", Kind: TxEarnCurrency, Currency: CurrencyStardust, Amount: 50, CreatedAt: 1000},
			{ID: "B", Kind: TxSpendCurrency, Currency: CurrencyStardust, Amount: 20, CreatedAt: 1001},
		},
	}

	resp, err := service.Sync(context.Background(), 7, req)
	assert.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, resp.ProcessedTransactionIDs)
	assert.Equal(t, int64(starterStardust+30), resp.State.Currencies.Balances[CurrencyStardust])
	repo.AssertExpectations(t)
	ratings.AssertExpectations(t)
}

func TestSyncService_RetryAfterFailedPersistReappliesEffect(t *testing.T) {
	repo := &ProgressRepositoryMock{}
	ratings := &RatingPublisherMock{}
	service := NewSyncService(repo, ratings)

	// First delivery runs the merge but the commit fails; the rollback must
	// take the consumption mark down with the aggregate write.
	repo.On("UpdateAtomically", mock.Anything, uint(7)).Return(nil, errors.New("commit failed")).Once()
	repo.On("UpdateAtomically", mock.Anything, uint(7)).Return(nil, nil)
	ratings.On("PublishRating", mock.Anything, uint(7), 1000).Return(nil)

	req := &SyncRequest{
		State: *NewAggregate(),
		Pending: []Transaction{
			{ID: "A", Kind: TxEarnCurrency, Currency: CurrencyStardust, Amount: 50, CreatedAt: 1000},
		},
	}

	_, err := service.Sync(context.Background(), 7, req)
	assert.Error(t, err)

	// The client kept its queue (nothing was acked) and retries the same
	// payload; the earn must land this time, not report as a duplicate.
	resp, err := service.Sync(context.Background(), 7, req)
	assert.NoError(t, err)
	assert.Equal(t, []string{"A"}, resp.ProcessedTransactionIDs)
	assert.Equal(t, int64(starterStardust+50), resp.State.Currencies.Balances[CurrencyStardust])
	repo.AssertExpectations(t)
}

func TestSyncService_DuplicateAfterCommitIsNotReapplied(t *testing.T) {
	repo := &ProgressRepositoryMock{}
	ratings := &RatingPublisherMock{}
	service := NewSyncService(repo, ratings)

	repo.On("UpdateAtomically", mock.Anything, uint(7)).Return(nil, nil)
	ratings.On("PublishRating", mock.Anything, uint(7), 1000).Return(nil)

	req := &SyncRequest{
		State: *NewAggregate(),
		Pending: []Transaction{
			{ID: "A", Kind: TxEarnCurrency, Currency: CurrencyStardust, Amount: 50, CreatedAt: 1000},
		},
	}

	// Committed delivery, then the response is lost and the client resends.
	_, err := service.Sync(context.Background(), 7, req)
	assert.NoError(t, err)

	resp, err := service.Sync(context.Background(), 7, req)
	assert.NoError(t, err)
	assert.Equal(t, []string{"A"}, resp.ProcessedTransactionIDs)
	assert.Equal(t, int64(starterStardust+50), resp.State.Currencies.Balances[CurrencyStardust])
}

func TestSyncService_SyncRejectsMalformedPayload(t *testing.T) {
	repo := &ProgressRepositoryMock{}
	service := NewSyncService(repo, &RatingPublisherMock{})

	req := &SyncRequest{
		State:   *NewAggregate(),
		Pending: []Transaction{{ID: "", Kind: TxEarnCurrency, Currency: CurrencyStardust, Amount: 5}},
	}

	_, err := service.Sync(context.Background(), 7, req)
	assert.Error(t, err)
	repo.AssertNotCalled(t, "UpdateAtomically", mock.Anything, mock.Anything)
}

func TestSyncService_SyncSurvivesRatingPublishFailure(t *testing.T) {
	repo := &ProgressRepositoryMock{}
	ratings := &RatingPublisherMock{}
	service := NewSyncService(repo, ratings)

	repo.On("UpdateAtomically", mock.Anything, uint(7)).Return(nil, nil)
	ratings.On("PublishRating", mock.Anything, uint(7), 1000).Return(errors.New("redis down"))

	resp, err := service.Sync(context.Background(), 7, &SyncRequest{State: *NewAggregate()})
	assert.NoError(t, err)
	assert.NotNil(t, resp)
}

func TestSyncService_ResetOverwritesToDefaults(t *testing.T) {
	repo := &ProgressRepositoryMock{
		Current: &Aggregate{
			Skill:      SkillGroup{Rating: 2400, LastUpdated: 999},
			Currencies: CurrencyGroup{Balances: map[CurrencyKind]int64{CurrencyStardust: 9000}},
		},
	}
	ratings := &RatingPublisherMock{}
	service := NewSyncService(repo, ratings)

	repo.On("Overwrite", mock.Anything, uint(7), mock.AnythingOfType("*progress.Aggregate")).Return(nil)
	ratings.On("PublishRating", mock.Anything, uint(7), 1000).Return(nil)

	agg, err := service.Reset(context.Background(), 7)
	assert.NoError(t, err)
	assert.Equal(t, 1000, agg.Skill.Rating)
	assert.Equal(t, int64(starterStardust), agg.Currencies.Balances[CurrencyStardust])
	repo.AssertExpectations(t)
}

func TestSyncService_ResetPropagatesFailure(t *testing.T) {
	repo := &ProgressRepositoryMock{}
	service := NewSyncService(repo, &RatingPublisherMock{})

	repo.On("Overwrite", mock.Anything, uint(7), mock.AnythingOfType("*progress.Aggregate")).Return(errors.New("db down"))

	_, err := service.Reset(context.Background(), 7)
	assert.Error(t, err)
}

func TestDefaultRecordDataRoundTrips(t *testing.T) {
	// The seed row written before the FOR UPDATE lock must decode to the
	// defaulted aggregate a first sync is supposed to start from.
	var agg Aggregate
	assert.NoError(t, json.Unmarshal(defaultRecordData(), &agg))
	assert.Equal(t, *NewAggregate(), agg)
}
