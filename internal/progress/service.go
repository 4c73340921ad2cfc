package progress

import (
	"context"
	"log"

	"github.com/stargrid/stargrid/internal/apperrors"
)

// RatingPublisher receives the authoritative skill rating after each merge.
type RatingPublisher interface {
	PublishRating(ctx context.Context, accountID uint, rating int) error
}

type SyncService struct {
	repo    ProgressRepository
	ratings RatingPublisher
}

func NewSyncService(repo ProgressRepository, ratings RatingPublisher) *SyncService {
	return &SyncService{repo: repo, ratings: ratings}
}

// Sync replays the client's pending transactions against the authoritative
// aggregate, resolves the remaining field groups and persists the result in
// one atomic update. Consumption marks commit or roll back together with
// the aggregate, so a failed persist leaves every effect replayable on the
// client's retry. The response lists every processed id, duplicates
// included, so the client can drop them all from its queue.
func (s *SyncService) Sync(ctx context.Context, accountID uint, req *SyncRequest) (*SyncResponse, error) {
	if err := ValidateSyncRequest(req); err != nil {
		return nil, apperrors.NewAppError(400, err.Error(), err)
	}

	var processed []string
	merged, err := s.repo.UpdateAtomically(ctx, accountID, func(current *Aggregate, consume ConsumeFunc) (*Aggregate, error) {
		m, ids, err := Merge(current, &req.State, req.Pending, consume)
		if err != nil {
			return nil, err
		}
		processed = ids
		return m, nil
	})
	if err != nil {
		return nil, err
	}

	s.publishRating(ctx, accountID, merged.Skill.Rating)

	return &SyncResponse{State: *merged, ProcessedTransactionIDs: processed}, nil
}

// Reset overwrites every field group with its default in a single atomic
// write. The consumed-id history is deliberately left intact: clearing it
// would let a stale device's still-queued old transactions re-credit the
// fresh account.
func (s *SyncService) Reset(ctx context.Context, accountID uint) (*Aggregate, error) {
	agg := NewAggregate()
	if err := s.repo.Overwrite(ctx, accountID, agg); err != nil {
		return nil, err
	}
	s.publishRating(ctx, accountID, agg.Skill.Rating)
	return agg, nil
}

func (s *SyncService) publishRating(ctx context.Context, accountID uint, rating int) {
	// Leaderboard staleness self-heals on the next sync; never fail the call.
	if err := s.ratings.PublishRating(ctx, accountID, rating); err != nil {
		log.Println("Error publishing rating:", err)
	}
}
