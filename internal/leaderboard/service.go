package leaderboard

import (
	"context"
	"log"
	"time"

	"github.com/stargrid/stargrid/internal/apperrors"
)

// UsernameResolver maps account ids to display names for the read path.
type UsernameResolver interface {
	GetUsername(id uint) (string, error)
}

type LeaderboardService struct {
	ratings RatingRepository
	daily   DailyScoreRepository
	users   UsernameResolver
}

func NewLeaderboardService(ratings RatingRepository, daily DailyScoreRepository, users UsernameResolver) *LeaderboardService {
	return &LeaderboardService{ratings: ratings, daily: daily, users: users}
}

const maxTopSize = 100

// Top returns the highest-rated accounts with usernames resolved. Accounts
// whose user row has vanished are skipped rather than failing the page.
func (s *LeaderboardService) Top(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	if n <= 0 || n > maxTopSize {
		n = maxTopSize
	}
	ratings, err := s.ratings.Top(ctx, n)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(ratings))
	for _, r := range ratings {
		username, err := s.users.GetUsername(r.AccountID)
		if err != nil {
			log.Println("Error resolving username for leaderboard:", err)
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Rank:     len(entries) + 1,
			Username: username,
			Rating:   r.Rating,
		})
	}
	return entries, nil
}

// SubmitDaily stores a day's result. A worse resubmission is rejected
// without error; the return value reports whether the row was stored.
func (s *LeaderboardService) SubmitDaily(ctx context.Context, accountID uint, day string, score int, timeMillis int64) (bool, error) {
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return false, apperrors.NewAppError(400, "day must be formatted YYYY-MM-DD", err)
	}
	if score < 0 || timeMillis < 0 {
		return false, apperrors.NewAppError(400, "score and time must be non-negative", nil)
	}

	return s.daily.SubmitIfBetter(ctx, &DailyScore{
		AccountID:  accountID,
		Day:        day,
		Score:      score,
		TimeMillis: timeMillis,
	})
}

func (s *LeaderboardService) GetDaily(ctx context.Context, accountID uint, day string) (*DailyScore, error) {
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return nil, apperrors.NewAppError(400, "day must be formatted YYYY-MM-DD", err)
	}
	return s.daily.Get(ctx, accountID, day)
}
