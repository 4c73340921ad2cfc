package leaderboard

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/stargrid/stargrid/internal/apperrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ratingKey = "leaderboard:rating"

type RatingRepository interface {
	PublishRating(ctx context.Context, accountID uint, rating int) error
	Top(ctx context.Context, n int) ([]RatingEntry, error)
}

type RedisRatingRepository struct {
	db *redis.Client
}

func NewRedisRatingRepository(db *redis.Client) *RedisRatingRepository {
	return &RedisRatingRepository{db: db}
}

func (r *RedisRatingRepository) PublishRating(ctx context.Context, accountID uint, rating int) error {
	member := strconv.FormatUint(uint64(accountID), 10)
	if err := r.db.ZAdd(ctx, ratingKey, redis.Z{Score: float64(rating), Member: member}).Err(); err != nil {
		return apperrors.NewAppError(500, "Error publishing rating", err)
	}
	return nil
}

func (r *RedisRatingRepository) Top(ctx context.Context, n int) ([]RatingEntry, error) {
	members, err := r.db.ZRevRangeWithScores(ctx, ratingKey, 0, int64(n)-1).Result()
	if err != nil {
		return nil, apperrors.NewAppError(500, "Error reading leaderboard", err)
	}

	entries := make([]RatingEntry, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m.Member.(string), 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, RatingEntry{AccountID: uint(id), Rating: int(m.Score)})
	}
	return entries, nil
}

type DailyScoreRepository interface {
	Get(ctx context.Context, accountID uint, day string) (*DailyScore, error)
	SubmitIfBetter(ctx context.Context, score *DailyScore) (bool, error)
}

type GormDailyScoreRepository struct {
	db *gorm.DB
}

func NewGormDailyScoreRepository(db *gorm.DB) *GormDailyScoreRepository {
	return &GormDailyScoreRepository{db: db}
}

func (r *GormDailyScoreRepository) Get(ctx context.Context, accountID uint, day string) (*DailyScore, error) {
	var score DailyScore
	result := r.db.WithContext(ctx).
		Where("account_id = ? AND day = ?", accountID, day).First(&score)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, apperrors.NewAppError(500, "Error loading daily score", result.Error)
	}
	return &score, nil
}

// SubmitIfBetter inserts the score, or replaces the stored row only when the
// new result is strictly better: higher score, or equal score in less time.
// The conditional update runs in one statement so racing submissions can't
// both win.
func (r *GormDailyScoreRepository) SubmitIfBetter(ctx context.Context, score *DailyScore) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "time_millis"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "excluded.score > daily_scores.score OR (excluded.score = daily_scores.score AND excluded.time_millis < daily_scores.time_millis)"},
		}},
	}).Create(score)
	if result.Error != nil {
		return false, apperrors.NewAppError(500, "Error saving daily score", result.Error)
	}
	return result.RowsAffected > 0, nil
}
