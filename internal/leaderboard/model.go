package leaderboard

// DailyScore holds one result per account per calendar day. The composite
// unique index backs the resubmission rule: only a strictly better result
// replaces the stored row.
type DailyScore struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	AccountID  uint   `gorm:"not null;uniqueIndex:idx_daily_account_day" json:"accountId"`
	Day        string `gorm:"not null;uniqueIndex:idx_daily_account_day" json:"day"`
	Score      int    `json:"score"`
	TimeMillis int64  `json:"timeMillis"`
}

type RatingEntry struct {
	AccountID uint `json:"accountId"`
	Rating    int  `json:"rating"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
}
