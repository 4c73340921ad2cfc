package progress

type CurrencyKind string

const (
	CurrencyStardust CurrencyKind = "STARDUST"
	CurrencyTokens   CurrencyKind = "TOKENS"
)

type TransactionKind string

const (
	TxEarnCurrency   TransactionKind = "EARN_CURRENCY"
	TxSpendCurrency  TransactionKind = "SPEND_CURRENCY"
	TxUnlockCosmetic TransactionKind = "UNLOCK_COSMETIC"
)

// Transaction is an idempotent effect record. The server applies each id at
// most once, no matter how many times a flaky client retransmits it.
type Transaction struct {
	ID         string          `json:"id"`
	Kind       TransactionKind `json:"kind"`
	Currency   CurrencyKind    `json:"currency,omitempty"`
	Amount     int64           `json:"amount,omitempty"`
	CosmeticID string          `json:"cosmeticId,omitempty"`
	CreatedAt  int64           `json:"createdAt"`
}

type SkillGroup struct {
	Rating      int   `json:"rating"`
	LastUpdated int64 `json:"lastUpdated"`
}

type ExperienceGroup struct {
	XP          int64 `json:"xp"`
	LastUpdated int64 `json:"lastUpdated"`
}

type CurrencyGroup struct {
	Balances    map[CurrencyKind]int64 `json:"balances"`
	LastUpdated int64                  `json:"lastUpdated"`
}

type CosmeticsGroup struct {
	Unlocked    []string `json:"unlocked"`
	LastUpdated int64    `json:"lastUpdated"`
}

type StatisticsGroup struct {
	GamesPlayed    int              `json:"gamesPlayed"`
	GamesWon       int              `json:"gamesWon"`
	FlawlessWins   int              `json:"flawlessWins"`
	CurrentStreak  int              `json:"currentStreak"`
	LastPlayedDate string           `json:"lastPlayedDate"`
	BestTimes      map[string]int64 `json:"bestTimes"`
	LastUpdated    int64            `json:"lastUpdated"`
}

type SettingsGroup struct {
	Values      map[string]string `json:"values"`
	LastUpdated int64             `json:"lastUpdated"`
}

// UnlockTreeGroup has no timestamp: both collections merge by union, and
// History is capped FIFO after the union.
type UnlockTreeGroup struct {
	Nodes   []string `json:"nodes"`
	History []string `json:"history"`
}

// Aggregate is the full player progress document. Each field group carries
// its own conflict-resolution timestamp in epoch milliseconds.
type Aggregate struct {
	Skill      SkillGroup      `json:"skill"`
	Experience ExperienceGroup `json:"experience"`
	Currencies CurrencyGroup   `json:"currencies"`
	Cosmetics  CosmeticsGroup  `json:"cosmetics"`
	Statistics StatisticsGroup `json:"statistics"`
	Settings   SettingsGroup   `json:"settings"`
	UnlockTree UnlockTreeGroup `json:"unlockTree"`
}

const starterStardust = 100

// NewAggregate returns the defaulted progress document for a fresh account.
func NewAggregate() *Aggregate {
	return &Aggregate{
		Skill: SkillGroup{Rating: 1000},
		Currencies: CurrencyGroup{
			Balances: map[CurrencyKind]int64{CurrencyStardust: starterStardust},
		},
		Cosmetics: CosmeticsGroup{Unlocked: []string{}},
		Statistics: StatisticsGroup{
			BestTimes: map[string]int64{},
		},
		Settings:   SettingsGroup{Values: map[string]string{}},
		UnlockTree: UnlockTreeGroup{Nodes: []string{}, History: []string{}},
	}
}

func (a *Aggregate) Clone() *Aggregate {
	clone := *a
	clone.Currencies.Balances = copyBalances(a.Currencies.Balances)
	clone.Cosmetics.Unlocked = copyStrings(a.Cosmetics.Unlocked)
	clone.Statistics.BestTimes = copyTimes(a.Statistics.BestTimes)
	clone.Settings.Values = copyValues(a.Settings.Values)
	clone.UnlockTree.Nodes = copyStrings(a.UnlockTree.Nodes)
	clone.UnlockTree.History = copyStrings(a.UnlockTree.History)
	return &clone
}

func copyBalances(src map[CurrencyKind]int64) map[CurrencyKind]int64 {
	dst := make(map[CurrencyKind]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyTimes(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyValues(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyStrings(src []string) []string {
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}

type SyncRequest struct {
	ClientID string        `json:"clientId"`
	State    Aggregate     `json:"state"`
	Pending  []Transaction `json:"pending"`
}

type SyncResponse struct {
	State                   Aggregate `json:"state"`
	ProcessedTransactionIDs []string  `json:"processedTransactionIds"`
}
