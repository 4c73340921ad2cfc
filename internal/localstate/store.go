// Package localstate holds the device's best-known view of player progress.
// Mutations are synchronous and optimistic so gameplay never waits on the
// network; financially significant ones also append to the pending
// transaction queue, which only the server's acknowledgement drains.
package localstate

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stargrid/stargrid/internal/progress"
)

type Store struct {
	mu      sync.Mutex
	agg     *progress.Aggregate
	pending []progress.Transaction
	dirty   bool

	// gen counts local mutations; snapGen is its value at the last Snapshot.
	// They diverge exactly when something changed after the in-flight request
	// was built, which means the device still has unsent state.
	gen     uint64
	snapGen uint64

	now   func() time.Time
	newID func() string
}

func NewStore() *Store {
	return &Store{
		agg:   progress.NewAggregate(),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// markMutated is called with the lock held by every local mutation.
func (s *Store) markMutated() {
	s.gen++
	s.dirty = true
}

// CreditGain increases a balance immediately and queues the earn for the
// server's ledger. Never fails.
func (s *Store) CreditGain(kind progress.CurrencyKind, amount int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.nowMillis()
	s.agg.Currencies.Balances[kind] += amount
	s.agg.Currencies.LastUpdated = ts
	s.pending = append(s.pending, progress.Transaction{
		ID:        s.newID(),
		Kind:      progress.TxEarnCurrency,
		Currency:  kind,
		Amount:    amount,
		CreatedAt: ts,
	})
	s.markMutated()
}

// Debit checks solvency against the local balance only; the server replays
// the effect as history, it does not re-authorize it. Returns false and
// changes nothing when the balance can't cover the amount.
func (s *Store) Debit(kind progress.CurrencyKind, amount int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount > s.agg.Currencies.Balances[kind] {
		return false
	}
	ts := s.nowMillis()
	s.agg.Currencies.Balances[kind] -= amount
	s.agg.Currencies.LastUpdated = ts
	s.pending = append(s.pending, progress.Transaction{
		ID:        s.newID(),
		Kind:      progress.TxSpendCurrency,
		Currency:  kind,
		Amount:    amount,
		CreatedAt: ts,
	})
	s.markMutated()
	return true
}

func (s *Store) UnlockCosmetic(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, unlocked := range s.agg.Cosmetics.Unlocked {
		if unlocked == id {
			return
		}
	}
	ts := s.nowMillis()
	s.agg.Cosmetics.Unlocked = append(s.agg.Cosmetics.Unlocked, id)
	s.agg.Cosmetics.LastUpdated = ts
	s.pending = append(s.pending, progress.Transaction{
		ID:         s.newID(),
		Kind:       progress.TxUnlockCosmetic,
		CosmeticID: id,
		CreatedAt:  ts,
	})
	s.markMutated()
}

func (s *Store) SetSkillRating(rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.agg.Skill = progress.SkillGroup{Rating: rating, LastUpdated: s.nowMillis()}
	s.markMutated()
}

func (s *Store) AddExperience(xp int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.agg.Experience.XP += xp
	s.agg.Experience.LastUpdated = s.nowMillis()
	s.markMutated()
}

// RecordGameResult folds a finished game into the statistics group.
func (s *Store) RecordGameResult(won, flawless bool, mode string, elapsedMillis int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &s.agg.Statistics
	st.GamesPlayed++
	if won {
		st.GamesWon++
		st.CurrentStreak++
		if flawless {
			st.FlawlessWins++
		}
		best, ok := st.BestTimes[mode]
		if !ok || elapsedMillis < best {
			st.BestTimes[mode] = elapsedMillis
		}
	} else {
		st.CurrentStreak = 0
	}
	st.LastPlayedDate = s.now().Format("2006-01-02")
	st.LastUpdated = s.nowMillis()
	s.markMutated()
}

func (s *Store) PutSetting(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.agg.Settings.Values[key] = value
	s.agg.Settings.LastUpdated = s.nowMillis()
	s.markMutated()
}

func (s *Store) UnionTree(nodes, markers []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.agg.UnlockTree.Nodes = unionAppend(s.agg.UnlockTree.Nodes, nodes)
	s.agg.UnlockTree.History = unionAppend(s.agg.UnlockTree.History, markers)
	s.markMutated()
}

func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Store) Balance(kind progress.CurrencyKind) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agg.Currencies.Balances[kind]
}

func (s *Store) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Snapshot deep-copies the aggregate and the full pending queue for one sync
// call. The queue, not a delta, is the source of truth for unacknowledged
// effects; an in-flight request is isolated from later mutations.
func (s *Store) Snapshot() (progress.Aggregate, []progress.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := make([]progress.Transaction, len(s.pending))
	copy(queue, s.pending)
	s.snapGen = s.gen
	return *s.agg.Clone(), queue
}

// ApplyServer reconciles a successful sync response. A group is adopted when
// the server's timestamp reached at least the device's CURRENT one. Comparing
// against the live state rather than the snapshot that was sent matters: a
// rating set while the request was in flight is newer than anything the
// server merged and must survive until its own sync carries it up.
// Currencies are always overwritten: the local balance was provisional and
// any unacknowledged earn or spend stays queued for replay.
// Union groups merge in rather than overwrite so an unlock made while the
// request was in flight doesn't vanish until its own sync.
func (s *Store) ApplyServer(resp *progress.SyncResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := resp.State
	if state.Skill.LastUpdated >= s.agg.Skill.LastUpdated {
		s.agg.Skill = state.Skill
	}
	if state.Experience.LastUpdated >= s.agg.Experience.LastUpdated {
		s.agg.Experience = state.Experience
	}
	if state.Statistics.LastUpdated >= s.agg.Statistics.LastUpdated {
		s.agg.Statistics = state.Statistics
	}
	if state.Settings.LastUpdated >= s.agg.Settings.LastUpdated {
		s.agg.Settings = state.Settings
	}

	s.agg.Currencies = state.Currencies

	s.agg.Cosmetics.Unlocked = unionAppend(state.Cosmetics.Unlocked, s.agg.Cosmetics.Unlocked)
	if state.Cosmetics.LastUpdated > s.agg.Cosmetics.LastUpdated {
		s.agg.Cosmetics.LastUpdated = state.Cosmetics.LastUpdated
	}
	s.agg.UnlockTree.Nodes = unionAppend(state.UnlockTree.Nodes, s.agg.UnlockTree.Nodes)
	s.agg.UnlockTree.History = unionAppend(state.UnlockTree.History, s.agg.UnlockTree.History)

	acked := make(map[string]bool, len(resp.ProcessedTransactionIDs))
	for _, id := range resp.ProcessedTransactionIDs {
		acked[id] = true
	}
	remaining := s.pending[:0]
	for _, tx := range s.pending {
		if !acked[tx.ID] {
			remaining = append(remaining, tx)
		}
	}
	s.pending = remaining
	// Still dirty if anything stayed queued or mutated after the snapshot;
	// the next trigger pushes it up.
	s.dirty = len(s.pending) > 0 || s.gen != s.snapGen
}

// Reset clears the device back to a fresh aggregate and empties the queue.
// Called only after the server confirmed its own reset.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.agg = progress.NewAggregate()
	s.pending = nil
	s.dirty = false
	s.snapGen = s.gen
}

func unionAppend(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, v := range base {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range extra {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
