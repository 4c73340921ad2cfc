package localstate

import (
	"fmt"
	"testing"
	"time"

	"github.com/stargrid/stargrid/internal/progress"
	"github.com/stretchr/testify/assert"
)

func newTestStore() *Store {
	s := NewStore()
	clock := time.UnixMilli(1_700_000_000_000).UTC()
	s.now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("tx-%d", n)
	}
	return s
}

func TestStore_CreditGainAppendsTransaction(t *testing.T) {
	s := newTestStore()
	base := s.Balance(progress.CurrencyStardust)

	s.CreditGain(progress.CurrencyStardust, 50)

	assert.Equal(t, base+50, s.Balance(progress.CurrencyStardust))
	assert.Equal(t, 1, s.PendingCount())
	assert.True(t, s.Dirty())
}

func TestStore_DebitFailsWhenInsolvent(t *testing.T) {
	s := newTestStore()
	base := s.Balance(progress.CurrencyStardust)

	ok := s.Debit(progress.CurrencyStardust, base+1)

	assert.False(t, ok)
	assert.Equal(t, base, s.Balance(progress.CurrencyStardust))
	assert.Equal(t, 0, s.PendingCount())
	assert.False(t, s.Dirty())
}

func TestStore_OfflineEarnThenSpend(t *testing.T) {
	s := newTestStore()
	base := s.Balance(progress.CurrencyStardust)

	s.CreditGain(progress.CurrencyStardust, 50)
	ok := s.Debit(progress.CurrencyStardust, 20)

	assert.True(t, ok)
	assert.Equal(t, base+30, s.Balance(progress.CurrencyStardust))

	_, pending := s.Snapshot()
	assert.Len(t, pending, 2)
	assert.Equal(t, progress.TxEarnCurrency, pending[0].Kind)
	assert.Equal(t, progress.TxSpendCurrency, pending[1].Kind)
}

func TestStore_UnlockCosmeticIsIdempotentLocally(t *testing.T) {
	s := newTestStore()

	s.UnlockCosmetic("hat_red")
	s.UnlockCosmetic("hat_red")

	agg, pending := s.Snapshot()
	assert.Equal(t, []string{"hat_red"}, agg.Cosmetics.Unlocked)
	assert.Len(t, pending, 1)
}

func TestStore_RecordGameResult(t *testing.T) {
	s := newTestStore()

	s.RecordGameResult(true, true, "daily", 95_000)
	s.RecordGameResult(true, false, "daily", 80_000)
	s.RecordGameResult(false, false, "daily", 120_000)

	agg, _ := s.Snapshot()
	assert.Equal(t, 3, agg.Statistics.GamesPlayed)
	assert.Equal(t, 2, agg.Statistics.GamesWon)
	assert.Equal(t, 1, agg.Statistics.FlawlessWins)
	assert.Equal(t, 0, agg.Statistics.CurrentStreak)
	assert.Equal(t, int64(80_000), agg.Statistics.BestTimes["daily"])
	assert.Equal(t, "2023-11-14", agg.Statistics.LastPlayedDate)
}

func TestStore_SnapshotIsolatedFromLaterMutations(t *testing.T) {
	s := newTestStore()

	s.CreditGain(progress.CurrencyStardust, 50)
	agg, pending := s.Snapshot()

	// Mutations while a sync is in flight must not leak into its snapshot.
	s.CreditGain(progress.CurrencyStardust, 25)
	s.UnlockCosmetic("hat_red")

	assert.Equal(t, int64(150), agg.Currencies.Balances[progress.CurrencyStardust])
	assert.Len(t, pending, 1)
	assert.Equal(t, 3, s.PendingCount())
}

func TestStore_ApplyServerDrainsAckedAndAdoptsBalance(t *testing.T) {
	s := newTestStore()
	s.CreditGain(progress.CurrencyStardust, 50)
	sent, _ := s.Snapshot()

	server := progress.NewAggregate()
	server.Currencies.Balances[progress.CurrencyStardust] = 150
	server.Currencies.LastUpdated = sent.Currencies.LastUpdated

	s.ApplyServer(&progress.SyncResponse{
		State:                   *server,
		ProcessedTransactionIDs: []string{"tx-1"},
	})

	assert.Equal(t, int64(150), s.Balance(progress.CurrencyStardust))
	assert.Equal(t, 0, s.PendingCount())
	assert.False(t, s.Dirty())
}

func TestStore_ApplyServerKeepsUnackedAndInFlightUnlocks(t *testing.T) {
	s := newTestStore()
	s.CreditGain(progress.CurrencyStardust, 50)
	s.Snapshot()

	// These happened after the snapshot went out.
	s.Debit(progress.CurrencyStardust, 10)
	s.UnlockCosmetic("hat_blue")

	server := progress.NewAggregate()
	server.Currencies.Balances[progress.CurrencyStardust] = 150
	server.Cosmetics.Unlocked = []string{"hat_red"}

	s.ApplyServer(&progress.SyncResponse{
		State:                   *server,
		ProcessedTransactionIDs: []string{"tx-1"},
	})

	// The unacked spend and unlock stay queued for the next cycle, and the
	// optimistic unlock is still visible locally.
	assert.Equal(t, 2, s.PendingCount())
	assert.True(t, s.Dirty())
	agg, _ := s.Snapshot()
	assert.ElementsMatch(t, []string{"hat_red", "hat_blue"}, agg.Cosmetics.Unlocked)
}

func TestStore_ApplyServerRespectsNewerLocalGroups(t *testing.T) {
	s := newTestStore()
	s.SetSkillRating(1200)
	sent, _ := s.Snapshot()

	// A stale server response must not clobber a group the server decided
	// the client had won.
	server := progress.NewAggregate()
	server.Skill = progress.SkillGroup{Rating: 900, LastUpdated: sent.Skill.LastUpdated - 10}

	s.ApplyServer(&progress.SyncResponse{State: *server})

	agg, _ := s.Snapshot()
	assert.Equal(t, 1200, agg.Skill.Rating)
}

func TestStore_ApplyServerKeepsGroupsMutatedInFlight(t *testing.T) {
	s := newTestStore()
	s.SetSkillRating(1100)
	sent, _ := s.Snapshot()

	// Changed while the request was on the wire; newer than anything the
	// server could have merged from this snapshot.
	s.SetSkillRating(1300)

	server := progress.NewAggregate()
	server.Skill = progress.SkillGroup{Rating: 1100, LastUpdated: sent.Skill.LastUpdated}

	s.ApplyServer(&progress.SyncResponse{State: *server})

	agg, _ := s.Snapshot()
	assert.Equal(t, 1300, agg.Skill.Rating)
	assert.True(t, s.Dirty(), "in-flight rating change still needs its own sync")
}

func TestStore_ApplyServerStaysDirtyAfterInFlightTreeUnion(t *testing.T) {
	s := newTestStore()
	s.SetSkillRating(1100)
	s.Snapshot()

	// A tree union queues no transaction, so only the mutation counter can
	// tell the store it still has unsent state.
	s.UnionTree([]string{"node-7"}, []string{"m-7"})

	server := progress.NewAggregate()
	s.ApplyServer(&progress.SyncResponse{State: *server})

	assert.True(t, s.Dirty())
	agg, _ := s.Snapshot()
	assert.Contains(t, agg.UnlockTree.Nodes, "node-7")
}

func TestStore_Reset(t *testing.T) {
	s := newTestStore()
	s.CreditGain(progress.CurrencyStardust, 50)
	s.UnlockCosmetic("hat_red")

	s.Reset()

	assert.Equal(t, 0, s.PendingCount())
	assert.False(t, s.Dirty())
	agg, _ := s.Snapshot()
	assert.Empty(t, agg.Cosmetics.Unlocked)
}
