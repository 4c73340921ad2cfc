package progress

import (
	"errors"
	"fmt"
)

// HistoryCap bounds the unlock-tree history after a union. Eviction is FIFO
// by insertion order, so only age decides what falls off.
const HistoryCap = 500

// ConsumeFunc marks a transaction id consumed and reports whether this call
// was the first consumption. It must be atomic per id.
type ConsumeFunc func(id string) (bool, error)

// Merge combines the server's authoritative aggregate with a client snapshot
// and its pending transaction queue.
//
// Balances are never merged by comparing two raw numbers: concurrent earns
// and spends from another device would be lost. They are merged by replaying
// transaction effects, which is commutative and idempotent regardless of
// delivery order or duplication. Groups with a single timestamp resolve by
// last-writer-wins at group granularity, ties favoring the already-persisted
// server copy. Union groups never lose entries, modulo the history cap.
//
// The returned id list contains every pending id, duplicates included, so the
// client can drop all of them from its queue whether this was the first or a
// repeated delivery.
func Merge(server, client *Aggregate, pending []Transaction, consume ConsumeFunc) (*Aggregate, []string, error) {
	merged := server.Clone()

	processed := make([]string, 0, len(pending))
	for _, tx := range pending {
		first, err := consume(tx.ID)
		if err != nil {
			return nil, nil, err
		}
		processed = append(processed, tx.ID)
		if !first {
			continue
		}
		applyTransaction(merged, tx)
	}

	// Last-writer-wins per group. The client must send coherent whole-group
	// snapshots, so a win adopts the group wholesale.
	if client.Skill.LastUpdated > merged.Skill.LastUpdated {
		merged.Skill = client.Skill
	}
	if client.Experience.LastUpdated > merged.Experience.LastUpdated {
		merged.Experience = client.Experience
	}
	if client.Statistics.LastUpdated > merged.Statistics.LastUpdated {
		merged.Statistics = client.Statistics
		merged.Statistics.BestTimes = copyTimes(client.Statistics.BestTimes)
	}
	if client.Settings.LastUpdated > merged.Settings.LastUpdated {
		merged.Settings = client.Settings
		merged.Settings.Values = copyValues(client.Settings.Values)
	}

	// Currency balances only ever change through replay above; the group
	// timestamp still follows the usual bookkeeping.
	if client.Currencies.LastUpdated > merged.Currencies.LastUpdated {
		merged.Currencies.LastUpdated = client.Currencies.LastUpdated
	}

	// Union groups. Cosmetics union is the structural fallback for sets that
	// arrive without a transaction stream (e.g. migrated accounts).
	merged.Cosmetics.Unlocked = unionOrdered(merged.Cosmetics.Unlocked, client.Cosmetics.Unlocked)
	if client.Cosmetics.LastUpdated > merged.Cosmetics.LastUpdated {
		merged.Cosmetics.LastUpdated = client.Cosmetics.LastUpdated
	}
	merged.UnlockTree.Nodes = unionOrdered(merged.UnlockTree.Nodes, client.UnlockTree.Nodes)
	merged.UnlockTree.History = capNewest(unionOrdered(merged.UnlockTree.History, client.UnlockTree.History), HistoryCap)

	return merged, processed, nil
}

func applyTransaction(agg *Aggregate, tx Transaction) {
	switch tx.Kind {
	case TxEarnCurrency:
		agg.Currencies.Balances[tx.Currency] += tx.Amount
	case TxSpendCurrency:
		// A spend can legitimately overdraw a stale local view when two
		// devices race; the balance floors at zero instead of rejecting.
		next := agg.Currencies.Balances[tx.Currency] - tx.Amount
		if next < 0 {
			next = 0
		}
		agg.Currencies.Balances[tx.Currency] = next
	case TxUnlockCosmetic:
		agg.Cosmetics.Unlocked = unionOrdered(agg.Cosmetics.Unlocked, []string{tx.CosmeticID})
		if tx.CreatedAt > agg.Cosmetics.LastUpdated {
			agg.Cosmetics.LastUpdated = tx.CreatedAt
		}
		return
	}
	if tx.CreatedAt > agg.Currencies.LastUpdated {
		agg.Currencies.LastUpdated = tx.CreatedAt
	}
}

// unionOrdered keeps a's entries in order, then appends b's entries that a
// does not already contain, preserving insertion order for FIFO eviction.
func unionOrdered(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range a {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range b {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func capNewest(entries []string, max int) []string {
	if len(entries) <= max {
		return entries
	}
	return entries[len(entries)-max:]
}

// ValidateSyncRequest rejects malformed payloads before the merge runs.
func ValidateSyncRequest(req *SyncRequest) error {
	for i, tx := range req.Pending {
		if tx.ID == "" {
			return fmt.Errorf("pending[%d]: transaction id is required", i)
		}
		switch tx.Kind {
		case TxEarnCurrency, TxSpendCurrency:
			if tx.Currency == "" {
				return fmt.Errorf("pending[%d]: currency is required", i)
			}
			if tx.Amount <= 0 {
				return fmt.Errorf("pending[%d]: amount must be positive", i)
			}
		case TxUnlockCosmetic:
			if tx.CosmeticID == "" {
				return fmt.Errorf("pending[%d]: cosmeticId is required", i)
			}
		default:
			return fmt.Errorf("pending[%d]: unknown transaction kind %q", i, tx.Kind)
		}
	}
	if req.State.Currencies.Balances == nil {
		return errors.New("state: currency balances are required")
	}
	return nil
}
