package progress

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stargrid/stargrid/internal/apperrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressRecord stores the whole aggregate as one jsonb value so every
// persist is a single-row atomic update, never a field-by-field series of
// writes that a concurrent request could interleave with.
type ProgressRecord struct {
	AccountID uint   `gorm:"primaryKey"`
	Data      []byte `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (ProgressRecord) TableName() string {
	return "player_progress"
}

// ConsumedTransaction marks a transaction id whose effect is already in the
// persisted aggregate. It lives in the same database as the aggregate row
// and is written in the same transaction, so a rollback discards the mark
// together with the effect and a retry replays cleanly.
type ConsumedTransaction struct {
	AccountID uint   `gorm:"primaryKey;autoIncrement:false"`
	TxID      string `gorm:"primaryKey;column:tx_id"`
	CreatedAt time.Time
}

func (ConsumedTransaction) TableName() string {
	return "consumed_transactions"
}

type ProgressRepository interface {
	UpdateAtomically(ctx context.Context, accountID uint, fn func(current *Aggregate, consume ConsumeFunc) (*Aggregate, error)) (*Aggregate, error)
	Overwrite(ctx context.Context, accountID uint, agg *Aggregate) error
}

type GormProgressRepository struct {
	db *gorm.DB
}

func NewGormProgressRepository(db *gorm.DB) *GormProgressRepository {
	return &GormProgressRepository{db: db}
}

// UpdateAtomically seeds the account's row if absent, loads it under a FOR
// UPDATE lock, runs fn on the decoded aggregate and writes the result back,
// all in one database transaction. The seed insert matters: FOR UPDATE on a
// missing row locks nothing, so two first-ever syncs for a new account would
// otherwise both proceed from the default aggregate and the last writer
// would clobber the first one's replayed effects. With the row guaranteed to
// exist, concurrent syncs for the same account serialize on the lock.
//
// The consume func handed to fn records ids in consumed_transactions inside
// the same transaction; the insert's affected-row count decides first
// consumption atomically, and a rollback takes the marks down with it.
func (r *GormProgressRepository) UpdateAtomically(ctx context.Context, accountID uint, fn func(current *Aggregate, consume ConsumeFunc) (*Aggregate, error)) (*Aggregate, error) {
	var out *Aggregate
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := ProgressRecord{AccountID: accountID, Data: defaultRecordData()}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}},
			DoNothing: true,
		}).Create(&seed)
		if result.Error != nil {
			return apperrors.NewAppError(500, "Error seeding player progress", result.Error)
		}

		var rec ProgressRecord
		result = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("account_id = ?", accountID).First(&rec)
		if result.Error != nil {
			return apperrors.NewAppError(500, "Error loading player progress", result.Error)
		}

		current := NewAggregate()
		if err := json.Unmarshal(rec.Data, current); err != nil {
			return apperrors.NewAppError(500, "Error decoding player progress", err)
		}

		consume := func(id string) (bool, error) {
			mark := ConsumedTransaction{AccountID: accountID, TxID: id}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&mark)
			if res.Error != nil {
				return false, apperrors.NewAppError(500, "Error marking transaction consumed", res.Error)
			}
			return res.RowsAffected == 1, nil
		}

		updated, err := fn(current, consume)
		if err != nil {
			return err
		}

		if err := upsertRecord(tx, accountID, updated); err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormProgressRepository) Overwrite(ctx context.Context, accountID uint, agg *Aggregate) error {
	return upsertRecord(r.db.WithContext(ctx), accountID, agg)
}

func defaultRecordData() []byte {
	data, _ := json.Marshal(NewAggregate())
	return data
}

func upsertRecord(tx *gorm.DB, accountID uint, agg *Aggregate) error {
	data, err := json.Marshal(agg)
	if err != nil {
		return apperrors.NewAppError(500, "Error serializing player progress", err)
	}
	rec := ProgressRecord{AccountID: accountID, Data: data}
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&rec)
	if result.Error != nil {
		return apperrors.NewAppError(500, "Error saving player progress", result.Error)
	}
	return nil
}
