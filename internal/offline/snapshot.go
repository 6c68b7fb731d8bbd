package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pennywise/internal/core"
	"pennywise/internal/log"
)

// DefaultMaxAge is how long a saved snapshot is trusted.
const DefaultMaxAge = 24 * time.Hour

const snapshotKeyPrefix = "finance-tracker-data:"

// Snapshot is the whole ledger of one user.
type Snapshot struct {
	Expenses      []core.Transaction   `json:"expenses"`
	Income        []core.Transaction   `json:"income"`
	Balances      core.AccountBalances `json:"balances"`
	ExpenseLimits []core.ExpenseLimit  `json:"expenseLimits"`
	SavedAt       time.Time            `json:"savedAt"`
}

// EmptySnapshot has empty lists and zero balances.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Expenses:      []core.Transaction{},
		Income:        []core.Transaction{},
		ExpenseLimits: []core.ExpenseLimit{},
	}
}

type SnapshotStore struct {
	blobs  Blobs
	maxAge time.Duration
	now    func() time.Time
	logger *log.Logger
}

func NewSnapshotStore(blobs Blobs, maxAge time.Duration, logger *log.Logger) *SnapshotStore {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &SnapshotStore{blobs: blobs, maxAge: maxAge, now: time.Now, logger: logger.WithComponent(log.ComponentOffline)}
}

// Load returns the saved snapshot of userID, or EmptySnapshot when none is
// saved, it cannot be decoded, or it is older than the max age.
func (s *SnapshotStore) Load(ctx context.Context, userID string) Snapshot {
	data, ok, err := s.blobs.Get(ctx, snapshotKeyPrefix+userID)
	if err != nil {
		s.logger.WarnContext(ctx, "Snapshot read failed, using defaults", log.FieldUserID, userID, log.FieldError, err)
		return EmptySnapshot()
	}
	if !ok {
		return EmptySnapshot()
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.WarnContext(ctx, "Snapshot unreadable, using defaults", log.FieldUserID, userID, log.FieldError, err)
		return EmptySnapshot()
	}
	if s.now().Sub(snap.SavedAt) > s.maxAge {
		s.logger.InfoContext(ctx, "Snapshot stale, using defaults", log.FieldUserID, userID, "saved_at", snap.SavedAt)
		return EmptySnapshot()
	}
	if snap.Expenses == nil {
		snap.Expenses = []core.Transaction{}
	}
	if snap.Income == nil {
		snap.Income = []core.Transaction{}
	}
	if snap.ExpenseLimits == nil {
		snap.ExpenseLimits = []core.ExpenseLimit{}
	}
	return snap
}

// Save stamps snap with the current time and stores it.
func (s *SnapshotStore) Save(ctx context.Context, userID string, snap Snapshot) error {
	snap.SavedAt = s.now().UTC()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.blobs.Set(ctx, snapshotKeyPrefix+userID, data, s.maxAge); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
