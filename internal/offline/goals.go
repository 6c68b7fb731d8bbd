package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"pennywise/internal/core"
	"pennywise/internal/gateway"
)

const goalsKeyPrefix = "savings-goals:"

// GoalStore keeps the savings goals of each user in one blob. Goals never
// expire.
type GoalStore struct {
	blobs Blobs
}

func NewGoalStore(blobs Blobs) *GoalStore {
	return &GoalStore{blobs: blobs}
}

func (s *GoalStore) List(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	data, ok, err := s.blobs.Get(ctx, goalsKeyPrefix+userID)
	if err != nil {
		return nil, fmt.Errorf("read goals: %w", err)
	}
	goals := []core.SavingsGoal{}
	if !ok {
		return goals, nil
	}
	if err := json.Unmarshal(data, &goals); err != nil {
		// a corrupt blob behaves like an absent one
		return []core.SavingsGoal{}, nil
	}
	return goals, nil
}

func (s *GoalStore) save(ctx context.Context, userID string, goals []core.SavingsGoal) error {
	data, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("encode goals: %w", err)
	}
	if err := s.blobs.Set(ctx, goalsKeyPrefix+userID, data, 0); err != nil {
		return fmt.Errorf("save goals: %w", err)
	}
	return nil
}

func (s *GoalStore) Create(ctx context.Context, userID string, g core.SavingsGoal) (core.SavingsGoal, error) {
	g.Name = strings.TrimSpace(g.Name)
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	goals, err := s.List(ctx, userID)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	g.ID = uuid.NewString()
	goals = append(goals, g)
	if err := s.save(ctx, userID, goals); err != nil {
		return core.SavingsGoal{}, err
	}
	return g, nil
}

// Update replaces name, target and deadline; the saved amount only changes
// through Contribute.
func (s *GoalStore) Update(ctx context.Context, userID string, g core.SavingsGoal) (core.SavingsGoal, error) {
	return s.modify(ctx, userID, g.ID, func(cur core.SavingsGoal) (core.SavingsGoal, error) {
		cur.Name = strings.TrimSpace(g.Name)
		cur.TargetAmount = g.TargetAmount
		cur.Deadline = g.Deadline
		if err := cur.Validate(); err != nil {
			return core.SavingsGoal{}, err
		}
		return cur, nil
	})
}

// Contribute adds amount to the goal; negative amounts withdraw, never below zero.
func (s *GoalStore) Contribute(ctx context.Context, userID, id string, amount core.Money) (core.SavingsGoal, error) {
	return s.modify(ctx, userID, id, func(cur core.SavingsGoal) (core.SavingsGoal, error) {
		return cur.Contribute(amount), nil
	})
}

func (s *GoalStore) Delete(ctx context.Context, userID, id string) error {
	goals, err := s.List(ctx, userID)
	if err != nil {
		return err
	}
	out := goals[:0]
	found := false
	for _, g := range goals {
		if g.ID == id {
			found = true
			continue
		}
		out = append(out, g)
	}
	if !found {
		return fmt.Errorf("goal %s: %w", id, gateway.ErrNotFound)
	}
	return s.save(ctx, userID, out)
}

func (s *GoalStore) modify(ctx context.Context, userID, id string, fn func(core.SavingsGoal) (core.SavingsGoal, error)) (core.SavingsGoal, error) {
	goals, err := s.List(ctx, userID)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	for i := range goals {
		if goals[i].ID != id {
			continue
		}
		updated, err := fn(goals[i])
		if err != nil {
			return core.SavingsGoal{}, err
		}
		goals[i] = updated
		if err := s.save(ctx, userID, goals); err != nil {
			return core.SavingsGoal{}, err
		}
		return updated, nil
	}
	return core.SavingsGoal{}, fmt.Errorf("goal %s: %w", id, gateway.ErrNotFound)
}
