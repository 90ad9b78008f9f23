package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

type goalRepository struct {
	db *db
}

func cloneGoal(g *models.GoalTracker) *models.GoalTracker {
	c := *g
	return &c
}

func (r *goalRepository) Create(_ context.Context, tracker *models.GoalTracker) (*models.GoalTracker, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, other := range r.db.goals {
		if other.ItemID == tracker.ItemID {
			return nil, fmt.Errorf("failed to create goal tracker: %w", repository.ErrDuplicate)
		}
	}

	now := time.Now()
	tracker.ID = r.db.id()
	tracker.CreatedAt = now
	tracker.UpdatedAt = now
	r.db.goals[tracker.ID] = cloneGoal(tracker)
	return tracker, nil
}

func (r *goalRepository) GetByID(_ context.Context, id int64) (*models.GoalTracker, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if g, ok := r.db.goals[id]; ok {
		return cloneGoal(g), nil
	}
	return nil, nil
}

func (r *goalRepository) GetByItems(_ context.Context, itemIDs []int64) (map[int64]*models.GoalTracker, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	trackers := make(map[int64]*models.GoalTracker, len(itemIDs))
	for _, g := range r.db.goals {
		if containsID(itemIDs, g.ItemID) {
			trackers[g.ItemID] = cloneGoal(g)
		}
	}
	return trackers, nil
}

func (r *goalRepository) Update(_ context.Context, id int64, update repository.GoalUpdate) (*models.GoalTracker, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	g, ok := r.db.goals[id]
	if !ok {
		return nil, fmt.Errorf("goal tracker %d: %w", id, repository.ErrNotFound)
	}
	if update.GoalType != nil {
		g.GoalType = *update.GoalType
	}
	if update.TargetValue != nil {
		v := *update.TargetValue
		g.TargetValue = &v
	}
	if update.TargetCount != nil {
		v := *update.TargetCount
		g.TargetCount = &v
	}
	if update.Unit != nil {
		v := *update.Unit
		g.Unit = &v
	}
	g.UpdatedAt = time.Now()
	return cloneGoal(g), nil
}

func (r *goalRepository) LogProgress(_ context.Context, trackerID int64, value float64) (*models.GoalTracker, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	g, ok := r.db.goals[trackerID]
	if !ok {
		return nil, fmt.Errorf("goal tracker %d: %w", trackerID, repository.ErrNotFound)
	}

	now := time.Now()
	g.AddProgress(value)
	g.UpdatedAt = now

	entry := &models.GoalLog{ID: r.db.id(), TrackerID: trackerID, ValueAdded: value, CreatedAt: now}
	r.db.goalLogs[entry.ID] = entry
	return cloneGoal(g), nil
}

func (r *goalRepository) GetLogs(_ context.Context, trackerID int64) ([]*models.GoalLog, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var logs []*models.GoalLog
	for _, l := range r.db.goalLogs {
		if l.TrackerID == trackerID {
			c := *l
			logs = append(logs, &c)
		}
	}
	sortNewestFirst(logs, func(l *models.GoalLog) (int64, int64) { return l.CreatedAt.UnixNano(), l.ID })
	return logs, nil
}
