package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

const goalColumns = `id, item_id, goal_type, target_value, target_count, current_value, unit, created_at, updated_at`

type goalRepository struct {
	db *sql.DB
}

// NewGoalRepository creates a new goal tracker repository
func NewGoalRepository(db *sql.DB) repository.GoalRepository {
	return &goalRepository{db: db}
}

func goalDest(g *models.GoalTracker) []any {
	return []any{
		&g.ID,
		&g.ItemID,
		&g.GoalType,
		&g.TargetValue,
		&g.TargetCount,
		&g.CurrentValue,
		&g.Unit,
		&g.CreatedAt,
		&g.UpdatedAt,
	}
}

func (r *goalRepository) Create(ctx context.Context, tracker *models.GoalTracker) (*models.GoalTracker, error) {
	query := `
		INSERT INTO goal_trackers (item_id, goal_type, target_value, target_count, current_value, unit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	tracker.CreatedAt = now
	tracker.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		tracker.ItemID,
		tracker.GoalType,
		tracker.TargetValue,
		tracker.TargetCount,
		tracker.CurrentValue,
		tracker.Unit,
		tracker.CreatedAt,
		tracker.UpdatedAt,
	).Scan(&tracker.ID, &tracker.CreatedAt, &tracker.UpdatedAt)

	if err != nil {
		return nil, wrapWrite("create goal tracker", err)
	}

	return tracker, nil
}

func (r *goalRepository) GetByID(ctx context.Context, id int64) (*models.GoalTracker, error) {
	query := `SELECT ` + goalColumns + ` FROM goal_trackers WHERE id = $1`

	g := &models.GoalTracker{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(goalDest(g)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get goal tracker by ID: %w", err)
	}
	return g, nil
}

func (r *goalRepository) GetByItems(ctx context.Context, itemIDs []int64) (map[int64]*models.GoalTracker, error) {
	trackers := make(map[int64]*models.GoalTracker, len(itemIDs))
	if len(itemIDs) == 0 {
		return trackers, nil
	}

	query := `SELECT ` + goalColumns + ` FROM goal_trackers WHERE item_id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query goal trackers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		g := &models.GoalTracker{}
		if err := rows.Scan(goalDest(g)...); err != nil {
			return nil, fmt.Errorf("failed to scan goal tracker: %w", err)
		}
		trackers[g.ItemID] = g
	}
	return trackers, rows.Err()
}

// goalUpdateMap returns the columns set by update
func goalUpdateMap(update repository.GoalUpdate) map[string]any {
	set := map[string]any{}
	if update.GoalType != nil {
		set["goal_type"] = *update.GoalType
	}
	if update.TargetValue != nil {
		set["target_value"] = *update.TargetValue
	}
	if update.TargetCount != nil {
		set["target_count"] = *update.TargetCount
	}
	if update.Unit != nil {
		set["unit"] = *update.Unit
	}
	return set
}

func (r *goalRepository) Update(ctx context.Context, id int64, update repository.GoalUpdate) (*models.GoalTracker, error) {
	set := goalUpdateMap(update)
	set["updated_at"] = time.Now()

	query, args, err := psql.Update("goal_trackers").
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + goalColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build goal update: %w", err)
	}

	g := &models.GoalTracker{}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(goalDest(g)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("goal tracker %d: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update goal tracker: %w", err)
	}
	return g, nil
}

// LogProgress records a progress entry and applies it to the tracker in one transaction
func (r *goalRepository) LogProgress(ctx context.Context, trackerID int64, value float64) (*models.GoalTracker, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	g := &models.GoalTracker{}
	err = tx.QueryRowContext(ctx, `
		UPDATE goal_trackers
		SET current_value = GREATEST(current_value + $2, 0), updated_at = $3
		WHERE id = $1
		RETURNING `+goalColumns, trackerID, value, now).Scan(goalDest(g)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("goal tracker %d: %w", trackerID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update goal progress: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO goal_logs (tracker_id, value_added, created_at) VALUES ($1, $2, $3)`,
		trackerID, value, now,
	); err != nil {
		return nil, fmt.Errorf("failed to create goal log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit goal progress: %w", err)
	}
	return g, nil
}

func (r *goalRepository) GetLogs(ctx context.Context, trackerID int64) ([]*models.GoalLog, error) {
	query := `SELECT id, tracker_id, value_added, created_at FROM goal_logs WHERE tracker_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, trackerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goal logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.GoalLog
	for rows.Next() {
		l := &models.GoalLog{}
		if err := rows.Scan(&l.ID, &l.TrackerID, &l.ValueAdded, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
