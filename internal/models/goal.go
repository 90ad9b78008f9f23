package models

import "time"

// GoalType defines how progress of a goal is counted
type GoalType string

const (
	GoalTypeCumulative GoalType = "cumulative"
	GoalTypeCheckIn    GoalType = "check_in"
)

// Valid returns true for a known goal type
func (t GoalType) Valid() bool {
	return t == GoalTypeCumulative || t == GoalTypeCheckIn
}

// GoalTracker tracks progress towards completing an item
type GoalTracker struct {
	ID           int64     `json:"id" db:"id"`
	ItemID       int64     `json:"item_id" db:"item_id"`
	GoalType     GoalType  `json:"goal_type" db:"goal_type"`
	TargetValue  *float64  `json:"target_value" db:"target_value"`
	TargetCount  *int      `json:"target_count" db:"target_count"`
	CurrentValue float64   `json:"current_value" db:"current_value"`
	Unit         *string   `json:"unit" db:"unit"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// GoalLog records a single progress entry
type GoalLog struct {
	ID         int64     `json:"id" db:"id"`
	TrackerID  int64     `json:"tracker_id" db:"tracker_id"`
	ValueAdded float64   `json:"value_added" db:"value_added"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// AddProgress applies a logged value, never letting progress drop below zero
func (g *GoalTracker) AddProgress(value float64) {
	g.CurrentValue += value
	if g.CurrentValue < 0 {
		g.CurrentValue = 0
	}
}

// IsReached returns true once the configured target has been met
func (g *GoalTracker) IsReached() bool {
	switch g.GoalType {
	case GoalTypeCumulative:
		return g.TargetValue != nil && g.CurrentValue >= *g.TargetValue
	case GoalTypeCheckIn:
		return g.TargetCount != nil && g.CurrentValue >= float64(*g.TargetCount)
	}
	return false
}
