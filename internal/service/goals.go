package service

import (
	"context"

	"github.com/Kerhoff/listshare/internal/apperr"
	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

// GoalInput configures a goal tracker
type GoalInput struct {
	GoalType    models.GoalType `json:"goal_type" validate:"required,goal_type"`
	TargetValue *float64        `json:"target_value" validate:"omitempty,gt=0"`
	TargetCount *int            `json:"target_count" validate:"omitempty,gt=0"`
	Unit        *string         `json:"unit" validate:"omitempty,max=50"`
}

// UpdateGoalInput patches a goal tracker. Absent fields are left unchanged.
type UpdateGoalInput struct {
	GoalType    *models.GoalType `json:"goal_type" validate:"omitempty,goal_type"`
	TargetValue *float64         `json:"target_value" validate:"omitempty,gt=0"`
	TargetCount *int             `json:"target_count" validate:"omitempty,gt=0"`
	Unit        *string          `json:"unit" validate:"omitempty,max=50"`
}

// GoalLogInput is a single progress entry. Negative values undo progress.
type GoalLogInput struct {
	Value float64 `json:"value"`
}

// GoalProgress is a tracker after a progress entry
type GoalProgress struct {
	*models.GoalTracker
	Reached       bool `json:"reached"`
	ItemCompleted bool `json:"item_completed"`
}

// CreateGoal attaches a goal tracker to an item of a list owned by userID
func (s *Service) CreateGoal(ctx context.Context, userID, itemID int64, in GoalInput) (*models.GoalTracker, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	if _, _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return nil, err
	}

	tracker, err := s.Goals.Create(ctx, &models.GoalTracker{
		ItemID:      itemID,
		GoalType:    in.GoalType,
		TargetValue: in.TargetValue,
		TargetCount: in.TargetCount,
		Unit:        in.Unit,
	})
	if err != nil {
		return nil, mapStoreErr(err, "item already has a goal", "item not found")
	}
	return tracker, nil
}

// ownedGoal loads a tracker whose list userID must own
func (s *Service) ownedGoal(ctx context.Context, userID, goalID int64) (*models.GoalTracker, *models.Item, error) {
	tracker, err := s.Goals.GetByID(ctx, goalID)
	if err != nil {
		return nil, nil, err
	}
	if tracker == nil {
		return nil, nil, apperr.NotFound("goal %d not found", goalID)
	}
	item, _, err := s.ownedItem(ctx, userID, tracker.ItemID)
	if err != nil {
		return nil, nil, err
	}
	return tracker, item, nil
}

// UpdateGoal changes the settings of a tracker owned by userID
func (s *Service) UpdateGoal(ctx context.Context, userID, goalID int64, in UpdateGoalInput) (*models.GoalTracker, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	tracker, _, err := s.ownedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	update := repository.GoalUpdate{
		GoalType:    in.GoalType,
		TargetValue: in.TargetValue,
		TargetCount: in.TargetCount,
		Unit:        in.Unit,
	}
	if update.Empty() {
		return tracker, nil
	}
	updated, err := s.Goals.Update(ctx, goalID, update)
	if err != nil {
		return nil, mapStoreErr(err, "", "goal not found")
	}
	return updated, nil
}

// LogGoal records progress on a tracker owned by userID. Progress never
// drops below zero and reaching the target completes the item.
func (s *Service) LogGoal(ctx context.Context, userID, goalID int64, in GoalLogInput) (*GoalProgress, error) {
	_, item, err := s.ownedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	tracker, err := s.Goals.LogProgress(ctx, goalID, in.Value)
	if err != nil {
		return nil, mapStoreErr(err, "", "goal not found")
	}

	progress := &GoalProgress{GoalTracker: tracker, Reached: tracker.IsReached()}
	if progress.Reached && !item.IsCompleted {
		done := true
		if _, err := s.Items.Update(ctx, item.ID, repository.ItemUpdate{IsCompleted: &done}); err != nil {
			return nil, mapStoreErr(err, "", "item not found")
		}
		progress.ItemCompleted = true
	}
	return progress, nil
}

// GoalLogs returns the progress history of a tracker owned by userID
func (s *Service) GoalLogs(ctx context.Context, userID, goalID int64) ([]*models.GoalLog, error) {
	if _, _, err := s.ownedGoal(ctx, userID, goalID); err != nil {
		return nil, err
	}
	return s.Goals.GetLogs(ctx, goalID)
}
