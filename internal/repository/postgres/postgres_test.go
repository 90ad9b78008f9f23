package postgres

import (
	"errors"
	"fmt"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/listshare/internal/models"
	"github.com/Kerhoff/listshare/internal/repository"
)

func ptr[T any](v T) *T { return &v }

func TestWrapWriteMapsUniqueViolation(t *testing.T) {
	err := wrapWrite("create like", &pq.Error{Code: "23505"})
	assert.True(t, errors.Is(err, repository.ErrDuplicate))

	err = wrapWrite("create like", &pq.Error{Code: "23503"})
	assert.False(t, errors.Is(err, repository.ErrDuplicate))

	err = wrapWrite("create like", fmt.Errorf("conn reset"))
	assert.False(t, errors.Is(err, repository.ErrDuplicate))
	assert.Contains(t, err.Error(), "failed to create like")
}

func TestListUpdateMap(t *testing.T) {
	level := models.PrivacyFriendsOnly
	set := listUpdateMap(repository.ListUpdate{
		Title:        ptr("Birthday"),
		PrivacyLevel: &level,
	})

	assert.Equal(t, map[string]any{
		"title":         "Birthday",
		"privacy_level": models.PrivacyFriendsOnly,
	}, set)
	assert.Empty(t, listUpdateMap(repository.ListUpdate{}))
}

func TestItemUpdateOnlyTouchesPresentFields(t *testing.T) {
	set := itemUpdateMap(repository.ItemUpdate{IsCompleted: ptr(true)})
	set["updated_at"] = "now"

	query, args, err := psql.Update("items").SetMap(set).Where(sq.Eq{"id": 7}).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "UPDATE items SET is_completed = $1, updated_at = $2 WHERE id = $3", query)
	assert.Equal(t, []any{true, "now", 7}, args)
}

func TestGoalUpdateMap(t *testing.T) {
	goalType := models.GoalTypeCheckIn
	set := goalUpdateMap(repository.GoalUpdate{GoalType: &goalType, TargetCount: ptr(30)})

	assert.Equal(t, models.GoalTypeCheckIn, set["goal_type"])
	assert.Equal(t, 30, set["target_count"])
	assert.NotContains(t, set, "unit")
}

func TestNotificationSelectJoinsSenderAndList(t *testing.T) {
	query, args, err := notificationSelect.Where(sq.Eq{"n.id": 1}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "JOIN users s ON s.id = n.sender_id")
	assert.Contains(t, query, "LEFT JOIN items i ON i.id = n.related_item_id")
	assert.Contains(t, query, "WHERE n.id = $1")
	assert.Equal(t, []any{1}, args)
}
