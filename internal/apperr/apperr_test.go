package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Kerhoff/listshare/internal/models"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("list %d", 1)))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("wrapped: %w", Conflict("dup"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.True(t, Is(Forbidden("no"), KindForbidden))
	assert.False(t, Is(nil, KindInternal))
}

func TestWithOwnerDropsEmail(t *testing.T) {
	err := AuthRequired("login required").WithOwner("auth_required", models.UserSummary{ID: 3, Name: "bob", Email: "bob@example.com"})

	e, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, "auth_required", e.Reason)
	assert.Equal(t, &models.UserSummary{ID: 3, Name: "bob"}, e.Owner)
	assert.Contains(t, e.Error(), "auth_required")
}
