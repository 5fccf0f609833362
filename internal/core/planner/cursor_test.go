package planner

import (
	"context"
	"testing"
	"time"

	"recipe-planner/internal/infrastructure/store"
	"recipe-planner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorStore(t *testing.T) {
	ctx := context.Background()
	c := NewCursorStore(store.NewMemoryStore())
	c.now = func() time.Time { return time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC) }

	st, err := c.GetActiveWeek(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", st.ActiveWeekStart)

	st, err = c.SetActiveWeek(ctx, "u1", "2024-01-18")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", st.ActiveWeekStart)

	st, err = c.ShiftActiveWeek(ctx, "u1", -1)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", st.ActiveWeekStart)

	st, err = c.GetActiveWeek(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", st.ActiveWeekStart)

	_, err = c.SetActiveWeek(ctx, "u1", "someday")
	assert.ErrorIs(t, err, common.ErrInvalidDate)
}
