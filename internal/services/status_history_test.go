package services

import (
	"context"
	"testing"
	"time"

	"github.com/avrvenkatesa/multi-project-tracker-sub006/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusHistoryService_List(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	steps := []string{"To Do", "In Progress", "Review", "Done"}
	for i := 1; i < len(steps); i++ {
		require.NoError(t, db.Create(&models.StatusHistory{
			ItemType:   models.EntityTypeIssue,
			ItemID:     1,
			ProjectID:  1,
			FromStatus: steps[i-1],
			ToStatus:   steps[i],
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}).Error)
	}
	require.NoError(t, db.Create(&models.StatusHistory{ItemType: models.EntityTypeActionItem, ItemID: 1, ToStatus: "Done", CreatedAt: base}).Error)

	svc := NewStatusHistoryService(db)
	rows, total, err := svc.List(context.Background(), models.EntityTypeIssue, 1, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, rows, 2)
	assert.Equal(t, "Done", rows[0].ToStatus)
	assert.Equal(t, "Review", rows[1].ToStatus)

	rows, _, err = svc.List(context.Background(), models.EntityTypeIssue, 1, 2, 2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "In Progress", rows[0].ToStatus)

	_, _, err = svc.List(context.Background(), "epic", 1, 1, 20)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
