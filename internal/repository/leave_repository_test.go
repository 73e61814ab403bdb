package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"visitation-service/internal/models"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateRejectsInvertedRange(t *testing.T) {
	repo := NewLeaveRepository(nil, zap.NewNop())

	leave := &models.Leave{
		OfficerID: uuid.New(),
		StartDate: day(10),
		EndDate:   day(5),
	}

	err := repo.Create(context.Background(), leave)
	require.ErrorIs(t, err, ErrLeaveInvalidRange)
}

func TestCreateRejectsZeroLengthRange(t *testing.T) {
	repo := NewLeaveRepository(nil, zap.NewNop())

	leave := &models.Leave{
		OfficerID: uuid.New(),
		StartDate: day(10),
		EndDate:   day(10),
	}

	err := repo.Create(context.Background(), leave)
	require.ErrorIs(t, err, ErrLeaveInvalidRange)
	assert.Equal(t, uuid.Nil, leave.ID)
}

func TestRangesOverlap(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"identical", day(1), day(5), day(1), day(5), true},
		{"partial", day(1), day(5), day(4), day(8), true},
		{"contained", day(2), day(3), day(1), day(5), true},
		{"touching end", day(1), day(5), day(5), day(8), true},
		{"touching start", day(5), day(8), day(1), day(5), true},
		{"disjoint before", day(1), day(3), day(4), day(8), false},
		{"disjoint after", day(9), day(12), day(4), day(8), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, rangesOverlap(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd))
		})
	}
}
