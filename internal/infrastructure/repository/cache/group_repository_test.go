package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/focus-tracker/internal/domain/tracking"
	"github.com/riskibarqy/focus-tracker/internal/infrastructure/repository/memory"
	trackingmock "github.com/riskibarqy/focus-tracker/internal/mocks/domain/tracking"
)

func TestGroupRepository_GetByIDIsCachedUntilSave(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	group := tracking.Group{ID: "chat-1", SinkID: "chat-1"}
	next := trackingmock.NewRepository(t)
	next.On("GetByID", mock.Anything, "chat-1").Return(group, true, nil).Twice()
	next.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	repo := NewGroupRepository(next, time.Minute)

	for i := 0; i < 3; i++ {
		got, found, err := repo.GetByID(ctx, "chat-1")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "chat-1", got.SinkID)
	}

	require.NoError(t, repo.Save(ctx, group))

	_, found, err := repo.GetByID(ctx, "chat-1")
	require.NoError(t, err)
	require.True(t, found)
}

func TestGroupRepository_CachesMissesButNotErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := trackingmock.NewRepository(t)
	next.On("GetByID", mock.Anything, "missing").Return(tracking.Group{}, false, nil).Once()
	next.On("ListGroups", mock.Anything).Return(nil, errors.New("db down")).Twice()

	repo := NewGroupRepository(next, time.Minute)

	for i := 0; i < 2; i++ {
		_, found, err := repo.GetByID(ctx, "missing")
		require.NoError(t, err)
		require.False(t, found)

		_, err = repo.ListGroups(ctx)
		require.Error(t, err)
	}
}

func TestGroupRepository_ReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner := memory.NewGroupRepository([]tracking.Group{{
		ID:       "chat-1",
		Entities: []tracking.Entity{{ExternalID: "p1", DisplayName: "Hero#EUW", RoutingKey: "europe", LastSeen: []string{"m1"}}},
	}})
	repo := NewGroupRepository(inner, time.Minute)

	first, _, err := repo.GetByID(ctx, "chat-1")
	require.NoError(t, err)
	first.Entities[0].LastSeen[0] = "mutated"

	second, _, err := repo.GetByID(ctx, "chat-1")
	require.NoError(t, err)
	require.Equal(t, "m1", second.Entities[0].LastSeen[0])

	groups, err := repo.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
}
