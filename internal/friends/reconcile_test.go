package friends

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatsync/internal/common"
	"chatsync/internal/common/mocks"
	"chatsync/internal/memstore"
)

func edge(id, from, to string, status common.FriendshipStatus) common.FriendshipEdge {
	return common.FriendshipEdge{ID: id, UserID: from, FriendID: to, Status: status, CreatedAt: t0}
}

func TestDetect(t *testing.T) {
	found := detect([]common.FriendshipEdge{
		edge("a", "u1", "u2", common.StatusAccepted),
		edge("b", "u1", "u3", common.StatusPending),
		edge("c", "u3", "u1", common.StatusAccepted),
		edge("d", "u1", "u4", common.StatusAccepted),
		edge("e", "u4", "u1", common.StatusAccepted),
		edge("f", "u5", "u1", common.StatusPending),
	})
	require.Len(t, found, 2)
	assert.Equal(t, missingReverse, found[0].kind)
	assert.Equal(t, "a", found[0].edge.ID)
	assert.Equal(t, pendingAgainstAccepted, found[1].kind)
	assert.Equal(t, "b", found[1].edge.ID)
	assert.Equal(t, "c", found[1].reverse.ID)
}

func TestParsePolicy(t *testing.T) {
	assert.Equal(t, PolicyRollback, ParsePolicy(" Rollback "))
	assert.Equal(t, PolicyComplete, ParsePolicy("complete"))
	assert.Equal(t, PolicyComplete, ParsePolicy("whatever"))
}

func TestReconciler_WaitsForGrace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockFriendshipStore(ctrl)
	r := newReconciler(store, PolicyComplete, 30*time.Second, zerolog.Nop())
	now := t0
	r.now = func() time.Time { return now }

	edges := []common.FriendshipEdge{edge("a", "u1", "u2", common.StatusAccepted)}
	assert.Equal(t, 0, r.run(context.Background(), edges))

	now = now.Add(10 * time.Second)
	assert.Equal(t, 0, r.run(context.Background(), edges))

	store.EXPECT().InsertEdge(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e *common.FriendshipEdge) error {
		assert.Equal(t, "u2", e.UserID)
		assert.Equal(t, "u1", e.FriendID)
		assert.Equal(t, common.StatusAccepted, e.Status)
		return nil
	})
	now = now.Add(25 * time.Second)
	assert.Equal(t, 1, r.run(context.Background(), edges))
	assert.Empty(t, r.firstSeen)
}

func TestReconciler_ForgetsResolvedAsymmetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r := newReconciler(mocks.NewMockFriendshipStore(ctrl), PolicyComplete, time.Minute, zerolog.Nop())
	r.now = func() time.Time { return t0 }

	r.run(context.Background(), []common.FriendshipEdge{edge("a", "u1", "u2", common.StatusAccepted)})
	require.Len(t, r.firstSeen, 1)

	r.run(context.Background(), []common.FriendshipEdge{
		edge("a", "u1", "u2", common.StatusAccepted),
		edge("z", "u2", "u1", common.StatusAccepted),
	})
	assert.Empty(t, r.firstSeen)
}

func TestReconciler_DuplicateCountsAsRepaired(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockFriendshipStore(ctrl)
	store.EXPECT().InsertEdge(gomock.Any(), gomock.Any()).Return(common.ErrDuplicate)

	r := newReconciler(store, PolicyComplete, 0, zerolog.Nop())
	assert.Equal(t, 1, r.run(context.Background(), []common.FriendshipEdge{edge("a", "u1", "u2", common.StatusAccepted)}))
}

func TestReconciler_Policies(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		policy Policy
		seed   func(*testing.T, *memstore.Store)
		check  func(*testing.T, []common.FriendshipEdge)
	}{
		{
			name:   "complete inserts the missing reverse",
			policy: PolicyComplete,
			seed: func(t *testing.T, s *memstore.Store) {
				insertEdge(t, s, "u1", "u2", common.StatusAccepted)
			},
			check: func(t *testing.T, edges []common.FriendshipEdge) {
				require.Len(t, edges, 2)
				for _, e := range edges {
					assert.Equal(t, common.StatusAccepted, e.Status)
				}
			},
		},
		{
			name:   "complete flips the pending side",
			policy: PolicyComplete,
			seed: func(t *testing.T, s *memstore.Store) {
				insertEdge(t, s, "u2", "u1", common.StatusPending)
				insertEdge(t, s, "u1", "u2", common.StatusAccepted)
			},
			check: func(t *testing.T, edges []common.FriendshipEdge) {
				require.Len(t, edges, 2)
				for _, e := range edges {
					assert.Equal(t, common.StatusAccepted, e.Status)
				}
			},
		},
		{
			name:   "rollback reverts an accepted edge without reverse",
			policy: PolicyRollback,
			seed: func(t *testing.T, s *memstore.Store) {
				insertEdge(t, s, "u2", "u1", common.StatusAccepted)
			},
			check: func(t *testing.T, edges []common.FriendshipEdge) {
				require.Len(t, edges, 1)
				assert.Equal(t, common.StatusPending, edges[0].Status)
			},
		},
		{
			name:   "rollback deletes the orphan reverse",
			policy: PolicyRollback,
			seed: func(t *testing.T, s *memstore.Store) {
				insertEdge(t, s, "u2", "u1", common.StatusPending)
				insertEdge(t, s, "u1", "u2", common.StatusAccepted)
			},
			check: func(t *testing.T, edges []common.FriendshipEdge) {
				require.Len(t, edges, 1)
				assert.Equal(t, "u2", edges[0].UserID)
				assert.Equal(t, common.StatusPending, edges[0].Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seededStore(t)
			tt.seed(t, store)

			engine := NewEngine(newStaticAlice(), store, store, nil, nil, Options{
				ReconcileEnabled: true,
				ReconcilePolicy:  tt.policy,
			}, zerolog.Nop())
			require.NoError(t, engine.Refresh(ctx))

			edges, err := store.Between(ctx, "u1", "u2")
			require.NoError(t, err)
			tt.check(t, edges)
		})
	}
}
