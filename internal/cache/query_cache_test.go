package cache_test

import (
	"context"
	"testing"
	"time"

	"nitpickr-api/internal/cache"
	"nitpickr-api/internal/domain/teams"
	"nitpickr-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRememberCachesUntilWrite(t *testing.T) {
	db := testutil.NewDB(t)
	store, _ := testutil.NewRedis(t)
	ctx := context.Background()

	qc := cache.NewQueryCache(store, time.Minute, true, "teams").Link("team_members", "teams")
	require.NoError(t, db.Use(qc))

	user := testutil.CreateUser(t, db, "owner@example.com")
	_, err := teams.Create(db, "Alpha", "alpha", user.ID)
	require.NoError(t, err)

	loads := 0
	load := func(dest *[]teams.Team) func() error {
		return func() error {
			loads++
			list, err := teams.ForUser(db, user.ID)
			*dest = list
			return err
		}
	}

	var first []teams.Team
	require.NoError(t, qc.Remember(ctx, "teams", "user:"+user.ID, &first, load(&first)))
	var second []teams.Team
	require.NoError(t, qc.Remember(ctx, "teams", "user:"+user.ID, &second, load(&second)))

	assert.Equal(t, 1, loads)
	require.Len(t, second, 1)
	assert.Equal(t, "alpha", second[0].Slug)

	// A membership write drops the linked teams entries.
	_, err = teams.Create(db, "Beta", "beta", user.ID)
	require.NoError(t, err)

	var third []teams.Team
	require.NoError(t, qc.Remember(ctx, "teams", "user:"+user.ID, &third, load(&third)))
	assert.Equal(t, 2, loads)
	assert.Len(t, third, 2)
}

func TestRememberDisabledAlwaysLoads(t *testing.T) {
	qc := cache.NewQueryCache(nil, time.Minute, true, "teams")

	loads := 0
	var out []string
	for i := 0; i < 2; i++ {
		err := qc.Remember(context.Background(), "teams", "k", &out, func() error {
			loads++
			out = []string{"x"}
			return nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, loads)
}

func TestRememberFailsOpenWhenRedisIsDown(t *testing.T) {
	store, mr := testutil.NewRedis(t)
	qc := cache.NewQueryCache(store, time.Minute, true, "users")
	mr.Close()

	var out string
	err := qc.Remember(context.Background(), "users", "k", &out, func() error {
		out = "from-db"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "from-db", out)
}
