package flags

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/token-sweeper/internal/constants"
)

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewStore(client)
	require.NoError(t, err)
	return store, mr
}

func TestNewStore_NilClient(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)
}

func TestStore_Upsert(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return first }

	flag, err := store.Upsert(ctx, constants.FlagQuotesEnabled, true)
	require.NoError(t, err)
	assert.Equal(t, constants.FlagQuotesEnabled, flag.Key)
	assert.True(t, flag.Value)
	assert.Equal(t, first, flag.UpdatedAt)

	got, err := store.Get(ctx, constants.FlagQuotesEnabled)
	require.NoError(t, err)
	assert.Equal(t, flag, got)

	store.now = func() time.Time { return first.Add(time.Minute) }
	flag2, err := store.Upsert(ctx, constants.FlagQuotesEnabled, false)
	require.NoError(t, err)
	assert.True(t, flag2.UpdatedAt.After(flag.UpdatedAt))

	got, err = store.Get(ctx, constants.FlagQuotesEnabled)
	require.NoError(t, err)
	assert.False(t, got.Value)
}

func TestStore_Get_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	flag, err := store.Get(context.Background(), "nonexistent.flag")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, flag)
}

func TestStore_Get_Corrupt(t *testing.T) {
	store, mr := setupTestStore(t)
	require.NoError(t, mr.Set("flags:broken", "not json"))

	_, err := store.Get(context.Background(), "broken")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestStore_Enabled(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	on, err := store.Enabled(ctx, constants.FlagBalancesEnabled)
	require.NoError(t, err)
	assert.True(t, on, "missing flag counts as enabled")

	_, err = store.Upsert(ctx, constants.FlagBalancesEnabled, false)
	require.NoError(t, err)
	on, err = store.Enabled(ctx, constants.FlagBalancesEnabled)
	require.NoError(t, err)
	assert.False(t, on)

	mr.Close()
	cctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	on, err = store.Enabled(cctx, constants.FlagBalancesEnabled)
	assert.Error(t, err)
	assert.True(t, on)
}

func TestStore_Delete(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, "test.flag", true)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "test.flag"))
	_, err = store.Get(ctx, "test.flag")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists("flags:test.flag"))

	assert.NoError(t, store.Delete(ctx, "nonexistent.flag"))
}

func TestStore_List(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	flags, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, flags)

	for key, value := range map[string]bool{"flag3": true, "flag1": true, "flag2": false} {
		_, err := store.Upsert(ctx, key, value)
		require.NoError(t, err)
	}

	// index entry without a value is skipped
	_, err = mr.SAdd(indexKey, "ghost")
	require.NoError(t, err)

	flags, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, flags, 3)
	assert.Equal(t, "flag1", flags[0].Key)
	assert.Equal(t, "flag2", flags[1].Key)
	assert.False(t, flags[1].Value)
	assert.Equal(t, "flag3", flags[2].Key)
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"quotes.enabled", true},
		{"flag_1-a", true},
		{"", false},
		{"has space", false},
		{"semi;colon", false},
		{string(make([]byte, 129)), false},
	}

	for _, tt := range tests {
		err := ValidateKey(tt.key)
		if tt.valid {
			assert.NoError(t, err, tt.key)
		} else {
			assert.Error(t, err, tt.key)
		}
	}
}

func TestRouteSwitches(t *testing.T) {
	for key := range RouteSwitches {
		assert.NoError(t, ValidateKey(key))
	}
}
