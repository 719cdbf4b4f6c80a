package respserver

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/keymesh-go/internal/engine"
)

// setupTestServer starts a server on an ephemeral port and returns a
// connected go-redis client.
func setupTestServer(t *testing.T, engOpts engine.Options) (*redis.Client, func()) {
	t.Helper()

	eng := engine.NewServer(engOpts)
	srv := New(&Config{
		Addr:         "127.0.0.1:0",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, eng, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.Start(ctx))
	eng.StartActiveExpiry(ctx, 50*time.Millisecond)

	client := redis.NewClient(&redis.Options{
		Addr:        srv.Addr(),
		Password:    engOpts.RequirePass,
		DialTimeout: 2 * time.Second,
		ReadTimeout: 3 * time.Second,
	})

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	require.NoError(t, client.Ping(pingCtx).Err())

	cleanup := func() {
		_ = client.Close()
		shCtx, shCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer shCancel()
		_ = srv.Shutdown(shCtx)
		cancel()
	}
	return client, cleanup
}

func TestLiveStringCommands(t *testing.T) {
	client, cleanup := setupTestServer(t, engine.Options{})
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "x", "10", 0).Err())

	n, err := client.IncrBy(ctx, "x", 5).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(15), n)

	v, err := client.Get(ctx, "x").Result()
	require.NoError(t, err)
	assert.Equal(t, "15", v)

	_, err = client.Get(ctx, "missing").Result()
	assert.ErrorIs(t, err, redis.Nil)

	require.NoError(t, client.Append(ctx, "x", "abc").Err())
	length, err := client.StrLen(ctx, "x").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(5), length)
}

func TestLiveListCommands(t *testing.T) {
	client, cleanup := setupTestServer(t, engine.Options{})
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, client.LPush(ctx, "l", "a", "b", "c").Err())

	items, err := client.LRange(ctx, "l", 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, items)

	v, err := client.RPop(ctx, "l").Result()
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func TestLiveHashCommands(t *testing.T) {
	client, cleanup := setupTestServer(t, engine.Options{})
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, client.HSet(ctx, "h", "f1", "v1", "f2", "v2").Err())

	all, err := client.HGetAll(ctx, "h").Result()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"f1": "v1", "f2": "v2"}, all)

	n, err := client.HIncrBy(ctx, "h", "counter", 7).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestLiveZSetCommands(t *testing.T) {
	client, cleanup := setupTestServer(t, engine.Options{})
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, client.ZAdd(ctx, "z",
		redis.Z{Score: 1, Member: "a"},
		redis.Z{Score: 2, Member: "b"},
		redis.Z{Score: 3, Member: "c"},
	).Err())

	members, err := client.ZRangeByScore(ctx, "z", &redis.ZRangeBy{Min: "2", Max: "+inf"}).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, members)

	score, err := client.ZScore(ctx, "z", "b").Result()
	require.NoError(t, err)
	assert.Equal(t, 2.0, score)

	rank, err := client.ZRevRank(ctx, "z", "a").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank)
}

func TestLiveExpiry(t *testing.T) {
	client, cleanup := setupTestServer(t, engine.Options{})
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", "v", 50*time.Millisecond).Err())
	time.Sleep(120 * time.Millisecond)

	_, err := client.Get(ctx, "k").Result()
	assert.ErrorIs(t, err, redis.Nil)

	n, err := client.Exists(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestLiveTransactions(t *testing.T) {
	client, cleanup := setupTestServer(t, engine.Options{})
	defer cleanup()
	ctx := context.Background()

	cmds, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, "a", "1", 0)
		pipe.Incr(ctx, "a")
		return nil
	})
	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, int64(2), cmds[1].(*redis.IntCmd).Val())

	v, err := client.Get(ctx, "a").Result()
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestLiveWatchConflict(t *testing.T) {
	client, cleanup := setupTestServer(t, engine.Options{})
	defer cleanup()
	ctx := context.Background()

	other := redis.NewClient(&redis.Options{Addr: client.Options().Addr})
	defer other.Close()

	require.NoError(t, client.Set(ctx, "k", "0", 0).Err())

	err := client.Watch(ctx, func(tx *redis.Tx) error {
		if err := tx.Get(ctx, "k").Err(); err != nil {
			return err
		}
		// Another client mutates the watched key before EXEC.
		if err := other.Set(ctx, "k", "2", 0).Err(); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, "k", "1", 0)
			return nil
		})
		return err
	}, "k")
	assert.ErrorIs(t, err, redis.TxFailedErr)

	v, err := client.Get(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestLiveBLPop(t *testing.T) {
	client, cleanup := setupTestServer(t, engine.Options{})
	defer cleanup()
	ctx := context.Background()

	pusher := redis.NewClient(&redis.Options{Addr: client.Options().Addr})
	defer pusher.Close()

	done := make(chan []string, 1)
	go func() {
		res, err := client.BLPop(ctx, 2*time.Second, "q").Result()
		if err != nil {
			done <- nil
			return
		}
		done <- res
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, pusher.RPush(ctx, "q", "job").Err())

	select {
	case res := <-done:
		require.NotNil(t, res)
		assert.Equal(t, []string{"q", "job"}, res)
	case <-time.After(3 * time.Second):
		t.Fatal("BLPOP never returned")
	}
}

func TestLivePubSub(t *testing.T) {
	client, cleanup := setupTestServer(t, engine.Options{})
	defer cleanup()
	ctx := context.Background()

	sub := client.Subscribe(ctx, "events")
	defer sub.Close()

	// Wait for the subscription to be established.
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	for _, msg := range []string{"one", "two", "three"} {
		n, err := client.Publish(ctx, "events", msg).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}

	ch := sub.Channel()
	for _, want := range []string{"one", "two", "three"} {
		select {
		case msg := <-ch:
			assert.Equal(t, "events", msg.Channel)
			assert.Equal(t, want, msg.Payload)
		case <-time.After(2 * time.Second):
			t.Fatalf("did not receive %q", want)
		}
	}
}

func TestLiveAuth(t *testing.T) {
	client, cleanup := setupTestServer(t, engine.Options{RequirePass: "secret"})
	defer cleanup()
	ctx := context.Background()

	// The configured client authenticated in setup.
	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())

	bare := redis.NewClient(&redis.Options{Addr: client.Options().Addr})
	defer bare.Close()
	err := bare.Get(ctx, "k").Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOAUTH")
}

func TestLiveScan(t *testing.T) {
	client, cleanup := setupTestServer(t, engine.Options{})
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, client.Set(ctx, "key:"+string(rune('a'+i)), "v", 0).Err())
	}

	seen := make(map[string]bool)
	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, "key:*", 5).Result()
		require.NoError(t, err)
		for _, k := range keys {
			seen[k] = true
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	assert.Len(t, seen, 20)
}

func TestLiveTypeErrors(t *testing.T) {
	client, cleanup := setupTestServer(t, engine.Options{})
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "s", "v", 0).Err())
	err := client.LPush(ctx, "s", "x").Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WRONGTYPE")
}

func TestLiveDBSelect(t *testing.T) {
	client, cleanup := setupTestServer(t, engine.Options{Databases: 4})
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", "zero", 0).Err())

	db1 := redis.NewClient(&redis.Options{Addr: client.Options().Addr, DB: 1})
	defer db1.Close()
	_, err := db1.Get(ctx, "k").Result()
	assert.ErrorIs(t, err, redis.Nil)
}
