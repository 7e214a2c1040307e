//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/codec"
	"github.com/MrEthical07/goSession/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// redisMode describes which Redis backend the compatibility suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) (redis.UniversalClient, func())
}

// redisModes returns the set of Redis backends to test.
// miniredis is always available.
// Real Redis standalone is used when REDIS_ADDR is set (e.g. "127.0.0.1:6379").
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis: %v", err)
				}
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				return rdb, func() { _ = rdb.Close(); mr.Close() }
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				rdb.FlushDB(context.Background())
				return rdb, func() { rdb.FlushDB(context.Background()); _ = rdb.Close() }
			},
		})
	}

	// Cluster mode: when REDIS_CLUSTER_ADDRS is set (comma-separated).
	if addrs := os.Getenv("REDIS_CLUSTER_ADDRS"); addrs != "" {
		modes = append(modes, redisMode{
			name: "cluster",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewClusterClient(&redis.ClusterOptions{Addrs: splitAddrs(addrs)})
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis cluster: %v", err)
				}
				return rdb, func() { _ = rdb.Close() }
			},
		})
	}

	// Sentinel mode: when REDIS_SENTINEL_ADDRS and REDIS_SENTINEL_MASTER are set.
	if addrs := os.Getenv("REDIS_SENTINEL_ADDRS"); addrs != "" {
		master := os.Getenv("REDIS_SENTINEL_MASTER")
		if master == "" {
			master = "mymaster"
		}
		modes = append(modes, redisMode{
			name: "sentinel",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				srv, err := session.NewRedisSentinel(session.SentinelOptions{
					MasterName: master,
					Sentinels:  splitAddrs(addrs),
				})
				if err != nil {
					t.Fatalf("sentinel server: %v", err)
				}
				rdb := srv.Client()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis sentinel: %v", err)
				}
				rdb.FlushDB(context.Background())
				return rdb, func() { rdb.FlushDB(context.Background()); _ = srv.Close() }
			},
		})
	}

	return modes
}

func splitAddrs(s string) []string {
	var addrs []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	return addrs
}

func TestRedisCompat_CreateReadUpdateDelete(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			store := session.NewStore(session.NewClientServer(rdb), session.WithPrefix("compat"))
			ctx := context.Background()

			key, err := store.Create(ctx, sampleData(), time.Hour)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if n, _ := rdb.Exists(ctx, "compat:"+key).Result(); n != 1 {
				t.Fatalf("expected prefixed key to exist, EXISTS=%d", n)
			}

			got, err := store.Read(ctx, key)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if got["user_id"] != "u1" || got["visits"] != float64(3) {
				t.Fatalf("unexpected data %v", got)
			}

			if err := store.Update(ctx, key, session.Data{"user_id": "u2"}, time.Hour); err != nil {
				t.Fatalf("update: %v", err)
			}
			got, _ = store.Read(ctx, key)
			if got["user_id"] != "u2" || len(got) != 1 {
				t.Fatalf("expected replaced data, got %v", got)
			}

			if err := store.Delete(ctx, key); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := store.Delete(ctx, key); err != nil {
				t.Fatalf("second delete: %v", err)
			}
			if ok, _ := store.Exists(ctx, key); ok {
				t.Fatal("expected key gone after delete")
			}
		})
	}
}

func TestRedisCompat_TTLApplied(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			store := session.NewStore(session.NewClientServer(rdb))
			ctx := context.Background()

			key, err := store.Create(ctx, sampleData(), 90*time.Second)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			ttl, err := rdb.TTL(ctx, key).Result()
			if err != nil {
				t.Fatalf("ttl: %v", err)
			}
			if ttl <= 0 || ttl > 90*time.Second {
				t.Fatalf("expected TTL in (0, 90s], got %v", ttl)
			}

			if err := store.Update(ctx, key, sampleData(), 0); err != nil {
				t.Fatalf("update with zero age: %v", err)
			}
			if n, _ := rdb.Exists(ctx, key).Result(); n != 0 {
				t.Fatal("expected zero age to remove the key")
			}
		})
	}
}

func TestRedisCompat_TamperedValueIsCorrupted(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			store := session.NewStore(session.NewClientServer(rdb))
			ctx := context.Background()

			key, err := store.Create(ctx, sampleData(), time.Hour)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if err := rdb.Set(ctx, key, "garbage", time.Hour).Err(); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			if _, err := store.Read(ctx, key); !errors.Is(err, codec.ErrCorruptedSessionData) {
				t.Fatalf("expected ErrCorruptedSessionData, got %v", err)
			}
		})
	}
}
