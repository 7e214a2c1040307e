//go:build integration
// +build integration

package test

import (
	"testing"

	"github.com/MrEthical07/goSession/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newIntegrationStore(t *testing.T, opts ...session.Option) (*session.Store, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewStore(session.NewClientServer(rdb), opts...)

	return store, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func sampleData() session.Data {
	return session.Data{
		"user_id": "u1",
		"role":    "member",
		"visits":  float64(3),
	}
}
