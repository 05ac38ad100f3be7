package redisstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/geohash-codec/internal/core/observability"
	"github.com/mohammed-shakir/geohash-codec/internal/metrics"
)

// creates new client connected to miniredis for testing
func newMini(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	rc, err := New(ctx, mr.Addr(), WithPoolSize(4), WithReadTimeout(time.Second))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func TestSetGet_HappyPath(t *testing.T) {
	rc, _ := newMini(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := rc.Set(ctx, "geohash:dec:8:wydm9qyc", []byte(`{"x":1}`), 5*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, found, err := rc.Get(ctx, "geohash:dec:8:wydm9qyc")
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if string(got) != `{"x":1}` {
		t.Fatalf("unexpected value: %q", got)
	}

	_, found, err = rc.Get(ctx, "missing")
	if err != nil || found {
		t.Fatalf("missing key: found=%v err=%v want false/nil", found, err)
	}
}

func TestSet_AppliesTTL(t *testing.T) {
	rc, mr := newMini(t)
	ctx := context.Background()

	if err := rc.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mr.TTL("k"); ttl != time.Minute {
		t.Fatalf("ttl=%v want 1m", ttl)
	}
	mr.FastForward(2 * time.Minute)
	if _, found, _ := rc.Get(ctx, "k"); found {
		t.Fatalf("key must expire after ttl")
	}
}

func TestContextDeadline_IsRespected(t *testing.T) {
	rc, _ := newMini(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rc.Set(ctx, "k", []byte("v"), time.Second); err == nil {
		t.Fatalf("expected error on Set with canceled context")
	}
	if _, _, err := rc.Get(ctx, "k"); err == nil {
		t.Fatalf("expected error on Get with canceled context")
	}
	if err := rc.Ping(ctx); err == nil {
		t.Fatalf("expected error on Ping with canceled context")
	}
}

func TestNew_FailsWithoutServer(t *testing.T) {
	if _, err := New(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty address")
	}
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := New(ctx, addr, WithDialTimeout(100*time.Millisecond)); err == nil {
		t.Fatalf("expected ping error against closed server")
	}
}

func TestMetrics_Incremented(t *testing.T) {
	p := metrics.Init(metrics.Config{})
	observability.Init(p.Registerer(), true)

	rc, _ := newMini(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_ = rc.Set(ctx, "m1", []byte("x"), time.Minute)
	_, _, _ = rc.Get(ctx, "m1")
	_ = rc.Ping(ctx)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `cache_op_total{op="set"`) ||
		!strings.Contains(body, `cache_op_total{op="get"`) ||
		!strings.Contains(body, `cache_op_total{op="ping"`) {
		t.Fatalf("missing cache_op_total metrics; got:\n%s", body)
	}
	if !strings.Contains(body, `redis_operation_duration_seconds_bucket{op="set"`) {
		t.Fatalf("missing redis_operation_duration_seconds histogram; got:\n%s", body)
	}
}
