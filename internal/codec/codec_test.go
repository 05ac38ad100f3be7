package codec

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/geohash-codec/internal/cache"
	"github.com/mohammed-shakir/geohash-codec/internal/cache/keys"
	"github.com/mohammed-shakir/geohash-codec/internal/cache/lrustore"
	"github.com/mohammed-shakir/geohash-codec/internal/cache/redisstore"
	"github.com/mohammed-shakir/geohash-codec/internal/core/model"
	"github.com/mohammed-shakir/geohash-codec/internal/hitevents"
	"github.com/mohammed-shakir/geohash-codec/internal/mapper"
	ghmapper "github.com/mohammed-shakir/geohash-codec/internal/mapper/geohash"
	h3mapper "github.com/mohammed-shakir/geohash-codec/internal/mapper/h3"
	"github.com/mohammed-shakir/geohash-codec/pkg/geohash"
)

type recordingSink struct {
	events []hitevents.Event
}

func (r *recordingSink) Publish(ev hitevents.Event) { r.events = append(r.events, ev) }

func (r *recordingSink) last(t *testing.T) hitevents.Event {
	t.Helper()
	if len(r.events) == 0 {
		t.Fatal("no events published")
	}
	return r.events[len(r.events)-1]
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func mappers() map[string]mapper.Interface {
	return map[string]mapper.Interface{
		model.SchemeGeohash: ghmapper.New(),
		model.SchemeH3:      h3mapper.New(),
	}
}

func newRedis(t *testing.T) (*redisstore.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rc, err := redisstore.New(context.Background(), mr.Addr())
	if err != nil {
		t.Fatalf("redisstore: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func newLRU(t *testing.T) *lrustore.Store {
	t.Helper()
	s, err := lrustore.New(64)
	if err != nil {
		t.Fatalf("lru: %v", err)
	}
	return s
}

func TestEncode_NoCache(t *testing.T) {
	sink := &recordingSink{}
	svc := New(discard(), Options{Events: sink})

	res, err := svc.Encode(context.Background(), model.EncodeRequest{Lat: 37.5666805, Lon: 126.9784147, Length: 8})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if res.Geohash != "wydm9qyc" || res.Length != 8 {
		t.Fatalf("got %+v", res)
	}
	if ev := sink.last(t); ev.Op != "encode" || ev.Cache != "compute" || ev.Geohash != "wydm9qyc" {
		t.Fatalf("event=%+v", ev)
	}
}

func TestEncode_OutOfRange(t *testing.T) {
	sink := &recordingSink{}
	svc := New(discard(), Options{Events: sink})

	_, err := svc.Encode(context.Background(), model.EncodeRequest{Lat: 90.0001, Lon: 0, Length: 1})
	if !errors.Is(err, geohash.ErrOutOfRange) {
		t.Fatalf("err=%v want ErrOutOfRange", err)
	}
	if Outcome(err) != "out_of_range" {
		t.Fatalf("outcome=%q", Outcome(err))
	}
	if len(sink.events) != 0 {
		t.Fatalf("failed op published %d events", len(sink.events))
	}
}

func TestDecode_InvalidCharacter(t *testing.T) {
	svc := New(discard(), Options{})
	_, err := svc.Decode(context.Background(), "wyd!9qyc")

	var ce *geohash.CharacterError
	if !errors.As(err, &ce) {
		t.Fatalf("err=%v want *CharacterError", err)
	}
	if ce.Char != '!' || ce.Offset != 3 {
		t.Fatalf("char=%q offset=%d", ce.Char, ce.Offset)
	}
}

func TestDecode_CenterInsideBounds(t *testing.T) {
	svc := New(discard(), Options{})
	res, err := svc.Decode(context.Background(), "wydm9qyc")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := geohash.Bounds{Latitude: res.Latitude, Longitude: res.Longitude}
	if !b.Contains(res.Center.Lat, res.Center.Lon) {
		t.Fatalf("center %+v outside %+v", res.Center, b)
	}
	if !b.Contains(37.5666805, 126.9784147) {
		t.Fatalf("source point outside %+v", b)
	}
}

func TestTiers_LRUThenRedisThenCompute(t *testing.T) {
	ctx := context.Background()
	rc, mr := newRedis(t)
	redisTier := cache.NewRedisTier(rc, time.Second, time.Minute)

	sink := &recordingSink{}
	first := New(discard(), Options{
		Cache:     cache.NewTiered(discard(), cache.Tier{Name: "lru", Store: newLRU(t)}, cache.Tier{Name: "redis", Store: redisTier}),
		KeyPrefix: "t",
		TTL:       time.Minute,
		Events:    sink,
	})

	if _, err := first.Decode(ctx, "u4pruy"); err != nil {
		t.Fatal(err)
	}
	if got := sink.last(t).Cache; got != "compute" {
		t.Fatalf("first lookup tier=%q want compute", got)
	}
	if !mr.Exists(keys.Decode("t", "u4pruy")) {
		t.Fatal("computed result not written to redis")
	}

	if _, err := first.Decode(ctx, "u4pruy"); err != nil {
		t.Fatal(err)
	}
	if got := sink.last(t).Cache; got != "lru" {
		t.Fatalf("second lookup tier=%q want lru", got)
	}

	// fresh process: empty lru, shared redis
	second := New(discard(), Options{
		Cache:     cache.NewTiered(discard(), cache.Tier{Name: "lru", Store: newLRU(t)}, cache.Tier{Name: "redis", Store: redisTier}),
		KeyPrefix: "t",
		Events:    sink,
	})
	res, err := second.Decode(ctx, "u4pruy")
	if err != nil {
		t.Fatal(err)
	}
	if got := sink.last(t).Cache; got != "redis" {
		t.Fatalf("cold lru lookup tier=%q want redis", got)
	}
	want, _ := geohash.Decode("u4pruy")
	if res.Latitude != want.Latitude || res.Longitude != want.Longitude {
		t.Fatalf("cached bounds %+v %+v differ from %+v", res.Latitude, res.Longitude, want)
	}
}

func TestLookup_RedisDownStillServes(t *testing.T) {
	rc, mr := newRedis(t)
	mr.Close()

	svc := New(discard(), Options{
		Cache: cache.NewTiered(discard(), cache.Tier{Name: "redis", Store: cache.NewRedisTier(rc, 50*time.Millisecond, time.Minute)}),
		Redis: rc,
	})
	res, err := svc.Encode(context.Background(), model.EncodeRequest{Lat: 0, Lon: 0, Length: 8})
	if err != nil {
		t.Fatalf("encode with dead redis: %v", err)
	}
	if res.Geohash != "s0000000" {
		t.Fatalf("geohash=%q", res.Geohash)
	}

	ready, checks := svc.Readiness(context.Background())
	if ready {
		t.Fatal("expected not ready with redis down")
	}
	if checks["redis"] == "" || checks["redis"] == "ok" {
		t.Fatalf("checks=%v", checks)
	}
}

func TestLookup_UndecodableEntryIsRecomputed(t *testing.T) {
	ctx := context.Background()
	lru := newLRU(t)
	svc := New(discard(), Options{
		Cache:     cache.NewTiered(discard(), cache.Tier{Name: "lru", Store: lru}),
		KeyPrefix: "t",
	})
	_ = lru.Set(ctx, keys.Encode("t", 0, 0, 1), []byte("{not json"), 0)

	res, err := svc.Encode(ctx, model.EncodeRequest{Lat: 0, Lon: 0, Length: 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.Geohash != "s" {
		t.Fatalf("geohash=%q want s", res.Geohash)
	}
}

func TestCell_Schemes(t *testing.T) {
	sink := &recordingSink{}
	svc := New(discard(), Options{Mappers: mappers(), Events: sink})
	ctx := context.Background()

	gh, err := svc.Cell(ctx, model.CellRequest{Scheme: model.SchemeGeohash, Lat: 59.3293, Lon: 18.0686, Res: 6})
	if err != nil {
		t.Fatalf("geohash cell: %v", err)
	}
	if len(gh.Cell) != 6 || sink.last(t).Geohash != gh.Cell {
		t.Fatalf("cell=%+v event=%+v", gh, sink.last(t))
	}
	if !(gh.BBox.X1 <= 18.0686 && 18.0686 <= gh.BBox.X2 && gh.BBox.Y1 <= 59.3293 && 59.3293 <= gh.BBox.Y2) {
		t.Fatalf("bbox %+v does not contain point", gh.BBox)
	}

	h3, err := svc.Cell(ctx, model.CellRequest{Scheme: model.SchemeH3, Lat: 59.3293, Lon: 18.0686, Res: 8})
	if err != nil {
		t.Fatalf("h3 cell: %v", err)
	}
	if h3.Cell == "" || h3.Res != 8 {
		t.Fatalf("h3=%+v", h3)
	}
	if sink.last(t).Geohash != "" {
		t.Fatalf("h3 event carries geohash: %+v", sink.last(t))
	}

	_, err = svc.Cell(ctx, model.CellRequest{Scheme: "s2", Lat: 1, Lon: 1, Res: 1})
	if !errors.Is(err, ErrUnknownScheme) {
		t.Fatalf("err=%v want ErrUnknownScheme", err)
	}
}

func TestReadiness_NoRedis(t *testing.T) {
	ready, checks := New(discard(), Options{}).Readiness(context.Background())
	if !ready || len(checks) != 0 {
		t.Fatalf("ready=%v checks=%v", ready, checks)
	}
}

func TestReadiness_RedisUp(t *testing.T) {
	rc, _ := newRedis(t)
	ready, checks := New(discard(), Options{Redis: rc}).Readiness(context.Background())
	if !ready || checks["redis"] != "ok" {
		t.Fatalf("ready=%v checks=%v", ready, checks)
	}
}
