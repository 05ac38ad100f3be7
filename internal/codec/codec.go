// Package codec serves encode, decode and cell lookups on top of
// pkg/geohash, the mappers and the result cache tiers.
package codec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohammed-shakir/geohash-codec/internal/cache"
	"github.com/mohammed-shakir/geohash-codec/internal/cache/keys"
	"github.com/mohammed-shakir/geohash-codec/internal/core/model"
	"github.com/mohammed-shakir/geohash-codec/internal/core/observability"
	"github.com/mohammed-shakir/geohash-codec/internal/hitevents"
	mylog "github.com/mohammed-shakir/geohash-codec/internal/logger"
	"github.com/mohammed-shakir/geohash-codec/internal/mapper"
	"github.com/mohammed-shakir/geohash-codec/pkg/geohash"
)

var ErrUnknownScheme = errors.New("unknown cell scheme")

const tierCompute = "compute"

// Pinger is the remote dependency checked by Readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Cache     *cache.Tiered
	KeyPrefix string
	TTL       time.Duration
	Events    hitevents.Sink
	Mappers   map[string]mapper.Interface
	Redis     Pinger
}

type Service struct {
	logger  *slog.Logger
	cache   *cache.Tiered
	prefix  string
	ttl     time.Duration
	events  hitevents.Sink
	mappers map[string]mapper.Interface
	redis   Pinger
}

func New(logger *slog.Logger, opts Options) *Service {
	if opts.Events == nil {
		opts.Events = hitevents.Discard{}
	}
	return &Service{
		logger:  logger,
		cache:   opts.Cache,
		prefix:  opts.KeyPrefix,
		ttl:     opts.TTL,
		events:  opts.Events,
		mappers: opts.Mappers,
		redis:   opts.Redis,
	}
}

func (s *Service) Encode(ctx context.Context, req model.EncodeRequest) (model.EncodeResult, error) {
	start := time.Now()
	ctx = mylog.WithOp(ctx, "encode")

	if err := geohash.ValidatePoint(req.Lat, req.Lon); err != nil {
		s.finish(ctx, "encode", err, -1, start)
		return model.EncodeResult{}, err
	}

	key := keys.Encode(s.prefix, req.Lat, req.Lon, req.Length)
	res, tier, err := lookup(ctx, s, key, func() (model.EncodeResult, error) {
		h, err := geohash.Encode(req.Lat, req.Lon, req.Length)
		if err != nil {
			return model.EncodeResult{}, err
		}
		return model.EncodeResult{Geohash: h, Lat: req.Lat, Lon: req.Lon, Length: req.Length}, nil
	})
	s.finish(mylog.WithCacheTier(ctx, tier), "encode", err, int(req.Length), start)
	if err != nil {
		return model.EncodeResult{}, fmt.Errorf("encode: %w", err)
	}
	s.events.Publish(hitevents.Event{
		Op: "encode", Geohash: res.Geohash, Lat: float64(req.Lat), Lon: float64(req.Lon),
		Length: int(req.Length), Cache: tier,
	})
	return res, nil
}

func (s *Service) Decode(ctx context.Context, hash string) (model.DecodeResult, error) {
	start := time.Now()
	ctx = mylog.WithOp(ctx, "decode")

	// reject before the hash is used as a cache key
	if err := geohash.Validate(hash); err != nil {
		s.finish(ctx, "decode", err, -1, start)
		return model.DecodeResult{}, err
	}

	key := keys.Decode(s.prefix, hash)
	res, tier, err := lookup(ctx, s, key, func() (model.DecodeResult, error) {
		b, err := geohash.Decode(hash)
		if err != nil {
			return model.DecodeResult{}, err
		}
		lat, lon := b.Center()
		return model.DecodeResult{
			Geohash:   hash,
			Latitude:  b.Latitude,
			Longitude: b.Longitude,
			Center:    model.Point{Lat: lat, Lon: lon},
		}, nil
	})
	s.finish(mylog.WithCacheTier(ctx, tier), "decode", err, len(hash), start)
	if err != nil {
		return model.DecodeResult{}, fmt.Errorf("decode: %w", err)
	}
	s.events.Publish(hitevents.Event{
		Op: "decode", Geohash: hash, Lat: float64(res.Center.Lat), Lon: float64(res.Center.Lon),
		Length: len(hash), Cache: tier,
	})
	return res, nil
}

func (s *Service) Cell(ctx context.Context, req model.CellRequest) (model.CellResult, error) {
	start := time.Now()
	ctx = mylog.WithOp(ctx, "cell")

	m, ok := s.mappers[req.Scheme]
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownScheme, req.Scheme)
		s.finish(ctx, "cell", err, -1, start)
		return model.CellResult{}, err
	}

	key := keys.Cell(s.prefix, req.Scheme, req.Lat, req.Lon, req.Res)
	res, tier, err := lookup(ctx, s, key, func() (model.CellResult, error) {
		cell, err := m.CellForPoint(req.Lat, req.Lon, req.Res)
		if err != nil {
			return model.CellResult{}, err
		}
		bb, err := m.BBoxForCell(cell)
		if err != nil {
			return model.CellResult{}, err
		}
		return model.CellResult{Scheme: req.Scheme, Cell: cell, Res: req.Res, BBox: bb}, nil
	})
	s.finish(mylog.WithCacheTier(ctx, tier), "cell", err, -1, start)
	if err != nil {
		return model.CellResult{}, fmt.Errorf("cell %s: %w", req.Scheme, err)
	}
	s.events.Publish(hitevents.Event{
		Op: "cell", Scheme: req.Scheme, Geohash: geohashOrEmpty(res), Lat: req.Lat, Lon: req.Lon,
		Length: req.Res, Cache: tier,
	})
	return res, nil
}

// Readiness reports ok when the remote cache, if any, answers a ping.
func (s *Service) Readiness(ctx context.Context) (bool, map[string]string) {
	checks := map[string]string{}
	if s.redis == nil {
		return true, checks
	}
	if err := s.redis.Ping(ctx); err != nil {
		checks["redis"] = err.Error()
		return false, checks
	}
	checks["redis"] = "ok"
	return true, checks
}

func (s *Service) finish(ctx context.Context, op string, err error, length int, start time.Time) {
	outcome := Outcome(err)
	observability.ObserveCodec(op, outcome, length, time.Since(start).Seconds())
	lvl := slog.LevelDebug
	if outcome == "error" {
		lvl = slog.LevelError
	}
	if err != nil {
		s.logger.Log(ctx, lvl, "codec op", "outcome", outcome, "err", err)
		return
	}
	s.logger.Log(ctx, lvl, "codec op", "outcome", outcome)
}

// Outcome classifies an error for metrics and API responses.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, geohash.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, geohash.ErrInvalidCharacter):
		return "invalid_character"
	case errors.Is(err, ErrUnknownScheme):
		return "unknown_scheme"
	default:
		return "error"
	}
}

// lookup serves key from the cache tiers or computes and stores it.
func lookup[T any](ctx context.Context, s *Service, key string, compute func() (T, error)) (T, string, error) {
	if s.cache != nil {
		if b, tier, ok := s.cache.Get(ctx, key); ok {
			var v T
			if err := json.Unmarshal(b, &v); err == nil {
				return v, tier, nil
			}
			s.logger.WarnContext(ctx, "dropping undecodable cache entry", "key", key, "tier", tier)
		}
	}

	v, err := compute()
	if err != nil {
		var zero T
		return zero, "", err
	}
	if s.cache != nil {
		if b, err := json.Marshal(v); err == nil {
			// failures are logged by the tiers
			_ = s.cache.Set(ctx, key, b, s.ttl)
		}
	}
	return v, tierCompute, nil
}

func geohashOrEmpty(res model.CellResult) string {
	if res.Scheme == model.SchemeGeohash {
		return res.Cell
	}
	return ""
}
