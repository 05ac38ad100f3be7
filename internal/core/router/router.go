package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/geohash-codec/internal/codec"
	"github.com/mohammed-shakir/geohash-codec/internal/core/config"
	"github.com/mohammed-shakir/geohash-codec/internal/core/model"
	"github.com/mohammed-shakir/geohash-codec/internal/core/observability"
	"github.com/mohammed-shakir/geohash-codec/pkg/geohash"
)

// receives validated requests and serves them
type CodecHandler interface {
	Encode(ctx context.Context, req model.EncodeRequest) (model.EncodeResult, error)
	Decode(ctx context.Context, hash string) (model.DecodeResult, error)
	Cell(ctx context.Context, req model.CellRequest) (model.CellResult, error)
}

// ErrBadRequest marks malformed or missing query parameters.
var ErrBadRequest = errors.New("bad request")

const maxH3Res = 15

func HandleEncode(logger *slog.Logger, cfg config.Config, h CodecHandler) http.HandlerFunc {
	return serve(logger, "/v1/encode", func(r *http.Request) (any, error) {
		req, err := ParseEncodeRequest(r, cfg)
		if err != nil {
			return nil, err
		}
		return h.Encode(r.Context(), req)
	})
}

func HandleDecode(logger *slog.Logger, cfg config.Config, h CodecHandler) http.HandlerFunc {
	return serve(logger, "/v1/decode", func(r *http.Request) (any, error) {
		hash, err := ParseDecodeRequest(r, cfg)
		if err != nil {
			return nil, err
		}
		return h.Decode(r.Context(), hash)
	})
}

func HandleCell(logger *slog.Logger, cfg config.Config, h CodecHandler) http.HandlerFunc {
	return serve(logger, "/v1/cell", func(r *http.Request) (any, error) {
		req, err := ParseCellRequest(r, cfg)
		if err != nil {
			return nil, err
		}
		return h.Cell(r.Context(), req)
	})
}

func serve(logger *slog.Logger, route string, fn func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}

		out, err := fn(r)
		if err != nil {
			status, code := classify(err)
			if status >= http.StatusInternalServerError {
				logger.ErrorContext(r.Context(), "request failed", "route", route, "err", err)
			}
			writeJSON(sw, status, errorBody{Error: code, Message: err.Error()})
		} else {
			writeJSON(sw, http.StatusOK, out)
		}
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, geohash.ErrOutOfRange):
		return http.StatusBadRequest, "out_of_range"
	case errors.Is(err, geohash.ErrInvalidCharacter):
		return http.StatusBadRequest, "invalid_character"
	case errors.Is(err, ErrBadRequest), errors.Is(err, codec.ErrUnknownScheme):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func ParseEncodeRequest(r *http.Request, cfg config.Config) (model.EncodeRequest, error) {
	q := r.URL.Query()
	lat, err := requiredFloat(q.Get("lat"), "lat")
	if err != nil {
		return model.EncodeRequest{}, err
	}
	lon, err := requiredFloat(q.Get("lon"), "lon")
	if err != nil {
		return model.EncodeRequest{}, err
	}

	if err := checkPoint(lat, lon); err != nil {
		return model.EncodeRequest{}, err
	}

	length := cfg.DefaultLength
	if raw := strings.TrimSpace(q.Get("len")); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return model.EncodeRequest{}, fmt.Errorf("%w: len: %v", ErrBadRequest, err)
		}
		if n > uint64(cfg.MaxLength) {
			return model.EncodeRequest{}, fmt.Errorf("%w: len must be in [0,%d]", ErrBadRequest, cfg.MaxLength)
		}
		length = uint32(n)
	}

	return model.EncodeRequest{Lat: float32(lat), Lon: float32(lon), Length: length}, nil
}

func ParseDecodeRequest(r *http.Request, cfg config.Config) (string, error) {
	q := r.URL.Query()
	if !q.Has("geohash") {
		return "", fmt.Errorf("%w: missing required parameter: geohash", ErrBadRequest)
	}
	hash := q.Get("geohash")
	if len(hash) > int(cfg.MaxLength) {
		return "", fmt.Errorf("%w: geohash longer than %d", ErrBadRequest, cfg.MaxLength)
	}
	return hash, nil
}

func ParseCellRequest(r *http.Request, cfg config.Config) (model.CellRequest, error) {
	q := r.URL.Query()
	lat, err := requiredFloat(q.Get("lat"), "lat")
	if err != nil {
		return model.CellRequest{}, err
	}
	lon, err := requiredFloat(q.Get("lon"), "lon")
	if err != nil {
		return model.CellRequest{}, err
	}
	if err := checkPoint(lat, lon); err != nil {
		return model.CellRequest{}, err
	}

	scheme := strings.ToLower(strings.TrimSpace(q.Get("scheme")))
	var res, lo, hi int
	switch scheme {
	case "", model.SchemeGeohash:
		scheme, res, lo, hi = model.SchemeGeohash, int(cfg.DefaultLength), 1, int(cfg.MaxLength)
	case model.SchemeH3:
		res, lo, hi = cfg.H3Res, 0, maxH3Res
	default:
		return model.CellRequest{}, fmt.Errorf("%w: unsupported scheme %q (must be geohash or h3)", ErrBadRequest, scheme)
	}

	if raw := strings.TrimSpace(q.Get("res")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return model.CellRequest{}, fmt.Errorf("%w: res: %v", ErrBadRequest, err)
		}
		res = n
	}
	if res < lo || res > hi {
		return model.CellRequest{}, fmt.Errorf("%w: res for %s must be in [%d,%d]", ErrBadRequest, scheme, lo, hi)
	}

	return model.CellRequest{Scheme: scheme, Lat: lat, Lon: lon, Res: res}, nil
}

// checkPoint rejects out-of-range input before it is narrowed to float32,
// where 90.000001 would round onto the boundary.
func checkPoint(lat, lon float64) error {
	if !(lat >= -90 && lat <= 90) || !(lon >= -180 && lon <= 180) {
		return fmt.Errorf("lat=%v lon=%v: %w", lat, lon, geohash.ErrOutOfRange)
	}
	return nil
}

func requiredFloat(raw, name string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: missing required parameter: %s", ErrBadRequest, name)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrBadRequest, name, err)
	}
	// NaN parses fine and is left to the range checks
	return f, nil
}
