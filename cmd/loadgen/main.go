package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"
)

type Config struct {
	BaseURL        string
	Concurrency    int
	Duration       time.Duration
	ZipfS          float64
	ZipfV          float64
	Points         int
	Length         uint
	CellEvery      int
	RequestTimeout time.Duration
	Output         string
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "target", "http://localhost:8090", "geohash-server base URL")
	flag.IntVar(&cfg.Concurrency, "concurrency", 32, "Concurrent workers")
	flag.DurationVar(&cfg.Duration, "duration", 30*time.Second, "Test duration")
	flag.Float64Var(&cfg.ZipfS, "zipf-s", 1.3, "Zipf parameter s (>1)")
	flag.Float64Var(&cfg.ZipfV, "zipf-v", 1.0, "Zipf parameter v (>=1)")
	flag.IntVar(&cfg.Points, "points", 1024, "Distinct points in pool")
	flag.UintVar(&cfg.Length, "len", 8, "Geohash length for encode requests")
	flag.IntVar(&cfg.CellEvery, "cell-every", 10, "Every n-th request is an h3 cell lookup (0 disables)")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", 5*time.Second, "Per-request timeout")
	flag.StringVar(&cfg.Output, "out", "", "Optional summary JSON path")
	flag.Parse()
	return cfg
}

type sample struct {
	Op      string
	Latency time.Duration
	Status  int
	Err     bool
}

type opStats struct {
	Total  int64 `json:"total"`
	Errors int64 `json:"errors"`
}

type summary struct {
	StartTime     time.Time          `json:"start"`
	DurationSec   float64            `json:"duration_sec"`
	TotalRequests int64              `json:"total"`
	ErrorCount    int64              `json:"errors"`
	ThroughputRPS float64            `json:"throughput_rps"`
	P50Ms         float64            `json:"p50_ms"`
	P95Ms         float64            `json:"p95_ms"`
	P99Ms         float64            `json:"p99_ms"`
	PerOp         map[string]opStats `json:"per_op"`
	Concurrency   int                `json:"concurrency"`
	Points        int                `json:"points"`
	Target        string             `json:"target"`
}

func main() {
	cfg := loadConfig()

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") {
		log.Fatalf("bad target %q", cfg.BaseURL)
	}
	if cfg.Points < 1 || cfg.Concurrency < 1 {
		log.Fatalf("points and concurrency must be positive")
	}

	seed := time.Now().UnixNano()
	pts := makePoints(cfg.Points, uint32(cfg.Length), rand.New(rand.NewSource(seed)))
	imax := uint64(len(pts)) - 1

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: 4 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			MaxIdleConns:        1024,
			MaxIdleConnsPerHost: 256,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: cfg.RequestTimeout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	samples := make(chan sample, 4096)
	done := make(chan summary, 1)
	go func() {
		out := summary{PerOp: map[string]opStats{}}
		lat := make([]float64, 0, 1<<16)
		for s := range samples {
			out.TotalRequests++
			st := out.PerOp[s.Op]
			st.Total++
			if s.Err {
				out.ErrorCount++
				st.Errors++
			} else {
				lat = append(lat, float64(s.Latency.Microseconds())/1000.0)
			}
			out.PerOp[s.Op] = st
		}
		sort.Float64s(lat)
		out.P50Ms = percentile(lat, 50)
		out.P95Ms = percentile(lat, 95)
		out.P99Ms = percentile(lat, 99)
		done <- out
	}()

	start := time.Now()
	log.Printf("loadgen start target=%s dur=%s conc=%d points=%d len=%d", cfg.BaseURL, cfg.Duration, cfg.Concurrency, len(pts), cfg.Length)

	var wg sync.WaitGroup
	for id := range cfg.Concurrency {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed + int64(id) + 1))
			zipf := rand.NewZipf(r, cfg.ZipfS, cfg.ZipfV, imax)
			for n := 0; ; n++ {
				if ctx.Err() != nil {
					return
				}
				v := zipf.Uint64()
				if v > uint64(math.MaxInt) || int(v) >= len(pts) {
					continue
				}
				op, u := requestFor(base, n, pts[v], cfg.CellEvery)
				s := fire(ctx, httpClient, op, u.String())
				if ctx.Err() != nil {
					// request cut short by the deadline
					return
				}
				samples <- s
			}
		}(id)
	}
	wg.Wait()
	close(samples)

	res := <-done
	res.StartTime = start.UTC()
	res.DurationSec = time.Since(start).Seconds()
	res.ThroughputRPS = float64(res.TotalRequests) / res.DurationSec
	res.Concurrency = cfg.Concurrency
	res.Points = len(pts)
	res.Target = cfg.BaseURL

	log.Printf("done: total=%d err=%d thr=%.2f rps p50=%.2fms p95=%.2fms p99=%.2fms",
		res.TotalRequests, res.ErrorCount, res.ThroughputRPS, res.P50Ms, res.P95Ms, res.P99Ms)
	for op, st := range res.PerOp {
		log.Printf("  %-6s total=%d err=%d", op, st.Total, st.Errors)
	}

	if cfg.Output != "" {
		if err := writeSummary(cfg.Output, res); err != nil {
			log.Printf("write summary: %v", err)
		}
	}
}

func fire(ctx context.Context, c *http.Client, op, target string) sample {
	start := time.Now()
	s := sample{Op: op}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		s.Err = true
		return s
	}
	resp, err := c.Do(req)
	s.Latency = time.Since(start)
	if err != nil {
		s.Err = true
		return s
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	s.Status = resp.StatusCode
	s.Err = resp.StatusCode < 200 || resp.StatusCode >= 300
	return s
}

func writeSummary(path string, s summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}
	defer func() { _ = f.Close() }()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}
