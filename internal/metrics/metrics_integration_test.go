package metrics

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammed-shakir/geohash-codec/internal/core/observability"
)

func assertHasMetricLine(t *testing.T, body, metric string, wantLabels ...string) {
	t.Helper()
	for ln := range strings.SplitSeq(body, "\n") {
		if !strings.HasPrefix(ln, metric+"{") {
			continue
		}
		ok := true
		for _, s := range wantLabels {
			if !strings.Contains(ln, s) {
				ok = false
				break
			}
		}
		if ok && (len(ln) > 0 && ln[len(ln)-1] >= '0' && ln[len(ln)-1] <= '9') {
			return
		}
	}
	t.Fatalf("expected a %s line with labels %v; got:\n%s", metric, wantLabels, body)
}

func Test_AppMetrics_CustomRegistry_Smoke(t *testing.T) {
	p := Init(Config{Build: BuildInfo{Version: "test"}})
	observability.Init(p.Registerer(), true)

	start := time.Now()
	observability.ObserveHTTP(http.MethodGet, "/v1/decode", http.StatusOK, time.Since(start).Seconds())
	observability.ObserveCodec("decode", "ok", 6, time.Since(start).Seconds())
	observability.IncCacheMiss("lru")

	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()

	assertHasMetricLine(t, body, "http_requests_total", `route="/v1/decode"`, `status="200"`)
	assertHasMetricLine(t, body, "codec_operations_total", `op="decode"`, `outcome="ok"`)
	assertHasMetricLine(t, body, "cache_results_total", `tier="lru"`, `outcome="miss"`)
	assertHasMetricLine(t, body, "app_build_info", `version="test"`)
}

func TestServe_NoAddrReturnsImmediately(t *testing.T) {
	p := Init(Config{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	done := make(chan error, 1)
	go func() { done <- p.Serve(context.Background(), logger) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Serve blocked without an address")
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	p := Init(Config{Addr: "127.0.0.1:0"})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Serve(ctx, logger) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Serve did not stop after cancel")
	}
}
