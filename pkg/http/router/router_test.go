package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"testing"
	"time"

	da "github.com/dump-dvb/lofi/pkg/datastructure"
	http_server "github.com/dump-dvb/lofi/pkg/http/server"
	"github.com/dump-dvb/lofi/pkg/http/usecases"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubService struct {
	panicOnGraph bool
}

func (s stubService) Locations(context.Context, int64) (da.RegionReportLocations, da.RegionMeta, error) {
	return da.RegionReportLocations{1: da.NewLocationEstimate(51, 13)}, da.RegionMeta{}, nil
}

func (s stubService) Nearby(context.Context, int64, float64, float64, float64) ([]usecases.NearbyReportingPoint, error) {
	return nil, nil
}

func (s stubService) Graph(context.Context, int64) (da.RegionGraph, error) {
	if s.panicOnGraph {
		panic("boom")
	}
	return da.RegionGraph{}, nil
}

func testConfig() http_server.Config {
	return http_server.Config{Port: 0, Timeout: time.Second}
}

func do(h http.Handler, method, target string, header http.Header, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewAPI(zap.New(core)).Handler(testConfig(), stubService{})

	t.Run("heartbeat", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/healthz", nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, ".", rec.Body.String())
	})

	t.Run("api route", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/regions/0/locations", nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotZero(t, logs.FilterMessage("request").Len())
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/api/nothing", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non json body", func(t *testing.T) {
		rec := do(h, http.MethodPost, "/api/regions/0/locations",
			http.Header{"Content-Type": []string{"text/plain"}}, "hello")
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestRecoverPanic(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := NewAPI(zap.New(core)).Handler(testConfig(), stubService{panicOnGraph: true})

	rec := do(h, http.MethodGet, "/api/regions/0/graph", nil, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "close", rec.Header().Get("Connection"))
	assert.Equal(t, 1, logs.FilterMessage("panic while serving request").Len())
}

func TestLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 2
	// httptest requests come from 192.0.2.1
	cfg.TrustedProxies = []netip.Prefix{netip.MustParsePrefix("192.0.2.0/24")}
	h := NewAPI(zap.NewNop()).Handler(cfg, stubService{})

	for i := 0; i < 2; i++ {
		rec := do(h, http.MethodGet, "/api/regions/0/locations", nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(h, http.MethodGet, "/api/regions/0/locations", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// a client behind the trusted proxy has its own bucket
	rec = do(h, http.MethodGet, "/api/regions/0/locations",
		http.Header{"X-Real-Ip": []string{"10.0.0.9"}}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLimitIgnoresForwardedHeadersFromUntrustedPeers(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1
	h := NewAPI(zap.NewNop()).Handler(cfg, stubService{})

	rec := do(h, http.MethodGet, "/api/regions/0/locations", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		rec = do(h, http.MethodGet, "/api/regions/0/locations",
			http.Header{"X-Forwarded-For": []string{ip}}, "")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code, ip)
	}
}

func TestLimitForgetsLeastRecentClients(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := limit(0.001, 1, 2)(ok)

	from := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, from("10.0.0.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1:1001"))

	// two newer clients push the first one out of the cache
	assert.Equal(t, http.StatusOK, from("10.0.0.2:1000"))
	assert.Equal(t, http.StatusOK, from("10.0.0.3:1000"))
	assert.Equal(t, http.StatusOK, from("10.0.0.1:1002"))
}

func TestRealIP(t *testing.T) {
	proxy := []netip.Prefix{netip.MustParsePrefix("192.0.2.0/24")}

	tests := []struct {
		name    string
		trusted []netip.Prefix
		remote  string
		header  http.Header
		want    string
	}{
		{"x-real-ip", proxy, "192.0.2.1:1234", http.Header{"X-Real-Ip": []string{"10.1.1.1"}}, "10.1.1.1"},
		{"x-forwarded-for first entry", proxy, "192.0.2.1:1234",
			http.Header{"X-Forwarded-For": []string{"10.2.2.2, 10.3.3.3"}}, "10.2.2.2"},
		{"garbage ignored", proxy, "192.0.2.1:1234", http.Header{"X-Real-Ip": []string{"not-an-ip"}}, "192.0.2.1:1234"},
		{"none", proxy, "192.0.2.1:1234", nil, "192.0.2.1:1234"},
		{"untrusted peer", proxy, "198.51.100.7:1234",
			http.Header{"X-Real-Ip": []string{"10.1.1.1"}}, "198.51.100.7:1234"},
		{"no trusted proxies", nil, "192.0.2.1:1234",
			http.Header{"X-Forwarded-For": []string{"10.2.2.2"}}, "192.0.2.1:1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := RealIP(tt.trusted)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header[k] = v
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}
