package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/dump-dvb/lofi/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := New(context.Background(), h, Config{Port: 6061, Timeout: 2 * time.Second})
	assert.Equal(t, ":6061", srv.Addr)
	assert.Equal(t, 2*time.Second, srv.ReadTimeout)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	srv = New(context.Background(), h, Config{Port: 6061})
	assert.Equal(t, defaultTimeout, srv.ReadTimeout)
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 127.0.0.1 ", "::1", "192.168.1.7/24"})
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("127.0.0.1/32"),
		netip.MustParsePrefix("::1/128"),
		netip.MustParsePrefix("192.168.1.0/24"),
	}, prefixes)

	_, err = ParseTrustedProxies([]string{"proxy.local"})
	assert.Equal(t, util.ErrBadParamInput, util.ErrorCode(err))

	prefixes, err = ParseTrustedProxies(nil)
	require.NoError(t, err)
	assert.Empty(t, prefixes)
}
