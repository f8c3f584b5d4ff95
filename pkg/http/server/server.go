package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/dump-dvb/lofi/pkg/util"
)

type Config struct {
	Port      int
	Timeout   time.Duration
	RateLimit float64 // requests per second per client, 0 disables limiting
	RateBurst int

	// peers whose X-Real-IP / X-Forwarded-For headers are honoured
	TrustedProxies []netip.Prefix
}

// ParseTrustedProxies accepts CIDR prefixes and bare addresses.
func ParseTrustedProxies(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if strings.Contains(v, "/") {
			prefix, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, util.WrapErrorf(err, util.ErrBadParamInput, "trusted proxy %q", v)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrBadParamInput, "trusted proxy %q", v)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

const defaultTimeout = 30 * time.Second

func New(ctx context.Context, handler http.Handler, config Config) *http.Server {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Port),
		Handler: http.TimeoutHandler(handler, config.Timeout, "request timed out"),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadTimeout:       config.Timeout,
		WriteTimeout:      config.Timeout + time.Second,
		IdleTimeout:       2 * config.Timeout,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
