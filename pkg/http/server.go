package http

import (
	"context"

	"github.com/dump-dvb/lofi/pkg/engine"
	http_router "github.com/dump-dvb/lofi/pkg/http/router"
	"github.com/dump-dvb/lofi/pkg/http/router/controllers"
	http_server "github.com/dump-dvb/lofi/pkg/http/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultRateBurst = 20

type Server struct {
	Log *zap.Logger
	g   *errgroup.Group
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

// Use starts the location api in the background. Wait blocks until it stops.
func (s *Server) Use(
	ctx context.Context,
	cfg engine.Config,
	locationService controllers.LocationService,
) (*Server, error) {
	trusted, err := http_server.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	config := http_server.Config{
		Port:           cfg.APIPort,
		Timeout:        cfg.APITimeout,
		RateLimit:      cfg.RateLimit,
		RateBurst:      defaultRateBurst,
		TrustedProxies: trusted,
	}

	api := http_router.NewAPI(s.Log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Run(gctx, config, locationService)
	})
	s.g = g

	return s, nil
}

func (s *Server) Wait() error {
	if s.g == nil {
		return nil
	}
	return s.g.Wait()
}
