// Package server exposes the poll trigger surface: an interactive read path,
// an authenticated batch path, and the snapshot history read side.
package server

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/abulimen/pnode-watch/internal/config"
	"github.com/abulimen/pnode-watch/internal/poller"
	"github.com/abulimen/pnode-watch/internal/storage"
)

type Server struct {
	echo    *echo.Echo
	poller  *poller.Poller
	storage *storage.Storage
	cfg     *config.Config
}

// New wires the routes. store may be nil when storage initialization failed
// at startup; the interactive path still works and the batch path reports the
// failure in its error body.
func New(cfg *config.Config, p *poller.Poller, store *storage.Storage) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{
		echo:    e,
		poller:  p,
		storage: store,
		cfg:     cfg,
	}

	e.GET("/healthz", s.handleHealthz)
	e.GET("/api/nodes", s.handleNodes)
	e.GET("/api/stats", s.handleStats)
	e.POST("/api/cron/poll", s.handleCronPoll)
	e.GET("/api/history/network", s.handleNetworkHistory)
	e.GET("/api/history/nodes/:id", s.handleNodeHistory)

	return s
}

func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
