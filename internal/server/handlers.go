package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/abulimen/pnode-watch/internal/derive"
	"github.com/abulimen/pnode-watch/internal/poller"
	"github.com/abulimen/pnode-watch/internal/seeds"
)

// Stable error codes in 500 bodies so callers can tell configuration
// problems from transient seed outages.
const (
	codeNoSources       = "no_sources_configured"
	codeAllFailed       = "all_sources_failed"
	codeStorageInit     = "storage_initialization_failed"
	codeStorageFailed   = "storage_failed"
	codeInternalFailure = "internal_failure"
)

type errorBody struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Causes []string `json:"causes,omitempty"`
}

func (s *Server) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNodes(c echo.Context) error {
	nodes, err := s.poller.FetchNodes(c.Request().Context())
	if err != nil {
		return sourceError(c, err)
	}
	return c.JSON(http.StatusOK, nodes)
}

func (s *Server) handleStats(c echo.Context) error {
	nodes, err := s.poller.FetchNodes(c.Request().Context())
	if err != nil {
		return sourceError(c, err)
	}
	return c.JSON(http.StatusOK, derive.Aggregate(nodes))
}

func (s *Server) handleCronPoll(c echo.Context) error {
	if !s.authorized(c) {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "missing or invalid credential", Code: "unauthorized"})
	}

	if s.storage == nil {
		return c.JSON(http.StatusInternalServerError, errorBody{
			Error: "snapshot store unavailable",
			Code:  codeStorageInit,
		})
	}

	result, err := s.poller.RunCycle(c.Request().Context())
	if err != nil {
		var pe *poller.PersistError
		if errors.As(err, &pe) {
			return c.JSON(http.StatusInternalServerError, errorBody{Error: pe.Error(), Code: codeStorageFailed})
		}
		return sourceError(c, err)
	}

	pruned, err := s.storage.PruneOldSnapshots(s.cfg.RetentionDays)
	if err != nil {
		// The snapshot is already persisted; a failed prune is not worth a 500.
		c.Logger().Warnf("prune after poll failed: %v", err)
	} else if pruned > 0 {
		c.Logger().Infof("pruned %d expired snapshots", pruned)
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleNetworkHistory(c echo.Context) error {
	if s.storage == nil {
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "snapshot store unavailable", Code: codeStorageInit})
	}

	snapshots, err := s.storage.GetNetworkHistory(hoursParam(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error(), Code: codeStorageFailed})
	}
	return c.JSON(http.StatusOK, snapshots)
}

func (s *Server) handleNodeHistory(c echo.Context) error {
	if s.storage == nil {
		return c.JSON(http.StatusInternalServerError, errorBody{Error: "snapshot store unavailable", Code: codeStorageInit})
	}

	points, err := s.storage.GetNodeHistory(c.Param("id"), hoursParam(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error(), Code: codeStorageFailed})
	}
	if len(points) == 0 {
		return c.JSON(http.StatusNotFound, errorBody{Error: "no history for this node", Code: "not_found"})
	}
	return c.JSON(http.StatusOK, points)
}

// authorized checks the batch path's shared secret before any seed is
// queried.
func (s *Server) authorized(c echo.Context) bool {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.CronSecret)) == 1
}

func sourceError(c echo.Context, err error) error {
	if errors.Is(err, seeds.ErrNoSources) {
		return c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error(), Code: codeNoSources})
	}

	var agg *seeds.ExhaustedError
	if errors.As(err, &agg) {
		return c.JSON(http.StatusInternalServerError, errorBody{
			Error:  "all seed sources failed",
			Code:   codeAllFailed,
			Causes: agg.Causes(),
		})
	}

	return c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error(), Code: codeInternalFailure})
}

func hoursParam(c echo.Context) int {
	hours := 24
	if raw := c.QueryParam("hours"); raw != "" {
		if h, err := strconv.Atoi(raw); err == nil && h > 0 {
			hours = h
		}
	}
	return hours
}
