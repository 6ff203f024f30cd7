package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Guliveer/pcstatus/internal/machines"
	"github.com/Guliveer/pcstatus/internal/models"
)

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// health reports liveness.
// GET /healthz
func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ingest merges a pushed snapshot into the machine's record.
// POST /machines/:id
func (s *Server) ingest(c echo.Context) error {
	id := c.Param("id")

	patch, err := decodePatch(c.Request().Body)
	if err != nil {
		s.logger.Warn("Rejected malformed snapshot",
			zap.String("machine_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}

	observedAt, err := s.svc.Ingest(c.Request().Context(), id, patch)
	switch {
	case errors.Is(err, machines.ErrEmptyPayload), errors.Is(err, machines.ErrInvalidID):
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	case err != nil:
		s.logger.Error("Storing snapshot failed",
			zap.String("machine_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody("failed to store snapshot"))
	}

	s.logger.Info("Snapshot ingested",
		zap.String("machine_id", id),
		zap.Time("last_seen", observedAt))
	return c.JSON(http.StatusOK, map[string]string{
		"message": id + " updated successfully",
		"id":      id,
	})
}

// decodePatch parses an ingest body. An empty body, a non-object, or JSON
// null is rejected.
func decodePatch(body io.Reader) (models.SnapshotPatch, error) {
	var patch models.SnapshotPatch

	raw, err := io.ReadAll(body)
	if err != nil {
		return patch, errors.New("failed to read request body")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return patch, errors.New("request body is empty")
	}
	if raw[0] != '{' {
		return patch, errors.New("request body must be a JSON object")
	}
	if err := json.Unmarshal(raw, &patch); err != nil {
		return patch, errors.New("request body is not a valid snapshot")
	}
	return patch, nil
}

// listMachines returns every machine record.
// GET /machines
func (s *Server) listMachines(c echo.Context) error {
	records, err := s.svc.List(c.Request().Context())
	if err != nil {
		s.logger.Error("Listing machines failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, records)
}

// getMachine returns one machine record.
// GET /machines/:id
func (s *Server) getMachine(c echo.Context) error {
	id := c.Param("id")
	rec, err := s.svc.Get(c.Request().Context(), id)
	if errors.Is(err, machines.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorBody(id+" not found"))
	}
	if err != nil {
		s.logger.Error("Reading machine failed", zap.String("machine_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, rec)
}

// deleteMachine removes a machine record.
// DELETE /machines/:id
func (s *Server) deleteMachine(c echo.Context) error {
	id := c.Param("id")
	if err := s.svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, machines.ErrInvalidID) {
			return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		}
		s.logger.Error("Deleting machine failed", zap.String("machine_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": id + " deleted successfully",
		"id":      id,
	})
}
