package web

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-facecap/pkg/expression"
	"github.com/teslashibe/go-facecap/pkg/hub"
	"github.com/teslashibe/go-facecap/pkg/ingest"
	"github.com/teslashibe/go-facecap/pkg/pipeline"
	"github.com/teslashibe/go-facecap/pkg/protocol"
	"github.com/teslashibe/go-facecap/pkg/render"
)

// StateResponse is the body of GET /api/state
type StateResponse struct {
	Style render.Style         `json:"style"`
	State expression.FaceState `json:"state"`
}

// StatsResponse is the body of GET /api/stats
type StatsResponse struct {
	UptimeSeconds float64        `json:"uptime_s"`
	Pipeline      pipeline.Stats `json:"pipeline"`
	Ingest        *ingest.Stats  `json:"ingest,omitempty"`
	Hubs          []hub.Stats    `json:"hubs"`
}

// ResetRequest is the body of POST /api/reset
type ResetRequest struct {
	Style string `json:"style" validate:"required,oneof=basic enhanced"`
}

// ErrorResponse is returned for failed requests
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleState returns the current face state
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(StateResponse{
		Style: s.pipeline.Style(),
		State: s.pipeline.State(),
	})
}

// handleStats returns pipeline, ingest and hub counters
func (s *Server) handleStats(c *fiber.Ctx) error {
	resp := StatsResponse{
		UptimeSeconds: time.Since(s.started).Seconds(),
		Pipeline:      s.pipeline.Stats(),
		Hubs:          []hub.Stats{s.states.Stats(), s.frames.Stats()},
	}
	if s.ingest != nil {
		st := s.ingest.GetStats()
		resp.Ingest = &st
	}
	return c.JSON(resp)
}

// handleScene returns the display list of the current frame
func (s *Server) handleScene(c *fiber.Ctx) error {
	return c.JSON(s.pipeline.Scene())
}

// handleFaceImage returns the last encoded frame
func (s *Server) handleFaceImage(c *fiber.Ctx) error {
	data, contentType, ok := s.pipeline.Image()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no frame rendered yet"})
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(data)
}

// handleReset switches style and restores the default face
func (s *Server) handleReset(c *fiber.Ctx) error {
	var req ResetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error(), Code: protocol.CodeBadMessage})
	}
	req.Style = strings.ToLower(strings.TrimSpace(req.Style))
	if err := s.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error(), Code: protocol.CodeUnknownStyle})
	}

	style, err := render.ParseStyle(req.Style)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error(), Code: protocol.CodeUnknownStyle})
	}

	r, err := s.pipeline.Reset(style)
	if err != nil && !errors.Is(err, render.ErrSurfaceUnavailable) {
		return s.processError(c, err)
	}
	return c.JSON(r)
}

// handleFrame classifies and renders one landmarks payload synchronously
func (s *Server) handleFrame(c *fiber.Ctx) error {
	var data protocol.LandmarksData
	if err := c.BodyParser(&data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error(), Code: protocol.CodeBadMessage})
	}

	r, err := s.pipeline.ProcessFrame(c.UserContext(), pipeline.Frame{
		Source:    "http",
		ID:        data.FrameID,
		Landmarks: data.Primary(),
	})
	if err != nil && !errors.Is(err, render.ErrSurfaceUnavailable) {
		return s.processError(c, err)
	}
	return c.JSON(r)
}

func (s *Server) processError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, expression.ErrInvalidInput):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: err.Error(), Code: protocol.CodeInvalidInput})
	case errors.Is(err, pipeline.ErrClosed):
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error(), Code: protocol.CodeInternal})
	}
}
