// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datagen

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/datagen/services/datagen/config"
	"github.com/AleutianAI/datagen/services/datagen/engine"
	"github.com/AleutianAI/datagen/services/datagen/fieldspec"
	"github.com/AleutianAI/datagen/services/datagen/generation"
	"github.com/AleutianAI/datagen/services/datagen/profile"
	"github.com/AleutianAI/datagen/services/datagen/telemetry"
)

// Handlers contains the HTTP handlers for the datagen service.
type Handlers struct {
	engine     *engine.Engine
	server     config.ServerConfig
	generation config.GenerationConfig
	logger     *slog.Logger
}

// NewHandlers creates handlers over an engine. Limits and generation
// defaults come from cfg.
func NewHandlers(eng *engine.Engine, cfg config.Config, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		engine:     eng,
		server:     cfg.Server,
		generation: cfg.Generation,
		logger:     logger.With(slog.String("component", "datagen.http")),
	}
}

// HandleHealth handles GET /v1/datagen/health.
//
// Response:
//
//	200 OK: HealthResponse
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: ServiceVersion})
}

// HandleRowSpecs handles POST /v1/datagen/rowspecs.
//
// Description:
//
//	Compiles and solves the profile, returning at most limit row specs.
//
// Request Body:
//
//	RowSpecsRequest
//
// Response:
//
//	200 OK: RowSpecsResponse
//	400 Bad Request: Invalid body, invalid profile or unsupported constraint
//	413 Request Entity Too Large: Body above max_profile_bytes
//	500 Internal Server Error: Solving failed
func (h *Handlers) HandleRowSpecs(c *gin.Context) {
	logger := h.requestLogger(c, "HandleRowSpecs")

	var req RowSpecsRequest
	if !h.bind(c, logger, &req) {
		return
	}
	p, ok := h.parseProfile(c, logger, req.Profile)
	if !ok {
		return
	}

	limit := h.limit(req.Limit, 0)
	resp := RowSpecsResponse{RowSpecs: []string{}}
	for rs, err := range h.engine.RowSpecs(c.Request.Context(), p) {
		if err != nil {
			h.fail(c, logger, err)
			return
		}
		if resp.Count == limit {
			resp.Truncated = true
			break
		}
		resp.RowSpecs = append(resp.RowSpecs, rs.String())
		resp.Count++
	}

	logger.Info("row specs listed", slog.Int("count", resp.Count), slog.Bool("truncated", resp.Truncated))
	c.JSON(http.StatusOK, resp)
}

// HandleRows handles POST /v1/datagen/rows.
//
// Request Body:
//
//	RowsRequest
//
// Response:
//
//	200 OK: RowsResponse
//	400 Bad Request: Invalid body, invalid profile or unsupported constraint
//	413 Request Entity Too Large: Body above max_profile_bytes
//	500 Internal Server Error: Generation failed
func (h *Handlers) HandleRows(c *gin.Context) {
	logger := h.requestLogger(c, "HandleRows")

	var req RowsRequest
	if !h.bind(c, logger, &req) {
		return
	}
	modeName := req.Mode
	if modeName == "" {
		modeName = h.generation.Mode
	}
	mode, err := generation.ParseMode(modeName)
	if err != nil {
		h.fail(c, logger, err)
		return
	}
	seed := h.generation.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	p, ok := h.parseProfile(c, logger, req.Profile)
	if !ok {
		return
	}

	limit := h.limit(req.Limit, h.generation.Limit)
	resp := RowsResponse{Fields: p.Fields.Names(), Rows: []generation.Row{}}
	for row, err := range h.engine.Rows(c.Request.Context(), p, mode, seed) {
		if err != nil {
			h.fail(c, logger, err)
			return
		}
		resp.Rows = append(resp.Rows, row)
		resp.Count++
		if resp.Count == limit {
			break
		}
	}

	logger.Info("rows generated", slog.Int("count", resp.Count), slog.String("mode", string(mode)))
	c.JSON(http.StatusOK, resp)
}

// limit resolves a requested limit against the fallback and server cap.
func (h *Handlers) limit(requested, fallback int) int {
	limit := requested
	if limit == 0 {
		limit = fallback
	}
	if limit <= 0 || limit > h.server.MaxLimit {
		limit = h.server.MaxLimit
	}
	return limit
}

func (h *Handlers) bind(c *gin.Context, logger *slog.Logger, req any) bool {
	if h.server.MaxProfileBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.server.MaxProfileBytes)
	}
	if err := c.ShouldBindJSON(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
				Code:  "PAYLOAD_TOO_LARGE",
			})
			return false
		}
		logger.Warn("invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error(), Code: "INVALID_REQUEST"})
		return false
	}
	return true
}

// parseProfile accepts a JSON object or a JSON string holding YAML.
func (h *Handlers) parseProfile(c *gin.Context, logger *slog.Logger, raw json.RawMessage) (*profile.Profile, bool) {
	doc := []byte(raw)
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		doc = []byte(text)
	}
	p, err := h.engine.Loader().Parse(doc)
	if err != nil {
		h.fail(c, logger, err)
		return nil, false
	}
	return p, true
}

func (h *Handlers) fail(c *gin.Context, logger *slog.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.String("error", err.Error()))
	} else {
		logger.Warn("request rejected", slog.String("error", err.Error()), slog.String("code", code))
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// classify maps errors to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, profile.ErrInvalidProfile):
		return http.StatusBadRequest, "INVALID_PROFILE"
	case errors.Is(err, fieldspec.ErrUnsupported):
		return http.StatusBadRequest, "UNSUPPORTED"
	case errors.Is(err, fieldspec.ErrTypeMismatch):
		return http.StatusBadRequest, "TYPE_MISMATCH"
	case errors.Is(err, generation.ErrUnknownMode):
		return http.StatusBadRequest, "INVALID_MODE"
	default:
		return http.StatusInternalServerError, "GENERATION_FAILED"
	}
}

func (h *Handlers) requestLogger(c *gin.Context, handler string) *slog.Logger {
	logger := telemetry.LoggerWithTrace(c.Request.Context(), h.logger)
	return logger.With(slog.String("request_id", getOrCreateRequestID(c)), slog.String("handler", handler))
}

// getOrCreateRequestID echoes X-Request-ID or assigns a new one.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
