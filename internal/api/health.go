// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/uservault/internal/platform/request"
	"github.com/taibuivan/uservault/internal/platform/respond"
)

// defaultHealthSource labels health calls that do not name their caller.
const defaultHealthSource = "unknown"

// HealthDependencies holds the injectable dependency checkers.
type HealthDependencies struct {
	// CheckDatabase pings the PostgreSQL pool.
	CheckDatabase func(ctx context.Context) error

	// CheckCache pings the Redis client.
	CheckCache func(ctx context.Context) error
}

// HealthHandler serves the container probes and the health edge function.
type HealthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
	now          func() time.Time
}

// NewHealthHandler creates a [HealthHandler].
func NewHealthHandler(deps HealthDependencies, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{dependencies: deps, logger: logger, now: time.Now}
}

// Register attaches the health edge function to the /functions/v1 router.
func (handler *HealthHandler) Register(router chi.Router) {
	router.Get("/"+constants.FnHealth, handler.function)
	router.Post("/"+constants.FnHealth, handler.function)
}

type healthRequest struct {
	Source string `json:"source"`
}

type healthResponse struct {
	OK     bool   `json:"ok"`
	Source string `json:"source,omitempty"`
	TS     int64  `json:"ts,omitempty"`
	Error  string `json:"error,omitempty"`
}

/*
POST /functions/v1/health.

Request: {"source"?: "..."}

Response:
  - 200: {"ok": true, "source": "...", "ts": <unix millis>}
  - 500: {"ok": false, "error": "..."} when a dependency is down
*/
func (handler *HealthHandler) function(writer http.ResponseWriter, request *http.Request) {
	var input healthRequest
	_ = requestutil.DecodeOptionalJSON(request, &input)

	source := input.Source
	if source == "" {
		source = request.URL.Query().Get("source")
	}
	if source == "" {
		source = defaultHealthSource
	}

	if err := handler.check(request.Context()); err != nil {
		ctxutil.GetLogger(request.Context()).Error("health_check_failed",
			slog.String("source", source),
			slog.String("error", err.Error()),
		)
		respond.JSON(writer, http.StatusInternalServerError, healthResponse{Error: "Service unhealthy"})
		return
	}

	respond.OK(writer, healthResponse{OK: true, Source: source, TS: handler.now().UnixMilli()})
}

// check runs every configured dependency check and joins the failures.
func (handler *HealthHandler) check(ctx context.Context) error {
	var errs []error
	if handler.dependencies.CheckDatabase != nil {
		if err := handler.dependencies.CheckDatabase(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if handler.dependencies.CheckCache != nil {
		if err := handler.dependencies.CheckCache(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Liveness handles GET /health (Liveness probe).
func (handler *HealthHandler) Liveness(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{constants.FieldStatus: "ok"})
}

// Readiness handles GET /ready (Readiness probe).
func (handler *HealthHandler) Readiness(writer http.ResponseWriter, request *http.Request) {
	type checkResult struct {
		Name  string `json:"name"`
		IsOK  bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}

	checks := []struct {
		name  string
		check func(context.Context) error
	}{
		{"postgres", handler.dependencies.CheckDatabase},
		{"redis", handler.dependencies.CheckCache},
	}

	results := make([]checkResult, 0, len(checks))
	isSystemReady := true

	for _, dependency := range checks {
		if dependency.check == nil {
			continue
		}
		result := checkResult{Name: dependency.name, IsOK: true}
		if err := dependency.check(request.Context()); err != nil {
			result.IsOK = false
			result.Error = err.Error()
			isSystemReady = false
			handler.logger.Error("readiness_check_failed", slog.String("dependency", dependency.name), slog.Any("error", err))
		}
		results = append(results, result)
	}

	responseStatus, httpStatus := "ready", http.StatusOK
	if !isSystemReady {
		responseStatus, httpStatus = "degraded", http.StatusServiceUnavailable
	}

	respond.JSON(writer, httpStatus, map[string]any{
		constants.FieldStatus: responseStatus,
		constants.FieldChecks: results,
	})
}
