package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/estr/backoffice/internal/application/service"
	"github.com/estr/backoffice/internal/datatable"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/estr/backoffice/internal/domain/workflow"
	"github.com/estr/backoffice/internal/infrastructure/external/estrapi"
	"github.com/estr/backoffice/internal/session"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps    Dependencies
	version string
	logger  Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, version string, logger Logger) *Handlers {
	return &Handlers{
		deps:    deps,
		version: version,
		logger:  logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	// Field names the form field a validation error belongs to
	Field string `json:"field,omitempty"`
}

// ComponentHealth is one entry of the /health report
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthProbe reports the health of each backing component by name
type HealthProbe func(ctx context.Context) map[string]ComponentHealth

// HealthResponse represents the health check response
type HealthResponse struct {
	Status          string                     `json:"status"`
	Timestamp       string                     `json:"timestamp"`
	Version         string                     `json:"version"`
	Components      map[string]ComponentHealth `json:"components,omitempty"`
	ProgressViewers int                        `json:"progress_viewers"`
}

// HealthCheck handles GET /health. Any unhealthy component turns the answer
// into 503 "degraded" so load balancers stop routing here.
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
	}
	if h.deps.Hub != nil {
		response.ProgressViewers = h.deps.Hub.ClientCount()
	}

	code := http.StatusOK
	if h.deps.Health != nil {
		response.Components = h.deps.Health(c.Request.Context())
		for _, comp := range response.Components {
			if !comp.Healthy {
				response.Status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
	}

	c.JSON(code, Response{
		Success: code == http.StatusOK,
		Data:    response,
	})
}

// Me handles GET /api/me
func (h *Handlers) Me(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	respondOK(c, user)
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: message})
}

// user returns the profile stored by the session guard
func (h *Handlers) user(c *gin.Context) (*entity.Profile, bool) {
	user, found := session.CurrentUser(c)
	if !found {
		fail(c, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return user, true
}

// track reads the :track path parameter
func (h *Handlers) track(c *gin.Context) (entity.Track, bool) {
	track, found := entity.ParseTrack(c.Param("track"))
	if !found {
		fail(c, http.StatusNotFound, "unknown track")
		return "", false
	}
	return track, true
}

// tableQuery reads DataTable parameters from the query string
func (h *Handlers) tableQuery(c *gin.Context, searchFields, sortFields []string) datatable.Query {
	st := datatable.FromValues(c.Request.URL.Query(), h.deps.Limits, sortFields)
	return st.Query(searchFields)
}

// respondError maps service and client errors to status codes. Validation
// messages are passed through; remote failures get a generic message.
func (h *Handlers) respondError(c *gin.Context, operation string, err error) {
	_ = c.Error(err)
	status, resp := h.errorResponse(operation, err)
	c.AbortWithStatusJSON(status, resp)
}

// errorResponse classifies err. Unclassified errors are logged and reported
// as an unavailable core service.
func (h *Handlers) errorResponse(operation string, err error) (int, Response) {
	failed := func(status int, message string) (int, Response) {
		return status, Response{Success: false, Error: message}
	}

	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, Response{Success: false, Error: ve.Message, Field: ve.Field}
	case errors.Is(err, service.ErrConfirmationRequired):
		return failed(http.StatusPreconditionRequired, "confirmation required")
	case errors.Is(err, service.ErrSelfAuthorization):
		return failed(http.StatusForbidden, service.ErrSelfAuthorization.Error())
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, workflow.ErrActionNotAllowed),
		errors.Is(err, workflow.ErrInvalidTransition):
		return failed(http.StatusForbidden, "action not allowed")
	case errors.Is(err, service.ErrStaleCase):
		return failed(http.StatusConflict, "data sudah berubah, silakan muat ulang")
	case errors.Is(err, service.ErrUnknownJob):
		return failed(http.StatusNotFound, "unknown job")
	case errors.Is(err, service.ErrNotFound), errors.Is(err, estrapi.ErrNotFound):
		return failed(http.StatusNotFound, "not found")
	case errors.Is(err, estrapi.ErrUnauthorized):
		return failed(http.StatusUnauthorized, "unauthorized")
	}

	h.logger.Error("Request failed", "operation", operation, "error", err)
	return failed(http.StatusBadGateway, "layanan sedang tidak tersedia, silakan coba lagi")
}
