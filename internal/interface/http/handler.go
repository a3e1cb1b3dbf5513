package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/carwash-advisor/internal/domain/washadvisor"
	apperrors "github.com/yanqian/carwash-advisor/pkg/errors"
)

// Handler wires the HTTP transport to the advisor service.
type Handler struct {
	advisorSvc washadvisor.Service
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(advisorSvc washadvisor.Service, logger *slog.Logger) *Handler {
	return &Handler{
		advisorSvc: advisorSvc,
		logger:     logger.With("component", "http.handler"),
	}
}

// TodaysAdvisory always answers 200; on total failure the body carries the
// emergency advisory with success=false.
func (h *Handler) TodaysAdvisory(c *gin.Context) {
	c.JSON(http.StatusOK, h.advisorSvc.TodaysAdvisory(c.Request.Context()))
}

// Refresh recomputes today's advisory.
func (h *Handler) Refresh(c *gin.Context) {
	resp, err := h.advisorSvc.Refresh(c.Request.Context())
	if err != nil {
		status := http.StatusInternalServerError
		code := "refresh_failed"
		if apperrors.IsCode(err, washadvisor.CodeSourceUnavailable) {
			status = http.StatusBadGateway
			code = washadvisor.CodeSourceUnavailable
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History lists recently computed advisories, newest first.
func (h *Handler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be an integer", err))
			return
		}
		limit = parsed
	}

	records, err := h.advisorSvc.History(c.Request.Context(), limit)
	if err != nil {
		status := http.StatusInternalServerError
		code := "history_failed"
		if apperrors.IsCode(err, washadvisor.CodeInvalidInput) {
			status = http.StatusBadRequest
			code = "invalid_request"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": records})
}

// Stats reports how many responses each fallback tier served.
func (h *Handler) Stats(c *gin.Context) {
	stats := h.advisorSvc.Stats()
	c.JSON(http.StatusOK, gin.H{"tiers": stats, "total": stats.Total()})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
