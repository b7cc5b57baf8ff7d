package attendance

import (
	"fmt"
	"net/http"
	"time"

	"go-hrm/internal/shared/apperror"
	"go-hrm/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service    Service
	aggregator Aggregator
	logger     *zap.Logger
}

func NewHandler(service Service, aggregator Aggregator, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("attendance.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.handler")
	}
	return &Handler{service: service, aggregator: aggregator, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("attendance request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Record(c *gin.Context) {
	var req RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http record attendance validation failed", zap.Error(err))
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, http.StatusBadRequest, mapped.Code, mapped.Message, err.Error())
		return
	}

	resp, err := h.service.Record(c.Request.Context(), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetDaily(c *gin.Context) {
	ctx := c.Request.Context()

	date := time.Now().UTC()
	if v := c.Query("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid date, expected YYYY-MM-DD", nil)
			return
		}
		date = parsed
	}

	resp, err := h.service.GetDaily(ctx, date)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetPunctuality(c *gin.Context) {
	ctx := c.Request.Context()
	employeeID := c.Param("employee_id")

	resp, err := h.service.GetPunctuality(ctx, employeeID, time.Now().UTC())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Aggregate(c *gin.Context) {
	ctx := c.Request.Context()

	var req AggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http aggregate validation failed", zap.Error(err))
		mapped := apperror.ToHTTP(apperror.MapValidationError(err))
		response.Error(c, http.StatusBadRequest, mapped.Code, mapped.Message, err.Error())
		return
	}

	if req.EmployeeID != "" {
		resp, err := h.aggregator.Aggregate(ctx, req.EmployeeID, req.Month, req.Year)
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		response.Success(c, http.StatusOK, resp, nil)
		return
	}

	count, err := h.aggregator.AggregateAll(ctx, req.Month, req.Year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"employees_aggregated": count}, nil)
}

func (h *Handler) GetSummary(c *gin.Context) {
	ctx := c.Request.Context()
	employeeID := c.Param("employee_id")

	now := time.Now().UTC()
	month, year := int(now.Month()), now.Year()
	if v := c.Query("month"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &month); err != nil {
			response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid month", nil)
			return
		}
	}
	if v := c.Query("year"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &year); err != nil {
			response.Error(c, http.StatusBadRequest, apperror.CodeInvalidInput, "invalid year", nil)
			return
		}
	}

	resp, err := h.aggregator.GetSummary(ctx, employeeID, month, year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
