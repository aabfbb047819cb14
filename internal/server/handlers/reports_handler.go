package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockdesk/internal/apperr"
	"github.com/mamadbah2/stockdesk/internal/domain/models"
)

// ReportingService builds and delivers a daily snapshot.
type ReportingService interface {
	RunDaily(ctx context.Context, day time.Time) (models.DailySnapshot, error)
}

// ReportsHandler lets an admin run the daily report outside the schedule.
type ReportsHandler struct {
	svc    ReportingService
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewReportsHandler constructs the HTTP handler adapter.
func NewReportsHandler(svc ReportingService, loc *time.Location, logger *zap.Logger) *ReportsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ReportsHandler{svc: svc, loc: loc, now: time.Now, logger: logger}
}

// RunDaily handles POST /reports/daily.
func (h *ReportsHandler) RunDaily(c *gin.Context) {
	var req models.RunReportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("invalid report payload", zap.Error(err))
		respondError(c, h.logger, apperr.Validation("Invalid request body"))
		return
	}

	day := h.now().In(h.loc)
	if req.Date != "" {
		parsed, err := time.ParseInLocation(models.DateLayout, req.Date, h.loc)
		if err != nil {
			respondError(c, h.logger, apperr.Validation("Invalid date. Expected YYYY-MM-DD"))
			return
		}
		day = parsed
	}

	snapshot, err := h.svc.RunDaily(c.Request.Context(), day)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("daily report triggered manually", zap.String("date", snapshot.Date.Format(models.DateLayout)))
	c.JSON(http.StatusOK, gin.H{"success": true, "snapshot": snapshot})
}
