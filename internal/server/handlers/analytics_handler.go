package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockdesk/internal/apperr"
	"github.com/mamadbah2/stockdesk/internal/domain/models"
	"github.com/mamadbah2/stockdesk/internal/server/middleware"
)

// AnalyticsService is the analytics use case consumed by the handler.
type AnalyticsService interface {
	Report(ctx context.Context, period models.Period, viewer models.Viewer) (*models.AnalyticsReport, error)
	ExportCSV(ctx context.Context, period models.Period, w io.Writer) error
}

// AnalyticsHandler serves the analytics page and its export.
type AnalyticsHandler struct {
	svc    AnalyticsService
	logger *zap.Logger
}

// NewAnalyticsHandler constructs the HTTP handler adapter.
func NewAnalyticsHandler(svc AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsHandler{svc: svc, logger: logger}
}

func period(c *gin.Context) (models.Period, error) {
	p, err := models.ParsePeriod(c.Query("period"))
	if err != nil {
		return "", apperr.Validation("Invalid period. Must be one of: 7days, 30days, 90days")
	}
	return p, nil
}

// Report handles GET /analytics.
func (h *AnalyticsHandler) Report(c *gin.Context) {
	p, err := period(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	report, err := h.svc.Report(c.Request.Context(), p, middleware.ViewerFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Export handles GET /analytics/export. The file is rendered in full before
// anything is written so a failure can still answer with JSON.
func (h *AnalyticsHandler) Export(c *gin.Context) {
	p, err := period(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := h.svc.ExportCSV(c.Request.Context(), p, &buf); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondCSV(c, fmt.Sprintf("analytics-%s-%s.csv", p, time.Now().Format(models.DateLayout)), &buf)
}
