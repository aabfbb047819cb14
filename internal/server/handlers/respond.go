package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockdesk/internal/apperr"
	"github.com/mamadbah2/stockdesk/internal/server/middleware"
)

// respondError renders err as {error: message} with the status of its kind.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	fields := []zap.Field{
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.String("request_id", middleware.RequestIDFrom(c)),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Debug("request rejected", fields...)
	}

	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

// respondCSV sends a fully rendered CSV body as a download.
func respondCSV(c *gin.Context, filename string, body *bytes.Buffer) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body.Bytes())
}
