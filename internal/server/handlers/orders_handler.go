package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockdesk/internal/apperr"
	"github.com/mamadbah2/stockdesk/internal/domain/models"
)

// OrderService is the order use case consumed by the handler.
type OrderService interface {
	List(ctx context.Context) ([]models.OrderView, error)
	Create(ctx context.Context, req models.CreateOrderRequest) (*models.OrderView, error)
	UpdateStatus(ctx context.Context, logID, status string) (models.OrderStatus, error)
	ExportCSV(ctx context.Context, status string, w io.Writer) error
}

// OrdersHandler serves the order endpoints.
type OrdersHandler struct {
	svc    OrderService
	logger *zap.Logger
}

// NewOrdersHandler constructs the HTTP handler adapter.
func NewOrdersHandler(svc OrderService, logger *zap.Logger) *OrdersHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrdersHandler{svc: svc, logger: logger}
}

// List handles GET /orders.
func (h *OrdersHandler) List(c *gin.Context) {
	orders, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Create handles POST /orders.
func (h *OrdersHandler) Create(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("invalid order payload", zap.Error(err))
		respondError(c, h.logger, apperr.Validation("Invalid request body"))
		return
	}

	order, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "order": order})
}

// UpdateStatus handles PATCH /orders/:id/status.
func (h *OrdersHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, apperr.Validation("Status is required"))
		return
	}

	status, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}

// Export handles GET /orders/export.
func (h *OrdersHandler) Export(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))

	var buf bytes.Buffer
	if err := h.svc.ExportCSV(c.Request.Context(), status, &buf); err != nil {
		respondError(c, h.logger, err)
		return
	}

	if status == "" {
		status = "all"
	}
	respondCSV(c, fmt.Sprintf("orders-%s-%s.csv", strings.ToLower(status), time.Now().Format(models.DateLayout)), &buf)
}
