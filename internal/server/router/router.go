package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockdesk/internal/server/handlers"
	"github.com/mamadbah2/stockdesk/internal/server/middleware"
)

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Analytics *handlers.AnalyticsHandler
	Orders    *handlers.OrdersHandler
	Dashboard *handlers.DashboardHandler
	Inventory *handlers.InventoryHandler
	Users     *handlers.UsersHandler
	// Reports is optional; the manual report route is mounted only when set.
	Reports *handlers.ReportsHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, jwtSecret string, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authed := r.Group("/", middleware.Auth(jwtSecret))
	admin := authed.Group("/", middleware.RequireAdmin())

	authed.GET("/analytics", h.Analytics.Report)
	admin.GET("/analytics/export", h.Analytics.Export)

	authed.GET("/orders", h.Orders.List)
	admin.GET("/orders/export", h.Orders.Export)
	admin.POST("/orders", h.Orders.Create)
	admin.PATCH("/orders/:id/status", h.Orders.UpdateStatus)

	authed.GET("/dashboard", h.Dashboard.Get)

	authed.GET("/items", h.Inventory.ListItems)
	authed.GET("/items/:id", h.Inventory.GetItem)
	admin.POST("/items", h.Inventory.CreateItem)
	admin.PUT("/items/:id", h.Inventory.UpdateItem)
	admin.DELETE("/items/:id", h.Inventory.DeleteItem)
	authed.GET("/categories", h.Inventory.ListCategories)
	authed.GET("/brands", h.Inventory.ListBrands)

	authed.GET("/users/me", h.Users.GetMe)
	authed.PUT("/users/me", h.Users.UpdateMe)
	authed.PUT("/users/me/password", h.Users.ChangePassword)

	if h.Reports != nil {
		admin.POST("/reports/daily", h.Reports.RunDaily)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("request_id", middleware.RequestIDFrom(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
