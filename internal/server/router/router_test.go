package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mamadbah2/stockdesk/internal/domain/models"
	"github.com/mamadbah2/stockdesk/internal/repository/postgres"
	"github.com/mamadbah2/stockdesk/internal/server/handlers"
	"github.com/mamadbah2/stockdesk/internal/server/middleware"
	"github.com/mamadbah2/stockdesk/internal/service/analytics"
	"github.com/mamadbah2/stockdesk/internal/service/dashboard"
	"github.com/mamadbah2/stockdesk/internal/service/inventory"
	"github.com/mamadbah2/stockdesk/internal/service/orders"
	"github.com/mamadbah2/stockdesk/internal/service/users"
)

const testSecret = "router-test-secret"

func setupEngine(t *testing.T) (*gin.Engine, *postgres.Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(db))

	store := postgres.New(db, nil)
	t.Cleanup(func() { _ = store.Close() })

	orderSvc := orders.NewService(store, orders.Options{OrderNumber: func() int { return 1042 }}, nil)
	engine := New(Handlers{
		Analytics: handlers.NewAnalyticsHandler(analytics.NewService(store, analytics.Options{LowStockThreshold: 10}, nil), nil),
		Orders:    handlers.NewOrdersHandler(orderSvc, nil),
		Dashboard: handlers.NewDashboardHandler(dashboard.NewService(store, nil, nil), nil),
		Inventory: handlers.NewInventoryHandler(inventory.NewService(store, nil), nil),
		Users:     handlers.NewUsersHandler(users.NewService(store, nil), nil),
	}, testSecret, nil)

	return engine, store
}

func token(t *testing.T, role string) string {
	t.Helper()
	claims := middleware.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func call(engine *gin.Engine, method, path, bearer string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthzIsPublic(t *testing.T) {
	engine, _ := setupEngine(t)

	rec := call(engine, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestOrdersRequireToken(t *testing.T) {
	engine, _ := setupEngine(t)

	rec := call(engine, http.MethodGet, "/orders", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Missing token"}`, rec.Body.String())
}

func TestCreateOrderDecrementsStock(t *testing.T) {
	engine, store := setupEngine(t)
	ctx := context.Background()

	item, err := store.CreateItem(ctx, models.Item{Name: "Laptop", Price: 999.5, Amount: 5})
	require.NoError(t, err)

	rec := call(engine, http.MethodPost, "/orders", token(t, middleware.RoleAdmin),
		map[string]any{"item_id": item.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Success bool             `json:"success"`
		Order   models.OrderView `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "#1042", resp.Order.OrderNumber)
	assert.Equal(t, 2, resp.Order.Quantity)
	assert.Equal(t, 1999.0, resp.Order.TotalAmount)
	assert.Equal(t, models.StatusCompleted, resp.Order.Status)
	assert.Equal(t, models.WalkInCustomer, resp.Order.Customer)

	stored, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Amount)

	list := call(engine, http.MethodGet, "/orders", token(t, "staff"), nil)
	require.Equal(t, http.StatusOK, list.Code)
	orders, ok := decode(t, list)["orders"].([]any)
	require.True(t, ok)
	assert.Len(t, orders, 1)
}

func TestCreateOrderRejectsOverdraw(t *testing.T) {
	engine, store := setupEngine(t)

	item, err := store.CreateItem(context.Background(), models.Item{Name: "Laptop", Price: 10, Amount: 1})
	require.NoError(t, err)

	rec := call(engine, http.MethodPost, "/orders", token(t, middleware.RoleAdmin),
		map[string]any{"item_id": item.ID, "quantity": 4})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Insufficient stock. Available: 1"}`, rec.Body.String())
}

func TestCreateOrderUnknownItem(t *testing.T) {
	engine, _ := setupEngine(t)

	rec := call(engine, http.MethodPost, "/orders", token(t, middleware.RoleAdmin),
		map[string]any{"item_id": "missing", "quantity": 1})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Item not found"}`, rec.Body.String())
}

func TestAdminRoutesRejectStaff(t *testing.T) {
	engine, _ := setupEngine(t)
	staff := token(t, "staff")

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/orders"},
		{http.MethodPatch, "/orders/abc/status"},
		{http.MethodGet, "/orders/export"},
		{http.MethodGet, "/analytics/export"},
		{http.MethodPost, "/items"},
		{http.MethodDelete, "/items/abc"},
	} {
		rec := call(engine, tc.method, tc.path, staff, map[string]any{})
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestUpdateStatusFlow(t *testing.T) {
	engine, store := setupEngine(t)
	admin := token(t, middleware.RoleAdmin)

	item, err := store.CreateItem(context.Background(), models.Item{Name: "Mouse", Price: 20, Amount: 3})
	require.NoError(t, err)
	created := call(engine, http.MethodPost, "/orders", admin, map[string]any{"item_id": item.ID, "quantity": 1})
	require.Equal(t, http.StatusCreated, created.Code)
	order := decode(t, created)["order"].(map[string]any)
	id := order["id"].(string)

	rec := call(engine, http.MethodPatch, "/orders/"+id+"/status", admin, map[string]any{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(engine, http.MethodPatch, "/orders/"+id+"/status", admin, map[string]any{"status": "pending"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"status":"pending"}`, rec.Body.String())

	rec = call(engine, http.MethodPatch, "/orders/nope/status", admin, map[string]any{"status": "pending"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	export := call(engine, http.MethodGet, "/orders/export?status=pending", admin, nil)
	require.Equal(t, http.StatusOK, export.Code)
	assert.Contains(t, export.Header().Get("Content-Disposition"), "attachment; filename=\"orders-pending-")
	lines := strings.Split(strings.TrimSpace(export.Body.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestAnalyticsPeriodValidation(t *testing.T) {
	engine, _ := setupEngine(t)
	staff := token(t, "staff")

	rec := call(engine, http.MethodGet, "/analytics?period=1year", staff, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(engine, http.MethodGet, "/analytics", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Contains(t, body, "summary")
	assert.Contains(t, body, "revenueChart")
	assert.Equal(t, []any{}, body["recentTransactions"])
}

func TestAnalyticsExportIsCSV(t *testing.T) {
	engine, _ := setupEngine(t)

	rec := call(engine, http.MethodGet, "/analytics/export?period=30days", token(t, middleware.RoleAdmin), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "analytics-30days-")
}

func TestDashboardAndCatalogue(t *testing.T) {
	engine, store := setupEngine(t)
	staff := token(t, "staff")
	admin := token(t, middleware.RoleAdmin)

	_, err := store.CreateItem(context.Background(), models.Item{Name: "Cable", Price: 5, Amount: 2})
	require.NoError(t, err)

	rec := call(engine, http.MethodGet, "/dashboard", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats, ok := decode(t, rec)["stats"].([]any)
	require.True(t, ok)
	assert.Len(t, stats, 4)

	rec = call(engine, http.MethodPost, "/items", admin, map[string]any{"name": "", "price": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Name is required"}`, rec.Body.String())

	rec = call(engine, http.MethodPost, "/items", admin, map[string]any{"name": "Hub", "price": 12, "amount": 3})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = call(engine, http.MethodGet, "/items", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items, ok := decode(t, rec)["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)

	rec = call(engine, http.MethodGet, "/items/missing", staff, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(engine, http.MethodGet, "/categories", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec), "categories")
}

func TestProfileFlow(t *testing.T) {
	engine, store := setupEngine(t)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("old-secret"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.DB().Create(&models.User{
		ID: "user-1", Email: "ada@example.com", Username: "ada", Fullname: "Ada L", Role: "staff", PasswordHash: string(hash),
	}).Error)
	staff := token(t, "staff")

	rec := call(engine, http.MethodGet, "/users/me", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", me["email"])
	assert.NotContains(t, me, "password")
	assert.NotContains(t, rec.Body.String(), string(hash))

	rec = call(engine, http.MethodPut, "/users/me", staff,
		map[string]any{"email": " Ada@Example.org ", "username": "ada.l", "fullname": "Ada Lovelace"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ada@example.org", decode(t, rec)["user"].(map[string]any)["email"])

	rec = call(engine, http.MethodPut, "/users/me", staff, map[string]any{"email": "not-an-email", "username": "ada"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid email address"}`, rec.Body.String())

	rec = call(engine, http.MethodPut, "/users/me/password", staff,
		map[string]any{"currentPassword": "wrong", "newPassword": "brand-new"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Current password is incorrect"}`, rec.Body.String())

	rec = call(engine, http.MethodPut, "/users/me/password", staff,
		map[string]any{"currentPassword": "old-secret", "newPassword": "brand-new"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := store.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", stored.Fullname)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("brand-new")))
}

func TestProfileRequiresToken(t *testing.T) {
	engine, _ := setupEngine(t)

	rec := call(engine, http.MethodGet, "/users/me", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileOfUnknownSubject(t *testing.T) {
	engine, _ := setupEngine(t)

	rec := call(engine, http.MethodGet, "/users/me", token(t, middleware.RoleAdmin), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, rec.Body.String())
}
