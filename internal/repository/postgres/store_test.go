package postgres

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mamadbah2/stockdesk/internal/domain/models"
	"github.com/mamadbah2/stockdesk/internal/repository"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	store := New(db, nil)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func seedItem(t *testing.T, s *Store, amount int, price float64) *models.Item {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.DB().Create(&models.Category{ID: "cat-1", Name: "Peripherals"}).Error)
	require.NoError(t, s.DB().Create(&models.Brand{ID: "brand-1", Name: "Acme"}).Error)

	item, err := s.CreateItem(ctx, models.Item{
		Name:       "Mouse",
		Price:      price,
		Amount:     amount,
		CategoryID: strPtr("cat-1"),
		BrandID:    strPtr("brand-1"),
	})
	require.NoError(t, err)
	return item
}

func TestCreateItemLoadsJoins(t *testing.T) {
	s := setupTestStore(t)
	item := seedItem(t, s, 5, 100)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Peripherals", item.CategoryName())
	assert.Equal(t, "Acme", item.BrandName())

	items, err := s.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Mouse", items[0].Name)
}

func TestDecrementStock(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	item := seedItem(t, s, 5, 100)

	updated, err := s.DecrementStock(ctx, item.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Amount)

	_, err = s.DecrementStock(ctx, item.ID, 4)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	reloaded, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Amount, "a rejected decrement leaves stock untouched")

	_, err = s.DecrementStock(ctx, "missing", 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDecrementStockUnderConcurrentOrders(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	item := seedItem(t, s, 5, 100)

	// One shared in-memory connection; SQLite would otherwise report table locks.
	sqlDB, err := s.DB().DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	var ok, insufficient, other atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.DecrementStock(ctx, item.ID, 1)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, repository.ErrInsufficientStock):
				insufficient.Add(1)
			default:
				other.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), ok.Load())
	assert.Equal(t, int32(15), insufficient.Load())
	assert.Equal(t, int32(0), other.Load())

	reloaded, err := s.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Amount)
}

func TestUpdateAndDeleteItem(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	item := seedItem(t, s, 5, 100)

	updated, err := s.UpdateItem(ctx, item.ID, models.Item{Name: "Trackball", Price: 80, Amount: 0})
	require.NoError(t, err)
	assert.Equal(t, "Trackball", updated.Name)
	assert.Equal(t, 0, updated.Amount)
	assert.Nil(t, updated.Category, "clearing category_id drops the join")

	require.NoError(t, s.DeleteItem(ctx, item.ID))
	assert.ErrorIs(t, s.DeleteItem(ctx, item.ID), repository.ErrNotFound)

	_, err = s.UpdateItem(ctx, item.ID, models.Item{Name: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListLogsFiltersWindowAndAction(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	item := seedItem(t, s, 10, 25)
	require.NoError(t, s.DB().Create(&models.Customer{ID: "cust-1", Name: "Ada"}).Error)

	base := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	seed := []models.SaleLog{
		{ID: "old", ItemID: item.ID, Action: models.ActionStockOut, Timestamp: base.AddDate(0, 0, -10), Details: "Sold 1 unit - Order #1001"},
		{ID: "in-window", ItemID: item.ID, CustomerID: strPtr("cust-1"), Action: models.ActionStockOut, Timestamp: base, Details: "Sold 3 units - Order #1042"},
		{ID: "restock", ItemID: item.ID, Action: models.ActionStockIn, Timestamp: base.Add(time.Hour), Details: "Added 5 units to stock"},
		{ID: "structured", ItemID: item.ID, Action: models.ActionStockOut, Timestamp: base.Add(2 * time.Hour), Quantity: intPtr(2), OrderNumber: strPtr("2001")},
	}
	for _, l := range seed {
		_, err := s.InsertLog(ctx, l)
		require.NoError(t, err)
	}

	logs, err := s.ListLogs(ctx, repository.LogFilter{
		Action: models.ActionStockOut,
		Since:  base.AddDate(0, 0, -7),
		Until:  base.AddDate(0, 0, 1),
	})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "structured", logs[0].ID, "newest first")
	assert.Equal(t, "in-window", logs[1].ID)
	assert.Equal(t, "Ada", logs[1].CustomerName())
	assert.Equal(t, "Peripherals", logs[1].Item.CategoryName())

	legacy, err := s.ListLogs(ctx, repository.LogFilter{Action: models.ActionStockOut, Unstructured: true, Ascending: true})
	require.NoError(t, err)
	require.Len(t, legacy, 2)
	assert.Equal(t, "old", legacy[0].ID)

	require.NoError(t, s.UpdateLogSale(ctx, "old", 1, "1001"))
	got, err := s.GetLog(ctx, "old")
	require.NoError(t, err)
	require.NotNil(t, got.Quantity)
	assert.Equal(t, 1, *got.Quantity)
	assert.Equal(t, "1001", *got.OrderNumber)

	assert.ErrorIs(t, s.UpdateLogSale(ctx, "missing", 1, "1"), repository.ErrNotFound)
}

func TestUpsertOrderStatusLastWriterWins(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertOrderStatus(ctx, "log-1", models.StatusPending)
	require.NoError(t, err)
	_, err = s.UpsertOrderStatus(ctx, "log-1", models.StatusCancelled)
	require.NoError(t, err)

	statuses, err := s.ListOrderStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]models.OrderStatus{"log-1": models.StatusCancelled}, statuses)
}

func TestCatalogQueries(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seedItem(t, s, 1, 1)
	require.NoError(t, s.DB().Create(&models.Customer{ID: "c1", Name: "Ada"}).Error)
	require.NoError(t, s.DB().Create(&models.Customer{ID: "c2", Name: "Grace"}).Error)

	n, err := s.CountCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Category{{ID: "cat-1", Name: "Peripherals"}}, categories)

	brands, err := s.ListBrands(ctx)
	require.NoError(t, err)
	assert.Len(t, brands, 1)

	_, err = s.GetCustomer(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserProfileAndPassword(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.DB().Create(&models.User{ID: "u-1", Email: "ada@example.com", Username: "ada", Role: "staff", PasswordHash: "old"}).Error)

	user, err := s.UpdateUserProfile(ctx, "u-1", models.ProfileUpdate{Email: "ada@example.org", Username: "ada", Fullname: "Ada Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.org", user.Email)
	assert.Equal(t, "Ada Lovelace", user.Fullname)
	assert.Equal(t, "staff", user.Role)

	require.NoError(t, s.UpdateUserPassword(ctx, "u-1", "new"))
	got, err := s.GetUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)

	_, err = s.GetUser(ctx, "u-404")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.UpdateUserProfile(ctx, "u-404", models.ProfileUpdate{Email: "x@example.com", Username: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.UpdateUserPassword(ctx, "u-404", "h"), repository.ErrNotFound)
}
