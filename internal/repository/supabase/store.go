package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockdesk/internal/config"
	"github.com/mamadbah2/stockdesk/internal/domain/models"
	"github.com/mamadbah2/stockdesk/internal/repository"
)

const (
	itemsTable    = "items"
	logsTable     = "logs"
	statusesTable = "order_statuses"
	usersTable    = "users"

	itemSelect = "*,categories(id,name),brands(id,name)"
	logSelect  = "*,items(*,categories(id,name),brands(id,name)),customers(id,name,email,phone)"
	userSelect = "id,email,username,fullname,role,password"

	preferRepresentation = "return=representation"
	preferUpsert         = "resolution=merge-duplicates,return=representation"

	defaultCASAttempts = 3
)

// Store implements repository.Store over Supabase's PostgREST API.
type Store struct {
	http        *resty.Client
	logger      *zap.Logger
	casAttempts int
}

var _ repository.Store = (*Store)(nil)

// NewStore builds a PostgREST-backed store using the service key for every call.
func NewStore(cfg config.SupabaseConfig, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.URL, "/")+"/rest/v1").
		SetHeader("apikey", cfg.Key).
		SetHeader("Authorization", "Bearer "+cfg.Key).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Store{http: client, logger: logger, casAttempts: defaultCASAttempts}
}

// apiError mirrors a PostgREST error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

type request struct {
	op     string
	method string
	table  string
	params url.Values
	body   any
	prefer string
	header map[string]string
	out    any
}

func (s *Store) do(ctx context.Context, r request) (*resty.Response, error) {
	apiErr := new(apiError)

	req := s.http.R().SetContext(ctx).SetError(apiErr)
	if r.params != nil {
		req.SetQueryParamsFromValues(r.params)
	}
	if r.body != nil {
		req.SetBody(r.body)
	}
	if r.prefer != "" {
		req.SetHeader("Prefer", r.prefer)
	}
	for k, v := range r.header {
		req.SetHeader(k, v)
	}
	if r.out != nil {
		req.SetResult(r.out)
	}

	resp, err := req.Execute(r.method, r.table)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.op, err)
	}

	if resp.IsError() {
		message := apiErr.Message
		if message == "" {
			message = strings.TrimSpace(resp.String())
		}
		if message == "" {
			message = resp.Status()
		}
		s.logger.Debug("supabase request failed",
			zap.String("op", r.op),
			zap.Int("status", resp.StatusCode()),
			zap.String("code", apiErr.Code),
			zap.String("message", message))
		return resp, repository.NewStoreError(r.op, apiErr.Code, message, resp.StatusCode())
	}

	return resp, nil
}

func eq(v string) string { return "eq." + v }

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

// itemRow is the writable projection of an item; joins are never sent.
type itemRow struct {
	ID             string  `json:"id,omitempty"`
	Name           string  `json:"name"`
	Model          string  `json:"model"`
	Specifications string  `json:"specifications"`
	Warranty       string  `json:"warranty"`
	Price          float64 `json:"price"`
	Amount         int     `json:"amount"`
	CategoryID     *string `json:"category_id"`
	BrandID        *string `json:"brand_id"`
	DateAdded      string  `json:"date_added,omitempty"`
}

func toItemRow(item models.Item) itemRow {
	return itemRow{
		ID:             item.ID,
		Name:           item.Name,
		Model:          item.Model,
		Specifications: item.Specifications,
		Warranty:       item.Warranty,
		Price:          item.Price,
		Amount:         item.Amount,
		CategoryID:     item.CategoryID,
		BrandID:        item.BrandID,
		DateAdded:      item.DateAdded,
	}
}

type logRow struct {
	ID          string           `json:"id"`
	ItemID      string           `json:"item_id"`
	CustomerID  *string          `json:"customer_id"`
	Action      models.LogAction `json:"action"`
	Timestamp   time.Time        `json:"timestamp"`
	Details     string           `json:"details"`
	Quantity    *int             `json:"quantity"`
	OrderNumber *string          `json:"order_number"`
}

// userRow is the users table as PostgREST returns it. The password column
// holds the bcrypt hash and never leaves the store through models.User's JSON.
type userRow struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

func (r userRow) user() *models.User {
	return &models.User{
		ID:           r.ID,
		Email:        r.Email,
		Username:     r.Username,
		Fullname:     r.Fullname,
		Role:         r.Role,
		PasswordHash: r.Password,
	}
}

// ListItems returns every item with its category and brand, sorted by name.
func (s *Store) ListItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	params := url.Values{"select": {itemSelect}, "order": {"name.asc"}}
	if _, err := s.do(ctx, request{op: "list items", method: http.MethodGet, table: itemsTable, params: params, out: &items}); err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem fetches one item with its joins.
func (s *Store) GetItem(ctx context.Context, id string) (*models.Item, error) {
	var items []models.Item
	params := url.Values{"select": {itemSelect}, "id": {eq(id)}, "limit": {"1"}}
	if _, err := s.do(ctx, request{op: "get item", method: http.MethodGet, table: itemsTable, params: params, out: &items}); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("get item %s: %w", id, repository.ErrNotFound)
	}
	return &items[0], nil
}

// CreateItem inserts an item and returns the stored row.
func (s *Store) CreateItem(ctx context.Context, item models.Item) (*models.Item, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	var rows []models.Item
	if _, err := s.do(ctx, request{
		op: "create item", method: http.MethodPost, table: itemsTable,
		body: toItemRow(item), prefer: preferRepresentation, out: &rows,
	}); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("create item: empty representation")
	}
	return &rows[0], nil
}

// UpdateItem replaces the editable fields of an item.
func (s *Store) UpdateItem(ctx context.Context, id string, item models.Item) (*models.Item, error) {
	row := toItemRow(item)
	row.ID = ""

	var rows []models.Item
	if _, err := s.do(ctx, request{
		op: "update item", method: http.MethodPatch, table: itemsTable,
		params: url.Values{"id": {eq(id)}}, body: row, prefer: preferRepresentation, out: &rows,
	}); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("update item %s: %w", id, repository.ErrNotFound)
	}
	return &rows[0], nil
}

// DeleteItem removes an item.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	var rows []models.Item
	if _, err := s.do(ctx, request{
		op: "delete item", method: http.MethodDelete, table: itemsTable,
		params: url.Values{"id": {eq(id)}}, prefer: preferRepresentation, out: &rows,
	}); err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("delete item %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// DecrementStock subtracts qty with a compare-and-swap on the observed amount.
// PostgREST cannot express "amount = amount - qty", so the PATCH is filtered on
// the amount just read; an empty result means another writer got there first.
func (s *Store) DecrementStock(ctx context.Context, id string, qty int) (*models.Item, error) {
	for attempt := 1; attempt <= s.casAttempts; attempt++ {
		item, err := s.GetItem(ctx, id)
		if err != nil {
			return nil, err
		}
		if item.Amount < qty {
			return nil, fmt.Errorf("decrement item %s: %w", id, repository.ErrInsufficientStock)
		}

		var rows []models.Item
		params := url.Values{
			"id":     {eq(id)},
			"amount": {eq(strconv.Itoa(item.Amount))},
			"select": {itemSelect},
		}
		if _, err := s.do(ctx, request{
			op: "decrement stock", method: http.MethodPatch, table: itemsTable,
			params: params, body: map[string]int{"amount": item.Amount - qty},
			prefer: preferRepresentation, out: &rows,
		}); err != nil {
			return nil, err
		}
		if len(rows) == 1 {
			return &rows[0], nil
		}

		s.logger.Debug("stock changed during decrement, retrying",
			zap.String("item_id", id),
			zap.Int("attempt", attempt),
			zap.Int("seen_amount", item.Amount))
	}

	return nil, fmt.Errorf("decrement item %s: %w", id, repository.ErrStockConflict)
}

// ListCategories returns categories sorted by name.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	params := url.Values{"select": {"id,name"}, "order": {"name.asc"}}
	if _, err := s.do(ctx, request{op: "list categories", method: http.MethodGet, table: "categories", params: params, out: &categories}); err != nil {
		return nil, err
	}
	return categories, nil
}

// ListBrands returns brands sorted by name.
func (s *Store) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	params := url.Values{"select": {"id,name"}, "order": {"name.asc"}}
	if _, err := s.do(ctx, request{op: "list brands", method: http.MethodGet, table: "brands", params: params, out: &brands}); err != nil {
		return nil, err
	}
	return brands, nil
}

// GetCustomer fetches one customer.
func (s *Store) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	var customers []models.Customer
	params := url.Values{"select": {"id,name,email,phone"}, "id": {eq(id)}, "limit": {"1"}}
	if _, err := s.do(ctx, request{op: "get customer", method: http.MethodGet, table: "customers", params: params, out: &customers}); err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return nil, fmt.Errorf("get customer %s: %w", id, repository.ErrNotFound)
	}
	return &customers[0], nil
}

// CountCustomers asks PostgREST for an exact count without transferring rows.
func (s *Store) CountCustomers(ctx context.Context) (int, error) {
	resp, err := s.do(ctx, request{
		op: "count customers", method: http.MethodGet, table: "customers",
		params: url.Values{"select": {"id"}},
		prefer: "count=exact",
		header: map[string]string{"Range-Unit": "items", "Range": "0-0"},
	})
	if err != nil {
		return 0, err
	}
	return parseContentRangeTotal(resp.Header().Get("Content-Range"))
}

// parseContentRangeTotal reads the total from "0-0/42" or "*/0".
func parseContentRangeTotal(header string) (int, error) {
	idx := strings.LastIndex(header, "/")
	if idx < 0 || idx == len(header)-1 {
		return 0, fmt.Errorf("count customers: malformed content-range %q", header)
	}
	total := header[idx+1:]
	if total == "*" {
		return 0, fmt.Errorf("count customers: total not reported")
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("count customers: parse content-range %q: %w", header, err)
	}
	return n, nil
}

// ListLogs queries sale logs with their item, category, brand and customer joins.
func (s *Store) ListLogs(ctx context.Context, filter repository.LogFilter) ([]models.SaleLog, error) {
	params := url.Values{"select": {logSelect}}
	if filter.Action != "" {
		params.Set("action", eq(string(filter.Action)))
	}
	if !filter.Since.IsZero() {
		params.Add("timestamp", "gte."+formatTime(filter.Since))
	}
	if !filter.Until.IsZero() {
		params.Add("timestamp", "lt."+formatTime(filter.Until))
	}
	if filter.Unstructured {
		params.Set("or", "(quantity.is.null,order_number.is.null)")
	}
	if filter.Ascending {
		params.Set("order", "timestamp.asc")
	} else {
		params.Set("order", "timestamp.desc")
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}

	var logs []models.SaleLog
	if _, err := s.do(ctx, request{op: "list logs", method: http.MethodGet, table: logsTable, params: params, out: &logs}); err != nil {
		return nil, err
	}
	return logs, nil
}

// GetLog fetches one sale log with its joins.
func (s *Store) GetLog(ctx context.Context, id string) (*models.SaleLog, error) {
	var logs []models.SaleLog
	params := url.Values{"select": {logSelect}, "id": {eq(id)}, "limit": {"1"}}
	if _, err := s.do(ctx, request{op: "get log", method: http.MethodGet, table: logsTable, params: params, out: &logs}); err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("get log %s: %w", id, repository.ErrNotFound)
	}
	return &logs[0], nil
}

// InsertLog appends a sale log.
func (s *Store) InsertLog(ctx context.Context, log models.SaleLog) (*models.SaleLog, error) {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}

	row := logRow{
		ID:          log.ID,
		ItemID:      log.ItemID,
		CustomerID:  log.CustomerID,
		Action:      log.Action,
		Timestamp:   log.Timestamp.UTC(),
		Details:     log.Details,
		Quantity:    log.Quantity,
		OrderNumber: log.OrderNumber,
	}

	var rows []models.SaleLog
	if _, err := s.do(ctx, request{
		op: "insert log", method: http.MethodPost, table: logsTable,
		body: row, prefer: preferRepresentation, out: &rows,
	}); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("insert log: empty representation")
	}
	return &rows[0], nil
}

// UpdateLogSale writes the structured sale fields of a log.
func (s *Store) UpdateLogSale(ctx context.Context, id string, quantity int, orderNumber string) error {
	var rows []models.SaleLog
	body := map[string]any{"quantity": quantity, "order_number": orderNumber}
	if _, err := s.do(ctx, request{
		op: "update log sale", method: http.MethodPatch, table: logsTable,
		params: url.Values{"id": {eq(id)}, "select": {"id"}}, body: body,
		prefer: preferRepresentation, out: &rows,
	}); err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("update log sale %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// ListOrderStatuses returns every stored status keyed by log id.
func (s *Store) ListOrderStatuses(ctx context.Context) (map[string]models.OrderStatus, error) {
	var records []models.OrderStatusRecord
	params := url.Values{"select": {"log_id,status,updated_at"}}
	if _, err := s.do(ctx, request{op: "list order statuses", method: http.MethodGet, table: statusesTable, params: params, out: &records}); err != nil {
		return nil, err
	}

	statuses := make(map[string]models.OrderStatus, len(records))
	for _, r := range records {
		statuses[r.LogID] = r.Status
	}
	return statuses, nil
}

// UpsertOrderStatus writes the status for a log; the last writer wins.
func (s *Store) UpsertOrderStatus(ctx context.Context, logID string, status models.OrderStatus) (*models.OrderStatusRecord, error) {
	record := models.OrderStatusRecord{LogID: logID, Status: status, UpdatedAt: time.Now().UTC()}

	var rows []models.OrderStatusRecord
	if _, err := s.do(ctx, request{
		op: "upsert order status", method: http.MethodPost, table: statusesTable,
		params: url.Values{"on_conflict": {"log_id"}}, body: record,
		prefer: preferUpsert, out: &rows,
	}); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &record, nil
	}
	return &rows[0], nil
}

// GetUser fetches one account, password hash included.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var rows []userRow
	params := url.Values{"select": {userSelect}, "id": {eq(id)}, "limit": {"1"}}
	if _, err := s.do(ctx, request{op: "get user", method: http.MethodGet, table: usersTable, params: params, out: &rows}); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("get user %s: %w", id, repository.ErrNotFound)
	}
	return rows[0].user(), nil
}

// UpdateUserProfile writes the self-editable fields of an account.
func (s *Store) UpdateUserProfile(ctx context.Context, id string, profile models.ProfileUpdate) (*models.User, error) {
	var rows []userRow
	if _, err := s.do(ctx, request{
		op: "update user", method: http.MethodPatch, table: usersTable,
		params: url.Values{"id": {eq(id)}, "select": {userSelect}}, body: profile,
		prefer: preferRepresentation, out: &rows,
	}); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("update user %s: %w", id, repository.ErrNotFound)
	}
	return rows[0].user(), nil
}

// UpdateUserPassword stores a new password hash.
func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	var rows []userRow
	if _, err := s.do(ctx, request{
		op: "update user password", method: http.MethodPatch, table: usersTable,
		params: url.Values{"id": {eq(id)}, "select": {"id"}}, body: map[string]string{"password": passwordHash},
		prefer: preferRepresentation, out: &rows,
	}); err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("update user password %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// Close is a no-op; resty keeps no resources that need releasing.
func (s *Store) Close() error { return nil }
