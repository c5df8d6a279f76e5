package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cozycakey/internal/auth"
	"cozycakey/internal/availability"
	"cozycakey/internal/db"
	"cozycakey/internal/entities"
	"cozycakey/internal/repository"
	"cozycakey/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryStore struct {
	counts   map[availability.Date]int
	orders   map[uuid.UUID]*db.Order
	countErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{counts: map[availability.Date]int{}, orders: map[uuid.UUID]*db.Order{}}
}

func (m *memoryStore) CountOrdersOn(_ context.Context, d availability.Date) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.counts[d], nil
}

func (m *memoryStore) CountOrdersInRange(_ context.Context, start, end availability.Date) (map[availability.Date]int, error) {
	if m.countErr != nil {
		return nil, m.countErr
	}
	out := map[availability.Date]int{}
	for d, n := range m.counts {
		if !d.Before(start) && !d.After(end) {
			out[d] = n
		}
	}
	return out, nil
}

func (m *memoryStore) CreateOrderWithinCapacity(_ context.Context, o *db.Order, maxPerDay int) error {
	if m.counts[o.DeliveryDate] >= maxPerDay {
		return repository.ErrDateFullyBooked
	}
	o.ID = uuid.New()
	o.Status = db.StatusPending
	m.counts[o.DeliveryDate]++
	stored := *o
	m.orders[o.ID] = &stored
	return nil
}

func (m *memoryStore) GetOrder(_ context.Context, id uuid.UUID) (*db.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (m *memoryStore) ListOrders(_ context.Context, f entities.OrderFilter) ([]db.Order, int64, error) {
	out := []db.Order{}
	for _, o := range m.orders {
		if f.Date != "" && o.DeliveryDate.String() != f.Date {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (m *memoryStore) UpdateOrderStatus(_ context.Context, id uuid.UUID, status string, maxPerDay int) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	wasActive := o.Status != db.StatusCancelled
	isActive := status != db.StatusCancelled
	switch {
	case !wasActive && isActive:
		if m.counts[o.DeliveryDate] >= maxPerDay {
			return repository.ErrDateFullyBooked
		}
		m.counts[o.DeliveryDate]++
	case wasActive && !isActive:
		m.counts[o.DeliveryDate]--
	}
	o.Status = status
	return nil
}

func (m *memoryStore) DeleteOrder(_ context.Context, id uuid.UUID) error {
	if _, ok := m.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *memoryStore) Ping(context.Context) error { return m.countErr }

type noopNotifier struct{}

func (noopNotifier) OrderPlaced(db.Order) {}

const adminPassword = "cake-boss"

func newTestRouter(t *testing.T) (http.Handler, *memoryStore) {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2025, time.June, 10, 10, 0, 0, 0, loc)

	policy := availability.DefaultPolicy()
	policy.Location = loc
	store := newMemoryStore()
	avail := service.NewAvailabilityService(store, service.Policies{Base: policy}, time.Second).
		WithClock(func() time.Time { return now })
	orders := service.NewOrderService(store, avail, noopNotifier{})

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	sessions := service.NewAdminAuthService(string(hash), "router-secret")

	return NewRouter(Routes{
		User:      NewUserHandler(avail, orders),
		Admin:     NewAdminHandler(service.NewAdminService(store, store, policy.MaxOrdersPerDay)),
		AdminAuth: NewAdminAuthHandler(sessions, false),
		Sessions:  sessions,
		DB:        store,
	}), store
}

func do(t *testing.T, h http.Handler, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetAvailability_SingleDate(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/availability?date=2025-06-15", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"date":"2025-06-15","available":false,"reason":"Closed on Sundays and Mondays",
		"code":"CLOSED_DAY","currentOrders":0,"maxOrders":3}`, rec.Body.String())
}

func TestGetAvailability_Range(t *testing.T) {
	h, store := newTestRouter(t)
	store.counts[availability.NewDate(2025, time.June, 13)] = 3

	rec := do(t, h, http.MethodGet, "/api/availability?start=2025-06-12&end=2025-06-14&orderType=tiered", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unavailableDates":[{"date":"2025-06-13","reason":"Fully booked (3+ orders)","code":"FULLY_BOOKED","currentOrders":3}]}`,
		rec.Body.String())
}

func TestGetAvailability_BadRequests(t *testing.T) {
	h, _ := newTestRouter(t)

	for _, target := range []string{
		"/api/availability",
		"/api/availability?start=2025-06-12",
		"/api/availability?date=12-06-2025",
		"/api/availability?date=2025-06-12&orderType=wedding",
		"/api/availability?start=2025-06-20&end=2025-06-12",
	} {
		rec := do(t, h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestGetAvailability_CounterDown(t *testing.T) {
	h, store := newTestRouter(t)
	store.countErr = errors.New("db down")

	rec := do(t, h, http.MethodGet, "/api/availability?date=2025-06-12", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"Unable to verify availability, please try again"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBatchAvailability(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/availability", `{"dates":["2025-06-12","2025-06-10"],"orderType":"design"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp entities.AvailabilityBatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Availability, 2)
	assert.True(t, resp.Availability[0].Available)
	assert.Equal(t, "Cannot book same day", resp.Availability[1].Reason)

	rec = do(t, h, http.MethodPost, "/api/availability", `{"dates":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

const designOrderJSON = `{
	"cakeId":"heart-cake","cakeName":"Heart Cake","size":"6","flavor":"Vanilla","baseColor":"Pink",
	"deliveryDate":"2025-06-12","pickupTime":"11:00 AM","name":"Jane Doe","email":"jane@example.com",
	"phone":"617-555-0100","customerType":"new","deliveryOption":"pickup","paymentMethod":"venmo",
	"allergyAgreement":true,"totalPrice":65
}`

func TestCreateDesignOrder_UntilFull(t *testing.T) {
	h, store := newTestRouter(t)

	for i := 0; i < 3; i++ {
		rec := do(t, h, http.MethodPost, "/api/orders/design", designOrderJSON)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var resp entities.PlaceOrderResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.OrderID)
	}
	assert.Len(t, store.orders, 3)

	rec := do(t, h, http.MethodPost, "/api/orders/design", designOrderJSON)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"Fully booked (3+ orders)"}`, rec.Body.String())
}

func TestCreateCateringOrder_Invalid(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/orders/catering", `{"cakeName":"Mini Cakes"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "is required")
}

func login(t *testing.T, h http.Handler) *http.Cookie {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/admin/login", `{"password":"`+adminPassword+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestAdminFlow(t *testing.T) {
	h, store := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/orders/design", designOrderJSON).Code)
	var id uuid.UUID
	for k := range store.orders {
		id = k
	}

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/admin/orders", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/admin/login", `{"password":"nope"}`).Code)

	session := login(t, h)
	rec := do(t, h, http.MethodGet, "/api/admin/auth-check", "", session)
	assert.JSONEq(t, `{"authenticated":true}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/admin/orders?date=2025-06-12&status=pending", "", session)
	require.Equal(t, http.StatusOK, rec.Code)
	var list entities.OrdersList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.EqualValues(t, 1, list.Total)
	assert.Equal(t, service.DefaultPageSize, list.Limit)

	rec = do(t, h, http.MethodGet, "/api/admin/orders?limit=ten", "", session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/admin/orders/"+id.String()+"/status", `{"status":"confirmed"}`, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, db.StatusConfirmed, store.orders[id].Status)

	rec = do(t, h, http.MethodGet, "/api/admin/orders/"+id.String(), "", session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deliveryDate":"2025-06-12"`)

	rec = do(t, h, http.MethodDelete, "/api/admin/orders/"+id.String(), "", session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/admin/orders/"+id.String(), "", session).Code)

	rec = do(t, h, http.MethodPost, "/api/admin/logout", "")
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestAdminReactivateOnFullDate(t *testing.T) {
	h, store := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/orders/design", designOrderJSON).Code)
	var first uuid.UUID
	for k := range store.orders {
		first = k
	}
	session := login(t, h)

	path := "/api/admin/orders/" + first.String() + "/status"
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPut, path, `{"status":"cancelled"}`, session).Code)
	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/orders/design", designOrderJSON).Code)
	}

	rec := do(t, h, http.MethodPut, path, `{"status":"pending"}`, session)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"Fully booked (3+ orders)"}`, rec.Body.String())
	assert.Equal(t, db.StatusCancelled, store.orders[first].Status)
}

func TestHealthz(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
