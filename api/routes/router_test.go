package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	checkoutsvc "github.com/angelmondragon/checkout-shipping/internal/checkout"
	"github.com/angelmondragon/checkout-shipping/internal/lockers"
	"github.com/angelmondragon/checkout-shipping/internal/orders"
	"github.com/angelmondragon/checkout-shipping/internal/packages"
	"github.com/angelmondragon/checkout-shipping/internal/shippingoptions"
	"github.com/angelmondragon/checkout-shipping/internal/submission"
	"github.com/angelmondragon/checkout-shipping/pkg/config"
	"github.com/angelmondragon/checkout-shipping/pkg/enums"
	"github.com/angelmondragon/checkout-shipping/pkg/logger"
	"github.com/angelmondragon/checkout-shipping/pkg/metrics"
	"github.com/angelmondragon/checkout-shipping/pkg/money"
)

type memoryRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}}
}

func (m *memoryRedis) Ping(context.Context) error { return nil }

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	return nil
}

func (m *memoryRedis) SetIfVersion(_ context.Context, key, field string, expected int64, value string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var version int64
	if current, ok := m.data[key]; ok {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal([]byte(current), &doc); err != nil {
			return false, err
		}
		if raw, ok := doc[field]; ok {
			if err := json.Unmarshal(raw, &version); err != nil {
				return false, err
			}
		}
	}
	if version != expected {
		return false, nil
	}
	m.data[key] = value
	return true, nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string {
	return "co:idempotency:" + scope + ":" + id
}

func (m *memoryRedis) CheckoutSessionKey(id string) string {
	return "co:checkout_session:" + id
}

type courierResolver struct{}

func (courierResolver) Resolve(_ context.Context, requests []packages.Request) (*shippingoptions.Resolution, error) {
	res := &shippingoptions.Resolution{}
	for _, req := range requests {
		res.Packages = append(res.Packages, shippingoptions.PackageOptions{
			Package: packages.Package{ID: req.PackageID, LockerSlotCount: 1},
			Methods: []shippingoptions.MethodOption{
				{ID: "courier", Kind: enums.ShippingMethodKindCourier, Price: money.Round(14.99), IsAvailable: true},
			},
		})
	}
	return res, nil
}

type countingSubmitter struct {
	calls int
}

func (s *countingSubmitter) Submit(_ context.Context, key string, _ submission.OrderSubmission) (*orders.SubmitResult, error) {
	s.calls++
	return &orders.SubmitResult{OrderID: "o-" + key, OrderNumber: "PF-1"}, nil
}

type noRecent struct{}

func (noRecent) List(context.Context, string) ([]lockers.Locker, error) {
	return []lockers.Locker{}, nil
}

type harness struct {
	handler   http.Handler
	submitter *countingSubmitter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		App:     config.AppConfig{Env: "dev", CORSOrigins: []string{"http://localhost:3000"}},
		Session: config.SessionConfig{IdempotencyTTL: time.Hour},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	rdb := newMemoryRedis()
	reg := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)
	submitter := &countingSubmitter{}

	svc, err := checkoutsvc.NewService(checkoutsvc.Params{
		Sessions:  checkoutsvc.NewRedisSessionStore(rdb, time.Hour),
		Resolver:  shippingoptions.Instrument(courierResolver{}, checkoutMetrics),
		Submitter: submitter,
		Metrics:   checkoutMetrics,
		Logger:    logg,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler := NewRouter(cfg, logg, nil, rdb, svc, noRecent{}, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &harness{handler: handler, submitter: submitter}
}

func (h *harness) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	h.handler.ServeHTTP(resp, req)
	return resp
}

type viewEnvelope struct {
	Data struct {
		ID        string `json:"id"`
		Readiness struct {
			CanSubmit bool `json:"can_submit"`
		} `json:"readiness"`
	} `json:"data"`
}

func TestHealthRoutes(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{"/health/live", "/health/ready"} {
		if resp := h.do(t, http.MethodGet, path, "", nil); resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestCheckoutFlowThroughRouter(t *testing.T) {
	h := newHarness(t)
	cart := `{"cart":[{"product_id":"lamp","variant_id":"lamp-1","quantity":1,"warehouse_id":"Outlet","unit_price":"40.00"}]}`

	if resp := h.do(t, http.MethodPost, "/api/v1/checkout/sessions", cart, nil); resp.Code != http.StatusBadRequest {
		t.Fatalf("create without idempotency key should fail, got %d", resp.Code)
	}

	headers := map[string]string{"Idempotency-Key": "create-1"}
	resp := h.do(t, http.MethodPost, "/api/v1/checkout/sessions", cart, headers)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var created viewEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id := created.Data.ID
	if id == "" {
		t.Fatal("expected session id")
	}

	replay := h.do(t, http.MethodPost, "/api/v1/checkout/sessions", cart, headers)
	if replay.Body.String() != resp.Body.String() {
		t.Fatal("replayed create must return the stored response")
	}

	base := "/api/v1/checkout/sessions/" + id
	steps := []struct {
		method, path, body string
	}{
		{http.MethodPut, base + "/address", `{"first_name":"Anna","last_name":"Nowak","email":"anna@example.com","phone":"600000000","street":"Rejtana 1","postal_code":"35-001","city":"Rzeszów"}`},
		{http.MethodPut, base + "/payment", `{"method":"blik"}`},
		{http.MethodPut, base + "/terms", `{"accepted":true}`},
		{http.MethodPost, base + "/steps/3", ""},
	}
	for _, step := range steps {
		if resp := h.do(t, step.method, step.path, step.body, nil); resp.Code != http.StatusOK {
			t.Fatalf("%s %s: expected 200 got %d: %s", step.method, step.path, resp.Code, resp.Body.String())
		}
	}

	resp = h.do(t, http.MethodGet, base+"/readiness", "", nil)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"can_submit":true`) {
		t.Fatalf("expected submit-ready session: %s", resp.Body.String())
	}

	submitHeaders := map[string]string{"Idempotency-Key": "submit-1"}
	first := h.do(t, http.MethodPost, base+"/submit", "", submitHeaders)
	if first.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201 got %d: %s", first.Code, first.Body.String())
	}
	second := h.do(t, http.MethodPost, base+"/submit", "", submitHeaders)
	if second.Code != http.StatusCreated || second.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replayed submit, got %d", second.Code)
	}
	if h.submitter.calls != 1 {
		t.Fatalf("order api called %d times", h.submitter.calls)
	}

	if resp := h.do(t, http.MethodGet, base, "", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("submitted session should be gone, got %d", resp.Code)
	}

	metricsResp := h.do(t, http.MethodGet, "/metrics", "", nil)
	if !strings.Contains(metricsResp.Body.String(), "checkout_submissions_total") {
		t.Fatalf("expected submission metric in exposition")
	}
}
