package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-payment-callbacks/internal/cache"
	"github.com/tbourn/go-payment-callbacks/internal/config"
	"github.com/tbourn/go-payment-callbacks/internal/domain"
	"github.com/tbourn/go-payment-callbacks/internal/repo"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     100,
		RateBurst:   10,
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
		Gateway:     config.GatewayConfig{MaxBodyBytes: 1 << 20},
	}
}

func newRouter(t *testing.T, db *gorm.DB, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, db, nil, cfg)
	return r
}

func do(r http.Handler, method, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeAck(t *testing.T, w *httptest.ResponseRecorder) (int, string) {
	t.Helper()
	var ack struct {
		ResultCode int
		ResultDesc string
	}
	if err := json.Unmarshal(w.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v (%s)", err, w.Body.String())
	}
	return ack.ResultCode, ack.ResultDesc
}

const c2bPayload = `{"TransID":"SFJ7ROUTE1","TransTime":"20260108123456","TransAmount":250,"MSISDN":254712345678,"BillRefNumber":"s7","FirstName":"jane","LastName":"wanjiru"}`

func TestRegisterRoutes_Health_Metrics_Fallbacks(t *testing.T) {
	r := newRouter(t, newTestDB(t), testConfig())

	w := do(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if got := w.Header().Get("Cache-Control"); !strings.Contains(got, "no-store") {
		t.Fatalf("expected no-store, got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header")
	}

	w = do(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	w = do(r, http.MethodGet, "/nope", "", nil)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"code":"not_found"`) {
		t.Fatalf("GET /nope = %d %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/api/v1/callbacks/c2b", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET on callback expected 405, got %d", w.Code)
	}

	// Swagger stays off unless enabled.
	if w = do(r, http.MethodGet, "/swagger/doc.json", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be disabled, got %d", w.Code)
	}
}

func TestRegisterRoutes_HealthReportsDatabaseDown(t *testing.T) {
	db := newTestDB(t)
	r := newRouter(t, db, testConfig())

	sqlDB, _ := db.DB()
	_ = sqlDB.Close()

	w := do(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), `"code":"unavailable"`) {
		t.Fatalf("GET /health = %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_SwaggerEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	r := newRouter(t, newTestDB(t), cfg)

	w := do(r, http.MethodGet, "/swagger/doc.json", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/callbacks/stk") {
		t.Fatalf("GET /swagger/doc.json = %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://ops.example.com"}}
	r := newRouter(t, newTestDB(t), cfg)

	w := do(r, http.MethodGet, "/health", "", func(req *http.Request) {
		req.Header.Set("Origin", "http://ops.example.com")
	})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://ops.example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

func TestRegisterRoutes_UnsolicitedEndToEnd(t *testing.T) {
	db := newTestDB(t)
	r := newRouter(t, db, testConfig())

	for i := 0; i < 3; i++ {
		w := do(r, http.MethodPost, "/api/v1/callbacks/c2b", c2bPayload, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("delivery %d: status %d", i, w.Code)
		}
		if code, desc := decodeAck(t, w); code != 0 || desc != "Accepted" {
			t.Fatalf("delivery %d: ack %d %q", i, code, desc)
		}
	}

	got, err := repo.GetUnsolicitedByReceipt(context.Background(), db, "SFJ7ROUTE1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.StationID == nil || *got.StationID != 7 || got.Phone != "254712345678" || !got.Amount.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected row: %+v", got)
	}
	evs, _ := repo.ListCallbackEvents(context.Background(), db, domain.ReceiverUnsolicited, "SFJ7ROUTE1")
	if len(evs) != 3 {
		t.Fatalf("expected one audit event per delivery, got %d", len(evs))
	}
}

func TestRegisterRoutes_PushResultEndToEnd(t *testing.T) {
	db := newTestDB(t)
	r := newRouter(t, db, testConfig())

	if err := db.Create(&domain.Sale{ID: "sale-9", Amount: decimal.NewFromInt(50), PaymentStatus: domain.SalePending}).Error; err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	if err := db.Create(&domain.PushTransaction{
		ID: uuid.NewString(), CorrelationID: "ws_CO_9", SaleID: "sale-9",
		Amount: decimal.NewFromInt(50), Status: domain.PushPending,
	}).Error; err != nil {
		t.Fatalf("seed push: %v", err)
	}

	body := `{"Body":{"stkCallback":{"MerchantRequestID":"m-9","CheckoutRequestID":"ws_CO_9","ResultCode":1032,"ResultDesc":"Request cancelled by user"}}}`
	w := do(r, http.MethodPost, "/api/v1/callbacks/stk", body, nil)
	if code, desc := decodeAck(t, w); code != 0 || desc != "Success" {
		t.Fatalf("ack %d %q", code, desc)
	}

	pt, _ := repo.GetPushTransaction(context.Background(), db, "ws_CO_9")
	if pt.Status != domain.PushCancelled || pt.CompletedAt != nil {
		t.Fatalf("unexpected push row: %+v", pt)
	}
	sale, _ := repo.GetSale(context.Background(), db, "sale-9")
	if sale.PaymentStatus != domain.SaleFailed {
		t.Fatalf("sale status = %s", sale.PaymentStatus)
	}

	w = do(r, http.MethodPost, "/api/v1/callbacks/stk", `{"Body":{}}`, nil)
	if code, _ := decodeAck(t, w); code != 1 {
		t.Fatalf("malformed push result should answer ResultCode 1, got %d", code)
	}
}

func TestRegisterRoutes_LooselyTypedGatewayFields(t *testing.T) {
	db := newTestDB(t)
	r := newRouter(t, db, testConfig())

	c2b := `{"TransID":"SFJ7NUM1","TransAmount":"75.00","BillRefNumber":12345,"InvoiceNumber":0,"FirstName":"ann","MiddleName":1}`
	w := do(r, http.MethodPost, "/api/v1/callbacks/c2b", c2b, nil)
	if code, _ := decodeAck(t, w); code != 0 {
		t.Fatalf("c2b ack code %d", code)
	}
	got, err := repo.GetUnsolicitedByReceipt(context.Background(), db, "SFJ7NUM1")
	if err != nil {
		t.Fatalf("numeric account reference should still be stored: %v", err)
	}
	if got.AccountReference != "12345" || got.StationID != nil {
		t.Fatalf("unexpected row: %+v", got)
	}

	if err := db.Create(&domain.Sale{ID: "sale-10", Amount: decimal.NewFromInt(20), PaymentStatus: domain.SalePending}).Error; err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	if err := db.Create(&domain.PushTransaction{
		ID: uuid.NewString(), CorrelationID: "ws_CO_10", SaleID: "sale-10",
		Amount: decimal.NewFromInt(20), Status: domain.PushPending,
	}).Error; err != nil {
		t.Fatalf("seed push: %v", err)
	}
	stk := `{"Body":{"stkCallback":{"MerchantRequestID":4455,"CheckoutRequestID":"ws_CO_10","ResultCode":0,"ResultDesc":"ok",
		"CallbackMetadata":{"Item":[{"Name":"Extra","Value":{"a":1}},{"Name":"Flag","Value":true},
		{"Name":"Amount","Value":20},{"Name":"MpesaReceiptNumber","Value":"QWE10"}]}}}}`
	w = do(r, http.MethodPost, "/api/v1/callbacks/stk", stk, nil)
	if code, desc := decodeAck(t, w); code != 0 || desc != "Success" {
		t.Fatalf("stk ack %d %q", code, desc)
	}
	pt, _ := repo.GetPushTransaction(context.Background(), db, "ws_CO_10")
	if pt.Status != domain.PushCompleted || pt.Receipt == nil || *pt.Receipt != "QWE10" {
		t.Fatalf("unexpected push row: %+v", pt)
	}
}

func TestRegisterRoutes_GatewayAllowlist(t *testing.T) {
	cfg := testConfig()
	cfg.Gateway.AllowedCIDRs = []string{"196.201.214.0/24"}
	r := newRouter(t, newTestDB(t), cfg)

	w := do(r, http.MethodPost, "/api/v1/callbacks/c2b", c2bPayload, func(req *http.Request) {
		req.RemoteAddr = "203.0.113.9:5000"
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("outside address expected 403, got %d", w.Code)
	}

	w = do(r, http.MethodPost, "/api/v1/callbacks/c2b", c2bPayload, func(req *http.Request) {
		req.RemoteAddr = "196.201.214.20:5000"
	})
	if w.Code != http.StatusOK {
		t.Fatalf("gateway address expected 200, got %d", w.Code)
	}

	// Probes are not subject to the allowlist.
	w = do(r, http.MethodGet, "/health", "", func(req *http.Request) {
		req.RemoteAddr = "203.0.113.9:5000"
	})
	if w.Code != http.StatusOK {
		t.Fatalf("health expected 200, got %d", w.Code)
	}
}

func TestRegisterRoutes_OversizedPushResult(t *testing.T) {
	cfg := testConfig()
	cfg.Gateway.MaxBodyBytes = 32
	r := newRouter(t, newTestDB(t), cfg)

	body := `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_big","ResultCode":0}}}`
	w := do(r, http.MethodPost, "/api/v1/callbacks/stk", body, nil)
	if code, desc := decodeAck(t, w); code != 1 || desc != "malformed payload" {
		t.Fatalf("ack %d %q", code, desc)
	}
}

func TestRegisterRoutes_WithDeliveryCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := cache.NewClient(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	db := newTestDB(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, db, cache.NewDeliveryCache(client, time.Hour), testConfig())

	for i := 0; i < 2; i++ {
		w := do(r, http.MethodPost, "/api/v1/callbacks/c2b", c2bPayload, nil)
		if code, _ := decodeAck(t, w); code != 0 {
			t.Fatalf("delivery %d: ack code %d", i, code)
		}
	}
	if len(mr.Keys()) != 1 {
		t.Fatalf("expected one cached delivery key, got %v", mr.Keys())
	}
	var n int64
	db.Model(&domain.UnsolicitedTransaction{}).Count(&n)
	if n != 1 {
		t.Fatalf("rows = %d", n)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		w := do(r, http.MethodGet, path, "", nil)
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, w.Code, w.Body.String())
		}
	}
}
