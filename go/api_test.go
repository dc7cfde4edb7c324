package shopserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mediamemory "github.com/Apurer/go-gin-shop-api/internal/domains/media/adapters/memory"
	mediaapp "github.com/Apurer/go-gin-shop-api/internal/domains/media/application"
	mediadomain "github.com/Apurer/go-gin-shop-api/internal/domains/media/domain"
	ordermemory "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/memory"
	ordersapp "github.com/Apurer/go-gin-shop-api/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-shop-api/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/go-gin-shop-api/internal/domains/orders/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type harness struct {
	router *gin.Engine
	store  *ordermemory.Store
}

func newHarness(t *testing.T) harness {
	t.Helper()
	store := ordermemory.NewStore()
	store.PutProduct(orderdomain.Product{ID: "p1", Title: "Shirt", TotalStock: 5})
	store.PutProduct(orderdomain.Product{ID: "p2", Title: "Hat", TotalStock: 1})
	store.PutCart(orderdomain.Cart{ID: "cart-1", UserID: "u1"})

	orders := ordersapp.NewService(store, ordersapp.WithIdempotencyStore(ordermemory.NewIdempotencyStore()))
	media := mediaapp.NewService(mediamemory.NewHost("http://cdn.test"), mediaapp.WithMaxBytes(1024))
	router := NewRouter(ApiHandleFunctions{
		OrderAPI: NewOrderAPI(orders, quietLogger),
		ImageAPI: NewImageAPI(media, 1024, quietLogger),
	})
	return harness{router: router, store: store}
}

func (h harness) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	}
	return rec, body
}

func orderPayload(productID, title string, quantity int, total float64) map[string]any {
	return map[string]any{
		"userId": "u1",
		"cartId": "cart-1",
		"cartItems": []map[string]any{
			{"productId": productID, "title": title, "image": "img.png", "price": 10, "quantity": quantity},
		},
		"addressInfo":   map[string]any{"city": "Gdansk"},
		"orderStatus":   "shipped",
		"paymentMethod": "cod",
		"paymentStatus": "refunded",
		"totalAmount":   total,
	}
}

func jsonRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateOrder_PlacesOrder(t *testing.T) {
	h := newHarness(t)

	rec, body := h.do(t, jsonRequest(t, http.MethodPost, "/orders", orderPayload("p1", "Shirt", 3, 30)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Order created successfully", body["message"])
	orderID, _ := body["orderId"].(string)
	require.NotEmpty(t, orderID)

	product, err := h.store.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, product.TotalStock)
	assert.False(t, h.store.HasCart("cart-1"))

	rec, body = h.do(t, httptest.NewRequest(http.MethodGet, "/orders/"+orderID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, orderID, data["_id"])
	assert.Equal(t, "confirmed", data["orderStatus"])
	assert.Equal(t, "paid", data["paymentStatus"])
	assert.Equal(t, float64(30), data["totalAmount"])
}

func TestCreateOrder_InvalidAmount(t *testing.T) {
	h := newHarness(t)
	rec, body := h.do(t, jsonRequest(t, http.MethodPost, "/orders", orderPayload("p1", "Shirt", 1, 0)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid total amount", body["message"])
	assert.Nil(t, body["error"])
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	h := newHarness(t)
	rec, body := h.do(t, jsonRequest(t, http.MethodPost, "/orders", orderPayload("p2", "Hat", 2, 20)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Not enough stock for product: Hat", body["message"])
	assert.Equal(t, 0, h.store.OrderCount())
	assert.True(t, h.store.HasCart("cart-1"))
}

func TestCreateOrder_MalformedBody(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec, body := h.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestCreateOrder_IdempotentReplay(t *testing.T) {
	h := newHarness(t)
	payload := orderPayload("p1", "Shirt", 1, 10)

	first := jsonRequest(t, http.MethodPost, "/orders", payload)
	first.Header.Set(HeaderIdempotencyKey, "checkout-42")
	rec, body := h.do(t, first)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Header().Get(HeaderIdempotentReplayed))

	retry := jsonRequest(t, http.MethodPost, "/orders", payload)
	retry.Header.Set(HeaderIdempotencyKey, "checkout-42")
	rec, replayed := h.do(t, retry)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "true", rec.Header().Get(HeaderIdempotentReplayed))
	assert.Equal(t, body["orderId"], replayed["orderId"])
	assert.Equal(t, 1, h.store.OrderCount())

	changed := jsonRequest(t, http.MethodPost, "/orders", orderPayload("p1", "Shirt", 2, 20))
	changed.Header.Set(HeaderIdempotencyKey, "checkout-42")
	rec, _ = h.do(t, changed)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetAllOrdersByUser(t *testing.T) {
	h := newHarness(t)
	rec, body := h.do(t, httptest.NewRequest(http.MethodGet, "/orders/user/u1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No orders found!", body["message"])

	rec, _ = h.do(t, jsonRequest(t, http.MethodPost, "/orders", orderPayload("p1", "Shirt", 1, 10)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body = h.do(t, httptest.NewRequest(http.MethodGet, "/orders/user/u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"], 1)
}

func TestGetOrderDetails_NotFound(t *testing.T) {
	h := newHarness(t)
	rec, body := h.do(t, httptest.NewRequest(http.MethodGet, "/orders/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found!", body["message"])
}

type brokenOrders struct{}

func (brokenOrders) CreateOrder(context.Context, ordertypes.CreateOrderInput) (*ordertypes.PlacementResult, error) {
	return nil, errors.New("connection reset")
}

func (brokenOrders) ListOrdersByUser(context.Context, ordertypes.ListOrdersByUserInput) ([]*orderdomain.Order, error) {
	return nil, errors.New("connection reset")
}

func (brokenOrders) GetOrder(context.Context, ordertypes.OrderIdentifier) (*orderdomain.Order, error) {
	return nil, errors.New("connection reset")
}

func TestOrderAPI_UnexpectedFailuresAreOpaque(t *testing.T) {
	router := NewRouter(ApiHandleFunctions{OrderAPI: NewOrderAPI(brokenOrders{}, quietLogger)})
	h := harness{router: router}

	rec, body := h.do(t, httptest.NewRequest(http.MethodGet, "/orders/o1", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Some error occurred!", body["message"])
	assert.Equal(t, "internal_error", body["error"])
	assert.NotContains(t, rec.Body.String(), "connection reset")

	rec, body = h.do(t, jsonRequest(t, http.MethodPost, "/orders", orderPayload("p1", "Shirt", 1, 10)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server error occurred", body["message"])
}

func multipartRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, "/images/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	h := newHarness(t)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	rec, body := h.do(t, multipartRequest(t, ImageFormField, "logo.png", png))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := body["result"].(map[string]any)
	assert.Equal(t, "image", result["resourceType"])
	assert.Equal(t, "png", result["format"])
	assert.Equal(t, float64(len(png)), result["bytes"])

	rec, _ = h.do(t, multipartRequest(t, "", "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = h.do(t, multipartRequest(t, ImageFormField, "big.png", bytes.Repeat([]byte{1}, 2048)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type failingHost struct{}

func (failingHost) Upload(context.Context, mediadomain.Image) (*mediadomain.StoredImage, error) {
	return nil, errors.New("cloud unavailable")
}

func TestUploadImage_HostFailure(t *testing.T) {
	media := mediaapp.NewService(failingHost{})
	h := harness{router: NewRouter(ApiHandleFunctions{ImageAPI: NewImageAPI(media, 0, quietLogger)})}

	rec, body := h.do(t, multipartRequest(t, ImageFormField, "a.png", []byte("payload")))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Image upload failed", body["message"])
	assert.Equal(t, "upstream_error", body["error"])
}

func TestHealthz(t *testing.T) {
	h := harness{router: NewRouter(ApiHandleFunctions{})}
	rec, body := h.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}
