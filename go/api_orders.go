package shopserver

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	orderhttpmapper "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/go-gin-shop-api/internal/domains/orders/application/types"
	orderports "github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-gin-shop-api/internal/shared/errors"
)

const (
	// HeaderIdempotencyKey lets clients retry POST /orders safely.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotentReplayed is set when a stored result is returned for a retried key.
	HeaderIdempotentReplayed = "Idempotent-Replayed"

	maxIdempotencyKeyLength = 255
)

// OrderAPI wires HTTP transport with the orders bounded context service.
type OrderAPI struct {
	service      orderports.Service
	createErrors *apierrors.Responder
	listErrors   *apierrors.Responder
	getErrors    *apierrors.Responder
}

// NewOrderAPI creates an OrderAPI backed by the provided service.
func NewOrderAPI(service orderports.Service, logger *slog.Logger) OrderAPI {
	return OrderAPI{
		service:      service,
		createErrors: apierrors.NewResponder(logger, orderErrorMapper(msgOrderNotFound)),
		listErrors:   apierrors.NewResponder(logger, orderErrorMapper(msgOrdersNotFound)),
		getErrors:    apierrors.NewResponder(logger, orderErrorMapper(msgOrderNotFound)),
	}
}

// Post /orders
// Place an order from the cart
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	var payload orderhttpmapper.CreateOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		api.createErrors.BadRequest(c, "Invalid request body")
		return
	}
	key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
	if len(key) > maxIdempotencyKeyLength {
		api.createErrors.BadRequest(c, "Idempotency-Key is too long")
		return
	}
	result, err := api.service.CreateOrder(c.Request.Context(), orderhttpmapper.ToCreateOrderInput(payload, key))
	if err != nil {
		api.createErrors.RespondError(c, err)
		return
	}
	if result.Replayed {
		c.Header(HeaderIdempotentReplayed, "true")
	}
	c.JSON(http.StatusCreated, CreateOrderResponse{
		Success: true,
		Message: "Order created successfully",
		OrderID: result.OrderID,
	})
}

// Get /orders/user/:userId
// List every order of a user, newest first
func (api *OrderAPI) GetAllOrdersByUser(c *gin.Context) {
	var userID string
	if !bindPathParam(c, api.listErrors, "userId", &userID) {
		return
	}
	orders, err := api.service.ListOrdersByUser(c.Request.Context(), ordertypes.ListOrdersByUserInput{UserID: userID})
	if err != nil {
		api.listErrors.RespondErrorWithFallback(c, err, apierrors.ErrInternal.WithMessage(msgLookupFailed))
		return
	}
	c.JSON(http.StatusOK, OrderListResponse{Success: true, Data: orderhttpmapper.FromDomainOrders(orders)})
}

// Get /orders/:id
// Find order by ID
func (api *OrderAPI) GetOrderDetails(c *gin.Context) {
	var id string
	if !bindPathParam(c, api.getErrors, "id", &id) {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), ordertypes.OrderIdentifier{ID: id})
	if err != nil {
		api.getErrors.RespondErrorWithFallback(c, err, apierrors.ErrInternal.WithMessage(msgLookupFailed))
		return
	}
	c.JSON(http.StatusOK, OrderResponse{Success: true, Data: orderhttpmapper.FromDomainOrder(order)})
}

func bindPathParam(c *gin.Context, responder *apierrors.Responder, name string, dest *string) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), dest, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil || strings.TrimSpace(*dest) == "" {
		responder.BadRequest(c, "Invalid parameter "+name)
		return false
	}
	return true
}
