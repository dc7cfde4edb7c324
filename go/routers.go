// Package shopserver exposes the shop HTTP API over gin.
package shopserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
	// Mutating marks routes that change state.
	Mutating bool
}

// ApiHandleFunctions groups the handlers of every API.
type ApiHandleFunctions struct {
	OrderAPI OrderAPI
	ImageAPI ImageAPI
}

// RouterOption customises the engine.
type RouterOption func(*routerSettings)

type routerSettings struct {
	middleware []gin.HandlerFunc
	mutating   []gin.HandlerFunc
}

// WithMiddleware installs middleware on every route.
func WithMiddleware(handlers ...gin.HandlerFunc) RouterOption {
	return func(s *routerSettings) { s.middleware = append(s.middleware, handlers...) }
}

// WithMutatingMiddleware installs middleware in front of state-changing routes only.
func WithMutatingMiddleware(handlers ...gin.HandlerFunc) RouterOption {
	return func(s *routerSettings) { s.mutating = append(s.mutating, handlers...) }
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions, opts ...RouterOption) *gin.Engine {
	return NewRouterWithGinEngine(gin.New(), handleFunctions, opts...)
}

// NewRouterWithGinEngine adds routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions, opts ...RouterOption) *gin.Engine {
	settings := routerSettings{}
	for _, opt := range opts {
		opt(&settings)
	}
	router.Use(gin.Recovery())
	router.Use(settings.middleware...)
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		handlers := []gin.HandlerFunc{}
		if route.Mutating {
			handlers = append(handlers, settings.mutating...)
		}
		handlers = append(handlers, route.HandlerFunc)
		router.Handle(route.Method, route.Pattern, handlers...)
	}
	return router
}

// DefaultHandleFunc is the default handler for not yet implemented routes.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// Healthz reports liveness.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			Name:        "CreateOrder",
			Method:      http.MethodPost,
			Pattern:     "/orders",
			HandlerFunc: handleFunctions.OrderAPI.CreateOrder,
			Mutating:    true,
		},
		{
			Name:        "GetAllOrdersByUser",
			Method:      http.MethodGet,
			Pattern:     "/orders/user/:userId",
			HandlerFunc: handleFunctions.OrderAPI.GetAllOrdersByUser,
		},
		{
			Name:        "GetOrderDetails",
			Method:      http.MethodGet,
			Pattern:     "/orders/:id",
			HandlerFunc: handleFunctions.OrderAPI.GetOrderDetails,
		},
		{
			Name:        "UploadImage",
			Method:      http.MethodPost,
			Pattern:     "/images/upload",
			HandlerFunc: handleFunctions.ImageAPI.UploadImage,
			Mutating:    true,
		},
		{
			Name:        "Healthz",
			Method:      http.MethodGet,
			Pattern:     "/healthz",
			HandlerFunc: Healthz,
		},
	}
}
