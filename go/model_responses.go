package shopserver

import (
	orderhttpmapper "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/http/mapper"
)

// CreateOrderResponse acknowledges a placed order.
type CreateOrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}

type OrderListResponse struct {
	Success bool                    `json:"success"`
	Data    []orderhttpmapper.Order `json:"data"`
}

type OrderResponse struct {
	Success bool                  `json:"success"`
	Data    orderhttpmapper.Order `json:"data"`
}

// UploadedImage describes an asset stored by the image host.
type UploadedImage struct {
	PublicID     string `json:"publicId"`
	URL          string `json:"url"`
	SecureURL    string `json:"secureUrl"`
	Format       string `json:"format"`
	ResourceType string `json:"resourceType"`
	Bytes        int64  `json:"bytes"`
}

type ImageUploadResponse struct {
	Success bool          `json:"success"`
	Result  UploadedImage `json:"result"`
}
