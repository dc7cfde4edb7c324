package ports

import (
	"context"

	"github.com/Apurer/go-gin-shop-api/internal/domains/media/domain"
)

// ImageHost stores images with an external asset service (outbound port).
type ImageHost interface {
	Upload(ctx context.Context, image domain.Image) (*domain.StoredImage, error)
}

// Service exposes the image upload use case (inbound port).
type Service interface {
	UploadImage(ctx context.Context, image domain.Image) (*domain.StoredImage, error)
}
