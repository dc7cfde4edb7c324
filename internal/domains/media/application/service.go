package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-shop-api/internal/domains/media/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/media/ports"
)

var (
	// ErrInvalidInput signals an unusable upload.
	ErrInvalidInput = errors.New("invalid image upload")
	// ErrHostFailure wraps failures of the image host.
	ErrHostFailure = errors.New("image host failure")
)

// Service validates uploads and forwards them to the image host.
type Service struct {
	host     ports.ImageHost
	maxBytes int64
}

// Option configures the service.
type Option func(*Service)

// WithMaxBytes sets the upload size limit.
func WithMaxBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// NewService wires the media service.
func NewService(host ports.ImageHost, opts ...Option) *Service {
	s := &Service{host: host, maxBytes: domain.DefaultMaxUploadBytes}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// MaxBytes reports the configured limit.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// UploadImage validates the image and stores it with the host.
func (s *Service) UploadImage(ctx context.Context, image domain.Image) (*domain.StoredImage, error) {
	if err := image.Validate(s.maxBytes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if s.host == nil {
		return nil, fmt.Errorf("%w: no image host configured", ErrHostFailure)
	}
	stored, err := s.host.Upload(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHostFailure, err)
	}
	return stored, nil
}

var _ ports.Service = (*Service)(nil)
