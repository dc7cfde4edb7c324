package memory

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-shop-api/internal/domains/media/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/media/ports"
)

var _ ports.ImageHost = (*Host)(nil)

// Host keeps uploads in memory for development and tests.
type Host struct {
	mu      sync.RWMutex
	baseURL string
	images  map[string]domain.Image
}

// NewHost constructs an empty host serving URLs under baseURL.
func NewHost(baseURL string) *Host {
	if baseURL == "" {
		baseURL = "http://localhost/media"
	}
	return &Host{baseURL: strings.TrimRight(baseURL, "/"), images: map[string]domain.Image{}}
}

// Upload stores a copy of the image.
func (h *Host) Upload(ctx context.Context, image domain.Image) (*domain.StoredImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resourceType, format := classify(detectContentType(image))
	publicID := uuid.NewString()
	if base := image.BaseName(); base != "" {
		publicID = base + "-" + publicID[:8]
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	stored := image
	stored.Data = append([]byte(nil), image.Data...)
	h.images[publicID] = stored

	url := fmt.Sprintf("%s/%s", h.baseURL, publicID)
	if format != "" {
		url += "." + format
	}
	return &domain.StoredImage{
		PublicID:     publicID,
		URL:          url,
		SecureURL:    strings.Replace(url, "http://", "https://", 1),
		Format:       format,
		ResourceType: resourceType,
		Bytes:        image.Size(),
	}, nil
}

// Get returns a stored upload.
func (h *Host) Get(publicID string) (domain.Image, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	image, ok := h.images[publicID]
	return image, ok
}

// detectContentType sniffs the payload when the client declared nothing specific.
func detectContentType(image domain.Image) string {
	declared := strings.TrimSpace(strings.SplitN(image.ContentType, ";", 2)[0])
	if declared == "" || strings.EqualFold(declared, "application/octet-stream") {
		return http.DetectContentType(image.Data)
	}
	return image.ContentType
}

func classify(contentType string) (resourceType, format string) {
	mainType, subType, _ := strings.Cut(strings.SplitN(contentType, ";", 2)[0], "/")
	switch mainType {
	case "image":
		return "image", subType
	case "video":
		return "video", subType
	default:
		return "raw", ""
	}
}
