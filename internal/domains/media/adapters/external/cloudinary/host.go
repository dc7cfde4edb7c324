package cloudinary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/Apurer/go-gin-shop-api/internal/domains/media/domain"
	"github.com/Apurer/go-gin-shop-api/internal/domains/media/ports"
)

var _ ports.ImageHost = (*Host)(nil)

// Credentials configure the Cloudinary account. URL takes precedence when set.
type Credentials struct {
	URL       string
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Configured reports whether enough credentials are present.
func (c Credentials) Configured() bool {
	if strings.TrimSpace(c.URL) != "" {
		return true
	}
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

// Host uploads images to Cloudinary with resource_type=auto.
type Host struct {
	api    uploadAPI
	folder string
}

// NewHost builds a Cloudinary client from credentials.
func NewHost(creds Credentials) (*Host, error) {
	if !creds.Configured() {
		return nil, errors.New("cloudinary credentials are not configured")
	}
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	if url := strings.TrimSpace(creds.URL); url != "" {
		cld, err = cloudinary.NewFromURL(url)
	} else {
		cld, err = cloudinary.NewFromParams(creds.CloudName, creds.APIKey, creds.APISecret)
	}
	if err != nil {
		return nil, fmt.Errorf("build cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true
	return &Host{api: &cld.Upload, folder: creds.Folder}, nil
}

// Upload sends the in-memory file to Cloudinary.
func (h *Host) Upload(ctx context.Context, image domain.Image) (*domain.StoredImage, error) {
	if h == nil || h.api == nil {
		return nil, errors.New("cloudinary host not configured")
	}
	params := uploader.UploadParams{
		ResourceType: "auto",
		Folder:       h.folder,
	}
	resp, err := h.api.Upload(ctx, bytes.NewReader(image.Data), params)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("cloudinary returned no result")
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload rejected: %s", resp.Error.Message)
	}
	return &domain.StoredImage{
		PublicID:     resp.PublicID,
		URL:          resp.URL,
		SecureURL:    resp.SecureURL,
		Format:       resp.Format,
		ResourceType: resp.ResourceType,
		Bytes:        int64(resp.Bytes),
	}, nil
}
