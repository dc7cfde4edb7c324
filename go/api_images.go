package shopserver

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	mediadomain "github.com/Apurer/go-gin-shop-api/internal/domains/media/domain"
	mediaports "github.com/Apurer/go-gin-shop-api/internal/domains/media/ports"
	apierrors "github.com/Apurer/go-gin-shop-api/internal/shared/errors"
)

// ImageFormField is the multipart field carrying the upload.
const ImageFormField = "my_file"

// ImageAPI forwards multipart uploads to the media service.
type ImageAPI struct {
	service   mediaports.Service
	maxBytes  int64
	responder *apierrors.Responder
}

// NewImageAPI creates an ImageAPI. maxBytes caps the request body; zero uses the media default.
func NewImageAPI(service mediaports.Service, maxBytes int64, logger *slog.Logger) ImageAPI {
	if maxBytes <= 0 {
		maxBytes = mediadomain.DefaultMaxUploadBytes
	}
	return ImageAPI{service: service, maxBytes: maxBytes, responder: apierrors.NewResponder(logger, mediaErrorMapper)}
}

// Post /images/upload
// Upload an image to the image host
func (api *ImageAPI) UploadImage(c *gin.Context) {
	// Leave room for multipart framing around the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, api.maxBytes+64<<10)
	header, err := c.FormFile(ImageFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.responder.BadRequest(c, "File exceeds the upload limit")
			return
		}
		api.responder.BadRequest(c, "No file uploaded in field "+ImageFormField)
		return
	}
	if header.Size > api.maxBytes {
		api.responder.BadRequest(c, "File exceeds the upload limit")
		return
	}
	file, err := header.Open()
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}

	stored, err := api.service.UploadImage(c.Request.Context(), mediadomain.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		api.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ImageUploadResponse{
		Success: true,
		Result: UploadedImage{
			PublicID:     stored.PublicID,
			URL:          stored.URL,
			SecureURL:    stored.SecureURL,
			Format:       stored.Format,
			ResourceType: stored.ResourceType,
			Bytes:        stored.Bytes,
		},
	})
}
