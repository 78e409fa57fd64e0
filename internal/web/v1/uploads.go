package v1

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pkgzerolog "github.com/duynhne/marketplace/pkg/logger/zerolog"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var errUnsupportedType = errors.New("unsupported image type")

// Uploader stores product images on local disk.
type Uploader struct {
	Dir       string
	PublicURL string
	MaxBytes  int64
}

// UploadResponse is the body of a successful upload.
type UploadResponse struct {
	URL string `json:"url"`
}

// Save sniffs the image type, writes the file under a random name and
// returns the public URL it will be served at.
func (u *Uploader) Save(r io.Reader) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	ext, ok := allowedImageTypes[http.DetectContentType(head)]
	if !ok {
		return "", errUnsupportedType
	}

	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	f, err := os.OpenFile(filepath.Join(u.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	_, err = f.Write(head)
	if err == nil {
		_, err = io.Copy(f, r)
	}
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close upload: %w", err)
	}

	return path.Join("/", strings.Trim(u.PublicURL, "/"), name), nil
}

// Upload handles POST /uploads with a multipart "file" field.
func (h *Handler) Upload(c *gin.Context) {
	span := startHTTPSpan(c)
	defer span.End()

	ctx := c.Request.Context()
	logger := pkgzerolog.FromContext(ctx)

	if h.uploads.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploads.MaxBytes)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortJSON(c, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		abortJSON(c, http.StatusBadRequest, "Multipart field 'file' is required")
		return
	}

	src, err := fh.Open()
	if err != nil {
		abortJSON(c, http.StatusBadRequest, "Cannot read uploaded file")
		return
	}
	defer src.Close()

	url, err := h.uploads.Save(src)
	if err != nil {
		if errors.Is(err, errUnsupportedType) {
			abortJSON(c, http.StatusUnsupportedMediaType, "Only JPEG, PNG, GIF and WebP images are accepted")
			return
		}
		span.RecordError(err)
		logger.Error().Err(err).Msg("Upload failed")
		abortJSON(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info().Str("url", url).Int64("size", fh.Size).Msg("Image uploaded")
	c.JSON(http.StatusCreated, UploadResponse{URL: url})
}
