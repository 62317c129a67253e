package request

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/Pesokrava/park_reviewer/internal/domain"
)

const multipartMemory = 32 << 20

// ImagePayload is an image sent inline in a JSON body, base64-encoded
type ImagePayload struct {
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
}

// DecodeImages turns inline JSON images into uploads
func DecodeImages(items []ImagePayload) ([]domain.ImageUpload, error) {
	uploads := make([]domain.ImageUpload, 0, len(items))
	for i, item := range items {
		data, err := base64.StdEncoding.DecodeString(item.Data)
		if err != nil {
			return nil, domain.NewImageError(domain.ErrInvalidInput, fmt.Sprintf("image %d is not valid base64", i+1))
		}
		if len(data) > domain.MaxImageSize {
			return nil, domain.NewImageError(domain.ErrImageTooLarge, fmt.Sprintf("image %d exceeds 5 MiB", i+1))
		}
		uploads = append(uploads, domain.ImageUpload{
			Data:        data,
			ContentType: item.ContentType,
			Size:        int64(len(data)),
		})
	}
	return uploads, nil
}

// ParseMultipart parses a multipart/form-data body of at most MaxReviewBodySize bytes
func ParseMultipart(r *http.Request) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxReviewBodySize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}
	return r.MultipartForm, nil
}

// FormImages reads the files of a multipart field into uploads.
// Files over the size limit are rejected from their header without being read.
func FormImages(form *multipart.Form, field string) ([]domain.ImageUpload, error) {
	files := form.File[field]
	uploads := make([]domain.ImageUpload, 0, len(files))

	for i, fh := range files {
		if fh.Size > domain.MaxImageSize {
			return nil, domain.NewImageError(domain.ErrImageTooLarge, fmt.Sprintf("image %d exceeds 5 MiB", i+1))
		}

		data, err := readFile(fh)
		if err != nil {
			return nil, err
		}
		if len(data) > domain.MaxImageSize {
			return nil, domain.NewImageError(domain.ErrImageTooLarge, fmt.Sprintf("image %d exceeds 5 MiB", i+1))
		}

		uploads = append(uploads, domain.ImageUpload{
			Data:        data,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        int64(len(data)),
		})
	}
	return uploads, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, domain.MaxImageSize+1))
}

// FormValue returns the first value of a multipart field and whether it was present
func FormValue(form *multipart.Form, field string) (string, bool) {
	values, ok := form.Value[field]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
