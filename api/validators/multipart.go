package validators

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	productImageField = "image"
	formOverhead      = 1 << 20
)

// ParseProductForm reads a multipart or urlencoded product form. The optional
// image file may be at most maxImageBytes.
func ParseProductForm(r *http.Request, maxImageBytes int64) (catalog.RawProductInput, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxImageBytes+formOverhead)

	var err error
	if isMultipart(r) {
		err = r.ParseMultipartForm(maxImageBytes + formOverhead)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return catalog.RawProductInput{}, pkgerrors.New(pkgerrors.CodeValidation, "request body too large").
				WithDetails(map[string]any{"max_image_bytes": maxImageBytes})
		}
		return catalog.RawProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form body")
	}

	raw := catalog.RawProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       r.FormValue("price"),
		Category:    r.FormValue("category"),
		Type:        r.FormValue("type"),
		Stock:       r.FormValue("stock"),
		ImageURL:    r.FormValue("image_url"),
	}

	if r.MultipartForm == nil {
		return raw, nil
	}
	file, header, err := r.FormFile(productImageField)
	if errors.Is(err, http.ErrMissingFile) {
		return raw, nil
	}
	if err != nil {
		return catalog.RawProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image upload")
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		return catalog.RawProductInput{}, pkgerrors.New(pkgerrors.CodeValidation, "image is too large").
			WithDetails(map[string]any{"max_bytes": maxImageBytes, "size_bytes": header.Size})
	}
	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return catalog.RawProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read image upload")
	}
	if int64(len(data)) > maxImageBytes {
		return catalog.RawProductInput{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("image exceeds %d bytes", maxImageBytes))
	}
	raw.Image = &catalog.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	return raw, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}
