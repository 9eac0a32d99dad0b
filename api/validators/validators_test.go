package validators

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestDecodeJSONBodyValidates(t *testing.T) {
	type body struct {
		Email string `json:"email" validate:"required,email"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope"}`))
	var dest body
	err := DecodeJSONBody(req, &dest)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["email"] != "must be a valid email" {
		t.Fatalf("expected json field names in details, got %#v", typed.Details())
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","extra":1}`))
	if err := DecodeJSONBody(req, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unknown fields must be rejected, got %v", err)
	}
}

func TestDecodeJSONBodyRejectsMalformedEnvelopes(t *testing.T) {
	type body struct {
		Quantity *int `json:"quantity" validate:"required,min=0"`
	}
	cases := map[string]struct {
		payload string
		message string
	}{
		"empty":    {payload: "", message: "request body is empty"},
		"trailing": {payload: `{"quantity":1}{"quantity":2}`, message: "request body must hold a single JSON object"},
		"too big":  {payload: `{"quantity":1,"pad":"` + strings.Repeat("x", maxJSONBody) + `"}`, message: "request body too large"},
		"missing":  {payload: `{}`, message: "validation failed"},
		"negative": {payload: `{"quantity":-1}`, message: "validation failed"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.payload))
			var dest body
			typed := pkgerrors.As(DecodeJSONBody(req, &dest))
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", typed)
			}
			if typed.Message() != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, typed.Message())
			}
		})
	}
}

func TestParseCategoryAndSort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?category=shirts&sort=price-low", nil)
	category, err := ParseCategory(req)
	if err != nil || category != enums.ProductCategoryShirts {
		t.Fatalf("unexpected category %q %v", category, err)
	}
	sort, err := ParseSort(req)
	if err != nil || sort != enums.SortOptionPriceLow {
		t.Fatalf("unexpected sort %q %v", sort, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/?category=all", nil)
	if category, err := ParseCategory(req); err != nil || category != "" {
		t.Fatalf("all means no filter, got %q %v", category, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/?category=hats&sort=random", nil)
	if _, err := ParseCategory(req); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ParseSort(req); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]bool{
		"Bearer abc":  true,
		"bearer  abc": true,
		"Bearer ":     false,
		"Basic abc":   false,
		"":            false,
	}
	for header, ok := range cases {
		token, err := BearerToken(header)
		if ok && (err != nil || token != "abc") {
			t.Fatalf("%q: expected abc, got %q %v", header, token, err)
		}
		if !ok && !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("%q: expected unauthorized, got %v", header, err)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  camiseta  ", 0); got != "camiseta" {
		t.Fatalf("unexpected %q", got)
	}
	if got := SanitizeString("ação", 2); got != "aç" {
		t.Fatalf("expected rune-safe truncation, got %q", got)
	}
}

func multipartRequest(t *testing.T, fields map[string]string, fileName string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile("image", fileName)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		if _, err := fw.Write(file); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestParseProductFormMultipart(t *testing.T) {
	req := multipartRequest(t, map[string]string{
		"name":     "Boné",
		"price":    "59,90",
		"category": "accessories",
		"type":     "accessory",
		"stock":    "7",
	}, "bone.png", []byte("\x89PNG\r\n\x1a\n"))

	raw, err := ParseProductForm(req, 1024)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if raw.Name != "Boné" || raw.Price != "59,90" || raw.Stock != "7" {
		t.Fatalf("unexpected fields %+v", raw)
	}
	if raw.Image == nil || raw.Image.Filename != "bone.png" || len(raw.Image.Data) != 8 {
		t.Fatalf("expected image upload, got %+v", raw.Image)
	}
}

func TestParseProductFormWithoutImage(t *testing.T) {
	req := multipartRequest(t, map[string]string{"name": "Boné"}, "", nil)
	raw, err := ParseProductForm(req, 1024)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if raw.Image != nil {
		t.Fatalf("expected no image")
	}

	form := url.Values{"name": {"Boné"}, "image_url": {"https://example.com/a.png"}}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	raw, err = ParseProductForm(req, 1024)
	if err != nil {
		t.Fatalf("parse urlencoded: %v", err)
	}
	if raw.ImageURL != "https://example.com/a.png" {
		t.Fatalf("unexpected image url %q", raw.ImageURL)
	}
}

func TestParseProductFormRejectsOversizedImage(t *testing.T) {
	req := multipartRequest(t, map[string]string{"name": "Boné"}, "big.png", bytes.Repeat([]byte{1}, 2048))
	if _, err := ParseProductForm(req, 1024); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
