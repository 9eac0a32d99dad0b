package catalog

import (
	"fmt"
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// draftFromInput validates input and derives the stored fields. The image
// reference is left for the caller to resolve.
func draftFromInput(input ProductInput) (Draft, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.ImageURL = strings.TrimSpace(input.ImageURL)

	details := map[string]string{}
	if err := validate.Struct(input); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return Draft{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
		}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
	}
	if _, seen := details["category"]; !seen && !input.Category.IsValid() {
		details["category"] = "is not a known category"
	}
	if _, seen := details["type"]; !seen && !input.Type.IsValid() {
		details["type"] = "is not a known product type"
	}
	if input.Price != nil && input.Price.IsNegative() {
		details["price"] = "must not be negative"
	}
	if len(details) > 0 {
		return Draft{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}

	return Draft{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price.Round(2),
		Category:    input.Category,
		Type:        input.Type,
		Sizes:       SizesForType(input.Type),
		Stock:       *input.Stock,
		ImageURL:    input.ImageURL,
	}, nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "url":
		return "must be a valid URL"
	}
	return "is invalid"
}
