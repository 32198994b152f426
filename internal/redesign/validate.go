package redesign

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"yardcraft/internal/domain"
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// RequestValidator checks user selections before any model call is made.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator registers the style catalog rule.
func NewRequestValidator() (*RequestValidator, error) {
	v := validator.New()
	if err := v.RegisterValidation("style", styleValidation); err != nil {
		return nil, fmt.Errorf("register style validation: %w", err)
	}
	return &RequestValidator{validate: v}, nil
}

func styleValidation(fl validator.FieldLevel) bool {
	return domain.IsKnownStyle(domain.Style(fl.Field().String()))
}

// Normalize lowercases style ids, normalizes the climate zone and sniffs
// the image MIME type when the client didn't send one.
func Normalize(req domain.RedesignRequest) domain.RedesignRequest {
	styles := make([]domain.Style, 0, len(req.Styles))
	for _, s := range req.Styles {
		if id := strings.ToLower(strings.TrimSpace(string(s))); id != "" {
			styles = append(styles, domain.Style(id))
		}
	}
	req.Styles = styles
	req.ClimateZone = NormalizeClimate(req.ClimateZone)
	req.Density = domain.Density(strings.ToLower(strings.TrimSpace(string(req.Density))))
	if req.Density == "" {
		req.Density = domain.DensityBalanced
	}
	mime := strings.ToLower(strings.TrimSpace(req.SourceImage.MIMEType))
	if mime == "" || mime == "application/octet-stream" {
		if len(req.SourceImage.Data) > 0 {
			mime = http.DetectContentType(req.SourceImage.Data)
		}
	}
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	req.SourceImage.MIMEType = mime
	return req
}

// Validate returns a KindInvalid error describing the first bad field.
func (rv *RequestValidator) Validate(req domain.RedesignRequest) error {
	if len(req.SourceImage.Data) == 0 {
		return domain.NewError(domain.KindInvalid, "a property photo is required", nil)
	}
	if !allowedImageTypes[req.SourceImage.MIMEType] {
		return domain.NewError(domain.KindInvalid, "the photo must be a PNG, JPEG or WebP image", nil)
	}
	if err := rv.validate.Struct(req); err != nil {
		return domain.NewError(domain.KindInvalid, describeValidation(err), err)
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid redesign request"
	}
	fe := verrs[0]
	switch fe.StructField() {
	case "Styles":
		switch fe.Tag() {
		case "required", "min":
			return "select at least one style"
		case "max":
			return fmt.Sprintf("select at most %d styles", domain.MaxStyles)
		case "unique":
			return "each style can only be selected once"
		}
	case "Density":
		return "density must be one of minimal, balanced or lush"
	case "ClimateZone":
		return "climate zone is too long"
	}
	if strings.HasPrefix(fe.Namespace(), "RedesignRequest.Styles[") && fe.Tag() == "style" {
		return fmt.Sprintf("unknown style %q", fe.Value())
	}
	return "invalid redesign request"
}
