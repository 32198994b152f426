package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"yardcraft/internal/domain"
	"yardcraft/internal/redesign"
)

const DefaultValidatorModel = "gemini-2.5-flash"

// SchemaMismatchReason is reported when the validator answer can't be
// decoded strictly.
const SchemaMismatchReason = "validator response did not match schema"

var criteria = []string{
	"propertyConsistency",
	"styleAccuracy",
	"aspectRatioCompliance",
	"structuralChangeCompliance",
	"climateRespect",
	"densityMatch",
	"authenticity",
}

func validationSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(criteria)+1)
	for _, name := range criteria {
		props[name] = &genai.Schema{Type: genai.TypeBoolean}
	}
	props["reasons"] = &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}
	required := append(append([]string{}, criteria...), "reasons")
	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       props,
		Required:         required,
		PropertyOrdering: required,
	}
}

// Validator grades generated images with a text model.
type Validator struct {
	models  contentGenerator
	model   string
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func NewValidator(models contentGenerator, model string, limiter *rate.Limiter, logger zerolog.Logger) *Validator {
	if model == "" {
		model = DefaultValidatorModel
	}
	if limiter == nil {
		limiter = NewLimiter(0)
	}
	return &Validator{models: models, model: model, limiter: limiter, logger: logger}
}

// Validate never returns an error. Provider failures fail open with an
// all-pass result; answers that don't match the schema fail validation.
func (v *Validator) Validate(ctx context.Context, original, generated domain.Image, req domain.RedesignRequest) (domain.ValidationResult, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return v.failOpen(err), nil
	}

	resp, err := v.models.GenerateContent(ctx, v.model,
		userContent(
			genai.NewPartFromText("ORIGINAL:"),
			genai.NewPartFromBytes(original.Data, original.MIMEType),
			genai.NewPartFromText("REDESIGN:"),
			genai.NewPartFromBytes(generated.Data, generated.MIMEType),
			genai.NewPartFromText(redesign.BuildValidationRubric(req)),
		),
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](0),
			ResponseMIMEType: "application/json",
			ResponseSchema:   validationSchema(),
		},
	)
	if err != nil {
		return v.failOpen(err), nil
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return v.failOpen(errors.New("no candidates returned")), nil
	}

	result, err := decodeValidation(responseText(resp))
	if err != nil {
		v.logger.Warn().Err(err).Msg("gemini: validator response rejected")
		return domain.ValidationResult{Reasons: []string{SchemaMismatchReason}}, nil
	}
	return result, nil
}

func (v *Validator) failOpen(err error) domain.ValidationResult {
	v.logger.Warn().
		Err(err).
		Str("kind", string(domain.KindValidatorUnavailable)).
		Str("model", v.model).
		Msg("gemini: validator unavailable, passing result")
	return domain.AllPass()
}

type validationPayload struct {
	PropertyConsistency        *bool     `json:"propertyConsistency"`
	StyleAccuracy              *bool     `json:"styleAccuracy"`
	AspectRatioCompliance      *bool     `json:"aspectRatioCompliance"`
	StructuralChangeCompliance *bool     `json:"structuralChangeCompliance"`
	ClimateRespect             *bool     `json:"climateRespect"`
	DensityMatch               *bool     `json:"densityMatch"`
	Authenticity               *bool     `json:"authenticity"`
	Reasons                    *[]string `json:"reasons"`
}

// decodeValidation accepts exactly one JSON object with all seven booleans
// and a reasons array, and nothing else.
func decodeValidation(raw string) (domain.ValidationResult, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var p validationPayload
	if err := dec.Decode(&p); err != nil {
		return domain.ValidationResult{}, fmt.Errorf("decode: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.ValidationResult{}, errors.New("trailing data after validation object")
	}

	fields := map[string]*bool{
		"propertyConsistency":        p.PropertyConsistency,
		"styleAccuracy":              p.StyleAccuracy,
		"aspectRatioCompliance":      p.AspectRatioCompliance,
		"structuralChangeCompliance": p.StructuralChangeCompliance,
		"climateRespect":             p.ClimateRespect,
		"densityMatch":               p.DensityMatch,
		"authenticity":               p.Authenticity,
	}
	for _, name := range criteria {
		if fields[name] == nil {
			return domain.ValidationResult{}, fmt.Errorf("missing field %s", name)
		}
	}
	if p.Reasons == nil {
		return domain.ValidationResult{}, errors.New("missing field reasons")
	}

	reasons := *p.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return domain.ValidationResult{
		PropertyConsistency:        *p.PropertyConsistency,
		StyleAccuracy:              *p.StyleAccuracy,
		AspectRatioCompliance:      *p.AspectRatioCompliance,
		StructuralChangeCompliance: *p.StructuralChangeCompliance,
		ClimateRespect:             *p.ClimateRespect,
		DensityMatch:               *p.DensityMatch,
		Authenticity:               *p.Authenticity,
		Reasons:                    reasons,
	}, nil
}

var _ redesign.Validator = (*Validator)(nil)
