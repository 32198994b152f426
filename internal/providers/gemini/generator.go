package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"yardcraft/internal/domain"
	"yardcraft/internal/redesign"
)

const DefaultImageModel = "gemini-2.5-flash-image"

// Generator produces redesigned images with an image-capable Gemini model.
type Generator struct {
	models  contentGenerator
	model   string
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewGenerator builds a Generator. limiter may be shared with a Validator.
func NewGenerator(models contentGenerator, model string, limiter *rate.Limiter, logger zerolog.Logger) *Generator {
	if model == "" {
		model = DefaultImageModel
	}
	if limiter == nil {
		limiter = NewLimiter(0)
	}
	return &Generator{models: models, model: model, limiter: limiter, logger: logger}
}

// Generate sends the source photo and prompt and returns the first inline
// image with the catalog parsed from the text parts.
func (g *Generator) Generate(ctx context.Context, source domain.Image, prompt string) (*domain.GenerationResult, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("gemini: rate limit wait: %w", err)
	}

	resp, err := g.models.GenerateContent(ctx, g.model,
		userContent(
			genai.NewPartFromBytes(source.Data, source.MIMEType),
			genai.NewPartFromText(prompt),
		),
		&genai.GenerateContentConfig{
			ResponseModalities: []string{string(genai.ModalityText), string(genai.ModalityImage)},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		reason := string(fb.BlockReason)
		if msg := strings.TrimSpace(fb.BlockReasonMessage); msg != "" {
			reason += ": " + msg
		}
		return nil, domain.NewError(domain.KindGenerationBlocked, domain.Sanitize(reason), nil)
	}
	if len(resp.Candidates) == 0 {
		return nil, domain.NewError(domain.KindGenerationEmpty, "no candidates returned", nil)
	}

	candidate := resp.Candidates[0]
	var image *domain.Image
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			if !strings.HasPrefix(part.InlineData.MIMEType, "image/") {
				continue
			}
			image = &domain.Image{Data: part.InlineData.Data, MIMEType: part.InlineData.MIMEType}
			break
		}
	}
	if image == nil {
		switch candidate.FinishReason {
		case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent:
			return nil, domain.NewError(domain.KindGenerationBlocked, string(candidate.FinishReason), nil)
		}
		return nil, domain.NewError(domain.KindGenerationEmpty, "response contained no image", nil)
	}

	text := responseText(resp)
	catalog, ok := redesign.ParseDesignCatalog(text)
	if !ok {
		g.logger.Debug().Int("text_len", len(text)).Msg("gemini: catalog not parseable, using empty catalog")
		empty := domain.EmptyCatalog()
		catalog = &empty
	}

	return &domain.GenerationResult{Image: *image, Catalog: *catalog}, nil
}

var _ redesign.Generator = (*Generator)(nil)
