package redesign

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"yardcraft/internal/domain"
)

const catalogContract = `{"plants":[{"name":"","species":""}],"features":[{"name":"","description":""}]}`

var climateTitle = cases.Title(language.English)

// NormalizeClimate trims and collapses whitespace and title-cases free text
// climate zones. Empty input stays empty.
func NormalizeClimate(raw string) string {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return climateTitle.String(strings.ToLower(strings.Join(fields, " ")))
}

// BuildPrompt composes the generation prompt. It is deterministic for equal
// inputs.
func BuildPrompt(styles []domain.Style, allowStructural bool, climateZone string, lockAspectRatio bool, density domain.Density) string {
	var b strings.Builder

	b.WriteString("Redesign the landscaping of the property in the attached photo.\n")
	b.WriteString("Style: ")
	b.WriteString(describeStyles(styles))
	b.WriteString(".\n\n")

	b.WriteString(structuralBlock(allowStructural))
	b.WriteString("\n\n")
	b.WriteString(objectBlock(allowStructural))
	b.WriteString("\n\n")
	b.WriteString(climateBlock(styles, climateZone))
	b.WriteString("\n\n")
	b.WriteString(densityBlock(density))
	b.WriteString("\n\n")
	b.WriteString(aspectBlock(lockAspectRatio))
	b.WriteString("\n\n")

	b.WriteString("Output format: return the redesigned image first. After the image, return exactly one JSON object and nothing else, matching this shape:\n")
	b.WriteString(catalogContract)
	b.WriteString("\nList every plant you added with its botanical species, and every hardscape or decorative feature with a one sentence description.")
	return b.String()
}

func describeStyles(styles []domain.Style) string {
	parts := make([]string, 0, len(styles))
	for _, id := range styles {
		info, ok := domain.LookupStyle(id)
		if !ok {
			parts = append(parts, string(id))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", info.Name, info.Description))
	}
	if len(parts) == 2 {
		return parts[0] + " blended with " + parts[1]
	}
	return strings.Join(parts, ", ")
}

func structuralBlock(allow bool) string {
	if allow {
		return "Structural changes: ALLOWED. You may add, move or remove hardscape such as patios, paths, walls, decking, steps and edging when it serves the design. Keep the house itself unchanged."
	}
	return "Structural changes: FORBIDDEN. Preserve every building, wall, fence, path, driveway, patio and all other hardscape exactly as photographed. Change only planting, soil cover and soft landscaping."
}

func objectBlock(allow bool) string {
	if allow {
		return "Existing objects: you may remove clutter, vehicles, bins, hoses, toys and other temporary objects."
	}
	return "Existing objects: keep every existing object in place, including vehicles, furniture and temporary items."
}

func climateBlock(styles []domain.Style, climateZone string) string {
	zone := NormalizeClimate(climateZone)
	if zone == "" {
		return "Climate: no zone was given. Choose plants that are contextually appropriate for the region the photo suggests."
	}
	for _, id := range styles {
		info, ok := domain.LookupStyle(id)
		if ok && info.ImpliedClimate != "" && strings.EqualFold(info.ImpliedClimate, zone) {
			return fmt.Sprintf("Climate: %s. The %s style already covers this climate; follow its plant palette.", zone, info.Name)
		}
	}
	return fmt.Sprintf("Climate: %s. Use only plants that thrive in a %s climate without special protection.", zone, strings.ToLower(zone))
}

func densityBlock(density domain.Density) string {
	switch density {
	case domain.DensityMinimal:
		return "Planting density: MINIMAL. Use few, carefully placed specimens with generous open ground, gravel or lawn between them."
	case domain.DensityLush:
		return "Planting density: LUSH. Layer groundcovers, shrubs and trees so that little bare ground remains visible."
	default:
		return "Planting density: BALANCED. Mix planted beds with open space in roughly equal measure."
	}
}

func aspectBlock(locked bool) string {
	if locked {
		return "Framing: match the input image dimensions and aspect ratio exactly, with the same camera position."
	}
	return "Framing: a free composition is allowed; you may crop or widen the view."
}

// BuildValidationRubric returns the checklist the validator grades the
// generated image against.
func BuildValidationRubric(req domain.RedesignRequest) string {
	var b strings.Builder
	b.WriteString("Compare the ORIGINAL photo (first image) with the REDESIGN (second image). Answer each criterion with true or false.\n")

	fmt.Fprintf(&b, "- propertyConsistency: the redesign shows the same property, house and viewpoint as the original.\n")
	fmt.Fprintf(&b, "- styleAccuracy: the landscaping clearly reads as %s.\n", describeStyles(req.Styles))
	if req.LockAspectRatio {
		b.WriteString("- aspectRatioCompliance: the redesign keeps the original framing and aspect ratio.\n")
	} else {
		b.WriteString("- aspectRatioCompliance: true unless the image is distorted or stretched.\n")
	}
	if req.AllowStructuralChanges {
		b.WriteString("- structuralChangeCompliance: true unless the house itself was altered.\n")
	} else {
		b.WriteString("- structuralChangeCompliance: buildings, paths, walls and all other hardscape are unchanged.\n")
	}
	if zone := NormalizeClimate(req.ClimateZone); zone != "" {
		fmt.Fprintf(&b, "- climateRespect: every visible plant is plausible in a %s climate.\n", strings.ToLower(zone))
	} else {
		b.WriteString("- climateRespect: the plants are plausible for the region the photo suggests.\n")
	}
	fmt.Fprintf(&b, "- densityMatch: the planting density is %s.\n", strings.ToUpper(string(req.Density)))
	b.WriteString("- authenticity: the redesign looks like a real photograph without obvious artifacts.\n")
	b.WriteString("Add one short entry to reasons for every criterion that is false.")
	return b.String()
}
