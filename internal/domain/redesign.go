package domain

import "time"

// Density enumerates how much planting the redesign should add.
type Density string

const (
	DensityMinimal  Density = "minimal"
	DensityBalanced Density = "balanced"
	DensityLush     Density = "lush"
)

// Densities lists every supported density in display order.
var Densities = []Density{DensityMinimal, DensityBalanced, DensityLush}

const MaxStyles = 2

// Image is an in-memory image with its MIME type.
type Image struct {
	Data     []byte
	MIMEType string
}

// RedesignRequest is constructed per attempt from the user's selections.
type RedesignRequest struct {
	SourceImage            Image   `validate:"-"`
	Styles                 []Style `validate:"required,min=1,max=2,unique,dive,style"`
	AllowStructuralChanges bool
	ClimateZone            string  `validate:"max=80"`
	LockAspectRatio        bool
	Density                Density `validate:"required,oneof=minimal balanced lush"`
}

// Plant is a catalog entry for a plant used in a redesign.
type Plant struct {
	Name    string `json:"name"`
	Species string `json:"species"`
}

// Feature is a catalog entry for a non-plant landscape feature.
type Feature struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DesignCatalog lists the plants and features placed in a redesign.
type DesignCatalog struct {
	Plants   []Plant   `json:"plants"`
	Features []Feature `json:"features"`
}

// Normalized returns a copy whose lists are never nil.
func (c DesignCatalog) Normalized() DesignCatalog {
	if c.Plants == nil {
		c.Plants = []Plant{}
	}
	if c.Features == nil {
		c.Features = []Feature{}
	}
	return c
}

// EmptyCatalog is the fallback catalog used when model text can't be parsed.
func EmptyCatalog() DesignCatalog {
	return DesignCatalog{Plants: []Plant{}, Features: []Feature{}}
}

// GenerationResult is the output of one generation call.
type GenerationResult struct {
	Image   Image
	Catalog DesignCatalog
}

// ValidationResult holds the seven independent validator verdicts.
type ValidationResult struct {
	PropertyConsistency        bool     `json:"propertyConsistency"`
	StyleAccuracy              bool     `json:"styleAccuracy"`
	AspectRatioCompliance      bool     `json:"aspectRatioCompliance"`
	StructuralChangeCompliance bool     `json:"structuralChangeCompliance"`
	ClimateRespect             bool     `json:"climateRespect"`
	DensityMatch               bool     `json:"densityMatch"`
	Authenticity               bool     `json:"authenticity"`
	Reasons                    []string `json:"reasons"`
}

// OverallPass is the AND of all seven criteria.
func (v ValidationResult) OverallPass() bool {
	return v.PropertyConsistency &&
		v.StyleAccuracy &&
		v.AspectRatioCompliance &&
		v.StructuralChangeCompliance &&
		v.ClimateRespect &&
		v.DensityMatch &&
		v.Authenticity
}

// AllPass returns a passing result with no reasons.
func AllPass() ValidationResult {
	return ValidationResult{
		PropertyConsistency:        true,
		StyleAccuracy:              true,
		AspectRatioCompliance:      true,
		StructuralChangeCompliance: true,
		ClimateRespect:             true,
		DensityMatch:               true,
		Authenticity:               true,
		Reasons:                    []string{},
	}
}

// RedesignRecord is the persisted result of a successful redesign.
type RedesignRecord struct {
	ID            string        `json:"id"`
	AccountID     string        `json:"account_id"`
	OriginalURL   string        `json:"original_url"`
	RedesignedURL string        `json:"redesigned_url"`
	OriginalKey   string        `json:"-"`
	RedesignedKey string        `json:"-"`
	Catalog       DesignCatalog `json:"catalog"`
	Styles        []Style       `json:"styles"`
	ClimateZone   string        `json:"climate_zone"`
	Density       Density       `json:"density"`
	IsPinned      bool          `json:"is_pinned"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ProgressEvent is a user-visible status update of one redesign run.
type ProgressEvent struct {
	RequestID   string    `json:"request_id"`
	AccountID   string    `json:"-"`
	State       string    `json:"state"`
	Attempt     int       `json:"attempt"`
	MaxAttempts int       `json:"max_attempts"`
	Message     string    `json:"message"`
	At          time.Time `json:"at"`
}
