// Package domain contains the core entities of the genome360 risk client:
// the field registry describing every input, the closed enumerations used by
// lifestyle and pharmacogenomic fields, the prediction request snapshot sent
// to the remote service and the result slot rendered back to the user.
package domain

import "fmt"

// Domain tags the clinical area a field belongs to.
type Domain string

const (
	DomainGenomic         Domain = "genomic"
	DomainBiomarker       Domain = "biomarker"
	DomainLifestyle       Domain = "lifestyle"
	DomainPharmacogenomic Domain = "pharmacogenomic"
)

// Domains lists every domain in display order.
var Domains = []Domain{DomainGenomic, DomainBiomarker, DomainLifestyle, DomainPharmacogenomic}

// Title returns a human readable section heading.
func (d Domain) Title() string {
	switch d {
	case DomainGenomic:
		return "Genomic Data"
	case DomainBiomarker:
		return "Clinical / Biomarkers"
	case DomainLifestyle:
		return "Lifestyle & Environment"
	case DomainPharmacogenomic:
		return "Pharmacogenomics"
	default:
		return string(d)
	}
}

// SmokingStatus is the closed set of smoking histories accepted by the predictor.
type SmokingStatus string

const (
	SmokingNever   SmokingStatus = "never"
	SmokingFormer  SmokingStatus = "former"
	SmokingCurrent SmokingStatus = "current"
)

// SmokingStatuses lists the valid smoking tokens in presentation order.
var SmokingStatuses = []SmokingStatus{SmokingNever, SmokingFormer, SmokingCurrent}

// ParseSmokingStatus returns the status for token or a ValidationError when
// token is not one of never, former or current.
func ParseSmokingStatus(token string) (SmokingStatus, error) {
	for _, s := range SmokingStatuses {
		if string(s) == token {
			return s, nil
		}
	}
	return "", NewValidationError(string(FieldSmokingStatus),
		fmt.Sprintf("must be one of %v", SmokingStatuses), token)
}

// MetabolizerStatus is the CPIC-style drug metabolism phenotype.
type MetabolizerStatus string

const (
	MetabolizerPoor         MetabolizerStatus = "poor"
	MetabolizerIntermediate MetabolizerStatus = "intermediate"
	MetabolizerNormal       MetabolizerStatus = "normal"
	MetabolizerUltrarapid   MetabolizerStatus = "ultrarapid"
)

// MetabolizerStatuses lists the valid metabolizer tokens in presentation order.
var MetabolizerStatuses = []MetabolizerStatus{
	MetabolizerPoor,
	MetabolizerIntermediate,
	MetabolizerNormal,
	MetabolizerUltrarapid,
}

// ParseMetabolizerStatus validates token for the metabolizer field named field.
func ParseMetabolizerStatus(field FieldName, token string) (MetabolizerStatus, error) {
	for _, s := range MetabolizerStatuses {
		if string(s) == token {
			return s, nil
		}
	}
	return "", NewValidationError(string(field),
		fmt.Sprintf("must be one of %v", MetabolizerStatuses), token)
}
