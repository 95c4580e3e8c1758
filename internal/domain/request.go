package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// OptionalFloat is a measurement that may not have been taken. The zero value
// is absent; zero is a valid present measurement.
type OptionalFloat struct {
	value   float64
	present bool
}

// Present returns a measured value.
func Present(v float64) OptionalFloat {
	return OptionalFloat{value: v, present: true}
}

// Absent returns an unmeasured value.
func Absent() OptionalFloat {
	return OptionalFloat{}
}

// Get returns the value and whether it is present.
func (o OptionalFloat) Get() (float64, bool) {
	return o.value, o.present
}

// IsPresent reports whether a value was measured.
func (o OptionalFloat) IsPresent() bool {
	return o.present
}

// String renders the value as form text; absent renders as "".
func (o OptionalFloat) String() string {
	if !o.present {
		return ""
	}
	return strconv.FormatFloat(o.value, 'f', -1, 64)
}

// MarshalJSON writes null for absent values.
func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON accepts null or a number.
func (o *OptionalFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Absent()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("optional measurement: %w", err)
	}
	*o = Present(v)
	return nil
}

// PredictionRequest is the snapshot body POSTed to the prediction service.
// It is built fresh per submission and shares no memory with the input model.
type PredictionRequest struct {
	Genomic          GenomicData          `json:"genomic"`
	Biomarkers       BiomarkerData        `json:"biomarkers"`
	Lifestyle        LifestyleData        `json:"lifestyle"`
	Pharmacogenomics PharmacogenomicsData `json:"pharmacogenomics"`
}

// GenomicData carries germline markers.
type GenomicData struct {
	PolygenicRiskScore float64        `json:"polygenic_risk_score"`
	CNVCount           int            `json:"cnv_count"`
	SNPs               map[string]int `json:"snps"`
	KeyGeneVariants    map[string]int `json:"key_gene_variants"`
}

// BiomarkerData carries clinical lab values and history lists.
type BiomarkerData struct {
	CholesterolTotal OptionalFloat `json:"cholesterol_total"`
	HDL              OptionalFloat `json:"hdl"`
	LDL              OptionalFloat `json:"ldl"`
	Triglycerides    OptionalFloat `json:"triglycerides"`
	GlucoseFasting   OptionalFloat `json:"glucose_fasting"`
	HbA1c            OptionalFloat `json:"hba1c"`
	SystolicBP       OptionalFloat `json:"systolic_bp"`
	DiastolicBP      OptionalFloat `json:"diastolic_bp"`
	FamilyHistory    []string      `json:"family_history"`
	Comorbidities    []string      `json:"comorbidities"`
}

// LifestyleData carries behavioural and environmental factors.
type LifestyleData struct {
	DietQuality                  int           `json:"diet_quality"`
	PhysicalActivityHoursPerWeek float64       `json:"physical_activity_hours_per_week"`
	SmokingStatus                SmokingStatus `json:"smoking_status"`
	AlcoholUnitsPerWeek          int           `json:"alcohol_units_per_week"`
	StressLevel                  int           `json:"stress_level"`
	SleepHours                   float64       `json:"sleep_hours"`
	PollutionExposureIndex       int           `json:"pollution_exposure_index"`
}

// PharmacogenomicsData carries drug metabolism markers.
type PharmacogenomicsData struct {
	CYP2D6Metabolizer  MetabolizerStatus `json:"cyp2d6_metabolizer"`
	CYP2C19Metabolizer MetabolizerStatus `json:"cyp2c19_metabolizer"`
	CYP3A4Activity     int               `json:"cyp3a4_activity"`
	ABCB1Variant       int               `json:"abcb1_variant"`
	ReceptorMutations  map[string]int    `json:"receptor_mutations"`
}

// Wire keys of the fixed genomic maps.
const (
	SNPKeyRs429358       = "rs429358"
	GeneKeyAPOEe4        = "APOE_e4"
	GeneKeyBRCA1         = "BRCA1"
	ReceptorKeyEGFRL858R = "EGFR_L858R"
)
